package handler

import (
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/cardbook/crm-frontend/internal/backend"
    "github.com/cardbook/crm-frontend/internal/config"
    "github.com/cardbook/crm-frontend/internal/middleware"
    "github.com/cardbook/crm-frontend/internal/store"
    "github.com/cardbook/crm-frontend/internal/verification"
)

// newAuthApp wires the auth routes the way main does, against the given
// backend, so tests drive real requests through the session middleware.
func newAuthApp(backendURL string) *echo.Echo {
    cfg := config.Config{
        CookieName:     "crm_session",
        SessionWindow:  15 * time.Minute,
        MaxOTPAttempts: 5,
    }
    api := backend.NewClient(backendURL, time.Second)
    h := NewAuthHandler(cfg, api, verification.NewAttempts())

    e := echo.New()
    e.Use(middleware.BrowserSession(store.NewMemory(), cfg.CookieName, false))
    e.POST("/api/auth/signup", h.Signup)
    e.POST("/api/auth/login", h.Login)
    e.POST("/api/auth/verify-otp", h.VerifyOTP)
    return e
}

func postJSON(e *echo.Echo, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
    req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    for _, ck := range cookies {
        req.AddCookie(ck)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
    t.Helper()
    var out map[string]any
    if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
        t.Fatalf("decode response %q: %v", rec.Body.String(), err)
    }
    return out
}

func TestVerifyAfterLoginRoutesByServerUserType(t *testing.T) {
    // An unverified organization owner tries to log in.  The reopened
    // handshake cannot know the account kind; the verify response can,
    // and must win the redirect.
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        switch r.URL.Path {
        case "/auth/login":
            http.Error(w, `{"message":"please verify your email","code":"EMAIL_NOT_VERIFIED"}`, http.StatusForbidden)
        case "/auth/resend-otp":
            _ = json.NewEncoder(w).Encode(map[string]any{"success": true})
        case "/auth/verify-email":
            _ = json.NewEncoder(w).Encode(map[string]any{
                "token": "tok-1",
                "user":  map[string]any{"id": "u1", "email": "owner@acme.com", "userType": "organization"},
            })
        default:
            http.NotFound(w, r)
        }
    }))
    defer srv.Close()
    e := newAuthApp(srv.URL)

    rec := postJSON(e, "/api/auth/login", `{"email":"owner@acme.com","password":"secret123"}`, nil)
    if rec.Code != http.StatusForbidden {
        t.Fatalf("login status = %d, want 403", rec.Code)
    }
    if body := decodeBody(t, rec); body["redirect"] != "/verify-otp" {
        t.Fatalf("login redirect = %v", body["redirect"])
    }
    cookies := rec.Result().Cookies()

    rec = postJSON(e, "/api/auth/verify-otp", `{"otp":"123456"}`, cookies)
    if rec.Code != http.StatusOK {
        t.Fatalf("verify status = %d (body %s)", rec.Code, rec.Body.String())
    }
    if body := decodeBody(t, rec); body["redirect"] != "/organization" {
        t.Fatalf("verify redirect = %v, want /organization", body["redirect"])
    }
}

func TestBackendFailureDoesNotSpendVerifyAttempts(t *testing.T) {
    verifyCalls := 0
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        switch r.URL.Path {
        case "/auth/register":
            w.WriteHeader(http.StatusCreated)
            _ = json.NewEncoder(w).Encode(map[string]any{"message": "registered"})
        case "/auth/verify-email":
            verifyCalls++
            if verifyCalls == 1 {
                http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
                return
            }
            http.Error(w, `{"error":"invalid otp"}`, http.StatusUnauthorized)
        default:
            http.NotFound(w, r)
        }
    }))
    defer srv.Close()
    e := newAuthApp(srv.URL)

    rec := postJSON(e, "/api/auth/signup",
        `{"email":"a@b.com","password":"secret123","firstName":"Ada"}`, nil)
    if rec.Code != http.StatusCreated {
        t.Fatalf("signup status = %d (body %s)", rec.Code, rec.Body.String())
    }
    cookies := rec.Result().Cookies()

    // First submission dies server-side.  The failure passes through and
    // no attempt is spent.
    rec = postJSON(e, "/api/auth/verify-otp", `{"otp":"111111"}`, cookies)
    if rec.Code != http.StatusInternalServerError {
        t.Fatalf("status after backend failure = %d, want 500", rec.Code)
    }
    if body := decodeBody(t, rec); body["attemptsRemaining"] != nil {
        t.Fatalf("backend failure charged the attempt counter: %v", body)
    }

    // The next submission is an actual wrong code, and it is the first
    // one to count: four of five attempts left.
    rec = postJSON(e, "/api/auth/verify-otp", `{"otp":"222222"}`, cookies)
    if rec.Code != http.StatusUnauthorized {
        t.Fatalf("status on wrong code = %d, want 401", rec.Code)
    }
    body := decodeBody(t, rec)
    if got, ok := body["attemptsRemaining"].(float64); !ok || got != 4 {
        t.Fatalf("attemptsRemaining = %v, want 4", body["attemptsRemaining"])
    }
}
