package middleware // middleware provides shared request processing for handlers

import (
    "crypto/rand" // secure random generation for session identifiers
    "encoding/hex"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/cardbook/crm-frontend/internal/store"
)

// scopeKey is the echo context key the per-request store scope lives under.
const scopeKey = "session_scope"

// BrowserSession returns middleware that gives every browser a stable
// random session ID via an HttpOnly cookie and binds the request to that
// session's store scope.  The ID is opaque: it carries no claims, it is
// only a namespace for the session store.
func BrowserSession(kv store.KV, cookieName string, secure bool) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            var sid string
            if ck, err := c.Cookie(cookieName); err == nil && validSessionID(ck.Value) {
                sid = ck.Value
            } else {
                id, err := newSessionID()
                if err != nil {
                    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session init failed"})
                }
                sid = id
                c.SetCookie(&http.Cookie{
                    Name:     cookieName,
                    Value:    sid,
                    Path:     "/",
                    HttpOnly: true,
                    Secure:   secure,
                    SameSite: http.SameSiteLaxMode,
                })
            }
            c.Set(scopeKey, store.NewScope(kv, sid))
            return next(c)
        }
    }
}

// Scope returns the store scope bound to this request.  Panics if the
// BrowserSession middleware is not installed; that is a wiring bug, not a
// runtime condition.
func Scope(c echo.Context) *store.Scope {
    return c.Get(scopeKey).(*store.Scope)
}

// newSessionID returns 32 random bytes hex encoded (64 characters).
func newSessionID() (string, error) {
    buf := make([]byte, 32)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}

// validSessionID rejects cookie values that cannot have come from
// newSessionID, so a tampered cookie cannot inject arbitrary store keys.
func validSessionID(v string) bool {
    if len(v) != 64 {
        return false
    }
    _, err := hex.DecodeString(v)
    return err == nil
}
