package session

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/cardbook/crm-frontend/internal/backend"
    "github.com/cardbook/crm-frontend/internal/model"
    "github.com/cardbook/crm-frontend/internal/store"
)

func newController(api *backend.Client) (*Controller, *store.Scope) {
    scope := store.NewScope(store.NewMemory(), "sid")
    return New(scope, api), scope
}

func TestLoginLogoutRoundTrip(t *testing.T) {
    ctx := context.Background()
    ctrl, _ := newController(nil)

    user := model.UserSnapshot{ID: "u1", Email: "a@b.com"}
    if err := ctrl.Login(ctx, "tok", user); err != nil {
        t.Fatalf("Login: %v", err)
    }
    rec, err := ctrl.Current(ctx)
    if err != nil {
        t.Fatalf("Current: %v", err)
    }
    if rec.Token != "tok" || rec.User == nil || rec.User.ID != "u1" {
        t.Fatalf("unexpected record: %+v", rec)
    }
    if !ctrl.IsAuthenticated(ctx) {
        t.Fatal("expected authenticated")
    }

    if err := ctrl.Logout(ctx); err != nil {
        t.Fatalf("Logout: %v", err)
    }
    rec, err = ctrl.Current(ctx)
    if err != nil {
        t.Fatalf("Current after logout: %v", err)
    }
    if rec.Authenticated() || rec.User != nil {
        t.Fatalf("expected empty record, got %+v", rec)
    }
}

func TestSubscribersObserveNewStateDuringDelivery(t *testing.T) {
    ctx := context.Background()
    ctrl, scope := newController(nil)

    // The listener re-reads the store the way a navbar would; it must see
    // the state the mutation just wrote, both on login and on logout.
    var observed []bool
    unsubscribe := ctrl.Subscribe(func(ev Event) {
        rec, err := scope.Session(ctx)
        if err != nil {
            t.Errorf("Session inside listener: %v", err)
        }
        if rec.Authenticated() != ev.Authenticated {
            t.Errorf("store says %t, event says %t", rec.Authenticated(), ev.Authenticated)
        }
        observed = append(observed, ev.Authenticated)
    })
    defer unsubscribe()

    if err := ctrl.Login(ctx, "tok", model.UserSnapshot{ID: "u1"}); err != nil {
        t.Fatalf("Login: %v", err)
    }
    if err := ctrl.Logout(ctx); err != nil {
        t.Fatalf("Logout: %v", err)
    }
    if len(observed) != 2 || !observed[0] || observed[1] {
        t.Fatalf("observed = %v, want [true false]", observed)
    }
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
    ctx := context.Background()
    ctrl, _ := newController(nil)

    calls := 0
    unsubscribe := ctrl.Subscribe(func(Event) { calls++ })
    if err := ctrl.Login(ctx, "tok", model.UserSnapshot{}); err != nil {
        t.Fatalf("Login: %v", err)
    }
    unsubscribe()
    unsubscribe() // safe to call twice
    if err := ctrl.Logout(ctx); err != nil {
        t.Fatalf("Logout: %v", err)
    }
    if calls != 1 {
        t.Fatalf("calls = %d, want 1", calls)
    }
}

func TestRefreshRewritesCache(t *testing.T) {
    ctx := context.Background()
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if r.URL.Path != "/profile" || r.Header.Get("Authorization") != "Bearer tok" {
            w.WriteHeader(http.StatusUnauthorized)
            return
        }
        _ = json.NewEncoder(w).Encode(map[string]any{
            "success": true,
            "data":    model.UserSnapshot{ID: "u1", Email: "a@b.com", UserType: model.UserTypeOrganization},
        })
    }))
    defer srv.Close()

    ctrl, _ := newController(backend.NewClient(srv.URL, time.Second))
    stale := model.UserSnapshot{ID: "u1", Email: "a@b.com", UserType: model.UserTypeIndividual}
    if err := ctrl.Login(ctx, "tok", stale); err != nil {
        t.Fatalf("Login: %v", err)
    }

    fresh, err := ctrl.Refresh(ctx)
    if err != nil {
        t.Fatalf("Refresh: %v", err)
    }
    if fresh.UserType != model.UserTypeOrganization {
        t.Fatalf("UserType = %q, want organization", fresh.UserType)
    }
    rec, err := ctrl.Current(ctx)
    if err != nil {
        t.Fatalf("Current: %v", err)
    }
    if rec.User == nil || rec.User.UserType != model.UserTypeOrganization {
        t.Fatalf("cache not rewritten: %+v", rec.User)
    }
    if rec.Token != "tok" {
        t.Fatalf("token must survive refresh, got %q", rec.Token)
    }
}

func TestRefreshFailureKeepsCache(t *testing.T) {
    ctx := context.Background()
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
    }))
    defer srv.Close()

    ctrl, _ := newController(backend.NewClient(srv.URL, time.Second))
    cached := model.UserSnapshot{ID: "u1", Email: "a@b.com"}
    if err := ctrl.Login(ctx, "tok", cached); err != nil {
        t.Fatalf("Login: %v", err)
    }

    if _, err := ctrl.Refresh(ctx); err == nil {
        t.Fatal("expected refresh error")
    }
    rec, err := ctrl.Current(ctx)
    if err != nil {
        t.Fatalf("Current: %v", err)
    }
    // The stale cache stays authoritative; nothing was cleared.
    if rec.Token != "tok" || rec.User == nil || rec.User.ID != "u1" {
        t.Fatalf("cache clobbered by failed refresh: %+v", rec)
    }
}

func TestRefreshWithoutSession(t *testing.T) {
    ctrl, _ := newController(nil)
    if _, err := ctrl.Refresh(context.Background()); err != ErrNotAuthenticated {
        t.Fatalf("Refresh = %v, want ErrNotAuthenticated", err)
    }
}
