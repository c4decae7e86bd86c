package invite

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "sync/atomic"
    "testing"
    "time"

    "github.com/cardbook/crm-frontend/internal/backend"
    "github.com/cardbook/crm-frontend/internal/model"
    "github.com/cardbook/crm-frontend/internal/session"
    "github.com/cardbook/crm-frontend/internal/store"
)

type fakeInviteAPI struct {
    invitation   model.Invitation
    status       int // non-zero forces this status on the GET
    acceptStatus int // non-zero fails the accept call
    accepts      atomic.Int32
    declines     atomic.Int32
}

func (f *fakeInviteAPI) serve(t *testing.T) *httptest.Server {
    t.Helper()
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        switch {
        case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/invitations/"):
            if f.status != 0 {
                http.Error(w, `{"error":"invitation not found"}`, f.status)
                return
            }
            _ = json.NewEncoder(w).Encode(map[string]any{"success": true, "invitation": f.invitation})
        case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/accept"):
            f.accepts.Add(1)
            if f.acceptStatus != 0 {
                http.Error(w, `{"error":"boom"}`, f.acceptStatus)
                return
            }
            w.WriteHeader(http.StatusOK)
        case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/decline"):
            f.declines.Add(1)
            w.WriteHeader(http.StatusOK)
        default:
            http.NotFound(w, r)
        }
    }))
    t.Cleanup(srv.Close)
    return srv
}

func newFlow(t *testing.T, f *fakeInviteAPI) (*Flow, *store.Scope, *session.Controller) {
    t.Helper()
    api := backend.NewClient(f.serve(t).URL, time.Second)
    scope := store.NewScope(store.NewMemory(), "sid")
    ctrl := session.New(scope, api)
    return NewFlow(scope, ctrl, api), scope, ctrl
}

func pendingInvitation(token string) model.Invitation {
    return model.Invitation{
        ID:               "inv-1",
        Email:            "invitee@b.com",
        Role:             "member",
        Token:            token,
        Status:           model.InvitationPending,
        OrganizationName: "Acme",
        ExpiresAt:        time.Now().Add(24 * time.Hour),
    }
}

func TestUnauthenticatedEntryParksTokenAndRedirects(t *testing.T) {
    ctx := context.Background()
    fl, scope, _ := newFlow(t, &fakeInviteAPI{invitation: pendingInvitation("TOK123")})

    view, err := fl.Enter(ctx, "TOK123")
    if err != nil {
        t.Fatalf("Enter: %v", err)
    }
    if !view.RedirectToLogin {
        t.Fatal("expected redirect to login")
    }
    if view.ReturnPath != "/accept-invite/TOK123" {
        t.Fatalf("ReturnPath = %q", view.ReturnPath)
    }
    tok, err := scope.PendingInviteToken(ctx)
    if err != nil || tok != "TOK123" {
        t.Fatalf("parked token = %q, %v", tok, err)
    }
}

func TestAutoAcceptWhenGatePasses(t *testing.T) {
    ctx := context.Background()
    fb := &fakeInviteAPI{invitation: pendingInvitation("TOK123")}
    fl, scope, ctrl := newFlow(t, fb)

    if err := ctrl.Login(ctx, "tok", model.UserSnapshot{ID: "u1"}); err != nil {
        t.Fatalf("Login: %v", err)
    }
    if err := scope.SetPendingInviteToken(ctx, "TOK123", time.Minute); err != nil {
        t.Fatalf("SetPendingInviteToken: %v", err)
    }
    if err := scope.SetJustSignedUp(ctx, time.Minute); err != nil {
        t.Fatalf("SetJustSignedUp: %v", err)
    }

    view, err := fl.Enter(ctx, "TOK123")
    if err != nil {
        t.Fatalf("Enter: %v", err)
    }
    if view.State != StateAccepted || !view.AutoAccepted {
        t.Fatalf("view = %+v, want auto-accepted", view)
    }
    if fb.accepts.Load() != 1 {
        t.Fatalf("backend accepts = %d, want 1", fb.accepts.Load())
    }
    // Both markers are consumed.
    if tok, _ := scope.PendingInviteToken(ctx); tok != "" {
        t.Fatalf("invite marker survived: %q", tok)
    }
    if up, _ := scope.JustSignedUp(ctx); up {
        t.Fatal("just-signed-up flag survived")
    }
}

func TestAutoAcceptFailureFallsBackToManual(t *testing.T) {
    ctx := context.Background()
    fb := &fakeInviteAPI{
        invitation:   pendingInvitation("TOK123"),
        acceptStatus: http.StatusInternalServerError,
    }
    fl, scope, ctrl := newFlow(t, fb)

    if err := ctrl.Login(ctx, "tok", model.UserSnapshot{ID: "u1"}); err != nil {
        t.Fatalf("Login: %v", err)
    }
    if err := scope.SetPendingInviteToken(ctx, "TOK123", time.Minute); err != nil {
        t.Fatalf("SetPendingInviteToken: %v", err)
    }
    if err := scope.SetJustSignedUp(ctx, time.Minute); err != nil {
        t.Fatalf("SetJustSignedUp: %v", err)
    }

    view, err := fl.Enter(ctx, "TOK123")
    if err != nil {
        t.Fatalf("Enter: %v", err)
    }
    if view.State != StatePending || view.AutoAccepted {
        t.Fatalf("view = %+v, want manual pending", view)
    }
    if view.Warning == "" {
        t.Fatal("expected a warning explaining the fallback")
    }
    // Nothing was consumed: the markers survive for a retry or manual accept.
    if tok, _ := scope.PendingInviteToken(ctx); tok != "TOK123" {
        t.Fatalf("invite marker = %q, want TOK123", tok)
    }
    if up, _ := scope.JustSignedUp(ctx); !up {
        t.Fatal("just-signed-up flag must survive the failed attempt")
    }
}

func TestNoAutoAcceptWithoutFlag(t *testing.T) {
    ctx := context.Background()
    fb := &fakeInviteAPI{invitation: pendingInvitation("TOK123")}
    fl, scope, ctrl := newFlow(t, fb)

    if err := ctrl.Login(ctx, "tok", model.UserSnapshot{ID: "u1"}); err != nil {
        t.Fatalf("Login: %v", err)
    }
    if err := scope.SetPendingInviteToken(ctx, "TOK123", time.Minute); err != nil {
        t.Fatalf("SetPendingInviteToken: %v", err)
    }

    view, err := fl.Enter(ctx, "TOK123")
    if err != nil {
        t.Fatalf("Enter: %v", err)
    }
    if view.State != StatePending || view.AutoAccepted {
        t.Fatalf("view = %+v, want manual pending", view)
    }
    if fb.accepts.Load() != 0 {
        t.Fatal("backend accept must not have been called")
    }
}

func TestNoAutoAcceptOnTokenMismatch(t *testing.T) {
    ctx := context.Background()
    fb := &fakeInviteAPI{invitation: pendingInvitation("TOK123")}
    fl, scope, ctrl := newFlow(t, fb)

    if err := ctrl.Login(ctx, "tok", model.UserSnapshot{ID: "u1"}); err != nil {
        t.Fatalf("Login: %v", err)
    }
    // The parked token is for a different invitation.
    if err := scope.SetPendingInviteToken(ctx, "OTHER", time.Minute); err != nil {
        t.Fatalf("SetPendingInviteToken: %v", err)
    }
    if err := scope.SetJustSignedUp(ctx, time.Minute); err != nil {
        t.Fatalf("SetJustSignedUp: %v", err)
    }

    view, err := fl.Enter(ctx, "TOK123")
    if err != nil {
        t.Fatalf("Enter: %v", err)
    }
    if view.State != StatePending || view.AutoAccepted {
        t.Fatalf("view = %+v, want manual pending", view)
    }
}

func TestTerminalStates(t *testing.T) {
    ctx := context.Background()
    cases := []struct {
        name   string
        mutate func(*model.Invitation)
        want   State
    }{
        {"already accepted", func(i *model.Invitation) { i.Status = model.InvitationAccepted }, StateAccepted},
        {"already declined", func(i *model.Invitation) { i.Status = model.InvitationDeclined }, StateDeclined},
        {"server expired", func(i *model.Invitation) { i.Status = model.InvitationExpired }, StateExpired},
        {"deadline passed", func(i *model.Invitation) { i.ExpiresAt = time.Now().Add(-time.Hour) }, StateExpired},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            inv := pendingInvitation("TOK123")
            tc.mutate(&inv)
            fb := &fakeInviteAPI{invitation: inv}
            fl, _, ctrl := newFlow(t, fb)
            if err := ctrl.Login(ctx, "tok", model.UserSnapshot{ID: "u1"}); err != nil {
                t.Fatalf("Login: %v", err)
            }
            view, err := fl.Enter(ctx, "TOK123")
            if err != nil {
                t.Fatalf("Enter: %v", err)
            }
            if view.State != tc.want {
                t.Fatalf("State = %q, want %q", view.State, tc.want)
            }
            if fb.accepts.Load() != 0 {
                t.Fatal("terminal invitations must never auto-accept")
            }
        })
    }
}

func TestUnknownTokenIsNotFound(t *testing.T) {
    ctx := context.Background()
    fb := &fakeInviteAPI{status: http.StatusNotFound}
    fl, _, ctrl := newFlow(t, fb)
    if err := ctrl.Login(ctx, "tok", model.UserSnapshot{ID: "u1"}); err != nil {
        t.Fatalf("Login: %v", err)
    }
    view, err := fl.Enter(ctx, "NOPE")
    if err != nil {
        t.Fatalf("Enter: %v", err)
    }
    if view.State != StateNotFound {
        t.Fatalf("State = %q, want not_found", view.State)
    }
}

func TestDeclineRequiresConfirmation(t *testing.T) {
    ctx := context.Background()
    fb := &fakeInviteAPI{invitation: pendingInvitation("TOK123")}
    fl, scope, ctrl := newFlow(t, fb)
    if err := ctrl.Login(ctx, "tok", model.UserSnapshot{ID: "u1"}); err != nil {
        t.Fatalf("Login: %v", err)
    }
    if err := scope.SetPendingInviteToken(ctx, "TOK123", time.Minute); err != nil {
        t.Fatalf("SetPendingInviteToken: %v", err)
    }

    if err := fl.Decline(ctx, "TOK123", false); err != ErrConfirmationRequired {
        t.Fatalf("Decline unconfirmed = %v, want ErrConfirmationRequired", err)
    }
    if fb.declines.Load() != 0 {
        t.Fatal("backend decline must wait for confirmation")
    }

    if err := fl.Decline(ctx, "TOK123", true); err != nil {
        t.Fatalf("Decline confirmed: %v", err)
    }
    if fb.declines.Load() != 1 {
        t.Fatalf("backend declines = %d, want 1", fb.declines.Load())
    }
    if tok, _ := scope.PendingInviteToken(ctx); tok != "" {
        t.Fatal("parked marker should be dropped after decline")
    }
}

func TestAcceptRequiresAuth(t *testing.T) {
    fl, _, _ := newFlow(t, &fakeInviteAPI{invitation: pendingInvitation("TOK123")})
    if err := fl.Accept(context.Background(), "TOK123"); err != session.ErrNotAuthenticated {
        t.Fatalf("Accept = %v, want ErrNotAuthenticated", err)
    }
}
