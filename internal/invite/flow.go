// Package invite implements the invitation acceptance flow: entry via an
// emailed link, the detour through login/signup for unauthenticated
// visitors, auto-accept for invitees who just completed signup, and the
// manual accept/decline path.
package invite

import (
    "context"
    "errors"
    "time"

    "github.com/cardbook/crm-frontend/internal/backend"
    "github.com/cardbook/crm-frontend/internal/model"
    "github.com/cardbook/crm-frontend/internal/session"
    "github.com/cardbook/crm-frontend/internal/store"
)

// ErrConfirmationRequired is returned by Decline when the caller has not
// confirmed the action.  Declining is irreversible, so outside the
// action=decline shortcut an interactive confirmation is mandatory.
var ErrConfirmationRequired = errors.New("decline requires confirmation")

// State is where the flow stands after entry.  Pending is the only
// non-terminal state: every other one is a display branch with no further
// transitions.
type State string

const (
    StateNotFound State = "not_found"
    StatePending  State = "pending"
    StateExpired  State = "expired"
    StateAccepted State = "accepted"
    StateDeclined State = "declined"
)

// markerTTL bounds how long a captured invite token survives the
// login/signup detour.  Generous on purpose: the detour includes an email
// round trip.
const markerTTL = time.Hour

// View is what the acceptance page renders.  When RedirectToLogin is set
// the other fields are empty: the token was parked and the browser is sent
// to login with ReturnPath pointing back here.
type View struct {
    State           State
    Invitation      *model.Invitation
    AutoAccepted    bool
    RedirectToLogin bool
    ReturnPath      string
    Warning         string
}

// Flow drives one browser session through invitation acceptance.
type Flow struct {
    scope *store.Scope
    ctrl  *session.Controller
    api   *backend.Client
    now   func() time.Time
}

// NewFlow binds the flow to a session scope and controller.
func NewFlow(scope *store.Scope, ctrl *session.Controller, api *backend.Client) *Flow {
    return &Flow{scope: scope, ctrl: ctrl, api: api, now: time.Now}
}

// Enter is the landing logic for /accept-invite/:token.
//
// Unauthenticated visitors get the token parked in the pending-invite
// marker before the redirect to login, so the invitation survives the
// whole login/signup/verify detour.  Authenticated visitors get the
// invitation fetched and, when the auto-accept gate passes, accepted
// without a second click.
func (f *Flow) Enter(ctx context.Context, token string) (View, error) {
    rec, err := f.ctrl.Current(ctx)
    if err != nil {
        return View{}, err
    }
    if !rec.Authenticated() {
        if err := f.scope.SetPendingInviteToken(ctx, token, markerTTL); err != nil {
            return View{}, err
        }
        return View{
            RedirectToLogin: true,
            ReturnPath:      "/accept-invite/" + token,
        }, nil
    }

    inv, err := f.api.GetInvitation(ctx, token)
    if err != nil {
        if backend.IsNotFound(err) {
            return View{State: StateNotFound}, nil
        }
        return View{}, err
    }

    switch {
    case inv.Status == model.InvitationAccepted:
        return View{State: StateAccepted, Invitation: &inv}, nil
    case inv.Status == model.InvitationDeclined:
        return View{State: StateDeclined, Invitation: &inv}, nil
    case inv.Status == model.InvitationExpired, inv.IsExpired(f.now()):
        return View{State: StateExpired, Invitation: &inv}, nil
    }

    auto, err := f.shouldAutoAccept(ctx, token)
    if err != nil {
        return View{}, err
    }
    if auto {
        if err := f.api.AcceptInvitation(ctx, rec.Token, token); err != nil {
            // Markers stay put: the user can still accept manually and
            // nothing was consumed.
            return View{
                State:      StatePending,
                Invitation: &inv,
                Warning:    "could not accept the invitation automatically, please confirm below",
            }, nil
        }
        f.clearMarkers(ctx)
        inv.Status = model.InvitationAccepted
        return View{State: StateAccepted, Invitation: &inv, AutoAccepted: true}, nil
    }
    return View{State: StatePending, Invitation: &inv}, nil
}

// shouldAutoAccept checks the full gate: the just-signed-up flag is set AND
// the parked token matches the one on the current route.  Invitation status
// was already confirmed pending by the caller.  Any mismatch falls back to
// manual accept.
func (f *Flow) shouldAutoAccept(ctx context.Context, token string) (bool, error) {
    signedUp, err := f.scope.JustSignedUp(ctx)
    if err != nil {
        return false, err
    }
    if !signedUp {
        return false, nil
    }
    parked, err := f.scope.PendingInviteToken(ctx)
    if err != nil {
        return false, err
    }
    return parked == token, nil
}

// Accept finalizes membership on explicit user action.  On success the
// transient markers are cleared; the caller then navigates to the
// individual dashboard, where the new organization shows up in the
// switcher.  Landing there rather than in org context is deliberate.
func (f *Flow) Accept(ctx context.Context, token string) error {
    rec, err := f.ctrl.Current(ctx)
    if err != nil {
        return err
    }
    if !rec.Authenticated() {
        return session.ErrNotAuthenticated
    }
    if err := f.api.AcceptInvitation(ctx, rec.Token, token); err != nil {
        return err
    }
    f.clearMarkers(ctx)
    return nil
}

// Decline marks the invitation declined.  confirmed must be true: either
// the user answered the prompt or the action=decline entry shortcut asked
// for confirmation already.  Local state moves to declined without a
// refetch; the parked marker is dropped either way.
func (f *Flow) Decline(ctx context.Context, token string, confirmed bool) error {
    if !confirmed {
        return ErrConfirmationRequired
    }
    rec, err := f.ctrl.Current(ctx)
    if err != nil {
        return err
    }
    if err := f.api.DeclineInvitation(ctx, rec.Token, token); err != nil {
        return err
    }
    f.clearMarkers(ctx)
    return nil
}

// clearMarkers drops both transient markers after consumption.  Failures
// are ignored: a leftover marker expires on its TTL and the gate requires
// a token match anyway.
func (f *Flow) clearMarkers(ctx context.Context) {
    _ = f.scope.DeletePendingInviteToken(ctx)
    _ = f.scope.DeleteJustSignedUp(ctx)
}
