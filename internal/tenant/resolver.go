// Package tenant decides which dashboard a logged-in session lands on:
// the individual surface or a specific organization.  The decision is made
// from server-confirmed state on every resolution; the cached snapshot
// only breaks ties when the backend cannot be reached at all.
package tenant

import (
    "context"

    "github.com/cardbook/crm-frontend/internal/backend"
    "github.com/cardbook/crm-frontend/internal/model"
    "github.com/cardbook/crm-frontend/internal/session"
)

// Dashboard identifies the surface a resolution lands on.
type Dashboard string

const (
    DashboardIndividual   Dashboard = "individual"
    DashboardOrganization Dashboard = "organization"
)

// Context is the outcome of one resolution.  Organization is nil for
// individual context and for organization-typed users with no org record
// yet (a valid, degraded state, not an error).  Warning carries a
// non-blocking message when a secondary fetch failed and cached state was
// kept.
type Context struct {
    Dashboard    Dashboard
    User         model.UserSnapshot
    Organization *model.Organization
    Memberships  []model.Membership
    Warning      string
}

// Resolver performs tenant-context resolution against the backend.
type Resolver struct {
    ctrl *session.Controller
    api  *backend.Client
}

// NewResolver builds a resolver over the session controller and API client.
func NewResolver(ctrl *session.Controller, api *backend.Client) *Resolver {
    return &Resolver{ctrl: ctrl, api: api}
}

// Resolve determines the active context for the current session.
//
// The profile is always re-fetched first: a stale cached userType must
// never decide routing (an individual promoted to organization owner since
// the cache was written would otherwise land on the wrong dashboard).  Only
// when that fetch fails transiently does the cached snapshot stand in, with
// a warning, per the "stale cache stays authoritative until a successful
// refresh" rule.
func (r *Resolver) Resolve(ctx context.Context) (Context, error) {
    rec, err := r.ctrl.Current(ctx)
    if err != nil {
        return Context{}, err
    }
    if !rec.Authenticated() {
        return Context{}, session.ErrNotAuthenticated
    }

    var warning string
    user, err := r.ctrl.Refresh(ctx)
    if err != nil {
        if rec.User == nil {
            return Context{}, err
        }
        user = *rec.User
        warning = "could not refresh your profile, showing the last known state"
    }

    if user.UserType == model.UserTypeOrganization {
        return r.resolveOrganization(ctx, rec.Token, user, warning)
    }
    return r.resolveIndividual(ctx, rec.Token, user, warning)
}

// resolveOrganization lands on the organization dashboard.  A missing org
// record (backend 404) is a valid "no organization yet" state and still
// resolves here, with a nil Organization, so the view renders its empty
// variant instead of bouncing the user away.
func (r *Resolver) resolveOrganization(ctx context.Context, token string, user model.UserSnapshot, warning string) (Context, error) {
    org, err := r.api.GetMyOrganization(ctx, token)
    if err != nil {
        // Non-404 failure: keep whatever was cached and say so, do not
        // block the dashboard.  An earlier refresh warning still applies,
        // so it is carried along rather than replaced.
        return Context{
            Dashboard: DashboardOrganization,
            User:      user,
            Warning:   appendWarning(warning, "could not load your organization, please retry"),
        }, nil
    }
    // The cached active org follows the server's answer both ways: set
    // when an org record exists, cleared when the 404 says there is none
    // yet, so a deleted org cannot leave a dangling id behind.
    activeID := ""
    if org != nil {
        activeID = org.ID
    }
    if user.ActiveOrganizationID != activeID {
        user.ActiveOrganizationID = activeID
        if err := r.ctrl.ReplaceUser(ctx, user); err != nil {
            return Context{}, err
        }
    }
    return Context{
        Dashboard:    DashboardOrganization,
        User:         user,
        Organization: org,
        Warning:      warning,
    }, nil
}

// appendWarning joins non-blocking warnings so a secondary failure does
// not hide an earlier one.
func appendWarning(existing, next string) string {
    if existing == "" {
        return next
    }
    return existing + "; " + next
}

// resolveIndividual lands on the personal dashboard.  Memberships are
// listed for the organization switcher but do not change the primary
// context; only an explicit switch does.
func (r *Resolver) resolveIndividual(ctx context.Context, token string, user model.UserSnapshot, warning string) (Context, error) {
    memberships, err := r.api.ListMyOrganizations(ctx, token)
    if err != nil {
        return Context{
            Dashboard: DashboardIndividual,
            User:      user,
            Warning:   appendWarning(warning, "could not load your organizations"),
        }, nil
    }
    return Context{
        Dashboard:   DashboardIndividual,
        User:        user,
        Memberships: memberships,
        Warning:     warning,
    }, nil
}

// SwitchOrganization changes the active context server-side, then forces a
// full re-derivation: the backend call is followed by a profile refresh
// that rewrites the cached snapshot and notifies every subscriber.  This is
// the deliberate consistency boundary; nothing context-dependent survives
// a switch un-refreshed.  A nil orgID selects the personal context.
func (r *Resolver) SwitchOrganization(ctx context.Context, orgID *string) error {
    rec, err := r.ctrl.Current(ctx)
    if err != nil {
        return err
    }
    if !rec.Authenticated() {
        return session.ErrNotAuthenticated
    }
    if err := r.api.SwitchOrganization(ctx, rec.Token, orgID); err != nil {
        return err
    }
    _, err = r.ctrl.Refresh(ctx)
    return err
}
