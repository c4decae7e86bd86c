// Package session implements the auth session controller: the single
// writer of the durable session record and the notification hub that keeps
// every auth-dependent surface in agreement without a full reload.
package session

import (
    "context"
    "errors"
    "sync"

    "github.com/cardbook/crm-frontend/internal/backend"
    "github.com/cardbook/crm-frontend/internal/model"
    "github.com/cardbook/crm-frontend/internal/store"
)

// ErrNotAuthenticated is returned by operations that require a stored
// credential when none is present.
var ErrNotAuthenticated = errors.New("not authenticated")

// Event describes an auth-state change delivered to subscribers.  User is
// nil after logout.
type Event struct {
    Authenticated bool
    User          *model.UserSnapshot
}

// Listener receives auth-change events.  Listeners run synchronously on
// the mutating goroutine; they must not call back into the controller.
type Listener func(Event)

// Controller derives auth state from the session store and owns every
// mutation of it.  isAuthenticated is never stored: it is always computed
// from token presence, so it cannot drift from the record.
type Controller struct {
    scope *store.Scope
    api   *backend.Client

    mu     sync.Mutex
    subs   map[int]Listener
    nextID int
}

// New binds a controller to one browser session's store scope.  Each
// request builds its own controller; the store is the shared state, the
// controller is cheap.
func New(scope *store.Scope, api *backend.Client) *Controller {
    return &Controller{scope: scope, api: api, subs: make(map[int]Listener)}
}

// Subscribe registers a listener for auth changes and returns its remover.
// The remover is safe to call more than once.
func (c *Controller) Subscribe(fn Listener) (unsubscribe func()) {
    c.mu.Lock()
    id := c.nextID
    c.nextID++
    c.subs[id] = fn
    c.mu.Unlock()
    return func() {
        c.mu.Lock()
        delete(c.subs, id)
        c.mu.Unlock()
    }
}

// notify delivers the event to every subscriber, synchronously, after the
// store write has completed.  Subscribers therefore always observe the new
// state when they re-read.
func (c *Controller) notify(ev Event) {
    c.mu.Lock()
    listeners := make([]Listener, 0, len(c.subs))
    for _, fn := range c.subs {
        listeners = append(listeners, fn)
    }
    c.mu.Unlock()
    for _, fn := range listeners {
        fn(ev)
    }
}

// Current returns the stored session record.  Store failure reads as
// logged out: if the browser's state cannot be loaded there is nothing to
// authenticate with.
func (c *Controller) Current(ctx context.Context) (store.SessionRecord, error) {
    return c.scope.Session(ctx)
}

// IsAuthenticated reports token presence.  Derived, never cached.
func (c *Controller) IsAuthenticated(ctx context.Context) bool {
    rec, err := c.scope.Session(ctx)
    return err == nil && rec.Authenticated()
}

// Login stores the token and user snapshot as one record, then notifies.
// The write precedes the notification so a subscriber that re-reads the
// store during delivery sees the new session.
func (c *Controller) Login(ctx context.Context, token string, user model.UserSnapshot) error {
    if err := c.scope.SetSession(ctx, token, &user); err != nil {
        return err
    }
    c.notify(Event{Authenticated: true, User: &user})
    return nil
}

// Logout clears the session record and notifies.  Navigation afterwards is
// the caller's responsibility; the controller never forces a redirect.
// The backend token invalidation, if any, also belongs to the caller:
// local teardown must succeed even when the backend is unreachable.
func (c *Controller) Logout(ctx context.Context) error {
    if err := c.scope.ClearSession(ctx); err != nil {
        return err
    }
    c.notify(Event{Authenticated: false})
    return nil
}

// Refresh re-fetches the user snapshot from the backend and rewrites the
// cached copy.  On any fetch failure the stale cache stays authoritative
// and the error is returned to the caller; a flaky network must never log
// anyone out.
func (c *Controller) Refresh(ctx context.Context) (model.UserSnapshot, error) {
    rec, err := c.scope.Session(ctx)
    if err != nil {
        return model.UserSnapshot{}, err
    }
    if !rec.Authenticated() {
        return model.UserSnapshot{}, ErrNotAuthenticated
    }
    fresh, err := c.api.GetProfile(ctx, rec.Token)
    if err != nil {
        return model.UserSnapshot{}, err
    }
    if err := c.scope.SetSession(ctx, rec.Token, &fresh); err != nil {
        return model.UserSnapshot{}, err
    }
    c.notify(Event{Authenticated: true, User: &fresh})
    return fresh, nil
}

// ReplaceUser overwrites the cached snapshot with one the backend just
// returned (profile edit, org switch).  Token is unchanged; the write is
// still the whole record so the pair stays consistent.
func (c *Controller) ReplaceUser(ctx context.Context, user model.UserSnapshot) error {
    rec, err := c.scope.Session(ctx)
    if err != nil {
        return err
    }
    if !rec.Authenticated() {
        return ErrNotAuthenticated
    }
    if err := c.scope.SetSession(ctx, rec.Token, &user); err != nil {
        return err
    }
    c.notify(Event{Authenticated: true, User: &user})
    return nil
}
