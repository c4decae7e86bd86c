// Package verification manages the pending-verification handshake: the
// short-lived marker tying an email address to an in-progress signup, the
// 15 minute window it lives in, and the in-memory cap on failed OTP
// submissions.
package verification

import (
    "context"
    "errors"
    "sync"
    "time"

    "github.com/cardbook/crm-frontend/internal/model"
    "github.com/cardbook/crm-frontend/internal/store"
)

var (
    // ErrNoSession means no handshake exists for this browser.  The OTP
    // page bounces back to signup when it sees this.
    ErrNoSession = errors.New("no pending verification")
    // ErrExpired means the handshake outlived its window.  Check deletes
    // the record before returning this, so a repeat call yields
    // ErrNoSession.
    ErrExpired = errors.New("verification session expired")
    // ErrLocked means the failed-OTP cap was reached; further submissions
    // are rejected until a successful resend resets the counter.
    ErrLocked = errors.New("too many failed attempts")
)

// State is the live view of an active handshake, used to render the OTP
// page and seed its countdown.
type State struct {
    Email     string
    Type      model.UserType
    Remaining time.Duration // time left in the window
}

// Attempts counts failed OTP submissions per browser session.  Deliberately
// in process memory only: a restart forgiving the counter is acceptable,
// persisting it is not worth a record.
type Attempts struct {
    mu     sync.Mutex
    counts map[string]int
}

// NewAttempts returns an empty counter set.
func NewAttempts() *Attempts {
    return &Attempts{counts: make(map[string]int)}
}

func (a *Attempts) incr(sid string) int {
    a.mu.Lock()
    defer a.mu.Unlock()
    a.counts[sid]++
    return a.counts[sid]
}

func (a *Attempts) get(sid string) int {
    a.mu.Lock()
    defer a.mu.Unlock()
    return a.counts[sid]
}

func (a *Attempts) reset(sid string) {
    a.mu.Lock()
    defer a.mu.Unlock()
    delete(a.counts, sid)
}

// Tracker drives one browser session's handshake.  Construct per request;
// the scope and the attempt counters carry the state.
type Tracker struct {
    scope    *store.Scope
    attempts *Attempts
    window   time.Duration
    maxTries int
    now      func() time.Time
}

// NewTracker binds a tracker to a session scope.  window is the handshake
// lifetime (15 minutes in production); maxTries the failed-OTP cap.
func NewTracker(scope *store.Scope, attempts *Attempts, window time.Duration, maxTries int) *Tracker {
    return &Tracker{
        scope:    scope,
        attempts: attempts,
        window:   window,
        maxTries: maxTries,
        now:      time.Now,
    }
}

// Begin writes a fresh handshake, overwriting any prior one: only one
// signup is in flight per browser.  The store TTL is padded past the
// logical window so Check, not the store, decides expiry.
func (t *Tracker) Begin(ctx context.Context, email string, userType model.UserType) error {
    t.attempts.reset(t.scope.SessionID())
    return t.scope.SetHandshake(ctx, store.Handshake{
        Email:     email,
        Timestamp: t.now().UnixMilli(),
        Type:      userType,
    }, t.window+time.Minute)
}

// Check reads the handshake.  Absent records yield ErrNoSession; records
// older than the window are deleted and yield ErrExpired; otherwise the
// live state with the remaining window is returned.
func (t *Tracker) Check(ctx context.Context) (State, error) {
    h, err := t.scope.Handshake(ctx)
    if err != nil {
        return State{}, err
    }
    if h == nil {
        return State{}, ErrNoSession
    }
    elapsed := t.now().Sub(time.UnixMilli(h.Timestamp))
    if elapsed > t.window {
        _ = t.scope.DeleteHandshake(ctx)
        return State{}, ErrExpired
    }
    return State{
        Email:     h.Email,
        Type:      h.Type,
        Remaining: t.window - elapsed,
    }, nil
}

// Touch resets the handshake timestamp to now, extending the window after
// a successful OTP resend, and clears the failed-attempt counter.
func (t *Tracker) Touch(ctx context.Context) error {
    h, err := t.scope.Handshake(ctx)
    if err != nil {
        return err
    }
    if h == nil {
        return ErrNoSession
    }
    h.Timestamp = t.now().UnixMilli()
    if err := t.scope.SetHandshake(ctx, *h, t.window+time.Minute); err != nil {
        return err
    }
    t.attempts.reset(t.scope.SessionID())
    return nil
}

// Complete deletes the handshake after successful verification or an
// explicit exit from the flow.
func (t *Tracker) Complete(ctx context.Context) error {
    t.attempts.reset(t.scope.SessionID())
    return t.scope.DeleteHandshake(ctx)
}

// Locked reports whether the failed-OTP cap has been reached.
func (t *Tracker) Locked() bool {
    return t.attempts.get(t.scope.SessionID()) >= t.maxTries
}

// RecordFailure counts one failed OTP submission and returns how many
// attempts remain before the lock engages.
func (t *Tracker) RecordFailure() (remaining int) {
    n := t.attempts.incr(t.scope.SessionID())
    remaining = t.maxTries - n
    if remaining < 0 {
        remaining = 0
    }
    return remaining
}
