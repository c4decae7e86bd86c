package verification

import (
    "context"
    "testing"
    "time"

    "github.com/cardbook/crm-frontend/internal/model"
    "github.com/cardbook/crm-frontend/internal/store"
)

const window = 15 * time.Minute

func newTestTracker(t *testing.T) (*Tracker, *store.Scope, *time.Time) {
    t.Helper()
    scope := store.NewScope(store.NewMemory(), "sid")
    tr := NewTracker(scope, NewAttempts(), window, 5)
    now := time.Now().Truncate(time.Millisecond)
    tr.now = func() time.Time { return now }
    return tr, scope, &now
}

func TestCheckWithoutBegin(t *testing.T) {
    tr, _, _ := newTestTracker(t)
    if _, err := tr.Check(context.Background()); err != ErrNoSession {
        t.Fatalf("Check = %v, want ErrNoSession", err)
    }
}

func TestExpiryBoundary(t *testing.T) {
    ctx := context.Background()
    tr, scope, now := newTestTracker(t)

    if err := tr.Begin(ctx, "a@b.com", model.UserTypeIndividual); err != nil {
        t.Fatalf("Begin: %v", err)
    }

    // One second before the deadline: still active, about a second left.
    *now = now.Add(window - time.Second)
    st, err := tr.Check(ctx)
    if err != nil {
        t.Fatalf("Check before deadline: %v", err)
    }
    if st.Email != "a@b.com" || st.Type != model.UserTypeIndividual {
        t.Fatalf("unexpected state: %+v", st)
    }
    if st.Remaining != time.Second {
        t.Fatalf("Remaining = %v, want 1s", st.Remaining)
    }

    // One millisecond past the deadline: expired, and the record is gone.
    *now = now.Add(time.Second + time.Millisecond)
    if _, err := tr.Check(ctx); err != ErrExpired {
        t.Fatalf("Check past deadline = %v, want ErrExpired", err)
    }
    if h, _ := scope.Handshake(ctx); h != nil {
        t.Fatal("expired handshake must be deleted")
    }
    // And a repeat check sees nothing at all.
    if _, err := tr.Check(ctx); err != ErrNoSession {
        t.Fatalf("repeat Check = %v, want ErrNoSession", err)
    }
}

func TestTouchExtendsWindow(t *testing.T) {
    ctx := context.Background()
    tr, _, now := newTestTracker(t)

    if err := tr.Begin(ctx, "a@b.com", model.UserTypeIndividual); err != nil {
        t.Fatalf("Begin: %v", err)
    }
    *now = now.Add(10 * time.Minute)
    if err := tr.Touch(ctx); err != nil {
        t.Fatalf("Touch: %v", err)
    }
    // 14 minutes after the touch (24 after begin): still inside the window.
    *now = now.Add(14 * time.Minute)
    st, err := tr.Check(ctx)
    if err != nil {
        t.Fatalf("Check after touch: %v", err)
    }
    if st.Remaining != time.Minute {
        t.Fatalf("Remaining = %v, want 1m", st.Remaining)
    }
}

func TestBeginOverwritesPrior(t *testing.T) {
    ctx := context.Background()
    tr, _, _ := newTestTracker(t)

    if err := tr.Begin(ctx, "first@b.com", model.UserTypeIndividual); err != nil {
        t.Fatalf("Begin: %v", err)
    }
    if err := tr.Begin(ctx, "second@b.com", model.UserTypeOrganization); err != nil {
        t.Fatalf("second Begin: %v", err)
    }
    st, err := tr.Check(ctx)
    if err != nil {
        t.Fatalf("Check: %v", err)
    }
    if st.Email != "second@b.com" || st.Type != model.UserTypeOrganization {
        t.Fatalf("expected the second signup to win, got %+v", st)
    }
}

func TestAttemptCap(t *testing.T) {
    ctx := context.Background()
    tr, _, _ := newTestTracker(t)
    if err := tr.Begin(ctx, "a@b.com", model.UserTypeIndividual); err != nil {
        t.Fatalf("Begin: %v", err)
    }

    for i := 1; i <= 5; i++ {
        if tr.Locked() {
            t.Fatalf("locked after %d failures, cap is 5", i-1)
        }
        remaining := tr.RecordFailure()
        if remaining != 5-i {
            t.Fatalf("after failure %d remaining = %d, want %d", i, remaining, 5-i)
        }
    }
    if !tr.Locked() {
        t.Fatal("expected lock after 5 failures")
    }

    // A successful resend resets the counter.
    if err := tr.Touch(ctx); err != nil {
        t.Fatalf("Touch: %v", err)
    }
    if tr.Locked() {
        t.Fatal("Touch must clear the attempt counter")
    }
}

func TestSignupVerifyLifecycle(t *testing.T) {
    ctx := context.Background()
    tr, _, _ := newTestTracker(t)

    if err := tr.Begin(ctx, "a@b.com", model.UserTypeIndividual); err != nil {
        t.Fatalf("Begin: %v", err)
    }
    if _, err := tr.Check(ctx); err != nil {
        t.Fatalf("Check while active: %v", err)
    }
    if err := tr.Complete(ctx); err != nil {
        t.Fatalf("Complete: %v", err)
    }
    if _, err := tr.Check(ctx); err != ErrNoSession {
        t.Fatalf("Check after Complete = %v, want ErrNoSession", err)
    }
}
