package store

import (
    "context"
    "testing"
    "time"

    "github.com/cardbook/crm-frontend/internal/model"
)

func newScope(t *testing.T) *Scope {
    t.Helper()
    return NewScope(NewMemory(), "test-session")
}

func TestSessionRoundTrip(t *testing.T) {
    ctx := context.Background()
    s := newScope(t)

    user := model.UserSnapshot{ID: "u1", Email: "a@b.com", UserType: model.UserTypeIndividual}
    if err := s.SetSession(ctx, "tok-123", &user); err != nil {
        t.Fatalf("SetSession: %v", err)
    }
    rec, err := s.Session(ctx)
    if err != nil {
        t.Fatalf("Session: %v", err)
    }
    if !rec.Authenticated() {
        t.Fatal("expected authenticated record")
    }
    if rec.Token != "tok-123" {
        t.Fatalf("token = %q, want tok-123", rec.Token)
    }
    if rec.User == nil || rec.User.ID != "u1" || rec.User.Email != "a@b.com" {
        t.Fatalf("user not round-tripped: %+v", rec.User)
    }

    if err := s.ClearSession(ctx); err != nil {
        t.Fatalf("ClearSession: %v", err)
    }
    rec, err = s.Session(ctx)
    if err != nil {
        t.Fatalf("Session after clear: %v", err)
    }
    if rec.Authenticated() || rec.User != nil {
        t.Fatalf("expected empty record after clear, got %+v", rec)
    }
}

func TestSessionOverwriteIsAtomic(t *testing.T) {
    ctx := context.Background()
    s := newScope(t)

    first := model.UserSnapshot{ID: "u1", Email: "first@b.com"}
    second := model.UserSnapshot{ID: "u2", Email: "second@b.com"}
    if err := s.SetSession(ctx, "tok-1", &first); err != nil {
        t.Fatalf("SetSession: %v", err)
    }
    if err := s.SetSession(ctx, "tok-2", &second); err != nil {
        t.Fatalf("SetSession overwrite: %v", err)
    }
    rec, err := s.Session(ctx)
    if err != nil {
        t.Fatalf("Session: %v", err)
    }
    // Token and user travel together: tok-2 must never pair with u1.
    if rec.Token != "tok-2" || rec.User == nil || rec.User.ID != "u2" {
        t.Fatalf("mismatched record after overwrite: token=%q user=%+v", rec.Token, rec.User)
    }
}

func TestVersionMismatchFailsClosed(t *testing.T) {
    ctx := context.Background()
    kv := NewMemory()
    s := NewScope(kv, "sid")

    // A record from a hypothetical future deployment.
    if err := kv.Set(ctx, "sess:sid:session", []byte(`{"v":2,"token":"tok","user":null}`), 0); err != nil {
        t.Fatalf("Set: %v", err)
    }
    rec, err := s.Session(ctx)
    if err != nil {
        t.Fatalf("Session: %v", err)
    }
    if rec.Authenticated() {
        t.Fatal("mismatched version must read as absent")
    }
    // The bad record is removed, not left to trip every request.
    if _, ok, _ := kv.Get(ctx, "sess:sid:session"); ok {
        t.Fatal("expected stale record to be deleted")
    }
}

func TestMalformedRecordFailsClosed(t *testing.T) {
    ctx := context.Background()
    kv := NewMemory()
    s := NewScope(kv, "sid")

    if err := kv.Set(ctx, "sess:sid:handshake", []byte(`{not json`), 0); err != nil {
        t.Fatalf("Set: %v", err)
    }
    h, err := s.Handshake(ctx)
    if err != nil {
        t.Fatalf("Handshake: %v", err)
    }
    if h != nil {
        t.Fatalf("malformed record must read as absent, got %+v", h)
    }
}

func TestHandshakeAndMarkers(t *testing.T) {
    ctx := context.Background()
    s := newScope(t)

    if err := s.SetHandshake(ctx, Handshake{Email: "a@b.com", Timestamp: 42, Type: model.UserTypeOrganization}, time.Minute); err != nil {
        t.Fatalf("SetHandshake: %v", err)
    }
    h, err := s.Handshake(ctx)
    if err != nil {
        t.Fatalf("Handshake: %v", err)
    }
    if h == nil || h.Email != "a@b.com" || h.Type != model.UserTypeOrganization || h.Timestamp != 42 {
        t.Fatalf("handshake not round-tripped: %+v", h)
    }
    if err := s.DeleteHandshake(ctx); err != nil {
        t.Fatalf("DeleteHandshake: %v", err)
    }
    if h, _ := s.Handshake(ctx); h != nil {
        t.Fatal("expected handshake gone after delete")
    }

    if err := s.SetPendingInviteToken(ctx, "TOK123", time.Minute); err != nil {
        t.Fatalf("SetPendingInviteToken: %v", err)
    }
    tok, err := s.PendingInviteToken(ctx)
    if err != nil || tok != "TOK123" {
        t.Fatalf("PendingInviteToken = %q, %v", tok, err)
    }

    if up, _ := s.JustSignedUp(ctx); up {
        t.Fatal("flag should start unset")
    }
    if err := s.SetJustSignedUp(ctx, time.Minute); err != nil {
        t.Fatalf("SetJustSignedUp: %v", err)
    }
    if up, _ := s.JustSignedUp(ctx); !up {
        t.Fatal("flag should be set")
    }
    if err := s.DeleteJustSignedUp(ctx); err != nil {
        t.Fatalf("DeleteJustSignedUp: %v", err)
    }
    if up, _ := s.JustSignedUp(ctx); up {
        t.Fatal("flag should be unset after delete")
    }
}

func TestScopesAreIsolated(t *testing.T) {
    ctx := context.Background()
    kv := NewMemory()
    a := NewScope(kv, "browser-a")
    b := NewScope(kv, "browser-b")

    if err := a.SetSession(ctx, "tok-a", nil); err != nil {
        t.Fatalf("SetSession: %v", err)
    }
    rec, err := b.Session(ctx)
    if err != nil {
        t.Fatalf("Session: %v", err)
    }
    if rec.Authenticated() {
        t.Fatal("browser-b must not see browser-a's session")
    }
}

func TestMemoryTTL(t *testing.T) {
    ctx := context.Background()
    m := NewMemory()
    now := time.Now()
    m.now = func() time.Time { return now }

    if err := m.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
        t.Fatalf("Set: %v", err)
    }
    if _, ok, _ := m.Get(ctx, "k"); !ok {
        t.Fatal("key should exist before expiry")
    }
    now = now.Add(time.Minute + time.Millisecond)
    if _, ok, _ := m.Get(ctx, "k"); ok {
        t.Fatal("key should be gone after ttl")
    }
}
