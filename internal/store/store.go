// Package store holds the per-browser state the application keeps between
// requests: the durable auth session (token plus cached user snapshot) and
// the short-lived signup/invitation markers.  Records are namespaced by a
// random browser session ID and serialized as versioned JSON; a record
// whose version does not match fails closed and reads as absent, so stale
// blobs from an older deployment can never crash a flow.
package store

import (
    "context"
    "encoding/json"
    "errors"
    "time"

    "github.com/cardbook/crm-frontend/internal/model"
)

// SchemaVersion is stamped into every persisted record.  Bump it whenever a
// record shape changes incompatibly; old records then read as absent.
const SchemaVersion = 1

// ErrUnavailable is returned when the underlying storage cannot be read or
// written.  This is the one fatal case: a browser whose state cannot be
// loaded is treated as logged out.
var ErrUnavailable = errors.New("session store unavailable")

// KV is the raw byte-level contract the typed layer sits on.  ok=false with
// a nil error means the key is simply absent.  A zero ttl means no expiry.
type KV interface {
    Get(ctx context.Context, key string) (val []byte, ok bool, err error)
    Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
    Del(ctx context.Context, keys ...string) error
}

// SessionRecord is the durable auth state: a bearer token and the cached
// user snapshot.  Token and user are one record on purpose: a single write
// replaces both, so no reader can ever observe a token paired with the
// previous user.
type SessionRecord struct {
    V     int                 `json:"v"`
    Token string              `json:"token,omitempty"`
    User  *model.UserSnapshot `json:"user,omitempty"`
}

// Authenticated reports whether the record carries a credential.
func (r SessionRecord) Authenticated() bool { return r.Token != "" }

// Handshake is the short-lived pending-verification marker written at
// signup and consumed on the OTP page.  Timestamp is unix milliseconds of
// creation (or of the last successful resend).
type Handshake struct {
    V         int            `json:"v"`
    Email     string         `json:"email"`
    Timestamp int64          `json:"timestamp"`
    Type      model.UserType `json:"type"`
}

// inviteMarker wraps the pending invitation token so it versions like every
// other record.
type inviteMarker struct {
    V     int    `json:"v"`
    Token string `json:"token"`
}

// flagMarker is a versioned boolean, used for the just-signed-up flag.
type flagMarker struct {
    V   int  `json:"v"`
    Set bool `json:"set"`
}

// Scope binds a KV backend to one browser session.  All the typed
// accessors below operate on that session's keys only.
type Scope struct {
    kv  KV
    sid string
}

// NewScope returns the typed view of one browser session's records.
func NewScope(kv KV, sessionID string) *Scope {
    return &Scope{kv: kv, sid: sessionID}
}

// SessionID returns the browser session identifier this scope is bound to.
func (s *Scope) SessionID() string { return s.sid }

func (s *Scope) key(kind string) string { return "sess:" + s.sid + ":" + kind }

// getRecord decodes a versioned record into out.  Malformed JSON or a
// version mismatch deletes the key and reads as absent.
func (s *Scope) getRecord(ctx context.Context, key string, out any, version func() int) (bool, error) {
    raw, ok, err := s.kv.Get(ctx, key)
    if err != nil {
        return false, ErrUnavailable
    }
    if !ok {
        return false, nil
    }
    if err := json.Unmarshal(raw, out); err != nil || version() != SchemaVersion {
        _ = s.kv.Del(ctx, key)
        return false, nil
    }
    return true, nil
}

func (s *Scope) setRecord(ctx context.Context, key string, rec any, ttl time.Duration) error {
    raw, err := json.Marshal(rec)
    if err != nil {
        return err
    }
    if err := s.kv.Set(ctx, key, raw, ttl); err != nil {
        return ErrUnavailable
    }
    return nil
}

// Session returns the durable auth record.  An absent or unreadable record
// comes back as the zero value: not authenticated.
func (s *Scope) Session(ctx context.Context) (SessionRecord, error) {
    var rec SessionRecord
    ok, err := s.getRecord(ctx, s.key("session"), &rec, func() int { return rec.V })
    if err != nil || !ok {
        return SessionRecord{}, err
    }
    return rec, nil
}

// SetSession writes token and user together.  No expiry: the record lives
// until explicit logout or overwrite.
func (s *Scope) SetSession(ctx context.Context, token string, user *model.UserSnapshot) error {
    return s.setRecord(ctx, s.key("session"), SessionRecord{V: SchemaVersion, Token: token, User: user}, 0)
}

// ClearSession removes the auth record entirely.
func (s *Scope) ClearSession(ctx context.Context) error {
    if err := s.kv.Del(ctx, s.key("session")); err != nil {
        return ErrUnavailable
    }
    return nil
}

// Handshake returns the pending-verification marker, or nil when absent.
// Expiry is the tracker's business; the store only enforces the schema.
func (s *Scope) Handshake(ctx context.Context) (*Handshake, error) {
    var h Handshake
    ok, err := s.getRecord(ctx, s.key("handshake"), &h, func() int { return h.V })
    if err != nil || !ok {
        return nil, err
    }
    return &h, nil
}

// SetHandshake overwrites any prior marker; only one signup is in flight
// per browser at a time.  The ttl is a garbage-collection bound, set a bit
// above the logical window.
func (s *Scope) SetHandshake(ctx context.Context, h Handshake, ttl time.Duration) error {
    h.V = SchemaVersion
    return s.setRecord(ctx, s.key("handshake"), h, ttl)
}

// DeleteHandshake drops the marker.
func (s *Scope) DeleteHandshake(ctx context.Context) error {
    if err := s.kv.Del(ctx, s.key("handshake")); err != nil {
        return ErrUnavailable
    }
    return nil
}

// PendingInviteToken returns the invitation token captured before the
// login/signup detour, or "" when none is stored.
func (s *Scope) PendingInviteToken(ctx context.Context) (string, error) {
    var m inviteMarker
    ok, err := s.getRecord(ctx, s.key("invite"), &m, func() int { return m.V })
    if err != nil || !ok {
        return "", err
    }
    return m.Token, nil
}

// SetPendingInviteToken stores the invitation token so it survives the
// login/signup/verify detour.
func (s *Scope) SetPendingInviteToken(ctx context.Context, token string, ttl time.Duration) error {
    return s.setRecord(ctx, s.key("invite"), inviteMarker{V: SchemaVersion, Token: token}, ttl)
}

// DeletePendingInviteToken drops the marker after consumption or decline.
func (s *Scope) DeletePendingInviteToken(ctx context.Context) error {
    if err := s.kv.Del(ctx, s.key("invite")); err != nil {
        return ErrUnavailable
    }
    return nil
}

// JustSignedUp reports whether the just-completed-signup flag is set.
func (s *Scope) JustSignedUp(ctx context.Context) (bool, error) {
    var f flagMarker
    ok, err := s.getRecord(ctx, s.key("signedup"), &f, func() int { return f.V })
    if err != nil || !ok {
        return false, err
    }
    return f.Set, nil
}

// SetJustSignedUp raises the flag right after a successful verification
// that should flow into invitation auto-accept.
func (s *Scope) SetJustSignedUp(ctx context.Context, ttl time.Duration) error {
    return s.setRecord(ctx, s.key("signedup"), flagMarker{V: SchemaVersion, Set: true}, ttl)
}

// DeleteJustSignedUp lowers the flag once consumed.
func (s *Scope) DeleteJustSignedUp(ctx context.Context) error {
    if err := s.kv.Del(ctx, s.key("signedup")); err != nil {
        return ErrUnavailable
    }
    return nil
}
