// Package backend implements the HTTP client for the external CRM API.
// Every operation the front-end performs against the backend goes through
// this package, and every failure is normalized to an *Error before it is
// returned: handlers and flow logic never see raw transport errors.
package backend

import (
    "errors"
    "fmt"
    "net/http"
)

// Error codes the rest of the application branches on.  These are expected
// business outcomes dressed as errors, not failures: each has a specific
// user-facing treatment rather than a generic retry message.
const (
    CodeActiveSubscription = "ACTIVE_SUBSCRIPTION_EXISTS"
    CodeEmailNotVerified   = "EMAIL_NOT_VERIFIED"
    CodeNetwork            = "NETWORK_ERROR"
)

// Error is the normalized shape of any backend failure.  Status carries the
// HTTP status when one was received; it is zero for transport-level errors.
type Error struct {
    Status  int    // HTTP status code, 0 when the request never completed
    Code    string // machine-readable code from the response body, if any
    Message string // human-readable message safe to surface to the UI
}

func (e *Error) Error() string {
    if e.Code != "" {
        return fmt.Sprintf("backend: %s (%s)", e.Message, e.Code)
    }
    return "backend: " + e.Message
}

// IsNotFound reports whether err is a backend 404.  Callers decide whether
// that is an error: for GET /organizations/me it is a valid "no org yet"
// state and never reaches this check.
func IsNotFound(err error) bool {
    var be *Error
    return errors.As(err, &be) && be.Status == http.StatusNotFound
}

// IsCode reports whether err carries the given backend error code.
func IsCode(err error, code string) bool {
    var be *Error
    return errors.As(err, &be) && be.Code == code
}

// IsTransient reports whether err is a network-level failure that the user
// may simply retry.  Transient errors must never clear cached session or
// handshake state.
func IsTransient(err error) bool {
    var be *Error
    return errors.As(err, &be) && be.Status == 0
}
