package model

import "time"

// InvitationStatus enumerates the lifecycle of an organization invitation.
// Accepted, declined and expired are terminal: the backend permits no
// further transition once one of them is reached.
type InvitationStatus string

const (
    InvitationPending  InvitationStatus = "pending"
    InvitationAccepted InvitationStatus = "accepted"
    InvitationDeclined InvitationStatus = "declined"
    InvitationExpired  InvitationStatus = "expired"
)

// Invitation is fetched by token from the backend; it is never stored
// locally.  Role is the role the invitee would receive on acceptance.
type Invitation struct {
    ID               string           `json:"id"`
    Email            string           `json:"email"`
    Role             string           `json:"role"` // member | admin
    Token            string           `json:"token,omitempty"`
    Status           InvitationStatus `json:"status"`
    OrganizationName string           `json:"organizationName,omitempty"`
    InvitedByName    string           `json:"invitedByName,omitempty"`
    ExpiresAt        time.Time        `json:"expiresAt"`
    CreatedAt        time.Time        `json:"createdAt,omitempty"`
}

// IsExpired reports whether the invitation's deadline has passed at the
// given instant.  This is a display decision made client-side; the backend
// flips Status to expired on its own schedule.
func (i Invitation) IsExpired(now time.Time) bool {
    return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}
