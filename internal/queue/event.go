// Package queue defines message payloads exchanged over the message broker.
package queue

// SignupCompletedEvent is published when a user finishes email
// verification and their account becomes usable.  It carries enough for
// downstream analytics and onboarding email jobs without another API call.
type SignupCompletedEvent struct {
    UserID      string `json:"user_id"`
    Email       string `json:"email"`
    UserType    string `json:"user_type"` // individual | organization
    FromInvite  bool   `json:"from_invite"`
    CompletedAt string `json:"completed_at"`
}

// InvitationAcceptedEvent is published when an organization invitation is
// accepted, whether automatically after signup or by explicit action.
type InvitationAcceptedEvent struct {
    InvitationID     string `json:"invitation_id"`
    OrganizationName string `json:"organization_name"`
    InviteeEmail     string `json:"invitee_email"`
    Role             string `json:"role"`
    AutoAccepted     bool   `json:"auto_accepted"`
    AcceptedAt       string `json:"accepted_at"`
}
