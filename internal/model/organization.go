package model

import "time"

// Organization is the backend's organization record as returned by
// GET /organizations/me for organization-typed users.
type Organization struct {
    ID        string    `json:"id"`
    Name      string    `json:"name"`
    Slug      string    `json:"slug"`
    Logo      string    `json:"logo,omitempty"`
    Role      string    `json:"role"`
    CreatedAt time.Time `json:"createdAt"`
    UpdatedAt time.Time `json:"updatedAt"`
}

// Membership describes one organization a user belongs to, as listed by
// GET /organizations/my-organizations.  An individual user may hold any
// number of memberships; at most one is active at a time.
type Membership struct {
    OrganizationID string    `json:"id"`
    Name           string    `json:"name"`
    Slug           string    `json:"slug"`
    Logo           string    `json:"logo,omitempty"`
    Role           string    `json:"role"` // owner | admin | member
    JoinedAt       time.Time `json:"joinedAt"`
}

// Member is a joined member row on the organization members page.
type Member struct {
    ID       string    `json:"id"`
    UserID   string    `json:"userId"`
    Name     string    `json:"name"`
    Email    string    `json:"email"`
    Role     string    `json:"role"`
    JoinedAt time.Time `json:"joinedAt"`
}
