package backend

import (
    "context"
    "net/http"

    "github.com/cardbook/crm-frontend/internal/model"
)

// MemberList is the combined members view: joined members plus invitations
// still pending.
type MemberList struct {
    Joined  []model.Member     `json:"joined"`
    Pending []model.Invitation `json:"pending"`
}

// GetMyOrganization returns the caller's organization record.  A backend
// 404 means "organization-typed user with no org record yet"; that is a
// valid state, reported as (nil, nil) so no caller ever mistakes it for a
// failure.
func (c *Client) GetMyOrganization(ctx context.Context, token string) (*model.Organization, error) {
    var out struct {
        Success bool               `json:"success"`
        Data    model.Organization `json:"data"`
    }
    err := c.get(ctx, "/organizations/me", token, &out)
    if err != nil {
        if be, ok := err.(*Error); ok && be.Status == http.StatusNotFound {
            return nil, nil
        }
        return nil, err
    }
    return &out.Data, nil
}

// ListMyOrganizations returns every organization the user belongs to,
// whatever the role.
func (c *Client) ListMyOrganizations(ctx context.Context, token string) ([]model.Membership, error) {
    var out struct {
        Success bool `json:"success"`
        Data    struct {
            Organizations []model.Membership `json:"organizations"`
        } `json:"data"`
    }
    if err := c.get(ctx, "/organizations/my-organizations", token, &out); err != nil {
        return nil, err
    }
    return out.Data.Organizations, nil
}

// SwitchOrganization sets the active organization context server-side.  A
// nil orgID selects the personal context.
func (c *Client) SwitchOrganization(ctx context.Context, token string, orgID *string) error {
    return c.post(ctx, "/organizations/switch", token, map[string]*string{
        "organizationId": orgID,
    }, nil)
}

// LeaveOrganization removes the caller's membership.
func (c *Client) LeaveOrganization(ctx context.Context, token, orgID string) error {
    return c.post(ctx, "/organizations/leave", token, map[string]string{
        "organizationId": orgID,
    }, nil)
}

// InviteMember sends an invitation email for the caller's organization.
func (c *Client) InviteMember(ctx context.Context, token, email, role string) (model.Invitation, error) {
    var out struct {
        Success    bool             `json:"success"`
        Invitation model.Invitation `json:"invitation"`
    }
    err := c.post(ctx, "/organizations/invite", token, map[string]string{
        "email": email,
        "role":  role,
    }, &out)
    return out.Invitation, err
}

// ResendInvitation re-sends a pending invitation email.
func (c *Client) ResendInvitation(ctx context.Context, token, invitationID string) error {
    return c.post(ctx, "/organizations/invite/resend", token, map[string]string{
        "invitationId": invitationID,
    }, nil)
}

// CancelInvitation withdraws a pending invitation.
func (c *Client) CancelInvitation(ctx context.Context, token, invitationID string) error {
    return c.delete(ctx, "/organizations/invitations/"+invitationID, token, nil)
}

// RemoveMember removes a joined member from the organization.
func (c *Client) RemoveMember(ctx context.Context, token, memberID string) error {
    return c.delete(ctx, "/organizations/members/"+memberID, token, nil)
}

// ListMembers returns joined members and pending invitations for the
// caller's organization.
func (c *Client) ListMembers(ctx context.Context, token string) (MemberList, error) {
    var out struct {
        Success bool       `json:"success"`
        Members MemberList `json:"members"`
    }
    err := c.get(ctx, "/organizations/members", token, &out)
    return out.Members, err
}
