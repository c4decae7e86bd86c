package backend

import (
    "context"
    "net/url"

    "github.com/cardbook/crm-frontend/internal/model"
)

// GetInvitation fetches an invitation by its opaque token.  A 404 surfaces
// as a normal *Error; the acceptance flow maps it to its not_found state.
func (c *Client) GetInvitation(ctx context.Context, token string) (model.Invitation, error) {
    var out struct {
        Success    bool             `json:"success"`
        Invitation model.Invitation `json:"invitation"`
    }
    err := c.get(ctx, "/invitations/"+url.PathEscape(token), "", &out)
    return out.Invitation, err
}

// AcceptInvitation finalizes membership for the authenticated user.
func (c *Client) AcceptInvitation(ctx context.Context, authToken, inviteToken string) error {
    return c.post(ctx, "/invitations/"+url.PathEscape(inviteToken)+"/accept", authToken, nil, nil)
}

// DeclineInvitation marks the invitation declined.  Declining is allowed
// without authentication: the token itself proves the invitee saw it.
func (c *Client) DeclineInvitation(ctx context.Context, authToken, inviteToken string) error {
    return c.post(ctx, "/invitations/"+url.PathEscape(inviteToken)+"/decline", authToken, nil, nil)
}
