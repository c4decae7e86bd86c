package backend

import (
    "context"

    "github.com/cardbook/crm-frontend/internal/model"
)

// profileEnvelope matches the {success, data} wrapper profile endpoints use.
type profileEnvelope struct {
    Success bool               `json:"success"`
    Data    model.UserSnapshot `json:"data"`
}

// GetProfile fetches the authoritative user snapshot.  Routing decisions
// (individual vs organization dashboard) must use this, never the cached
// copy alone.
func (c *Client) GetProfile(ctx context.Context, token string) (model.UserSnapshot, error) {
    var out profileEnvelope
    if err := c.get(ctx, "/profile", token, &out); err != nil {
        return model.UserSnapshot{}, err
    }
    return out.Data, nil
}

// UpdateProfile applies the edit and returns the resulting snapshot, which
// the caller re-caches in the session store.
func (c *Client) UpdateProfile(ctx context.Context, token string, upd model.ProfileUpdate) (model.UserSnapshot, error) {
    var out profileEnvelope
    if err := c.put(ctx, "/profile", token, upd, &out); err != nil {
        return model.UserSnapshot{}, err
    }
    return out.Data, nil
}
