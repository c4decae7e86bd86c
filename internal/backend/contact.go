package backend

import (
    "context"
    "net/url"
    "strconv"

    "github.com/cardbook/crm-frontend/internal/model"
)

// ContactPage is one page of the contact list plus the pagination totals
// the backend reports alongside it.
type ContactPage struct {
    Contacts []model.Contact
    Total    int
    Page     int
    Limit    int
    Count    int
}

// contactEnvelope matches the {success, data} wrapper single-contact
// endpoints use.
type contactEnvelope struct {
    Success bool          `json:"success"`
    Data    model.Contact `json:"data"`
}

// ListContacts returns one page of the caller's contacts.
func (c *Client) ListContacts(ctx context.Context, token string, page, limit int) (ContactPage, error) {
    var out struct {
        Success bool            `json:"success"`
        Data    []model.Contact `json:"data"`
        Total   int             `json:"total"`
        Page    int             `json:"page"`
        Limit   int             `json:"limit"`
        Count   int             `json:"count"`
    }
    q := url.Values{}
    q.Set("page", strconv.Itoa(page))
    q.Set("limit", strconv.Itoa(limit))
    if err := c.get(ctx, "/contacts?"+q.Encode(), token, &out); err != nil {
        return ContactPage{}, err
    }
    return ContactPage{
        Contacts: out.Data,
        Total:    out.Total,
        Page:     out.Page,
        Limit:    out.Limit,
        Count:    out.Count,
    }, nil
}

// GetContact fetches a single contact by id.
func (c *Client) GetContact(ctx context.Context, token, id string) (model.Contact, error) {
    var out contactEnvelope
    err := c.get(ctx, "/contacts/"+url.PathEscape(id), token, &out)
    return out.Data, err
}

// CreateContact adds a manually entered contact.  The path is distinct from
// the card-scan ingestion route the backend also exposes; the front-end
// only ever creates manual entries.
func (c *Client) CreateContact(ctx context.Context, token string, contact model.Contact) (model.Contact, error) {
    var out contactEnvelope
    err := c.post(ctx, "/contacts/manual", token, contact, &out)
    return out.Data, err
}

// UpdateContact applies a partial edit and returns the resulting contact.
func (c *Client) UpdateContact(ctx context.Context, token, id string, upd model.ContactUpdate) (model.Contact, error) {
    var out contactEnvelope
    err := c.put(ctx, "/contacts/"+url.PathEscape(id), token, upd, &out)
    return out.Data, err
}

// DeleteContact removes a contact.
func (c *Client) DeleteContact(ctx context.Context, token, id string) error {
    return c.delete(ctx, "/contacts/"+url.PathEscape(id), token, nil)
}
