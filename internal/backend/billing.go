package backend

import (
    "context"

    "github.com/cardbook/crm-frontend/internal/model"
)

// ListPlans returns the pricing catalogue.  The route is public; no token
// is required.
func (c *Client) ListPlans(ctx context.Context) ([]model.Plan, error) {
    var out struct {
        Plans []model.Plan `json:"plans"`
    }
    if err := c.get(ctx, "/subscriptions", "", &out); err != nil {
        return nil, err
    }
    return out.Plans, nil
}

// GetSubscriptionStatus returns the caller's current subscription summary.
func (c *Client) GetSubscriptionStatus(ctx context.Context, token string) (model.SubscriptionStatus, error) {
    var out model.SubscriptionStatus
    err := c.get(ctx, "/subscriptions/status", token, &out)
    return out, err
}

// CreatePayment starts a payment for the given plan.  A
// CodeActiveSubscription error is a recognized outcome, not a failure: the
// user already holds an active plan and the checkout page says so instead
// of showing a retry message.
func (c *Client) CreatePayment(ctx context.Context, token, planID string) (model.PaymentData, error) {
    var out struct {
        Success bool              `json:"success"`
        Message string            `json:"message"`
        Data    model.PaymentData `json:"data"`
    }
    err := c.post(ctx, "/payments", token, map[string]string{"planId": planID}, &out)
    return out.Data, err
}
