package model

// Plan is one entry on the pricing page.  Price is in cents.
type Plan struct {
    ID           string   `json:"id"` // free | tier1 | tier2 | tier3
    Name         string   `json:"name"`
    TargetType   UserType `json:"targetType"`
    Price        int      `json:"price"`
    Interval     string   `json:"interval"`
    Features     []string `json:"features"`
    IsPopular    bool     `json:"isPopular"`
    ValidityDays int      `json:"validityDays"`
}

// PaymentData is the confirmation payload returned after a successful
// POST /payments.
type PaymentData struct {
    TransactionID string `json:"transactionId"`
    PlanID        string `json:"planId"`
    ExpiresAt     string `json:"expiresAt"`
    Credits       int    `json:"credits"`
}

// SubscriptionStatus summarizes the caller's current subscription as
// returned by GET /subscriptions/status.
type SubscriptionStatus struct {
    PlanID           string `json:"planId,omitempty"`
    Status           string `json:"status"` // free | active | expired | cancelled
    CreditsRemaining int    `json:"creditsRemaining"`
    PlanEndsAt       string `json:"planEndsAt,omitempty"`
}
