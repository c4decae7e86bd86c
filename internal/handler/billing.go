package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/cardbook/crm-frontend/internal/backend"
    "github.com/cardbook/crm-frontend/internal/middleware"
)

// BillingHandler serves the pricing page and the checkout endpoints.
type BillingHandler struct {
    API *backend.Client
}

func NewBillingHandler(api *backend.Client) *BillingHandler {
    return &BillingHandler{API: api}
}

// Plans returns the pricing catalogue.  Public, and wrapped by the
// response cache: plans are the same for everyone.
func (h *BillingHandler) Plans(c echo.Context) error {
    plans, err := h.API.ListPlans(c.Request().Context())
    if err != nil {
        return backendError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"plans": plans})
}

// Status returns the caller's subscription summary.
func (h *BillingHandler) Status(c echo.Context) error {
    status, err := h.API.GetSubscriptionStatus(c.Request().Context(), middleware.Token(c))
    if err != nil {
        return backendError(c, err)
    }
    return c.JSON(http.StatusOK, status)
}

// Checkout starts a payment.  An already-active subscription is a
// recognized outcome: the page gets a 200 with the code and a friendly
// message instead of an error banner.
func (h *BillingHandler) Checkout(c echo.Context) error {
    var req struct {
        PlanID string `json:"planId"`
    }
    if err := c.Bind(&req); err != nil || req.PlanID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "planId required"})
    }
    payment, err := h.API.CreatePayment(c.Request().Context(), middleware.Token(c), req.PlanID)
    if err != nil {
        if backend.IsCode(err, backend.CodeActiveSubscription) {
            return c.JSON(http.StatusOK, echo.Map{
                "code":    backend.CodeActiveSubscription,
                "message": "you already have an active subscription",
            })
        }
        return backendError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"payment": payment, "message": "payment created"})
}
