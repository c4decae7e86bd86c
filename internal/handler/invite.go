package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/cardbook/crm-frontend/internal/backend"
    "github.com/cardbook/crm-frontend/internal/invite"
    "github.com/cardbook/crm-frontend/internal/middleware"
    "github.com/cardbook/crm-frontend/internal/queue"
    "github.com/cardbook/crm-frontend/internal/session"
    queue_publisher "github.com/cardbook/crm-frontend/internal/service"
)

// InviteHandler serves the /accept-invite flow.
type InviteHandler struct {
    API *backend.Client
}

func NewInviteHandler(api *backend.Client) *InviteHandler {
    return &InviteHandler{API: api}
}

func (h *InviteHandler) flow(c echo.Context) *invite.Flow {
    scope := middleware.Scope(c)
    return invite.NewFlow(scope, session.New(scope, h.API), h.API)
}

// Enter is the landing endpoint for an invitation link.  Unauthenticated
// browsers get the token parked and a redirect to login; authenticated
// ones get the invitation state, with auto-accept already applied when the
// gate passed.  ?action=decline skips the details and goes straight to the
// decline confirmation.
func (h *InviteHandler) Enter(c echo.Context) error {
    token := c.Param("token")
    if token == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invitation token required"})
    }
    ctx := c.Request().Context()

    if c.QueryParam("action") == "decline" {
        return h.declineShortcut(c, token)
    }

    view, err := h.flow(c).Enter(ctx, token)
    if err != nil {
        return backendError(c, err)
    }
    if view.RedirectToLogin {
        return c.JSON(http.StatusOK, echo.Map{
            "redirect": "/login?return_to=" + view.ReturnPath,
        })
    }
    out := echo.Map{"state": view.State}
    if view.Invitation != nil {
        out["invitation"] = view.Invitation
    }
    if view.AutoAccepted {
        out["autoAccepted"] = true
        out["redirect"] = "/dashboard"
        h.publishAccepted(view, true)
    }
    if view.Warning != "" {
        out["warning"] = view.Warning
    }
    return c.JSON(http.StatusOK, out)
}

// declineShortcut handles ?action=decline: no invitation details are
// shown, but the confirm step still applies unless confirm=true came with
// the link.
func (h *InviteHandler) declineShortcut(c echo.Context, token string) error {
    confirmed := c.QueryParam("confirm") == "true"
    err := h.flow(c).Decline(c.Request().Context(), token, confirmed)
    switch {
    case err == nil:
        return c.JSON(http.StatusOK, echo.Map{"state": invite.StateDeclined, "message": "invitation declined"})
    case err == invite.ErrConfirmationRequired:
        return c.JSON(http.StatusOK, echo.Map{
            "state":          invite.StatePending,
            "confirmDecline": true,
        })
    default:
        return backendError(c, err)
    }
}

// Accept finalizes membership on explicit click, then sends the browser to
// the personal dashboard.  The new organization is discoverable from the
// switcher there; dropping the user straight into org context is avoided
// on purpose.
func (h *InviteHandler) Accept(c echo.Context) error {
    token := c.Param("token")
    ctx := c.Request().Context()
    fl := h.flow(c)
    if err := fl.Accept(ctx, token); err != nil {
        if err == session.ErrNotAuthenticated {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
        }
        return backendError(c, err)
    }
    // Re-fetch for the event payload; failure only degrades the analytics
    // line, never the user outcome.
    if inv, err := h.API.GetInvitation(ctx, token); err == nil {
        h.publishAccepted(invite.View{Invitation: &inv}, false)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "state":    invite.StateAccepted,
        "message":  "welcome aboard",
        "redirect": "/dashboard",
    })
}

// Decline marks the invitation declined after interactive confirmation.
// Local state moves to declined without a refetch.
func (h *InviteHandler) Decline(c echo.Context) error {
    token := c.Param("token")
    var req struct {
        Confirmed bool `json:"confirmed"`
    }
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    err := h.flow(c).Decline(c.Request().Context(), token, req.Confirmed)
    switch {
    case err == nil:
        return c.JSON(http.StatusOK, echo.Map{"state": invite.StateDeclined, "message": "invitation declined"})
    case err == invite.ErrConfirmationRequired:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "confirmation required", "confirmDecline": true})
    default:
        return backendError(c, err)
    }
}

func (h *InviteHandler) publishAccepted(view invite.View, auto bool) {
    if view.Invitation == nil {
        return
    }
    ev := queue.InvitationAcceptedEvent{
        InvitationID:     view.Invitation.ID,
        OrganizationName: view.Invitation.OrganizationName,
        InviteeEmail:     view.Invitation.Email,
        Role:             view.Invitation.Role,
        AutoAccepted:     auto,
        AcceptedAt:       time.Now().UTC().Format(time.RFC3339),
    }
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        _ = queue_publisher.Publish(ctx, "invitation.accepted", ev)
    }()
}
