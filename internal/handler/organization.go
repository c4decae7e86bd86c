package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/cardbook/crm-frontend/internal/backend"
    "github.com/cardbook/crm-frontend/internal/middleware"
    "github.com/cardbook/crm-frontend/internal/session"
    "github.com/cardbook/crm-frontend/internal/tenant"
)

// OrganizationHandler serves the dashboard resolution and every
// organization management endpoint.
type OrganizationHandler struct {
    API *backend.Client
}

func NewOrganizationHandler(api *backend.Client) *OrganizationHandler {
    return &OrganizationHandler{API: api}
}

func (h *OrganizationHandler) resolver(c echo.Context) *tenant.Resolver {
    return tenant.NewResolver(session.New(middleware.Scope(c), h.API), h.API)
}

// Dashboard resolves the tenant context and returns everything the active
// dashboard needs: which surface, the fresh user snapshot, the
// organization (possibly none yet) or the membership list for the
// switcher, and any non-blocking warning.
func (h *OrganizationHandler) Dashboard(c echo.Context) error {
    tc, err := h.resolver(c).Resolve(c.Request().Context())
    if err != nil {
        if err == session.ErrNotAuthenticated {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
        }
        return backendError(c, err)
    }
    out := echo.Map{
        "dashboard": tc.Dashboard,
        "user":      tc.User,
    }
    if tc.Organization != nil {
        out["organization"] = tc.Organization
    }
    if tc.Memberships != nil {
        out["memberships"] = tc.Memberships
    }
    if tc.Warning != "" {
        out["warning"] = tc.Warning
    }
    return c.JSON(http.StatusOK, out)
}

// Switch changes the active organization context.  null selects the
// personal context.  The response tells the browser to reload everything:
// an org switch changes almost every visible entity, and one reload is
// safer than a dozen partial updates.
func (h *OrganizationHandler) Switch(c echo.Context) error {
    var req struct {
        OrganizationID *string `json:"organizationId"`
    }
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := h.resolver(c).SwitchOrganization(c.Request().Context(), req.OrganizationID); err != nil {
        if err == session.ErrNotAuthenticated {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
        }
        return backendError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "context switched", "reload": true})
}

// Members lists joined members and pending invitations.
func (h *OrganizationHandler) Members(c echo.Context) error {
    members, err := h.API.ListMembers(c.Request().Context(), middleware.Token(c))
    if err != nil {
        return backendError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"members": members})
}

// Invite emails an invitation.  Role is restricted to the two the backend
// understands.
func (h *OrganizationHandler) Invite(c echo.Context) error {
    var req struct {
        Email string `json:"email"`
        Role  string `json:"role"`
    }
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    fe := fieldErrors{}
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if !validEmail(req.Email) {
        fe.add("email", "enter a valid email address")
    }
    role := strings.ToLower(strings.TrimSpace(req.Role))
    if role != "member" && role != "admin" {
        fe.add("role", "role must be member or admin")
    }
    if len(fe) > 0 {
        return fe.respond(c)
    }
    inv, err := h.API.InviteMember(c.Request().Context(), middleware.Token(c), req.Email, role)
    if err != nil {
        return backendError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"invitation": inv})
}

// ResendInvite re-sends a pending invitation email.
func (h *OrganizationHandler) ResendInvite(c echo.Context) error {
    id := c.Param("id")
    if id == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invitation id required"})
    }
    if err := h.API.ResendInvitation(c.Request().Context(), middleware.Token(c), id); err != nil {
        return backendError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "invitation re-sent"})
}

// CancelInvite withdraws a pending invitation.
func (h *OrganizationHandler) CancelInvite(c echo.Context) error {
    id := c.Param("id")
    if id == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invitation id required"})
    }
    if err := h.API.CancelInvitation(c.Request().Context(), middleware.Token(c), id); err != nil {
        return backendError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "invitation cancelled"})
}

// RemoveMember removes a joined member.
func (h *OrganizationHandler) RemoveMember(c echo.Context) error {
    id := c.Param("id")
    if id == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "member id required"})
    }
    if err := h.API.RemoveMember(c.Request().Context(), middleware.Token(c), id); err != nil {
        return backendError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "member removed"})
}

// Leave drops the caller's own membership, then refreshes the cached
// snapshot so the switcher stops listing the organization.
func (h *OrganizationHandler) Leave(c echo.Context) error {
    var req struct {
        OrganizationID string `json:"organizationId"`
    }
    if err := c.Bind(&req); err != nil || req.OrganizationID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "organizationId required"})
    }
    ctx := c.Request().Context()
    if err := h.API.LeaveOrganization(ctx, middleware.Token(c), req.OrganizationID); err != nil {
        return backendError(c, err)
    }
    // Refresh failure here is tolerable: the next resolution re-fetches.
    _, _ = session.New(middleware.Scope(c), h.API).Refresh(ctx)
    return c.JSON(http.StatusOK, echo.Map{"message": "you left the organization"})
}
