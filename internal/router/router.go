// Package router defines how HTTP routes are registered for the front-end.
package router

import (
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/cardbook/crm-frontend/internal/config"
    "github.com/cardbook/crm-frontend/internal/handler"
    "github.com/cardbook/crm-frontend/internal/middleware"
)

// Handlers bundles everything route registration needs.
type Handlers struct {
    Auth    *handler.AuthHandler
    Profile *handler.ProfileHandler
    Org     *handler.OrganizationHandler
    Invite  *handler.InviteHandler
    Billing *handler.BillingHandler
    Contact *handler.ContactHandler
}

// RegisterAll wires the full route table.  Three tiers:
//
//   - public: health, pricing (cached), invitation entry
//   - credential: signup/login/OTP/password endpoints, rate limited
//   - session: everything that needs a logged-in browser
//
// The browser-session middleware installed in main wraps everything, so
// each request carries its store scope.
func RegisterAll(e *echo.Echo, cfg config.Config, rdb *redis.Client, h Handlers) {
    e.GET("/healthz", handler.Health)

    rl := middleware.RateLimit(config.LoadRateLimitConfig(), rdb)
    cache := middleware.ResponseCache(config.LoadCacheConfig(), rdb)

    // Credential endpoints: no session required, but rate limited.  These
    // are the routes an attacker hammers.
    auth := e.Group("/api/auth", rl)
    auth.POST("/signup", h.Auth.Signup)
    auth.POST("/register-organization", h.Auth.SignupOrganization)
    auth.POST("/login", h.Auth.Login)
    auth.POST("/verify-otp", h.Auth.VerifyOTP)
    auth.POST("/resend-otp", h.Auth.ResendOTP)
    auth.POST("/forgot-password", h.Auth.ForgotPassword)
    auth.POST("/reset-password", h.Auth.ResetPassword)

    // Handshake state and logout need the session but not a credential.
    e.GET("/api/auth/verify-state", h.Auth.VerifyState)
    e.POST("/api/auth/logout", h.Auth.Logout)
    e.GET("/api/auth/session", h.Auth.Session)

    // Public pricing, shared response cache.
    e.GET("/api/plans", h.Billing.Plans, cache)

    // Invitation entry decides itself whether the visitor is logged in;
    // accept/decline are mounted here too so the decline-by-link path
    // works without a session.
    e.GET("/api/accept-invite/:token", h.Invite.Enter)
    e.POST("/api/accept-invite/:token/accept", h.Invite.Accept)
    e.POST("/api/accept-invite/:token/decline", h.Invite.Decline)

    // Session-gated surface.
    app := e.Group("/api", middleware.RequireSession())
    app.GET("/dashboard", h.Org.Dashboard)
    app.GET("/profile", h.Profile.Get)
    app.PUT("/profile", h.Profile.Update)
    app.POST("/auth/change-password", h.Auth.ChangePassword)

    // Contacts mirror the backend's route shape, manual-create path
    // included.
    app.GET("/contacts", h.Contact.List)
    app.GET("/contacts/:id", h.Contact.Get)
    app.POST("/contacts/manual", h.Contact.Create)
    app.PUT("/contacts/:id", h.Contact.Update)
    app.DELETE("/contacts/:id", h.Contact.Delete)

    app.POST("/organizations/switch", h.Org.Switch)
    app.GET("/organizations/members", h.Org.Members)
    app.POST("/organizations/invite", h.Org.Invite)
    app.POST("/organizations/invitations/:id/resend", h.Org.ResendInvite)
    app.DELETE("/organizations/invitations/:id", h.Org.CancelInvite)
    app.DELETE("/organizations/members/:id", h.Org.RemoveMember)
    app.POST("/organizations/leave", h.Org.Leave)

    app.GET("/subscriptions/status", h.Billing.Status)
    app.POST("/checkout", h.Billing.Checkout)
}
