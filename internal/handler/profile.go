package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/cardbook/crm-frontend/internal/backend"
    "github.com/cardbook/crm-frontend/internal/middleware"
    "github.com/cardbook/crm-frontend/internal/model"
    "github.com/cardbook/crm-frontend/internal/session"
)

// ProfileHandler serves the profile page endpoints.
type ProfileHandler struct {
    API *backend.Client
}

func NewProfileHandler(api *backend.Client) *ProfileHandler {
    return &ProfileHandler{API: api}
}

// Get refreshes and returns the user snapshot.  A transient fetch failure
// falls back to the cached copy with a warning rather than blanking the
// page; the cache stays authoritative until a refresh succeeds.
func (h *ProfileHandler) Get(c echo.Context) error {
    ctx := c.Request().Context()
    ctrl := session.New(middleware.Scope(c), h.API)
    user, err := ctrl.Refresh(ctx)
    if err != nil {
        if cached, ok := middleware.CachedUser(c); ok && backend.IsTransient(err) {
            return c.JSON(http.StatusOK, echo.Map{
                "user":    cached,
                "warning": "could not refresh your profile, showing the last known state",
            })
        }
        return backendError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"user": user})
}

// Update applies the edit and re-caches the snapshot the backend returns,
// notifying subscribed surfaces so the navbar name changes without a
// reload.
func (h *ProfileHandler) Update(c echo.Context) error {
    var req model.ProfileUpdate
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    ctx := c.Request().Context()
    user, err := h.API.UpdateProfile(ctx, middleware.Token(c), req)
    if err != nil {
        return backendError(c, err)
    }
    ctrl := session.New(middleware.Scope(c), h.API)
    if err := ctrl.ReplaceUser(ctx, user); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update session"})
    }
    return c.JSON(http.StatusOK, echo.Map{"user": user, "message": "profile updated"})
}
