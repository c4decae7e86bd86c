package middleware

import (
    "net/http"
    "time"

    "github.com/golang-jwt/jwt/v5" // JWT library, used here to read exp without verifying
    "github.com/labstack/echo/v4"

    "github.com/cardbook/crm-frontend/internal/model"
)

// Context keys populated by RequireSession for downstream handlers.
const (
    tokenKey = "auth_token"
    userKey  = "auth_user"
)

// RequireSession gates routes that need a logged-in browser.  The stored
// record decides: token present means authenticated.  When the token is a
// JWT whose exp has already passed, the session is cleared and the request
// rejected up front; the backend would refuse it anyway, this just fails
// closed locally without a round trip.
//
// The signature is NOT verified here: the backend owns the signing secret.
// An attacker who forges a local record gains nothing, every privileged
// call still hits the backend with the token attached.
func RequireSession() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            scope := Scope(c)
            rec, err := scope.Session(c.Request().Context())
            if err != nil {
                // Store unreadable: cannot authenticate, force logged-out.
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session unavailable"})
            }
            if !rec.Authenticated() {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
            }
            if expired(rec.Token) {
                _ = scope.ClearSession(c.Request().Context())
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session expired"})
            }
            c.Set(tokenKey, rec.Token)
            if rec.User != nil {
                c.Set(userKey, *rec.User)
            }
            return next(c)
        }
    }
}

// Token returns the bearer token stored for this request.  Empty outside
// RequireSession-protected routes.
func Token(c echo.Context) string {
    if v, ok := c.Get(tokenKey).(string); ok {
        return v
    }
    return ""
}

// expired reports whether tok is a parseable JWT with an exp claim in the
// past.  Opaque or claim-less tokens are never treated as expired locally.
func expired(tok string) bool {
    var claims jwt.RegisteredClaims
    parser := jwt.NewParser()
    if _, _, err := parser.ParseUnverified(tok, &claims); err != nil {
        return false
    }
    if claims.ExpiresAt == nil {
        return false
    }
    return claims.ExpiresAt.Before(time.Now())
}

// CachedUser returns the user snapshot stored with the session, if any.
// It is the cache, not the truth: handlers that route on userType must
// refresh through the resolver instead.
func CachedUser(c echo.Context) (model.UserSnapshot, bool) {
    u, ok := c.Get(userKey).(model.UserSnapshot)
    return u, ok
}
