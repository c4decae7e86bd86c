// Package handler contains the HTTP handlers behind every front-end route.
// Handlers follow one shape: bind, validate inline, call the flow or the
// backend, answer JSON.  Backend failures arrive pre-normalized; raw
// transport errors never reach this layer.
package handler

import (
    "net/http"
    "regexp"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/cardbook/crm-frontend/internal/backend"
)

// emailRe is deliberately loose: the backend is the authority on
// deliverability, this only catches obvious typos before a network call.
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const minPasswordLen = 8

// fieldErrors collects per-field validation messages shown inline next to
// the form controls.
type fieldErrors map[string]string

func (fe fieldErrors) add(field, msg string) { fe[field] = msg }

func (fe fieldErrors) respond(c echo.Context) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"errors": fe})
}

func validEmail(s string) bool {
    return emailRe.MatchString(strings.TrimSpace(s))
}

// backendError maps a normalized backend failure onto an HTTP response.
// Transient errors answer 502 with the generic retry message; everything
// else passes the backend's status and message through.
func backendError(c echo.Context, err error) error {
    if be, ok := err.(*backend.Error); ok {
        status := be.Status
        if status == 0 {
            status = http.StatusBadGateway
        }
        body := echo.Map{"error": be.Message}
        if be.Code != "" {
            body["code"] = be.Code
        }
        return c.JSON(status, body)
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// safeReturnPath accepts only site-relative paths, so a crafted return_to
// cannot bounce the browser off-site after login.
func safeReturnPath(p string) string {
    if strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") {
        return p
    }
    return ""
}
