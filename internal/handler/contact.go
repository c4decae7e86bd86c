package handler

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/cardbook/crm-frontend/internal/backend"
    "github.com/cardbook/crm-frontend/internal/middleware"
    "github.com/cardbook/crm-frontend/internal/model"
)

// Contact list paging bounds.  The dashboard asks for large pages and
// filters client-side; the cap keeps a crafted limit from turning into an
// unbounded backend query.
const (
    defaultContactLimit = 20
    maxContactLimit     = 100
)

// ContactHandler serves the contact list, the main content of the
// individual dashboard, plus single-contact CRUD.
type ContactHandler struct {
    API *backend.Client
}

func NewContactHandler(api *backend.Client) *ContactHandler {
    return &ContactHandler{API: api}
}

// List returns one page of contacts with the pagination totals.
func (h *ContactHandler) List(c echo.Context) error {
    page := queryInt(c, "page", 1)
    if page < 1 {
        page = 1
    }
    limit := queryInt(c, "limit", defaultContactLimit)
    if limit < 1 {
        limit = defaultContactLimit
    }
    if limit > maxContactLimit {
        limit = maxContactLimit
    }

    pg, err := h.API.ListContacts(c.Request().Context(), middleware.Token(c), page, limit)
    if err != nil {
        return backendError(c, err)
    }
    contacts := pg.Contacts
    if contacts == nil {
        contacts = []model.Contact{}
    }
    return c.JSON(http.StatusOK, echo.Map{
        "contacts": contacts,
        "total":    pg.Total,
        "page":     pg.Page,
        "limit":    pg.Limit,
        "count":    pg.Count,
    })
}

// Get returns a single contact.
func (h *ContactHandler) Get(c echo.Context) error {
    id := c.Param("id")
    if id == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "contact id required"})
    }
    contact, err := h.API.GetContact(c.Request().Context(), middleware.Token(c), id)
    if err != nil {
        return backendError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"contact": contact})
}

// Create adds a manually entered contact.  Name is the only required
// field; email, when present, gets the same loose check as everywhere
// else.
func (h *ContactHandler) Create(c echo.Context) error {
    var req model.Contact
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    fe := fieldErrors{}
    req.Name = strings.TrimSpace(req.Name)
    if req.Name == "" {
        fe.add("name", "name is required")
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email != "" && !validEmail(req.Email) {
        fe.add("email", "enter a valid email address")
    }
    if len(fe) > 0 {
        return fe.respond(c)
    }
    req.ID = ""
    contact, err := h.API.CreateContact(c.Request().Context(), middleware.Token(c), req)
    if err != nil {
        return backendError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"contact": contact, "message": "contact added"})
}

// Update applies a partial edit.
func (h *ContactHandler) Update(c echo.Context) error {
    id := c.Param("id")
    if id == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "contact id required"})
    }
    var req model.ContactUpdate
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": fieldErrors{"name": "name cannot be empty"}})
    }
    if req.Email != nil && *req.Email != "" && !validEmail(*req.Email) {
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": fieldErrors{"email": "enter a valid email address"}})
    }
    contact, err := h.API.UpdateContact(c.Request().Context(), middleware.Token(c), id, req)
    if err != nil {
        return backendError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"contact": contact, "message": "contact updated"})
}

// Delete removes a contact.
func (h *ContactHandler) Delete(c echo.Context) error {
    id := c.Param("id")
    if id == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "contact id required"})
    }
    if err := h.API.DeleteContact(c.Request().Context(), middleware.Token(c), id); err != nil {
        return backendError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "contact deleted"})
}

// queryInt parses an integer query parameter, falling back on absence or
// garbage.
func queryInt(c echo.Context, name string, def int) int {
    v := c.QueryParam(name)
    if v == "" {
        return def
    }
    n, err := strconv.Atoi(v)
    if err != nil {
        return def
    }
    return n
}
