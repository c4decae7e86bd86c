package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/cardbook/crm-frontend/internal/backend"
    "github.com/cardbook/crm-frontend/internal/config"
    "github.com/cardbook/crm-frontend/internal/middleware"
    "github.com/cardbook/crm-frontend/internal/model"
    "github.com/cardbook/crm-frontend/internal/queue"
    "github.com/cardbook/crm-frontend/internal/session"
    queue_publisher "github.com/cardbook/crm-frontend/internal/service"
    "github.com/cardbook/crm-frontend/internal/verification"
)

// signedUpTTL bounds the just-signed-up flag: it only needs to survive the
// one redirect from OTP verification to the invite page.
const signedUpTTL = 10 * time.Minute

// AuthHandler bundles dependencies for the signup, login and verification
// endpoints.
type AuthHandler struct {
    Cfg      config.Config
    API      *backend.Client
    Attempts *verification.Attempts
}

func NewAuthHandler(cfg config.Config, api *backend.Client, attempts *verification.Attempts) *AuthHandler {
    return &AuthHandler{Cfg: cfg, API: api, Attempts: attempts}
}

func (h *AuthHandler) tracker(c echo.Context) *verification.Tracker {
    return verification.NewTracker(middleware.Scope(c), h.Attempts, h.Cfg.SessionWindow, h.Cfg.MaxOTPAttempts)
}

func (h *AuthHandler) controller(c echo.Context) *session.Controller {
    return session.New(middleware.Scope(c), h.API)
}

// ----- DTOs -----

type signupReq struct {
    Email           string `json:"email"`
    Password        string `json:"password"`
    ConfirmPassword string `json:"confirmPassword"`
    FirstName       string `json:"firstName"`
    LastName        string `json:"lastName"`
}

type signupOrgReq struct {
    signupReq
    OrgName string `json:"orgName"`
    OrgSlug string `json:"orgSlug"`
}

type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
    ReturnTo string `json:"returnTo"`
}

type otpReq struct {
    OTP string `json:"otp"`
}

// validate runs the checks shared by both signup variants.
func (r *signupReq) validate() fieldErrors {
    fe := fieldErrors{}
    r.Email = strings.ToLower(strings.TrimSpace(r.Email))
    if !validEmail(r.Email) {
        fe.add("email", "enter a valid email address")
    }
    if len(r.Password) < minPasswordLen {
        fe.add("password", "password must be at least 8 characters")
    }
    if r.ConfirmPassword != "" && r.ConfirmPassword != r.Password {
        fe.add("confirmPassword", "passwords do not match")
    }
    if strings.TrimSpace(r.FirstName) == "" {
        fe.add("firstName", "first name is required")
    }
    return fe
}

// Signup creates an individual account and opens the verification
// handshake.  No token is issued yet; the browser moves to the OTP page.
func (h *AuthHandler) Signup(c echo.Context) error {
    var req signupReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if fe := req.validate(); len(fe) > 0 {
        return fe.respond(c)
    }

    ctx := c.Request().Context()
    if _, err := h.API.Register(ctx, backend.RegisterRequest{
        Email:     req.Email,
        Password:  req.Password,
        FirstName: strings.TrimSpace(req.FirstName),
        LastName:  strings.TrimSpace(req.LastName),
    }); err != nil {
        return backendError(c, err)
    }
    if err := h.tracker(c).Begin(ctx, req.Email, model.UserTypeIndividual); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not start verification"})
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "message":  "check your email for the verification code",
        "email":    req.Email,
        "redirect": "/verify-otp",
    })
}

// SignupOrganization creates the owner account plus the organization in
// one backend transaction, then opens the handshake with the organization
// type so verification routes to the right dashboard.
func (h *AuthHandler) SignupOrganization(c echo.Context) error {
    var req signupOrgReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    fe := req.validate()
    if strings.TrimSpace(req.OrgName) == "" {
        fe.add("orgName", "organization name is required")
    }
    if strings.TrimSpace(req.OrgSlug) == "" {
        fe.add("orgSlug", "organization URL is required")
    }
    if len(fe) > 0 {
        return fe.respond(c)
    }

    ctx := c.Request().Context()
    if _, err := h.API.RegisterOrganization(ctx, backend.RegisterOrganizationRequest{
        Email:     req.Email,
        Password:  req.Password,
        FirstName: strings.TrimSpace(req.FirstName),
        LastName:  strings.TrimSpace(req.LastName),
        OrgName:   strings.TrimSpace(req.OrgName),
        OrgSlug:   strings.TrimSpace(req.OrgSlug),
    }); err != nil {
        return backendError(c, err)
    }
    if err := h.tracker(c).Begin(ctx, req.Email, model.UserTypeOrganization); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not start verification"})
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "message":  "check your email for the verification code",
        "email":    req.Email,
        "redirect": "/verify-otp",
    })
}

// Login exchanges credentials for a session.  An unverified account is an
// expected outcome, not a failure: it reopens the handshake and sends the
// browser to the OTP page instead.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    fe := fieldErrors{}
    if !validEmail(req.Email) {
        fe.add("email", "enter a valid email address")
    }
    if req.Password == "" {
        fe.add("password", "password is required")
    }
    if len(fe) > 0 {
        return fe.respond(c)
    }

    ctx := c.Request().Context()
    res, err := h.API.Login(ctx, req.Email, req.Password)
    if err != nil {
        if backend.IsCode(err, backend.CodeEmailNotVerified) {
            // Reopen the handshake so the OTP page has something to work
            // with, then point the browser there.  The account kind is
            // unknown at this point; the type written here is provisional
            // and the verify response overrides it for the final redirect.
            _ = h.tracker(c).Begin(ctx, req.Email, model.UserTypeIndividual)
            _ = h.API.ResendOTP(ctx, req.Email)
            return c.JSON(http.StatusForbidden, echo.Map{
                "error":    "your email is not verified yet",
                "code":     backend.CodeEmailNotVerified,
                "redirect": "/verify-otp",
            })
        }
        return backendError(c, err)
    }

    ctrl := h.controller(c)
    if err := ctrl.Login(ctx, res.Token, res.User); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not establish session"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "user":     res.User,
        "redirect": h.postLoginRedirect(c, res.User, req.ReturnTo),
    })
}

// postLoginRedirect picks where the browser goes after authentication: the
// requested return path when safe, a parked invitation when one exists,
// otherwise the dashboard matching the server-confirmed user type.
func (h *AuthHandler) postLoginRedirect(c echo.Context, user model.UserSnapshot, returnTo string) string {
    if p := safeReturnPath(returnTo); p != "" {
        return p
    }
    if tok, err := middleware.Scope(c).PendingInviteToken(c.Request().Context()); err == nil && tok != "" {
        return "/accept-invite/" + tok
    }
    if user.UserType == model.UserTypeOrganization {
        return "/organization"
    }
    return "/dashboard"
}

// VerifyState reports the handshake for the OTP page: the email being
// verified, the user type and the milliseconds left on the countdown.  Missing or
// expired handshakes answer 410 with a reason code so the page can route
// back to signup.
func (h *AuthHandler) VerifyState(c echo.Context) error {
    st, err := h.tracker(c).Check(c.Request().Context())
    switch err {
    case nil:
    case verification.ErrNoSession:
        return c.JSON(http.StatusGone, echo.Map{"error": "no signup in progress", "reason": "no_session", "redirect": "/signup"})
    case verification.ErrExpired:
        return c.JSON(http.StatusGone, echo.Map{"error": "verification session expired", "reason": "expired", "redirect": "/signup"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session unavailable"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "email":           st.Email,
        "type":            st.Type,
        "remainingMillis": st.Remaining.Milliseconds(),
    })
}

// VerifyOTP submits the code.  Success logs the session in, completes the
// handshake and routes either to a parked invitation (raising the
// just-signed-up flag for auto-accept) or to the matching dashboard.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
    var req otpReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.OTP) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "otp required"})
    }

    ctx := c.Request().Context()
    tracker := h.tracker(c)
    st, err := tracker.Check(ctx)
    switch err {
    case nil:
    case verification.ErrNoSession:
        return c.JSON(http.StatusGone, echo.Map{"error": "no signup in progress", "reason": "no_session", "redirect": "/signup"})
    case verification.ErrExpired:
        return c.JSON(http.StatusGone, echo.Map{"error": "verification session expired", "reason": "expired", "redirect": "/signup"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session unavailable"})
    }

    if tracker.Locked() {
        return c.JSON(http.StatusTooManyRequests, echo.Map{
            "error": "too many failed attempts, request a new code",
        })
    }

    res, err := h.API.VerifyEmail(ctx, st.Email, strings.TrimSpace(req.OTP))
    if err != nil {
        if backend.IsTransient(err) {
            // Network trouble is not a wrong code; the attempt counter
            // and the handshake stay untouched.
            return backendError(c, err)
        }
        var be *backend.Error
        if errors.As(err, &be) && be.Status >= http.StatusInternalServerError {
            // A backend failure is not a wrong code either; only a
            // rejected submission spends an attempt.
            return backendError(c, err)
        }
        remaining := tracker.RecordFailure()
        if remaining == 0 {
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "error": "too many failed attempts, request a new code",
            })
        }
        return c.JSON(http.StatusUnauthorized, echo.Map{
            "error":             "invalid code",
            "attemptsRemaining": remaining,
        })
    }

    scope := middleware.Scope(c)
    ctrl := h.controller(c)
    if err := ctrl.Login(ctx, res.Token, res.User); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not establish session"})
    }
    _ = tracker.Complete(ctx)

    // The verify response carries the server-confirmed user type; the
    // handshake type is only a fallback.  A login-reopened handshake does
    // not know the account kind, so trusting it alone would send an
    // organization owner to the wrong dashboard.
    userType := res.User.UserType
    if userType == "" {
        userType = st.Type
    }
    redirect := "/dashboard"
    if userType == model.UserTypeOrganization {
        redirect = "/organization"
    }
    fromInvite := false
    if tok, err := scope.PendingInviteToken(ctx); err == nil && tok != "" {
        // A parked invitation wins the redirect; the flag arms auto-accept
        // on landing.
        fromInvite = true
        _ = scope.SetJustSignedUp(ctx, signedUpTTL)
        redirect = "/accept-invite/" + tok
    }

    go func(ev queue.SignupCompletedEvent) {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        _ = queue_publisher.Publish(ctx, "signup.completed", ev)
    }(queue.SignupCompletedEvent{
        UserID:      res.User.ID,
        Email:       res.User.Email,
        UserType:    string(userType),
        FromInvite:  fromInvite,
        CompletedAt: time.Now().UTC().Format(time.RFC3339),
    })

    return c.JSON(http.StatusOK, echo.Map{"user": res.User, "redirect": redirect})
}

// ResendOTP asks the backend for a fresh code and extends the handshake
// window, which also unlocks a capped attempt counter.
func (h *AuthHandler) ResendOTP(c echo.Context) error {
    ctx := c.Request().Context()
    tracker := h.tracker(c)
    st, err := tracker.Check(ctx)
    switch err {
    case nil:
    case verification.ErrNoSession:
        return c.JSON(http.StatusGone, echo.Map{"error": "no signup in progress", "reason": "no_session", "redirect": "/signup"})
    case verification.ErrExpired:
        return c.JSON(http.StatusGone, echo.Map{"error": "verification session expired", "reason": "expired", "redirect": "/signup"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session unavailable"})
    }

    if err := h.API.ResendOTP(ctx, st.Email); err != nil {
        return backendError(c, err)
    }
    if err := tracker.Touch(ctx); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not extend session"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "a new code is on its way"})
}

// ForgotPassword triggers the reset email.  The response is identical
// whether or not the address exists.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
    var req struct {
        Email string `json:"email"`
    }
    if err := c.Bind(&req); err != nil || !validEmail(req.Email) {
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": fieldErrors{"email": "enter a valid email address"}})
    }
    if err := h.API.RequestPasswordReset(c.Request().Context(), strings.ToLower(strings.TrimSpace(req.Email))); err != nil {
        return backendError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "if that address exists, a reset code was sent"})
}

// ResetPassword completes the OTP-based reset.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
    var req struct {
        Email       string `json:"email"`
        OTP         string `json:"otp"`
        NewPassword string `json:"newPassword"`
    }
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    fe := fieldErrors{}
    if !validEmail(req.Email) {
        fe.add("email", "enter a valid email address")
    }
    if strings.TrimSpace(req.OTP) == "" {
        fe.add("otp", "reset code is required")
    }
    if len(req.NewPassword) < minPasswordLen {
        fe.add("newPassword", "password must be at least 8 characters")
    }
    if len(fe) > 0 {
        return fe.respond(c)
    }
    if err := h.API.ResetPassword(c.Request().Context(),
        strings.ToLower(strings.TrimSpace(req.Email)), strings.TrimSpace(req.OTP), req.NewPassword); err != nil {
        return backendError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "password updated, you can log in now", "redirect": "/login"})
}

// ChangePassword rotates the password for a logged-in user.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
    var req struct {
        CurrentPassword string `json:"currentPassword"`
        NewPassword     string `json:"newPassword"`
    }
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if len(req.NewPassword) < minPasswordLen {
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": fieldErrors{"newPassword": "password must be at least 8 characters"}})
    }
    if err := h.API.ChangePassword(c.Request().Context(), middleware.Token(c), req.CurrentPassword, req.NewPassword); err != nil {
        return backendError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "password changed"})
}

// Logout tears the local session down and tells the backend best-effort.
// Local teardown never waits on the backend: the user asked to leave.
func (h *AuthHandler) Logout(c echo.Context) error {
    ctx := c.Request().Context()
    ctrl := h.controller(c)
    if rec, err := ctrl.Current(ctx); err == nil && rec.Authenticated() {
        _ = h.API.Logout(ctx, rec.Token)
    }
    if err := ctrl.Logout(ctx); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not clear session"})
    }
    return c.JSON(http.StatusOK, echo.Map{"redirect": "/login"})
}

// Session reports auth state for the navbar and other chrome: cheap, local,
// no backend call.
func (h *AuthHandler) Session(c echo.Context) error {
    rec, err := h.controller(c).Current(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusOK, echo.Map{"authenticated": false})
    }
    out := echo.Map{"authenticated": rec.Authenticated()}
    if rec.User != nil {
        out["user"] = rec.User
    }
    return c.JSON(http.StatusOK, out)
}
