package backend

import (
    "context"

    "github.com/cardbook/crm-frontend/internal/model"
)

// AuthResult is the common success payload of login and OTP verification.
// Registration endpoints return it without a token: the account exists but
// is unusable until the email is verified.
type AuthResult struct {
    Message string             `json:"message,omitempty"`
    Token   string             `json:"token,omitempty"`
    User    model.UserSnapshot `json:"user"`
}

// RegisterRequest creates an individual account.
type RegisterRequest struct {
    Email     string `json:"email"`
    Password  string `json:"password"`
    FirstName string `json:"firstName"`
    LastName  string `json:"lastName"`
}

// RegisterOrganizationRequest creates a user and their organization in one
// backend transaction.
type RegisterOrganizationRequest struct {
    Email     string `json:"email"`
    Password  string `json:"password"`
    FirstName string `json:"firstName"`
    LastName  string `json:"lastName"`
    OrgName   string `json:"orgName"`
    OrgSlug   string `json:"orgSlug"`
}

// Register creates an individual account and triggers the verification OTP
// email.  The returned result carries no token; the caller moves the
// browser into the pending-verification handshake.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthResult, error) {
    var out AuthResult
    err := c.post(ctx, "/auth/register", "", req, &out)
    return out, err
}

// RegisterOrganization creates the owner account and the organization
// atomically server-side, then triggers the verification OTP email.
func (c *Client) RegisterOrganization(ctx context.Context, req RegisterOrganizationRequest) (AuthResult, error) {
    var out AuthResult
    err := c.post(ctx, "/auth/register-organization", "", req, &out)
    return out, err
}

// Login exchanges credentials for a token and a fresh user snapshot.  A
// CodeEmailNotVerified error means the account exists but the OTP step was
// never completed; the caller redirects into the verification flow.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
    var out AuthResult
    err := c.post(ctx, "/auth/login", "", map[string]string{
        "email":    email,
        "password": password,
    }, &out)
    return out, err
}

// VerifyEmail submits the OTP for the given email.  On success the backend
// issues the session token, completing signup.
func (c *Client) VerifyEmail(ctx context.Context, email, otp string) (AuthResult, error) {
    var out AuthResult
    err := c.post(ctx, "/auth/verify-email", "", map[string]string{
        "email": email,
        "otp":   otp,
    }, &out)
    return out, err
}

// ResendOTP asks the backend to email a fresh verification code.
func (c *Client) ResendOTP(ctx context.Context, email string) error {
    return c.post(ctx, "/auth/resend-otp", "", map[string]string{"email": email}, nil)
}

// RequestPasswordReset triggers the reset-OTP email.  The backend responds
// identically whether or not the address exists.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
    return c.post(ctx, "/auth/request-password-reset", "", map[string]string{"email": email}, nil)
}

// ResetPassword completes the OTP-based reset flow.
func (c *Client) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
    return c.post(ctx, "/auth/reset-password", "", map[string]string{
        "email":       email,
        "otp":         otp,
        "newPassword": newPassword,
    }, nil)
}

// ChangePassword rotates the password of the authenticated user.
func (c *Client) ChangePassword(ctx context.Context, token, current, next string) error {
    return c.post(ctx, "/auth/change-password", token, map[string]string{
        "currentPassword": current,
        "newPassword":     next,
    }, nil)
}

// Logout invalidates the token server-side.  Local session teardown happens
// regardless of the outcome, so callers may ignore the error.
func (c *Client) Logout(ctx context.Context, token string) error {
    return c.post(ctx, "/auth/logout", token, nil, nil)
}
