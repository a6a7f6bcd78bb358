package handler

import (
    "context"              // provides context with cancellation for store calls
    "errors"               // sentinel matching for cookie-clearing decisions
    "net/http"             // HTTP status codes and primitives
    "strings"              // string manipulation utilities
    "time"                 // timeouts for store calls

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/modacart/auth-service/internal/config"     // app configuration
    "github.com/modacart/auth-service/internal/middleware" // user id extraction for /me
    "github.com/modacart/auth-service/internal/model"      // user record shape
    "github.com/modacart/auth-service/internal/service"    // auth orchestrator
)

// AuthHandler is the HTTP boundary over the auth orchestrator. Its one piece
// of real logic is the credential carrier: it moves the raw refresh token
// into a secure HttpOnly cookie on the way out and extracts it on the way
// back in; everything else is binding, timeout scoping and error mapping.
type AuthHandler struct {
	Cfg  config.Config
	Auth *service.AuthService
}

func NewAuthHandler(cfg config.Config, auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Auth: auth}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type idTokenReq struct {
	IDToken string `json:"id_token"`
}
type phoneLoginReq struct {
	IDToken string `json:"id_token"`
	Phone   string `json:"phone"`
}
type sendOTPReq struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"` // "login" (default) or "password_reset"
}
type otpLoginReq struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	Password string `json:"password"` // required only for first-time accounts
}
type resetPasswordReq struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}
type refreshBodyReq struct {
	RefreshToken string `json:"refresh_token"`
}

// userPart is the uniform success payload. The access token rides inside it;
// the raw refresh token travels only in the cookie, never in the body.
type userPart struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Role        string `json:"role"`
	AccessToken string `json:"accessToken"`
}

func sessionUser(u model.User, access string) userPart {
	return userPart{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Phone:       u.Phone,
		Role:        u.Role,
		AccessToken: access,
	}
}

// writeSession sets the refresh cookie and returns the user payload.
func (h *AuthHandler) writeSession(c echo.Context, status int, sess service.Session) error {
	ttl := time.Until(sess.Refresh.Exp)
	c.SetCookie(refreshCookie(sess.Refresh.Raw, h.Cfg.CookieDomain, h.Cfg.CookieSecure, ttl))
	return c.JSON(status, echo.Map{"user": sessionUser(sess.User, sess.Access.Token)})
}

func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// Register: create a password account and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email/password required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	sess, err := h.Auth.Register(ctx, strings.TrimSpace(req.Name), req.Email, req.Password)
	if err != nil {
		return writeServiceError(c, err)
	}
	return h.writeSession(c, http.StatusCreated, sess)
}

// Login: verify a password and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	sess, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return writeServiceError(c, err)
	}
	return h.writeSession(c, http.StatusOK, sess)
}

// LoginWithGoogle: exchange a Google identity token for a session.
func (h *AuthHandler) LoginWithGoogle(c echo.Context) error {
	var req idTokenReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.IDToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id_token required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	sess, err := h.Auth.LoginWithIDToken(ctx, req.IDToken)
	if err != nil {
		return writeServiceError(c, err)
	}
	return h.writeSession(c, http.StatusOK, sess)
}

// LoginWithPhone: exchange a phone-bound identity token for a session.
func (h *AuthHandler) LoginWithPhone(c echo.Context) error {
	var req phoneLoginReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.IDToken) == "" || strings.TrimSpace(req.Phone) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id_token/phone required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	sess, err := h.Auth.LoginWithPhoneToken(ctx, req.IDToken, strings.TrimSpace(req.Phone))
	if err != nil {
		return writeServiceError(c, err)
	}
	return h.writeSession(c, http.StatusOK, sess)
}

// SendOTP: generate and dispatch a one-time code. Responds 204 whether or
// not the email belongs to an account, so the endpoint cannot be used to
// probe registrations.
func (h *AuthHandler) SendOTP(c echo.Context) error {
	var req sendOTPReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}
	purpose := req.Purpose
	if purpose == "" {
		purpose = service.OTPPurposeLogin
	}
	if purpose != service.OTPPurposeLogin && purpose != service.OTPPurposeReset {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown purpose"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Auth.SendOTP(ctx, req.Email, purpose); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// LoginWithOTP: consume a one-time code. First-time users must supply a
// password in the same request.
func (h *AuthHandler) LoginWithOTP(c echo.Context) error {
	var req otpLoginReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.OTP) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/otp required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	sess, err := h.Auth.LoginWithOTP(ctx, req.Email, strings.TrimSpace(req.OTP), req.Password)
	if err != nil {
		return writeServiceError(c, err)
	}
	return h.writeSession(c, http.StatusOK, sess)
}

// ResetPassword: validate an OTP, store the new password and return a fresh
// session (a reset implicitly re-authenticates).
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.OTP) == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/otp/new_password required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	sess, err := h.Auth.ResetPassword(ctx, req.Email, strings.TrimSpace(req.OTP), req.NewPassword)
	if err != nil {
		return writeServiceError(c, err)
	}
	return h.writeSession(c, http.StatusOK, sess)
}

// EmailExists: storefront helper for the signup form.
func (h *AuthHandler) EmailExists(c echo.Context) error {
	email := strings.TrimSpace(c.QueryParam("email"))
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	exists, err := h.Auth.EmailExists(ctx, email)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"exists": exists})
}

// Refresh: rotate the refresh token carried by the cookie (body fallback for
// non-browser clients), revoking the old record before the new pair is
// issued.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := h.refreshTokenFromRequest(c)
	if raw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh token required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	sess, err := h.Auth.Refresh(ctx, raw)
	if err != nil {
		// A rejected token is useless to the client; clear the carrier. But
		// only when the token itself is the problem: a transient failure
		// must not destroy a cookie that would work on retry.
		if errors.Is(err, service.ErrTokenNotFound) || errors.Is(err, service.ErrTokenReused) || errors.Is(err, service.ErrTokenExpired) {
			c.SetCookie(deletionCookie(h.Cfg.CookieDomain, h.Cfg.CookieSecure))
		}
		return writeServiceError(c, err)
	}
	return h.writeSession(c, http.StatusOK, sess)
}

// Logout: revoke the presented refresh token (idempotent) and clear the
// carrier cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw := h.refreshTokenFromRequest(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Auth.Logout(ctx, raw); err != nil {
		return writeServiceError(c, err)
	}
	c.SetCookie(deletionCookie(h.Cfg.CookieDomain, h.Cfg.CookieSecure))
	return c.NoContent(http.StatusNoContent)
}

// LogoutAll: revoke every live refresh token of the authenticated user and
// clear the carrier cookie. Requires a valid access token.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	id, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Auth.LogoutAll(ctx, id); err != nil {
		return writeServiceError(c, err)
	}
	c.SetCookie(deletionCookie(h.Cfg.CookieDomain, h.Cfg.CookieSecure))
	return c.NoContent(http.StatusNoContent)
}

// Me: simple protected endpoint.
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": id,
		"role":    c.Get("role"),
	})
}

// refreshTokenFromRequest prefers the HttpOnly cookie and falls back to a
// JSON body for clients without a cookie jar.
func (h *AuthHandler) refreshTokenFromRequest(c echo.Context) string {
	if ck, err := c.Cookie(refreshCookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	var req refreshBodyReq
	_ = c.Bind(&req)
	return strings.TrimSpace(req.RefreshToken)
}
