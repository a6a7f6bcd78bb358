package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modacart/auth-service/internal/config"
	"github.com/modacart/auth-service/internal/model"
	"github.com/modacart/auth-service/internal/repository"
	"github.com/modacart/auth-service/internal/service"
	"github.com/modacart/auth-service/internal/utils"
)

// In-memory stores for driving the handler through the real service.

type memUsers struct {
	nextID uint64
	byID   map[uint64]model.User
}

func newMemUsers() *memUsers { return &memUsers{byID: make(map[uint64]model.User)} }

func (m *memUsers) FindByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) FindByPhone(_ context.Context, phone string) (model.User, error) {
	for _, u := range m.byID {
		if u.Phone != "" && u.Phone == phone {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) FindByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) Create(_ context.Context, nu repository.NewUser) (uint64, error) {
	if _, err := m.FindByEmail(context.Background(), nu.Email); nu.Email != "" && err == nil {
		return 0, repository.ErrDuplicate
	}
	var hash string
	if nu.Password != "" {
		h, err := utils.HashPassword(nu.Password, 0)
		if err != nil {
			return 0, err
		}
		hash = h
	}
	m.nextID++
	m.byID[m.nextID] = model.User{
		ID: m.nextID, Name: nu.Name, Email: nu.Email, Phone: nu.Phone,
		PasswordHash: hash, Role: nu.Role,
	}
	return m.nextID, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id uint64, plain string) error {
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	h, err := utils.HashPassword(plain, 0)
	if err != nil {
		return err
	}
	u.PasswordHash = h
	m.byID[id] = u
	return nil
}

type memTokens struct{ byHash map[string]*model.RefreshToken }

func newMemTokens() *memTokens { return &memTokens{byHash: make(map[string]*model.RefreshToken)} }

func (m *memTokens) Insert(_ context.Context, userID uint64, hash string, exp time.Time) error {
	m.byHash[hash] = &model.RefreshToken{UserID: userID, TokenHash: hash, ExpiresAt: exp}
	return nil
}

func (m *memTokens) Lookup(_ context.Context, hash string) (model.RefreshToken, error) {
	rec, ok := m.byHash[hash]
	if !ok {
		return model.RefreshToken{}, repository.ErrNotFound
	}
	return *rec, nil
}

func (m *memTokens) Consume(_ context.Context, hash string) (bool, error) {
	rec, ok := m.byHash[hash]
	if !ok || rec.RevokedAt != nil {
		return false, nil
	}
	now := time.Now().UTC()
	rec.RevokedAt = &now
	return true, nil
}

func (m *memTokens) RevokeByHash(_ context.Context, hash string) error {
	if rec, ok := m.byHash[hash]; ok && rec.RevokedAt == nil {
		now := time.Now().UTC()
		rec.RevokedAt = &now
	}
	return nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	now := time.Now().UTC()
	for _, rec := range m.byHash {
		if rec.UserID == userID && rec.RevokedAt == nil {
			rec.RevokedAt = &now
		}
	}
	return nil
}

type memCodes struct{ byKey map[string]string }

func newMemCodes() *memCodes { return &memCodes{byKey: make(map[string]string)} }

func (m *memCodes) Put(_ context.Context, key, code string, _ time.Duration) error {
	m.byKey[key] = code
	return nil
}
func (m *memCodes) Get(_ context.Context, key string) (string, error) { return m.byKey[key], nil }
func (m *memCodes) Delete(_ context.Context, key string) error {
	delete(m.byKey, key)
	return nil
}

type memSender struct {
	codes    map[string]string
	purposes map[string]string
}

func newMemSender() *memSender {
	return &memSender{codes: make(map[string]string), purposes: make(map[string]string)}
}

func (m *memSender) SendOTP(_ context.Context, email, code, purpose string) error {
	m.codes[email] = code
	m.purposes[email] = purpose
	return nil
}

// handlerFixture exposes the in-memory stores behind a wired AuthHandler so
// tests can reach past the HTTP surface when they need to.
type handlerFixture struct {
	h      *AuthHandler
	users  *memUsers
	sender *memSender
}

func newHandlerFixture() handlerFixture {
	cfg := config.Config{
		JWTSecret:      "test-secret",
		JWTIssuer:      "test-issuer",
		AccessTTLMin:   15,
		RefreshTTLDays: 30,
		OTPTTL:         10 * time.Minute,
		CookieSecure:   false,
	}
	users := newMemUsers()
	sender := newMemSender()
	svc := service.NewAuthService(service.AuthConfig{
		JWTSecret:      cfg.JWTSecret,
		JWTIssuer:      cfg.JWTIssuer,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		OTPTTL:         cfg.OTPTTL,
	}, users, newMemTokens(), newMemCodes(), sender, nil)
	return handlerFixture{h: NewAuthHandler(cfg, svc), users: users, sender: sender}
}

func newTestAuthHandler() *AuthHandler { return newHandlerFixture().h }

func postJSON(e *echo.Echo, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func refreshCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == refreshCookieName {
			return ck
		}
	}
	t.Fatal("no refresh cookie in response")
	return nil
}

func TestRegisterSetsRefreshCookie(t *testing.T) {
	h := newTestAuthHandler()
	e := echo.New()

	c, rec := postJSON(e, "/v1/auth/register",
		`{"name":"Ada","email":"ada@example.com","password":"pa55word"}`)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	ck := refreshCookieFrom(t, rec)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, refreshCookiePath, ck.Path)
	assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)
	assert.Len(t, ck.Value, 96)

	var body struct {
		User struct {
			Email       string `json:"email"`
			AccessToken string `json:"accessToken"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ada@example.com", body.User.Email)
	assert.NotEmpty(t, body.User.AccessToken)
	// The raw refresh token travels only in the cookie.
	assert.NotContains(t, rec.Body.String(), ck.Value)
}

func TestLoginWrongPasswordMapsTo401(t *testing.T) {
	h := newTestAuthHandler()
	e := echo.New()

	c, rec := postJSON(e, "/v1/auth/register",
		`{"name":"Ada","email":"ada@example.com","password":"pa55word"}`)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	c, rec = postJSON(e, "/v1/auth/login",
		`{"email":"ada@example.com","password":"wrong"}`)
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshRotatesCookie(t *testing.T) {
	h := newTestAuthHandler()
	e := echo.New()

	c, rec := postJSON(e, "/v1/auth/register",
		`{"name":"Ada","email":"ada@example.com","password":"pa55word"}`)
	require.NoError(t, h.Register(c))
	first := refreshCookieFrom(t, rec)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: first.Value})
	rec = httptest.NewRecorder()
	require.NoError(t, h.Refresh(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	second := refreshCookieFrom(t, rec)
	assert.NotEqual(t, first.Value, second.Value)

	// Presenting the consumed token again is reuse: 401 and the cookie is
	// cleared so the client stops retrying it.
	req = httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: first.Value})
	rec = httptest.NewRecorder()
	require.NoError(t, h.Refresh(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, -1, refreshCookieFrom(t, rec).MaxAge)
}

func TestRefreshKeepsCookieOnInternalError(t *testing.T) {
	f := newHandlerFixture()
	e := echo.New()

	c, rec := postJSON(e, "/v1/auth/register",
		`{"name":"Ada","email":"ada@example.com","password":"pa55word"}`)
	require.NoError(t, f.h.Register(c))
	raw := refreshCookieFrom(t, rec).Value

	// Drop the user row out from under the token so rotation fails inside
	// the service rather than at token validation.
	for id := range f.users.byID {
		delete(f.users.byID, id)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: raw})
	rec = httptest.NewRecorder()
	require.NoError(t, f.h.Refresh(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// A failure that is not the token's fault must leave the carrier cookie
	// alone; the client may retry once the backend recovers.
	for _, ck := range rec.Result().Cookies() {
		assert.NotEqual(t, refreshCookieName, ck.Name)
	}
}

func TestRefreshAcceptsBodyFallback(t *testing.T) {
	h := newTestAuthHandler()
	e := echo.New()

	c, rec := postJSON(e, "/v1/auth/register",
		`{"name":"Ada","email":"ada@example.com","password":"pa55word"}`)
	require.NoError(t, h.Register(c))
	raw := refreshCookieFrom(t, rec).Value

	c, rec = postJSON(e, "/v1/auth/refresh", `{"refresh_token":"`+raw+`"}`)
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefreshWithoutTokenIs400(t *testing.T) {
	h := newTestAuthHandler()
	e := echo.New()

	c, rec := postJSON(e, "/v1/auth/refresh", `{}`)
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	h := newTestAuthHandler()
	e := echo.New()

	c, rec := postJSON(e, "/v1/auth/register",
		`{"name":"Ada","email":"ada@example.com","password":"pa55word"}`)
	require.NoError(t, h.Register(c))
	raw := refreshCookieFrom(t, rec).Value

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: raw})
	rec = httptest.NewRecorder()
	require.NoError(t, h.Logout(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, -1, refreshCookieFrom(t, rec).MaxAge)

	// The revoked token can no longer be rotated.
	req = httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: raw})
	rec = httptest.NewRecorder()
	require.NoError(t, h.Refresh(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSendOTPAlwaysAccepts(t *testing.T) {
	h := newTestAuthHandler()
	e := echo.New()

	// Unregistered address: the endpoint must not reveal whether an account
	// exists.
	c, rec := postJSON(e, "/v1/auth/otp/send", `{"email":"ghost@example.com"}`)
	require.NoError(t, h.SendOTP(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSendOTPPurpose(t *testing.T) {
	f := newHandlerFixture()
	e := echo.New()

	// Default purpose is the login wording.
	c, rec := postJSON(e, "/v1/auth/otp/send", `{"email":"ada@example.com"}`)
	require.NoError(t, f.h.SendOTP(c))
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, service.OTPPurposeLogin, f.sender.purposes["ada@example.com"])

	// A reset request is stamped as such so the mail template differs.
	c, rec = postJSON(e, "/v1/auth/otp/send",
		`{"email":"ada@example.com","purpose":"password_reset"}`)
	require.NoError(t, f.h.SendOTP(c))
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, service.OTPPurposeReset, f.sender.purposes["ada@example.com"])

	// Anything else is rejected before a code is generated.
	c, rec = postJSON(e, "/v1/auth/otp/send",
		`{"email":"ada@example.com","purpose":"newsletter"}`)
	require.NoError(t, f.h.SendOTP(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmailExists(t *testing.T) {
	h := newTestAuthHandler()
	e := echo.New()

	c, rec := postJSON(e, "/v1/auth/register",
		`{"name":"Ada","email":"ada@example.com","password":"pa55word"}`)
	require.NoError(t, h.Register(c))

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/email-exists?email=ada@example.com", nil)
	rec = httptest.NewRecorder()
	require.NoError(t, h.EmailExists(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"exists":true}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/v1/auth/email-exists?email=ghost@example.com", nil)
	rec = httptest.NewRecorder()
	require.NoError(t, h.EmailExists(e.NewContext(req, rec)))
	assert.JSONEq(t, `{"exists":false}`, rec.Body.String())
}
