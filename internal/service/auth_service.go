package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/modacart/auth-service/internal/identity"
	"github.com/modacart/auth-service/internal/model"
	"github.com/modacart/auth-service/internal/repository"
	"github.com/modacart/auth-service/internal/utils"
)

// UserStore is the credential-store surface the orchestrator needs. It is
// satisfied by *repository.UserRepo; tests substitute a map-backed fake.
// Implementations hash plaintext passwords on write and report misses as
// repository.ErrNotFound.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByPhone(ctx context.Context, phone string) (model.User, error)
	FindByID(ctx context.Context, id uint64) (model.User, error)
	Create(ctx context.Context, nu repository.NewUser) (uint64, error)
	UpdatePassword(ctx context.Context, id uint64, plain string) error
}

// TokenStore is the refresh-token ledger surface. Consume must be a single
// atomic conditional revoke so concurrent presenters of one hash cannot both
// win.
type TokenStore interface {
	Insert(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	Lookup(ctx context.Context, tokenHash string) (model.RefreshToken, error)
	Consume(ctx context.Context, tokenHash string) (bool, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// CodeStore is the short-TTL one-time-code store. Put atomically overwrites
// any live code under the same key.
type CodeStore interface {
	Put(ctx context.Context, key, code string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Sender dispatches a one-time code to a recipient address. The queue
// publisher implements it; delivery itself happens out of band. The purpose
// selects the message template on the consuming side.
type Sender interface {
	SendOTP(ctx context.Context, email, code, purpose string) error
}

// OTP purposes, stamped on the dispatch event so the delivery side can pick
// the right wording. The code semantics are identical either way.
const (
	OTPPurposeLogin = "login"
	OTPPurposeReset = "password_reset"
)

// AuthConfig carries the token-lifecycle knobs.
type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	AccessTTLMin   int // access tokens, minutes (15 in production)
	RefreshTTLDays int // refresh tokens, days (30 in production)
	OTPTTL         time.Duration
}

// Session is the uniform success shape of every login flow: the user record,
// a signed access token for the response body and the raw refresh token that
// the HTTP boundary moves into a secure cookie. The raw refresh value never
// appears in the primary user-facing payload.
type Session struct {
	User    model.User
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// AuthService orchestrates every login flow: verify identity, resolve or
// create the user record, mint an access/refresh pair and record the refresh
// hash in the ledger. It holds no per-request state.
type AuthService struct {
	cfg      AuthConfig
	users    UserStore
	tokens   TokenStore
	codes    CodeStore
	sender   Sender
	verifier identity.Verifier
}

func NewAuthService(cfg AuthConfig, users UserStore, tokens TokenStore, codes CodeStore, sender Sender, verifier identity.Verifier) *AuthService {
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = 10 * time.Minute
	}
	return &AuthService{cfg: cfg, users: users, tokens: tokens, codes: codes, sender: sender, verifier: verifier}
}

// Register creates a password account and logs it in.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return Session{}, ErrDuplicateIdentity
	} else if !errors.Is(err, repository.ErrNotFound) {
		return Session{}, err
	}
	id, err := s.users.Create(ctx, repository.NewUser{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     model.RoleUser,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a create race with a concurrent registration.
			return Session{}, ErrDuplicateIdentity
		}
		return Session{}, err
	}
	return s.sessionFor(ctx, id)
}

// Login verifies a password against the stored hash. Unknown email,
// passwordless account and wrong password all collapse into
// ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if !u.MatchPassword(password) {
		return Session{}, ErrInvalidCredentials
	}
	return s.issueTokens(ctx, u)
}

// LoginWithIDToken verifies a Google-style identity token and finds or
// creates the matching account by its asserted email.
func (s *AuthService) LoginWithIDToken(ctx context.Context, idToken string) (Session, error) {
	claims, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		log.Printf("identity: token rejected: %v", err)
		return Session{}, ErrInvalidExternalToken
	}
	if claims.Email == "" {
		return Session{}, ErrInvalidExternalToken
	}
	email := normalizeEmail(claims.Email)
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		name := claims.Name
		if name == "" {
			name = emailLocalPart(email)
		}
		id, err := s.users.Create(ctx, repository.NewUser{
			Name:      name,
			Email:     email,
			AvatarURL: claims.Picture,
			Role:      model.RoleUser,
		})
		if err != nil {
			return Session{}, err
		}
		return s.sessionFor(ctx, id)
	}
	if err != nil {
		return Session{}, err
	}
	return s.issueTokens(ctx, u)
}

// SendOTP stores a fresh 6-digit code under the recipient's key, replacing
// any earlier one, and hands it to the dispatcher. No user record is touched
// and the call does not reveal whether the email is registered. The purpose
// only affects the delivered wording; login and reset codes share one key, so
// whichever was requested last is the one that verifies.
func (s *AuthService) SendOTP(ctx context.Context, email, purpose string) error {
	if purpose != OTPPurposeLogin && purpose != OTPPurposeReset {
		purpose = OTPPurposeLogin
	}
	email = normalizeEmail(email)
	code, err := utils.NewOTPCode()
	if err != nil {
		return err
	}
	if err := s.codes.Put(ctx, repository.OTPKey(email), code, s.cfg.OTPTTL); err != nil {
		return err
	}
	return s.sender.SendOTP(ctx, email, code, purpose)
}

// LoginWithOTP consumes a previously sent code. A matching code is deleted
// before anything else so it can never be replayed, even when the rest of
// the flow fails. New accounts must supply a password in the same call.
func (s *AuthService) LoginWithOTP(ctx context.Context, email, code, password string) (Session, error) {
	email = normalizeEmail(email)
	if err := s.consumeCode(ctx, repository.OTPKey(email), code); err != nil {
		return Session{}, err
	}
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		if password == "" {
			return Session{}, ErrPasswordRequired
		}
		id, err := s.users.Create(ctx, repository.NewUser{
			Name:     emailLocalPart(email),
			Email:    email,
			Password: password,
			Role:     model.RoleUser,
		})
		if err != nil {
			return Session{}, err
		}
		return s.sessionFor(ctx, id)
	}
	if err != nil {
		return Session{}, err
	}
	return s.issueTokens(ctx, u)
}

// LoginWithPhoneToken verifies a phone-bound identity token. The token's
// phone claim must exactly equal the caller-supplied phone.
func (s *AuthService) LoginWithPhoneToken(ctx context.Context, idToken, phone string) (Session, error) {
	claims, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		log.Printf("identity: token rejected: %v", err)
		return Session{}, ErrInvalidExternalToken
	}
	if claims.Phone == "" || claims.Phone != phone {
		return Session{}, ErrPhoneMismatch
	}
	u, err := s.users.FindByPhone(ctx, phone)
	if errors.Is(err, repository.ErrNotFound) {
		name := claims.Name
		if name == "" {
			name = phone
		}
		id, err := s.users.Create(ctx, repository.NewUser{
			Name:      name,
			Phone:     phone,
			AvatarURL: claims.Picture,
			Role:      model.RoleUser,
		})
		if err != nil {
			return Session{}, err
		}
		return s.sessionFor(ctx, id)
	}
	if err != nil {
		return Session{}, err
	}
	return s.issueTokens(ctx, u)
}

// ResetPassword validates an OTP for an existing account, stores the new
// password and re-authenticates by issuing a fresh pair.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) (Session, error) {
	email = normalizeEmail(email)
	if err := s.consumeCode(ctx, repository.OTPKey(email), code); err != nil {
		return Session{}, err
	}
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, ErrUserNotFound
	}
	if err != nil {
		return Session{}, err
	}
	if err := s.users.UpdatePassword(ctx, u.ID, newPassword); err != nil {
		return Session{}, err
	}
	return s.issueTokens(ctx, u)
}

// EmailExists reports whether an account exists for the email.
func (s *AuthService) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Refresh rotates a refresh token: classify the ledger record, then revoke
// it with a single compare-and-set before issuing the replacement. Of N
// concurrent calls presenting the same raw token at most one wins the CAS;
// the rest observe ErrTokenReused.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (Session, error) {
	hash := utils.HashRefreshRaw(rawRefresh)
	rec, err := s.tokens.Lookup(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, ErrTokenNotFound
	}
	if err != nil {
		return Session{}, err
	}
	if rec.RevokedAt != nil {
		return Session{}, ErrTokenReused
	}
	if time.Now().UTC().After(rec.ExpiresAt) {
		// Pruning is asynchronous, so expiry must be enforced here too.
		return Session{}, ErrTokenExpired
	}
	won, err := s.tokens.Consume(ctx, hash)
	if err != nil {
		return Session{}, err
	}
	if !won {
		return Session{}, ErrTokenReused
	}
	u, err := s.users.FindByID(ctx, rec.UserID)
	if err != nil {
		return Session{}, err
	}
	return s.issueTokens(ctx, u)
}

// Logout revokes the presented refresh token. Unknown or already revoked
// tokens are a no-op; an empty token is accepted so clients can always clear
// their session.
func (s *AuthService) Logout(ctx context.Context, rawRefresh string) error {
	if strings.TrimSpace(rawRefresh) == "" {
		return nil
	}
	return s.tokens.RevokeByHash(ctx, utils.HashRefreshRaw(rawRefresh))
}

// LogoutAll revokes every active refresh token of a user.
func (s *AuthService) LogoutAll(ctx context.Context, userID uint64) error {
	return s.tokens.RevokeAllForUser(ctx, userID)
}

// consumeCode compares the supplied code with the stored one and deletes it
// on match. A mismatch leaves the stored code alone so a typo does not burn
// the legitimate user's code.
func (s *AuthService) consumeCode(ctx context.Context, key, code string) error {
	stored, err := s.codes.Get(ctx, key)
	if err != nil {
		return err
	}
	if stored == "" || stored != code {
		return ErrInvalidOrExpiredCode
	}
	return s.codes.Delete(ctx, key)
}

// issueTokens mints the access/refresh pair for a user and records exactly
// one new ledger row holding the refresh hash.
func (s *AuthService) issueTokens(ctx context.Context, u model.User) (Session, error) {
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, u.ID, u.Role, s.cfg.AccessTTLMin)
	if err != nil {
		return Session{}, err
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err != nil {
		return Session{}, err
	}
	if err := s.tokens.Insert(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return Session{}, err
	}
	return Session{User: u, Access: access, Refresh: refresh}, nil
}

func (s *AuthService) sessionFor(ctx context.Context, userID uint64) (Session, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	return s.issueTokens(ctx, u)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailLocalPart(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
