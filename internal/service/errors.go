// Package service implements the authentication orchestrator and the admin
// permission operations on top of the credential store, the refresh-token
// ledger, the one-time-code store and the external identity verifier.
//
// Expected failures are expressed as the sentinel errors below and travel by
// ordinary control flow; handlers map each one to a stable HTTP status. Raw
// storage errors pass through untouched and surface as a generic internal
// failure at the boundary.
package service

import "errors"

// Authentication flow failures.
var (
	// ErrDuplicateIdentity is returned when a registration collides with an
	// existing email or phone (soft-deleted rows included).
	ErrDuplicateIdentity = errors.New("identity already registered")

	// ErrInvalidCredentials is returned on unknown email, passwordless
	// account or password mismatch. One error for all three so responses
	// do not leak which part failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidExternalToken is returned when a third-party identity token
	// fails signature, audience or expiry checks, or lacks the email claim.
	ErrInvalidExternalToken = errors.New("invalid external identity token")

	// ErrInvalidOrExpiredCode is returned when no live one-time code exists
	// for the recipient or the supplied code does not match.
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")

	// ErrPasswordRequired is returned when an OTP login would create a new
	// account but no password was supplied in the same call.
	ErrPasswordRequired = errors.New("password required for new account")

	// ErrPhoneMismatch is returned when the phone bound to an identity
	// token differs from the caller-supplied phone.
	ErrPhoneMismatch = errors.New("phone does not match token")

	// ErrUserNotFound is returned by flows that require a pre-existing
	// account, such as password reset.
	ErrUserNotFound = errors.New("user not found")
)

// Refresh rotation failures.
var (
	// ErrTokenNotFound means the presented refresh token hashes to no
	// ledger record.
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrTokenReused means the record was already consumed; the presenter
	// lost the rotation race or is replaying a stolen token.
	ErrTokenReused = errors.New("refresh token already used")

	// ErrTokenExpired means the record exists but is past its expiry.
	ErrTokenExpired = errors.New("refresh token expired")
)

// Admin permission-management failures.
var (
	// ErrSelfModification guards every admin-management operation against
	// an acting super admin targeting their own account.
	ErrSelfModification = errors.New("cannot modify own admin account")

	// ErrAdminNotFound is returned when the target id matches no account.
	ErrAdminNotFound = errors.New("admin not found")

	// ErrTargetNotAdmin is returned when the target exists but is a
	// regular user.
	ErrTargetNotAdmin = errors.New("target is not an admin")

	// ErrLastSuperAdminDemotion blocks demoting the only live SUPER_ADMIN.
	ErrLastSuperAdminDemotion = errors.New("cannot demote the last super admin")

	// ErrSuperAdminRestriction blocks explicit permission edits on a
	// SUPER_ADMIN target, whose permission set is never consulted.
	ErrSuperAdminRestriction = errors.New("super admin permissions are fixed")

	// ErrAlreadyMaximal is returned when granting a permission to a
	// SUPER_ADMIN, who already implicitly holds all of them.
	ErrAlreadyMaximal = errors.New("super admin already has all permissions")

	// ErrInvalidPermission is returned for tags outside the fixed universe.
	ErrInvalidPermission = errors.New("unknown permission")

	// ErrInvalidAdminLevel is returned for levels outside the hierarchy.
	ErrInvalidAdminLevel = errors.New("unknown admin level")
)
