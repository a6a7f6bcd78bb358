package model

import (
    "time"

    "github.com/modacart/auth-service/internal/utils"
)

// Role names stored in the users.role column.  Admin accounts additionally
// carry an AdminLevel; regular users never do.
const (
    RoleUser  = "USER"
    RoleAdmin = "ADMIN"
)

// User represents an account record as stored in the `users` table.  Email,
// phone and the password hash are all optional: an account created through a
// Google token has no password, an account created through a phone token has
// no email.  Email and phone are unique across all rows, soft-deleted ones
// included.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name.
//  Email        – unique email address, empty when the account is phone-only.
//  Phone        – unique phone number, empty when the account is email-only.
//  PasswordHash – bcrypt hashed password, empty for passwordless accounts.
//  AvatarURL    – optional avatar, asserted by an external identity token.
//  Role         – USER or ADMIN.
//  AdminLevel   – MODERATOR/ADMIN/SUPER_ADMIN, zero for non-admins.
//  Permissions  – granted permission tags; only meaningful when Role is ADMIN.
//  IsDeleted    – soft-delete flag; rows are never hard-deleted by normal flows.
//  DeletedAt    – when the account was soft-deleted (nil if live).
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64       // users.id
    Name         string       // users.name
    Email        string       // users.email (nullable)
    Phone        string       // users.phone (nullable)
    PasswordHash string       // users.password_hash (nullable)
    AvatarURL    string       // users.avatar_url (nullable)
    Role         string       // users.role
    AdminLevel   AdminLevel   // users.admin_level (nullable, admins only)
    Permissions  []Permission // users.permissions (JSON array)
    IsDeleted    bool         // users.is_deleted
    DeletedAt    *time.Time   // users.deleted_at (nullable)
    CreatedAt    time.Time    // users.created_at
    UpdatedAt    time.Time    // users.updated_at
}

// MatchPassword compares a candidate plaintext against the stored bcrypt
// hash.  Passwordless accounts (empty hash) never match.
func (u *User) MatchPassword(plain string) bool {
    return utils.VerifyPassword(u.PasswordHash, plain)
}

// IsAdmin reports whether the account carries the admin role.
func (u *User) IsAdmin() bool {
    return u.Role == RoleAdmin
}

// HasPermission is the authorization predicate for admin operations: false
// for non-admins, unconditionally true for SUPER_ADMIN regardless of the
// stored set, otherwise a membership test on Permissions.
func (u *User) HasPermission(p Permission) bool {
    if !u.IsAdmin() {
        return false
    }
    if u.AdminLevel == LevelSuperAdmin {
        return true
    }
    for _, have := range u.Permissions {
        if have == p {
            return true
        }
    }
    return false
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA‑256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA‑256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
