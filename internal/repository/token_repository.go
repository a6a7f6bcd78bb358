package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/modacart/auth-service/internal/model"
)

// TokenRepo is the refresh-token ledger (single 'token_hash' column; the raw
// token never reaches this layer). Rows are only ever mutated to flip
// revoked_at from NULL to a timestamp.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Insert records a freshly issued refresh token hash.
func (r *TokenRepo) Insert(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// Lookup returns the ledger record for a hash, revoked or not. Expiry and
// revocation classification is the caller's job; store-side pruning is
// asynchronous and advisory only.
func (r *TokenRepo) Lookup(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	var (
		t         model.RefreshToken
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, token_hash, expires_at, revoked_at, created_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &revokedAt, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return model.RefreshToken{}, ErrNotFound
	}
	if err != nil {
		return model.RefreshToken{}, err
	}
	if revokedAt.Valid {
		at := revokedAt.Time
		t.RevokedAt = &at
	}
	return t, nil
}

// Consume atomically revokes a live token and reports whether this caller
// won the flip. The conditional UPDATE is the compare-and-set that makes
// rotation single-use: two concurrent presenters of the same hash race on
// revoked_at IS NULL and exactly one sees rows-affected 1.
func (r *TokenRepo) Consume(ctx context.Context, tokenHash string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RevokeByHash marks a token as revoked. No-op when the hash is unknown or
// already revoked, which makes logout idempotent.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser revokes all user's active tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
