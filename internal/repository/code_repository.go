package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// CodeRepo is the one-time-code store backed by redis. A single SET with a
// TTL is the whole write path: it atomically overwrites any earlier code for
// the same key, so at most one code per key is ever live.
type CodeRepo struct{ RDB *redis.Client }

func NewCodeRepo(rdb *redis.Client) *CodeRepo { return &CodeRepo{RDB: rdb} }

// OTPKey namespaces a one-time code by purpose and recipient, e.g.
// "otp:ann@test.com".
func OTPKey(email string) string { return "otp:" + email }

// Put upserts the code under key with the given TTL.
func (r *CodeRepo) Put(ctx context.Context, key, code string, ttl time.Duration) error {
	return r.RDB.Set(ctx, key, code, ttl).Err()
}

// Get returns the live code for key, or "" when none exists (absent or
// expired; redis does not distinguish the two).
func (r *CodeRepo) Get(ctx context.Context, key string) (string, error) {
	v, err := r.RDB.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// Delete removes the code so it can be consumed at most once.
func (r *CodeRepo) Delete(ctx context.Context, key string) error {
	return r.RDB.Del(ctx, key).Err()
}
