package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// BlacklistRepo is the token revocation registry.  Logout writes the literal
// token string here; the auth middleware consults it before trusting any
// bearer token, so a revoked token is rejected even while its signature and
// embedded expiry are still technically valid.
//
// Entries carry a TTL equal to the remaining life of the revoked token:
// revocation is only meaningful before the token's own expiry, so letting
// Redis evict the entry afterwards keeps the registry from growing without
// bound.
type BlacklistRepo struct {
	RDB *redis.Client
}

func NewBlacklistRepo(rdb *redis.Client) *BlacklistRepo { return &BlacklistRepo{RDB: rdb} }

const blacklistPrefix = "blacklist:"

// Revoke records the literal token string.  Re-revoking an already present
// token simply refreshes the entry; the operation is idempotent and always
// observable as success.
func (r *BlacklistRepo) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return r.RDB.Set(ctx, blacklistPrefix+token, 1, ttl).Err()
}

// IsRevoked reports whether the exact token string has been revoked.
func (r *BlacklistRepo) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.RDB.Exists(ctx, blacklistPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
