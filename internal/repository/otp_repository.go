package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// OtpRepo is the one-time-secret registry for email OTP login.  One key per
// email holds the pending code, so issuing a new code atomically supersedes
// any previous one and the key TTL enforces the expiry window without a
// cleanup job: an expired code simply vanishes and verification reports no
// pending secret.
type OtpRepo struct {
	RDB *redis.Client
}

func NewOtpRepo(rdb *redis.Client) *OtpRepo { return &OtpRepo{RDB: rdb} }

const otpPrefix = "otp:"

// consumeScript deletes the stored secret only when it matches the presented
// value, in one round trip.  That makes consumption single-use even under
// concurrent verification attempts: exactly one caller sees 1.
var consumeScript = redis.NewScript(`
	local v = redis.call('GET', KEYS[1])
	if not v then
		return 0
	end
	if v == ARGV[1] then
		redis.call('DEL', KEYS[1])
		return 1
	end
	return 0
`)

// Issue stores a fresh code for the email, replacing any pending one.  SET is
// atomic, so two concurrent issues for the same email cannot leave two live
// codes behind.
func (r *OtpRepo) Issue(ctx context.Context, email, code string, ttl time.Duration) error {
	return r.RDB.Set(ctx, otpPrefix+email, code, ttl).Err()
}

// Consume verifies and deletes the pending code for the email.  Returns false
// when no code is pending (never issued, expired, or already used) or when
// the presented code mismatches; a mismatch leaves the stored code in place
// until its expiry.
func (r *OtpRepo) Consume(ctx context.Context, email, code string) (bool, error) {
	n, err := consumeScript.Run(ctx, r.RDB, []string{otpPrefix + email}, code).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
