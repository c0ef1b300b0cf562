package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResetRepo is the one-time-secret registry for password reset tokens.  A
// record is keyed twice: by the opaque token (what the reset link presents)
// and by the owning email (so a new request supersedes the previous token).
//
// The logical expiry is stored inside the record while the Redis TTL runs
// twice as long.  In the grace window between the two, completion can tell a
// token that expired apart from one that never existed, matching the
// workflow's distinct Expired and Invalid outcomes.  The expired record is
// left in place at that step; the TTL removes it eventually.
type ResetRepo struct {
	RDB *redis.Client
}

func NewResetRepo(rdb *redis.Client) *ResetRepo { return &ResetRepo{RDB: rdb} }

const (
	resetTokenPrefix = "pwreset:token:"
	resetEmailPrefix = "pwreset:email:"
)

// issueResetScript supersedes any pending token for the email and stores the
// new one under both keys in a single atomic step, closing the
// purge-then-insert race between concurrent requests for the same email.
var issueResetScript = redis.NewScript(`
	local old = redis.call('GET', KEYS[1])
	if old then
		redis.call('DEL', ARGV[4] .. old)
	end
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
	redis.call('SET', ARGV[4] .. ARGV[1], ARGV[2], 'PX', ARGV[3])
	return 1
`)

// consumeResetScript deletes the record under both keys.  The email key is
// only removed while it still points at this token, so consuming a
// superseded token cannot destroy its successor.
var consumeResetScript = redis.NewScript(`
	redis.call('DEL', KEYS[1])
	if redis.call('GET', KEYS[2]) == ARGV[1] then
		redis.call('DEL', KEYS[2])
	end
	return 1
`)

// Issue stores a fresh reset token for the email with the given logical
// lifetime, invalidating any previously pending token.
func (r *ResetRepo) Issue(ctx context.Context, email, token string, ttl time.Duration) error {
	expiry := time.Now().UTC().Add(ttl)
	payload := fmt.Sprintf("%s|%d", email, expiry.Unix())
	return issueResetScript.Run(ctx, r.RDB,
		[]string{resetEmailPrefix + email},
		token, payload, (2 * ttl).Milliseconds(), resetTokenPrefix).Err()
}

// Lookup resolves a presented token to its owning email and logical expiry.
// Returns ErrResetNotFound when no record matches.
func (r *ResetRepo) Lookup(ctx context.Context, token string) (string, time.Time, error) {
	v, err := r.RDB.Get(ctx, resetTokenPrefix+token).Result()
	if err == redis.Nil {
		return "", time.Time{}, ErrResetNotFound
	}
	if err != nil {
		return "", time.Time{}, err
	}
	email, unixStr, ok := strings.Cut(v, "|")
	if !ok {
		return "", time.Time{}, ErrResetNotFound
	}
	unix, err := strconv.ParseInt(unixStr, 10, 64)
	if err != nil {
		return "", time.Time{}, ErrResetNotFound
	}
	return email, time.Unix(unix, 0).UTC(), nil
}

// Consume removes the record after a successful reset, making the token
// single-use.
func (r *ResetRepo) Consume(ctx context.Context, email, token string) error {
	return consumeResetScript.Run(ctx, r.RDB,
		[]string{resetTokenPrefix + token, resetEmailPrefix + email},
		token).Err()
}
