package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and verifying signed tokens
)

// Typed verification failures.  Callers treat both as "not authenticated" but
// may log them differently; the gate falls through to an anonymous request in
// either case.
var (
	// ErrTokenExpired means the token was well-formed and correctly signed
	// but its embedded expiry has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid means the token was malformed, unsigned, or signed
	// with the wrong key or method.
	ErrTokenInvalid = errors.New("token invalid")
)

// AccessToken represents a signed JWT bearer token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp as a time.Time.  Bearer tokens are self-contained: they are not
// stored server-side except in the blacklist once revoked.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// Claims is the identity a verified token asserts: the subject username and
// the full role set embedded at issuance.
type Claims struct {
	Username string
	Roles    []string
}

// NewAccessToken builds and signs an HS256 JWT for a user.  It takes the
// signing secret, the username, the user's full role list, and a TTL in
// minutes.  The JWT includes the subject (sub), a roles list, expiration
// (exp) and issued at (iat).
func NewAccessToken(secret, username string, roles []string, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":   username,
		"roles": roles,
		"exp":   exp.Unix(),
		"iat":   time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// VerifyAccessToken checks signature integrity and expiry of a bearer token
// and returns the embedded claims.  Verification is pure: it needs nothing
// beyond the signing secret.  Failures are reported as ErrTokenExpired or
// ErrTokenInvalid.
func VerifyAccessToken(secret, raw string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything but HMAC.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if !tok.Valid {
		return Claims{}, ErrTokenInvalid
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrTokenInvalid
	}
	sub, ok := mc["sub"].(string)
	if !ok || sub == "" {
		return Claims{}, ErrTokenInvalid
	}
	var roles []string
	if raw, ok := mc["roles"].([]interface{}); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				roles = append(roles, s)
			}
		}
	}
	return Claims{Username: sub, Roles: roles}, nil
}

// TokenRemainingLife reports how long a token stays valid by its embedded
// expiry, without verifying the signature.  The blacklist uses it to size
// entry TTLs: keeping a revoked token past its own expiry is pointless.
// Returns false when the token cannot be parsed or carries no expiry.
func TokenRemainingLife(raw string) (time.Duration, bool) {
	tok, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return 0, false
	}
	exp, err := tok.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0, false
	}
	d := time.Until(exp.Time)
	if d <= 0 {
		return 0, false
	}
	return d, true
}
