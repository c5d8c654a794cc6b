package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateAccessToken creates a signed JWT access token carrying the
// requester's subject, display name and role set.
func GenerateAccessToken(secret, sub, name string, roles []string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   sub,
		"name":  name,
		"roles": roles,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(secret))
}

// ParseExp decodes the exp claim of a verified-or-not token payload. Used to
// compute the remaining TTL when blacklisting an access token on logout.
func ParseExp(claims map[string]interface{}) (time.Time, bool) {
	v, ok := claims["exp"]
	if !ok {
		return time.Time{}, false
	}
	switch vv := v.(type) {
	case float64:
		return time.Unix(int64(vv), 0), true
	case int64:
		return time.Unix(vv, 0), true
	default:
		return time.Time{}, false
	}
}
