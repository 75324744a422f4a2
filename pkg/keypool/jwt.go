package keypool

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// JWTExpiry extracts the exp claim from a JWT-shaped credential. The second
// return is false when the token is not a JWT or carries no expiry, in which
// case the key should be treated as non-expiring.
func JWTExpiry(token string) (time.Time, bool) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return time.Time{}, false
	}
	var claims struct {
		Exp int64 `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil || claims.Exp == 0 {
		return time.Time{}, false
	}
	return time.Unix(claims.Exp, 0), true
}

// JWTExpired reports whether a JWT credential is already past its expiry.
// Non-JWT credentials are never considered expired.
func JWTExpired(token string, now time.Time) bool {
	exp, ok := JWTExpiry(token)
	if !ok {
		return false
	}
	return !now.Before(exp)
}
