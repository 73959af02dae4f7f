package cache

import (
	"context"
	"time"
)

const revokedPrefix = "blacklist:"

// RevokeJTI marks a token id as revoked until ttl elapses. It is a no-op
// when Redis is unavailable or the token has already expired.
func RevokeJTI(ctx context.Context, jti string, ttl time.Duration) error {
	if client == nil || jti == "" || ttl <= 0 {
		return nil
	}
	return client.Set(ctx, revokedPrefix+jti, "1", ttl).Err()
}

// IsRevoked reports whether jti was revoked. Lookup failures are returned so
// callers can refuse the request instead of admitting it.
func IsRevoked(ctx context.Context, jti string) (bool, error) {
	if client == nil || jti == "" {
		return false, nil
	}
	n, err := client.Exists(ctx, revokedPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
