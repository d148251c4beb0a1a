package subscribe

import (
	"time"

	"github.com/google/uuid"
)

const (
	// ConfirmationTokenTTL is how long a confirmation token can be redeemed.
	// It covers both initial subscription and email change confirmations.
	ConfirmationTokenTTL = 24 * time.Hour
	// MagicLinkTokenTTL is how long a profile access link can be redeemed
	MagicLinkTokenTTL = 15 * time.Minute
)

// NewToken generates an opaque single-use token. Tokens are random UUIDs;
// uniqueness is also enforced by a constraint on the token columns.
func NewToken() string {
	return uuid.NewString()
}

// ExpiresAt computes the expiry timestamp for a token issued now
func ExpiresAt(ttl time.Duration) time.Time {
	return time.Now().Add(ttl)
}

// isTokenExpired treats a missing expiry the same as an elapsed one. Expiry
// is evaluated lazily at read time; there is no background sweep.
func isTokenExpired(expiresAt *time.Time) bool {
	if expiresAt == nil {
		return true
	}
	return !expiresAt.After(time.Now())
}
