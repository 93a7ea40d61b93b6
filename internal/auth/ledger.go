package auth

import (
	"context"
	"time"
)

// Ledger records revoked refresh-token ids. Revoke is idempotent and safe for
// concurrent callers revoking the same id. Records are only needed until
// expiresAt, after which the token is rejected as expired anyway.
type Ledger interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
