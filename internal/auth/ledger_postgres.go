package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGLedger stores revocations in the token_revocations table. Expired rows
// are removed by the purge job.
type PGLedger struct {
	pool *pgxpool.Pool
}

// NewPGLedger constructs a PostgreSQL backed ledger.
func NewPGLedger(pool *pgxpool.Pool) *PGLedger {
	return &PGLedger{pool: pool}
}

// Revoke records jti; a second revocation of the same id is a no-op.
func (l *PGLedger) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := l.pool.Exec(ctx, `INSERT INTO token_revocations (jti, revoked_at, expires_at)
		VALUES ($1, NOW(), $2)
		ON CONFLICT (jti) DO NOTHING`, jti, expiresAt)
	if err != nil {
		return fmt.Errorf("auth: pg revoke: %w", err)
	}
	return nil
}

// IsRevoked reports whether jti has been revoked.
func (l *PGLedger) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := l.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM token_revocations WHERE jti = $1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("auth: pg is revoked: %w", err)
	}
	return revoked, nil
}

// PurgeExpired deletes records whose token expired at or before before.
func (l *PGLedger) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := l.pool.Exec(ctx, `DELETE FROM token_revocations WHERE expires_at <= $1`, before)
	if err != nil {
		return 0, fmt.Errorf("auth: pg purge revocations: %w", err)
	}
	return tag.RowsAffected(), nil
}
