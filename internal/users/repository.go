package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-auth/internal/shared"
)

const principalColumns = `id, username, email, first_name, last_name, password_hash, role,
	is_active, is_staff, is_superuser, created_at, updated_at`

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByID loads a principal by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (Principal, error) {
	var p Principal
	err := pgxscan.Get(ctx, r.pool, &p, `SELECT `+principalColumns+` FROM users WHERE id = $1`, id)
	return p, mapError("find by id", err)
}

// FindByUsername loads a principal by its normalized username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (Principal, error) {
	var p Principal
	err := pgxscan.Get(ctx, r.pool, &p, `SELECT `+principalColumns+` FROM users WHERE username = $1`, username)
	return p, mapError("find by username", err)
}

// List returns principals ordered by id, optionally restricted to roles.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Principal, error) {
	var roles []string
	if filter.Roles != nil {
		roles = make([]string, 0, len(filter.Roles))
		for _, role := range filter.Roles {
			roles = append(roles, string(role))
		}
	}
	var out []Principal
	err := pgxscan.Select(ctx, r.pool, &out, `SELECT `+principalColumns+` FROM users
		WHERE $1::text[] IS NULL OR role = ANY($1)
		ORDER BY id`, roles)
	if err != nil {
		return nil, mapError("list", err)
	}
	return out, nil
}

// Create inserts a principal and returns the stored row.
func (r *Repository) Create(ctx context.Context, p Principal) (Principal, error) {
	var out Principal
	err := pgxscan.Get(ctx, r.pool, &out, `INSERT INTO users
		(username, email, first_name, last_name, password_hash, role, is_active, is_staff, is_superuser)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+principalColumns,
		p.Username, p.Email, p.FirstName, p.LastName, p.PasswordHash, string(p.Role),
		p.IsActive, p.IsStaff, p.IsSuperuser)
	return out, mapError("create", err)
}

// Update applies the non-nil changes and returns the stored row.
func (r *Repository) Update(ctx context.Context, id int64, changes Changes) (Principal, error) {
	var role *string
	if changes.Role != nil {
		v := string(*changes.Role)
		role = &v
	}
	var out Principal
	err := pgxscan.Get(ctx, r.pool, &out, `UPDATE users SET
		email = COALESCE($2, email),
		first_name = COALESCE($3, first_name),
		last_name = COALESCE($4, last_name),
		role = COALESCE($5, role),
		is_active = COALESCE($6, is_active),
		password_hash = COALESCE($7, password_hash),
		updated_at = NOW()
		WHERE id = $1
		RETURNING `+principalColumns,
		id, changes.Email, changes.FirstName, changes.LastName, role, changes.IsActive, changes.PasswordHash)
	return out, mapError("update", err)
}

// Deactivate soft-deletes a principal.
func (r *Repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return mapError("deactivate", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if pgxscan.NotFound(err) {
		return shared.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return shared.ErrDuplicate
	}
	return fmt.Errorf("users: %s: %w", op, err)
}
