package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qudrat-academy/qudrat/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, name, phone, role, is_active,
    has_collection_access, has_abilities_access, abilities_verbal, abilities_quantitative,
    abilities_foundation, abilities_collections, registered_ip, allow_multi_device, created_at, updated_at`

func scanUser(row pgx.CollectableRow) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Phone, &u.Role, &u.IsActive,
		&u.Permissions.HasCollectionAccess, &u.Permissions.HasAbilitiesAccess,
		&u.Permissions.AbilitiesSubjects.Verbal, &u.Permissions.AbilitiesSubjects.Quantitative,
		&u.AbilitiesCategories.Foundation, &u.AbilitiesCategories.Collections,
		&u.RegisteredIP, &u.AllowMultiDevice, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Get returns a user by id.
func (r *Repository) Get(ctx context.Context, id int64) (User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return User{}, err
	}
	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("users: user %d: %w", id, httpx.ErrNotFound)
	}
	return u, err
}

// List returns one page of users and the total matching the filter.
func (r *Repository) List(ctx context.Context, f ListFilter, limit, offset int) ([]User, int, error) {
	where, args := buildWhere(f)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	users, err := pgx.CollectRows(rows, scanUser)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func buildWhere(f ListFilter) (string, []any) {
	var conds []string
	var args []any
	switch f.Status {
	case StatusActive:
		conds = append(conds, "is_active")
	case StatusInactive:
		conds = append(conds, "NOT is_active")
	}
	if f.Role != "" {
		args = append(args, string(f.Role))
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+q+"%")
		conds = append(conds, fmt.Sprintf("(email ILIKE $%d OR name ILIKE $%d)", len(args), len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// SetActive toggles account activation.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.exec(ctx, id, `UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
}

// SetPermissions replaces every permission flag.
func (r *Repository) SetPermissions(ctx context.Context, id int64, in PermissionsInput) error {
	p := in.Permissions
	return r.exec(ctx, id, `UPDATE users SET has_collection_access = $2, has_abilities_access = $3,
    abilities_verbal = $4, abilities_quantitative = $5, abilities_foundation = $6, abilities_collections = $7,
    updated_at = now() WHERE id = $1`,
		id, p.HasCollectionAccess, p.HasAbilitiesAccess, p.AbilitiesSubjects.Verbal, p.AbilitiesSubjects.Quantitative,
		in.AbilitiesCategories.Foundation, in.AbilitiesCategories.Collections)
}

// SetMultiDevice toggles the device restriction exemption.
func (r *Repository) SetMultiDevice(ctx context.Context, id int64, allow bool) error {
	return r.exec(ctx, id, `UPDATE users SET allow_multi_device = $2, updated_at = now() WHERE id = $1`, id, allow)
}

// ResetRegisteredIP clears the registered IP so the next login records a new one.
func (r *Repository) ResetRegisteredIP(ctx context.Context, id int64) error {
	return r.exec(ctx, id, `UPDATE users SET registered_ip = '', updated_at = now() WHERE id = $1`, id)
}

func (r *Repository) exec(ctx context.Context, id int64, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("users: user %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

var _ RepositoryPort = (*Repository)(nil)
