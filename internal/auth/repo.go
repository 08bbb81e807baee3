package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qudrat-academy/qudrat/internal/platform/db"
	"github.com/qudrat-academy/qudrat/internal/platform/httpx"
)

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, u NewUser) (*User, error)
	RecordIPIfMissing(ctx context.Context, userID int64, ip string) error
	CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
	SessionActive(ctx context.Context, id string, userID int64) (bool, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.pool.QueryRow(ctx, `SELECT id, email, name, password_hash, role, is_active, registered_ip, created_at, updated_at
FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.IsActive, &u.RegisteredIP, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("auth: user %q: %w", email, httpx.ErrNotFound)
		}
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts an inactive student.
func (r *PGRepository) CreateUser(ctx context.Context, in NewUser) (*User, error) {
	u := User{Email: in.Email, Name: in.Name, PasswordHash: in.PasswordHash, RegisteredIP: in.RegisteredIP}
	err := r.pool.QueryRow(ctx, `INSERT INTO users (email, name, phone, password_hash, role, is_active, registered_ip)
VALUES ($1, $2, $3, $4, 'student', FALSE, $5)
RETURNING id, role, is_active, created_at, updated_at`,
		in.Email, in.Name, in.Phone, in.PasswordHash, in.RegisteredIP).
		Scan(&u.ID, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("auth: email %q: %w", in.Email, httpx.ErrDuplicate)
		}
		return nil, err
	}
	return &u, nil
}

// RecordIPIfMissing stores ip as the registered device when none is set.
func (r *PGRepository) RecordIPIfMissing(ctx context.Context, userID int64, ip string) error {
	if ip == "" {
		return nil
	}
	_, err := r.pool.Exec(ctx, `UPDATE users SET registered_ip = $2, updated_at = now()
WHERE id = $1 AND registered_ip = ''`, userID, ip)
	return err
}

// CreateSession persists a new login session in the database for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO sessions (id, user_id, created_at, expires_at, ip, ua)
VALUES ($1, $2, $3, $4, $5, $6)`,
		id, userID,
		pgtype.Timestamptz{Time: time.Now().UTC(), Valid: true},
		pgtype.Timestamptz{Time: expiresAt.UTC(), Valid: true},
		pgtype.Text{String: ip, Valid: ip != ""},
		pgtype.Text{String: ua, Valid: ua != ""})
	return err
}

// DeleteSession removes a session record from the database.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

// SessionActive reports whether the login session exists for userID and has
// not expired.
func (r *PGRepository) SessionActive(ctx context.Context, id string, userID int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1 AND user_id = $2 AND expires_at > now())`, id, userID).Scan(&ok)
	return ok, err
}

var _ Repository = (*PGRepository)(nil)
