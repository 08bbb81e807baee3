package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/qudrat-academy/qudrat/internal/platform/httpx"
	"github.com/qudrat-academy/qudrat/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
	cost int
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost}
}

// NormalizeEmail case-folds and NFC-normalises an address.
func NormalizeEmail(email string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(email)))
}

// Authenticate validates email/password credentials. Inactive accounts may
// sign in; content routes turn them away.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Register creates an inactive student account bound to ip.
func (s *Service) Register(ctx context.Context, email, password, name, phone, ip string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	return s.repo.CreateUser(ctx, NewUser{
		Email:        NormalizeEmail(email),
		Name:         norm.NFC.String(strings.TrimSpace(name)),
		Phone:        strings.TrimSpace(phone),
		PasswordHash: string(hash),
		RegisteredIP: ip,
	})
}

// RecordDevice binds the account to ip when no device is registered yet.
func (s *Service) RecordDevice(ctx context.Context, userID int64, ip string) error {
	return s.repo.RecordIPIfMissing(ctx, userID, ip)
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// SessionActive reports whether a bearer token's login session is still open.
func (s *Service) SessionActive(ctx context.Context, id string, userID int64) (bool, error) {
	return s.repo.SessionActive(ctx, id, userID)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
