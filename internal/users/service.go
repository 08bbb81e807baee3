package users

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qudrat-academy/qudrat/internal/access"
	"github.com/qudrat-academy/qudrat/internal/auth"
	"github.com/qudrat-academy/qudrat/internal/platform/httpx"
	"github.com/qudrat-academy/qudrat/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (User, error)
	List(ctx context.Context, f ListFilter, limit, offset int) ([]User, int, error)
	SetActive(ctx context.Context, id int64, active bool) error
	SetPermissions(ctx context.Context, id int64, in PermissionsInput) error
	SetMultiDevice(ctx context.Context, id int64, allow bool) error
	ResetRegisteredIP(ctx context.Context, id int64) error
}

// Service handles user business logic.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// ResolveIdentity loads the principal snapshot for a request.
func (s *Service) ResolveIdentity(ctx context.Context, id int64) (auth.Identity, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return auth.Identity{}, err
	}
	return auth.Identity{
		Principal: u.Principal(),
		Email:     u.Email,
		Name:      u.Name,
		Device: auth.DevicePolicy{
			RegisteredIP:     u.RegisteredIP,
			AllowMultiDevice: u.AllowMultiDevice,
		},
	}, nil
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// List returns a page of users.
func (s *Service) List(ctx context.Context, f ListFilter, page, perPage int) ([]User, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	users, total, err := s.repo.List(ctx, f, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	if users == nil {
		users = []User{}
	}
	return users, shared.NewPagination(p.Page, p.PerPage, total), nil
}

// SetActive activates or deactivates an account.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) (User, error) {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return User{}, err
	}
	s.logger.Info("user activation changed", slog.Int64("user_id", id), slog.Bool("active", active))
	return s.repo.Get(ctx, id)
}

// UpdatePermissions replaces the permission flags of a student. Admins pass
// every check, so their flags are not editable.
func (s *Service) UpdatePermissions(ctx context.Context, id int64, in PermissionsInput) (User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if u.Role != access.RoleStudent {
		return User{}, fmt.Errorf("users: permissions apply to students only: %w", httpx.ErrValidation)
	}
	if err := s.repo.SetPermissions(ctx, id, in); err != nil {
		return User{}, err
	}
	return s.repo.Get(ctx, id)
}

// SetMultiDevice toggles whether a student may use any device.
func (s *Service) SetMultiDevice(ctx context.Context, id int64, allow bool) (User, error) {
	if err := s.repo.SetMultiDevice(ctx, id, allow); err != nil {
		return User{}, err
	}
	return s.repo.Get(ctx, id)
}

// ResetDevice forgets the registered IP of a user.
func (s *Service) ResetDevice(ctx context.Context, id int64) (User, error) {
	if err := s.repo.ResetRegisteredIP(ctx, id); err != nil {
		return User{}, err
	}
	return s.repo.Get(ctx, id)
}
