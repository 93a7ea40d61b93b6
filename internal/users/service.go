package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-auth/internal/rbac"
	"github.com/odyssey-erp/odyssey-auth/internal/shared"
)

// RepositoryPort defines data access methods for principals.
type RepositoryPort interface {
	FindByID(ctx context.Context, id int64) (Principal, error)
	FindByUsername(ctx context.Context, username string) (Principal, error)
	List(ctx context.Context, filter ListFilter) ([]Principal, error)
	Create(ctx context.Context, p Principal) (Principal, error)
	Update(ctx context.Context, id int64, changes Changes) (Principal, error)
	Deactivate(ctx context.Context, id int64) error
}

// PasswordHasher derives the stored form of a password.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Service handles principal management. Every operation authorizes the
// actor before the store is touched.
type Service struct {
	repo     RepositoryPort
	hasher   PasswordHasher
	logger   *slog.Logger
	validate *validator.Validate
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, hasher PasswordHasher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, hasher: hasher, logger: logger, validate: newValidator()}
}

// Register creates a principal on behalf of actor. Only Admin may create.
func (s *Service) Register(ctx context.Context, actor *rbac.Actor, in RegisterInput) (Principal, error) {
	if err := rbac.Authorize(actor, rbac.ActionCreate, 0); err != nil {
		return Principal{}, err
	}
	in, role, err := s.validateRegister(in)
	if err != nil {
		return Principal{}, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Principal{}, fmt.Errorf("users: hash password: %w", err)
	}
	created, err := s.repo.Create(ctx, Principal{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	})
	if errors.Is(err, shared.ErrDuplicate) {
		return Principal{}, shared.NewValidationError("username", "a user with that username already exists")
	}
	if err != nil {
		return Principal{}, err
	}
	s.logger.Info("principal created",
		slog.Int64("actor_id", actor.ID),
		slog.Int64("principal_id", created.ID),
		slog.String("role", string(created.Role)),
	)
	return created, nil
}

// List returns the principals actor may see. Employees see nothing.
func (s *Service) List(ctx context.Context, actor *rbac.Actor) ([]Principal, error) {
	if err := rbac.Authorize(actor, rbac.ActionList, 0); err != nil {
		return nil, err
	}
	visibility, err := rbac.ListVisibility(actor)
	if err != nil {
		return nil, err
	}
	var filter ListFilter
	switch visibility {
	case rbac.VisibleAll:
	case rbac.VisibleEmployees:
		filter.Roles = []rbac.Role{rbac.RoleEmployee}
	default:
		return []Principal{}, nil
	}
	principals, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if principals == nil {
		principals = []Principal{}
	}
	return principals, nil
}

// Get returns a single principal.
func (s *Service) Get(ctx context.Context, actor *rbac.Actor, id int64) (Principal, error) {
	if err := rbac.Authorize(actor, rbac.ActionRead, id); err != nil {
		return Principal{}, err
	}
	return s.repo.FindByID(ctx, id)
}

// Update applies a partial update. Role and active-flag changes require
// Admin; the username can never change. A non-Admin cannot clear their own
// is_active here but may deactivate themselves through Delete, which only
// needs self-access.
func (s *Service) Update(ctx context.Context, actor *rbac.Actor, id int64, in UpdateInput) (Principal, error) {
	if err := rbac.Authorize(actor, rbac.ActionUpdate, id); err != nil {
		return Principal{}, err
	}
	if err := s.validateUpdate(in); err != nil {
		return Principal{}, err
	}
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Principal{}, err
	}
	if in.Username != nil && NormalizeUsername(*in.Username) != current.Username {
		return Principal{}, shared.NewValidationError("username", "username cannot be changed")
	}

	var changes Changes
	if in.Role != nil {
		role, _ := rbac.ParseRole(*in.Role)
		if role != current.Role {
			if !rbac.CanChangeRoles(actor) {
				return Principal{}, shared.ErrForbidden
			}
			changes.Role = &role
		}
	}
	if in.IsActive != nil && *in.IsActive != current.IsActive {
		if !rbac.CanChangeRoles(actor) {
			return Principal{}, shared.ErrForbidden
		}
		changes.IsActive = in.IsActive
	}
	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		changes.Email = &email
	}
	changes.FirstName = trimmed(in.FirstName)
	changes.LastName = trimmed(in.LastName)
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return Principal{}, fmt.Errorf("users: hash password: %w", err)
		}
		changes.PasswordHash = &hash
	}

	updated, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		return Principal{}, err
	}
	if changes.Role != nil || changes.IsActive != nil {
		s.logger.Info("principal access changed",
			slog.Int64("actor_id", actor.ID),
			slog.Int64("principal_id", id),
			slog.String("role", string(updated.Role)),
			slog.Bool("is_active", updated.IsActive),
		)
	}
	return updated, nil
}

// Delete deactivates a principal. Deactivated principals can no longer log in.
func (s *Service) Delete(ctx context.Context, actor *rbac.Actor, id int64) error {
	if err := rbac.Authorize(actor, rbac.ActionDelete, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.logger.Info("principal deactivated", slog.Int64("actor_id", actor.ID), slog.Int64("principal_id", id))
	return nil
}

// Profile returns the actor's own record.
func (s *Service) Profile(ctx context.Context, actor *rbac.Actor) (Principal, error) {
	if err := rbac.Authorize(actor, rbac.ActionReadProfile, 0); err != nil {
		return Principal{}, err
	}
	p, err := s.repo.FindByID(ctx, actor.ID)
	if errors.Is(err, shared.ErrNotFound) {
		return Principal{}, shared.ErrUnauthenticated
	}
	return p, err
}

// CreateSuperuser bootstraps an Admin with staff and superuser flags. It runs
// outside any request so there is no actor to authorize.
func (s *Service) CreateSuperuser(ctx context.Context, in SuperuserInput) (Principal, error) {
	in.Username = NormalizeUsername(in.Username)
	in.Email = NormalizeEmail(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return Principal{}, validationError(err, "")
	}
	verr := &shared.ValidationError{}
	if in.Role != "" {
		if role, ok := rbac.ParseRole(in.Role); !ok || role != rbac.RoleAdmin {
			verr.Add("role", "superuser must have role Admin")
		}
	}
	if in.IsStaff != nil && !*in.IsStaff {
		verr.Add("is_staff", "superuser must have is_staff=true")
	}
	if in.IsSuperuser != nil && !*in.IsSuperuser {
		verr.Add("is_superuser", "superuser must have is_superuser=true")
	}
	if !verr.Empty() {
		return Principal{}, verr
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Principal{}, fmt.Errorf("users: hash password: %w", err)
	}
	created, err := s.repo.Create(ctx, Principal{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         rbac.RoleAdmin,
		IsActive:     true,
		IsStaff:      true,
		IsSuperuser:  true,
	})
	if errors.Is(err, shared.ErrDuplicate) {
		return Principal{}, shared.NewValidationError("username", "a user with that username already exists")
	}
	if err != nil {
		return Principal{}, err
	}
	s.logger.Info("superuser created", slog.Int64("principal_id", created.ID), slog.String("username", created.Username))
	return created, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	out := strings.TrimSpace(*v)
	return &out
}
