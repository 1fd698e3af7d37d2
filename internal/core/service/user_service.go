package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/librarium/loan-service/internal/core/domain"
	"github.com/librarium/loan-service/internal/core/policy"
	"github.com/librarium/loan-service/internal/core/ports"
)

// UserService implements admin-facing account management.
type UserService struct {
	users  ports.UserRepository
	clock  ports.Clock
	logger zerolog.Logger
}

func NewUserService(users ports.UserRepository, clock ports.Clock, logger zerolog.Logger) *UserService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &UserService{users: users, clock: clock, logger: logger}
}

// Create provisions an account with an assigned role, typically a librarian.
// Self-service signups go through AuthService.Register instead.
func (s *UserService) Create(ctx context.Context, input ports.CreateUserInput) (*domain.User, error) {
	if !policy.Allowed(input.Actor, policy.ActionUserCreate, policy.Resource{}) {
		return nil, domain.ErrForbidden
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock.Now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        input.Email,
		PasswordHash: string(hash),
		FullName:     input.FullName,
		Role:         input.Role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("role", string(user.Role)).
		Str("actor_id", input.Actor.ID).
		Msg("user created")
	return user, nil
}

func (s *UserService) Get(ctx context.Context, actor domain.Actor, userID string) (*domain.User, error) {
	if !policy.Allowed(actor, policy.ActionUserRead, policy.Resource{}) {
		return nil, domain.ErrForbidden
	}
	return s.users.FindByID(ctx, userID)
}

// Update applies a partial update. The built-in admin accepts no role change
// from any actor; a password change is re-hashed with bcrypt.
func (s *UserService) Update(ctx context.Context, input ports.UpdateUserInput) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	roleChange := input.Role != nil && *input.Role != user.Role
	if user.BuiltIn && (roleChange || (input.Active != nil && !*input.Active)) {
		return nil, domain.ErrBuiltInAdmin
	}
	if !policy.Allowed(input.Actor, policy.ActionUserUpdate, policy.Resource{OwnerID: user.ID}) {
		return nil, domain.ErrForbidden
	}

	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.Password != nil && *input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}
	if roleChange {
		user.Role = *input.Role
	}
	if input.Active != nil {
		user.Active = *input.Active
	}
	user.UpdatedAt = s.clock.Now()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("actor_id", input.Actor.ID).Msg("user updated")
	return user, nil
}

// Delete removes an account. The built-in admin is exempt regardless of
// actor rank.
func (s *UserService) Delete(ctx context.Context, actor domain.Actor, userID string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.BuiltIn {
		return domain.ErrBuiltInAdmin
	}
	if !policy.Allowed(actor, policy.ActionUserDelete, policy.Resource{OwnerID: user.ID}) {
		return domain.ErrForbidden
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", userID).Str("actor_id", actor.ID).Msg("user deleted")
	return nil
}

func (s *UserService) List(ctx context.Context, actor domain.Actor, filter ports.ListUsersFilter) (*ports.ListUsersResult, error) {
	if !policy.Allowed(actor, policy.ActionUserRead, policy.Resource{}) {
		return nil, domain.ErrForbidden
	}
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)
	items, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &ports.ListUsersResult{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages(total, filter.Limit),
	}, nil
}
