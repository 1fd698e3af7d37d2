package ports

import (
	"context"

	"github.com/librarium/loan-service/internal/core/domain"
)

// CreateUserInput carries an admin-created account. Unlike self registration,
// any role may be assigned.
type CreateUserInput struct {
	Actor    domain.Actor
	Email    string
	Password string
	FullName string
	Role     domain.Role
}

// UpdateUserInput carries a partial user update. Nil fields are untouched.
type UpdateUserInput struct {
	Actor    domain.Actor
	UserID   string
	FullName *string
	Password *string
	Role     *domain.Role
	Active   *bool
}

// ListUsersResult is a page of users.
type ListUsersResult struct {
	Items      []*domain.User
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// UserService defines admin-facing account management. The built-in admin is
// exempt from deletion and role changes by any actor.
type UserService interface {
	Create(ctx context.Context, input CreateUserInput) (*domain.User, error)
	Get(ctx context.Context, actor domain.Actor, userID string) (*domain.User, error)
	Update(ctx context.Context, input UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, actor domain.Actor, userID string) error
	List(ctx context.Context, actor domain.Actor, filter ListUsersFilter) (*ListUsersResult, error)
}
