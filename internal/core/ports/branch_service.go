package ports

import (
	"context"

	"github.com/librarium/loan-service/internal/core/domain"
)

// CreateBranchInput carries the fields for a new branch.
type CreateBranchInput struct {
	Actor       domain.Actor
	Name        string
	Address     string
	Description string
	Phone       string
	Email       string
}

// UpdateBranchInput carries a partial branch update. Nil fields are untouched.
type UpdateBranchInput struct {
	Actor       domain.Actor
	BranchID    string
	Name        *string
	Address     *string
	Description *string
	Phone       *string
	Email       *string
	Active      *bool
}

// ListBranchesResult is a page of branches.
type ListBranchesResult struct {
	Items      []*domain.Branch
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// BranchService defines branch management operations.
type BranchService interface {
	Create(ctx context.Context, input CreateBranchInput) (*domain.Branch, error)
	Get(ctx context.Context, branchID string) (*domain.Branch, error)
	Update(ctx context.Context, input UpdateBranchInput) (*domain.Branch, error)
	Delete(ctx context.Context, actor domain.Actor, branchID string) error
	List(ctx context.Context, filter ListBranchesFilter) (*ListBranchesResult, error)
}
