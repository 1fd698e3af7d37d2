package ports

import (
	"context"

	"github.com/librarium/loan-service/internal/core/domain"
)

// ListBranchesFilter carries the query parameters for listing branches.
type ListBranchesFilter struct {
	Active *bool  // optional
	Search string // optional: partial match on name or address
	Page   int
	Limit  int
}

// BranchRepository defines persistence operations for library branches.
type BranchRepository interface {
	Create(ctx context.Context, branch *domain.Branch) error
	FindByID(ctx context.Context, id string) (*domain.Branch, error)
	Update(ctx context.Context, branch *domain.Branch) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListBranchesFilter) ([]*domain.Branch, int64, error)
}
