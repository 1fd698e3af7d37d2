package ports

import (
	"context"

	"github.com/librarium/loan-service/internal/core/domain"
)

// CreateLoanInput carries all data needed to request a loan. The branch is
// denormalized from the book at creation time, not supplied by the caller.
type CreateLoanInput struct {
	Actor  domain.Actor
	BookID string
	Notes  string
}

// UpdateLoanStatusInput drives a single state-machine transition.
type UpdateLoanStatusInput struct {
	Actor  domain.Actor
	LoanID string
	Status domain.LoanStatus
	Notes  string
}

// ListLoansInput carries the list parameters plus the actor for role scoping.
type ListLoansInput struct {
	Actor    domain.Actor
	MemberID string
	BranchID string
	Status   domain.LoanStatus
	Page     int
	Limit    int
	SortBy   string
	SortAsc  bool
}

// ListLoansResult is a page of loans.
type ListLoansResult struct {
	Items      []*domain.Loan
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// LoanService is the loan workflow engine: it validates and applies status
// transitions, maintains the copy-availability invariant, and computes late
// fees.
type LoanService interface {
	Create(ctx context.Context, input CreateLoanInput) (*domain.Loan, error)
	// UpdateStatus applies one transition. A transition to the loan's current
	// status is a no-op, not an error.
	UpdateStatus(ctx context.Context, input UpdateLoanStatusInput) (*domain.Loan, error)
	Get(ctx context.Context, actor domain.Actor, loanID string) (*domain.Loan, error)
	List(ctx context.Context, input ListLoansInput) (*ListLoansResult, error)
	// DisplayFee evaluates the fee a still-overdue loan would owe right now;
	// for settled loans it returns the stored fee.
	DisplayFee(loan *domain.Loan) float64
}
