package ports

import (
	"context"
	"time"

	"github.com/librarium/loan-service/internal/core/domain"
)

// ListLoansFilter carries the query parameters for listing loans.
// MemberID is enforced by the service layer for member actors.
type ListLoansFilter struct {
	MemberID string            // empty = no filter
	BranchID string            // optional
	Status   domain.LoanStatus // optional
	Page     int
	Limit    int
	SortBy   string // created_at (default), due_date, status
	SortAsc  bool
}

// TransitionUpdate describes a single atomic status transition. The write is
// a compare-and-set: it only applies while the loan is still in From, which
// serializes concurrent transitions on the same loan.
type TransitionUpdate struct {
	From       domain.LoanStatus
	To         domain.LoanStatus
	BorrowDate *time.Time
	DueDate    *time.Time
	ReturnDate *time.Time
	LateFee    *float64
	History    domain.StatusHistoryEntry
}

// LoanRepository defines persistence operations for the loan ledger.
// Loans are never physically deleted.
type LoanRepository interface {
	Create(ctx context.Context, loan *domain.Loan) error
	FindByID(ctx context.Context, id string) (*domain.Loan, error)
	List(ctx context.Context, filter ListLoansFilter) ([]*domain.Loan, int64, error)

	// CountActive counts the member's loans in the cap-relevant statuses
	// (requested, approved, borrowed, overdue).
	CountActive(ctx context.Context, memberID string) (int64, error)

	// ApplyTransition atomically moves the loan From→To, sets the date/fee
	// fields, and appends the history entry. It returns ErrInvalidTransition
	// when the loan is no longer in From (a concurrent actor won the race)
	// and ErrLoanNotFound when the loan does not exist.
	ApplyTransition(ctx context.Context, loanID string, update TransitionUpdate) (*domain.Loan, error)

	// FindDue returns loans in Borrowed whose due_date is before cutoff.
	FindDue(ctx context.Context, cutoff time.Time) ([]*domain.Loan, error)

	// CountHoldingByBook returns, per book id, the number of loans currently
	// holding a copy. Used by the availability reconciliation safety net.
	CountHoldingByBook(ctx context.Context) (map[string]int64, error)
}
