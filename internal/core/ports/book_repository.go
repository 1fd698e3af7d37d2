package ports

import (
	"context"

	"github.com/librarium/loan-service/internal/core/domain"
)

// ListBooksFilter carries the query parameters for listing books.
type ListBooksFilter struct {
	BranchID      string // optional
	Genre         string // optional: partial match
	Author        string // optional: partial match
	AvailableOnly bool   // only books with available_copies > 0
	Search        string // optional: partial match on title, author or isbn
	Page          int
	Limit         int
}

// BookRepository defines persistence operations for the catalog.
//
// ReserveCopy, ReleaseCopy and AdjustCopies are the single choke point for
// copy-count mutations: each is a conditional read-modify-write so the
// derived available_copies invariant can never be violated by a plain field
// write, even under concurrent transitions.
type BookRepository interface {
	Create(ctx context.Context, book *domain.Book) error
	FindByID(ctx context.Context, id string) (*domain.Book, error)
	// Update persists mutable book fields. copiesDelta is applied to both
	// total_copies and available_copies atomically; the write fails with
	// ErrCopiesOnLoan when it would push available_copies below zero.
	Update(ctx context.Context, book *domain.Book, copiesDelta int) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListBooksFilter) ([]*domain.Book, int64, error)

	// ReserveCopy decrements available_copies by one, failing with
	// ErrNoCopiesAvailable when the count is already zero. The check and the
	// decrement are a single atomic operation.
	ReserveCopy(ctx context.Context, bookID string) error
	// ReleaseCopy increments available_copies by one, never past total_copies.
	ReleaseCopy(ctx context.Context, bookID string) error
	// SetAvailableCopies force-sets the derived count; used only by the
	// reconciliation safety net.
	SetAvailableCopies(ctx context.Context, bookID string, n int) error
}
