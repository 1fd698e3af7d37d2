package ports

import (
	"context"

	"github.com/librarium/loan-service/internal/core/domain"
)

// CreateBookInput carries the fields for a new catalog entry.
type CreateBookInput struct {
	Actor           domain.Actor
	Title           string
	Author          string
	ISBN            string
	Description     string
	Genre           string
	PublicationYear int
	TotalCopies     int
	BranchID        string
}

// UpdateBookInput carries a partial book update. Nil fields are untouched.
type UpdateBookInput struct {
	Actor           domain.Actor
	BookID          string
	Title           *string
	Author          *string
	Description     *string
	Genre           *string
	PublicationYear *int
	TotalCopies     *int
	BranchID        *string
}

// ListBooksResult is a page of books.
type ListBooksResult struct {
	Items      []*domain.Book
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// BookService defines catalog operations. All copy-count changes go through
// the same repository choke point the loan workflow uses.
type BookService interface {
	Create(ctx context.Context, input CreateBookInput) (*domain.Book, error)
	Get(ctx context.Context, bookID string) (*domain.Book, error)
	// Update rejects reducing total_copies below the copies currently out.
	Update(ctx context.Context, input UpdateBookInput) (*domain.Book, error)
	// AdjustCopies shifts total and available copies by delta, with the same
	// on-loan floor as Update.
	AdjustCopies(ctx context.Context, actor domain.Actor, bookID string, delta int) (*domain.Book, error)
	Delete(ctx context.Context, actor domain.Actor, bookID string) error
	List(ctx context.Context, filter ListBooksFilter) (*ListBooksResult, error)
}
