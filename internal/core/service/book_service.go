package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/librarium/loan-service/internal/core/domain"
	"github.com/librarium/loan-service/internal/core/policy"
	"github.com/librarium/loan-service/internal/core/ports"
)

// BookService implements catalog management. Copy-count mutations share the
// repository choke point with the loan workflow engine.
type BookService struct {
	books    ports.BookRepository
	branches ports.BranchRepository
	clock    ports.Clock
	logger   zerolog.Logger
}

func NewBookService(books ports.BookRepository, branches ports.BranchRepository, clock ports.Clock, logger zerolog.Logger) *BookService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &BookService{books: books, branches: branches, clock: clock, logger: logger}
}

func (s *BookService) Create(ctx context.Context, input ports.CreateBookInput) (*domain.Book, error) {
	if !policy.Allowed(input.Actor, policy.ActionBookCreate, policy.Resource{}) {
		return nil, domain.ErrForbidden
	}
	if _, err := s.branches.FindByID(ctx, input.BranchID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	book := &domain.Book{
		ID:              uuid.NewString(),
		Title:           input.Title,
		Author:          input.Author,
		ISBN:            input.ISBN,
		Description:     input.Description,
		Genre:           input.Genre,
		PublicationYear: input.PublicationYear,
		TotalCopies:     input.TotalCopies,
		AvailableCopies: input.TotalCopies,
		BranchID:        input.BranchID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.books.Create(ctx, book); err != nil {
		return nil, err
	}

	s.logger.Info().Str("book_id", book.ID).Str("isbn", book.ISBN).
		Str("actor_id", input.Actor.ID).Msg("book created")
	return book, nil
}

func (s *BookService) Get(ctx context.Context, bookID string) (*domain.Book, error) {
	return s.books.FindByID(ctx, bookID)
}

// Update applies a partial update. Changing total_copies shifts
// available_copies by the same delta and fails with ErrCopiesOnLoan when the
// new total would fall below the copies currently out.
func (s *BookService) Update(ctx context.Context, input ports.UpdateBookInput) (*domain.Book, error) {
	if !policy.Allowed(input.Actor, policy.ActionBookUpdate, policy.Resource{}) {
		return nil, domain.ErrForbidden
	}

	book, err := s.books.FindByID(ctx, input.BookID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		book.Title = *input.Title
	}
	if input.Author != nil {
		book.Author = *input.Author
	}
	if input.Description != nil {
		book.Description = *input.Description
	}
	if input.Genre != nil {
		book.Genre = *input.Genre
	}
	if input.PublicationYear != nil {
		book.PublicationYear = *input.PublicationYear
	}
	if input.BranchID != nil {
		if _, err := s.branches.FindByID(ctx, *input.BranchID); err != nil {
			return nil, err
		}
		book.BranchID = *input.BranchID
	}

	delta := 0
	if input.TotalCopies != nil {
		delta = *input.TotalCopies - book.TotalCopies
	}
	book.UpdatedAt = s.clock.Now()

	if err := s.books.Update(ctx, book, delta); err != nil {
		return nil, err
	}

	s.logger.Info().Str("book_id", book.ID).Str("actor_id", input.Actor.ID).Msg("book updated")
	return s.books.FindByID(ctx, book.ID)
}

// AdjustCopies shifts total and available copies by delta. A negative delta
// is floored at the copies currently out on loan, and the total never drops
// below zero.
func (s *BookService) AdjustCopies(ctx context.Context, actor domain.Actor, bookID string, delta int) (*domain.Book, error) {
	if !policy.Allowed(actor, policy.ActionBookAdjust, policy.Resource{}) {
		return nil, domain.ErrForbidden
	}

	book, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book.TotalCopies+delta < 0 {
		return nil, fmt.Errorf("%w: total would be negative", domain.ErrCopiesOnLoan)
	}
	book.UpdatedAt = s.clock.Now()

	if err := s.books.Update(ctx, book, delta); err != nil {
		return nil, err
	}

	s.logger.Info().Str("book_id", bookID).Int("delta", delta).
		Str("actor_id", actor.ID).Msg("book copies adjusted")
	return s.books.FindByID(ctx, bookID)
}

func (s *BookService) Delete(ctx context.Context, actor domain.Actor, bookID string) error {
	if !policy.Allowed(actor, policy.ActionBookDelete, policy.Resource{}) {
		return domain.ErrForbidden
	}
	if err := s.books.Delete(ctx, bookID); err != nil {
		return err
	}
	s.logger.Info().Str("book_id", bookID).Str("actor_id", actor.ID).Msg("book deleted")
	return nil
}

func (s *BookService) List(ctx context.Context, filter ports.ListBooksFilter) (*ports.ListBooksResult, error) {
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)
	items, total, err := s.books.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return &ports.ListBooksResult{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages(total, filter.Limit),
	}, nil
}
