package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/librarium/loan-service/internal/api/metrics"
	"github.com/librarium/loan-service/internal/core/domain"
	"github.com/librarium/loan-service/internal/core/policy"
	"github.com/librarium/loan-service/internal/core/ports"
)

// LoanRules are the configurable knobs of the loan workflow.
type LoanRules struct {
	// PeriodDays is added to the borrow date to produce the due date.
	PeriodDays int
	// MaxActive caps a member's simultaneous loans in
	// {requested, approved, borrowed, overdue}.
	MaxActive int
	// LateFeePerDay is the fee rate applied per whole day late.
	LateFeePerDay float64
}

// DefaultLoanRules mirror the configuration defaults.
func DefaultLoanRules() LoanRules {
	return LoanRules{PeriodDays: 14, MaxActive: 5, LateFeePerDay: 0.50}
}

// LoanService is the loan workflow engine. All loan and copy-count mutations
// flow through here, each applied as an atomic compare-and-set via the
// repositories so concurrent transitions cannot produce lost updates.
type LoanService struct {
	loans  ports.LoanRepository
	books  ports.BookRepository
	rules  LoanRules
	clock  ports.Clock
	sink   ports.NotificationSink
	logger zerolog.Logger
}

func NewLoanService(
	loans ports.LoanRepository,
	books ports.BookRepository,
	rules LoanRules,
	clock ports.Clock,
	sink ports.NotificationSink,
	logger zerolog.Logger,
) *LoanService {
	if rules.PeriodDays <= 0 {
		rules.PeriodDays = 14
	}
	if rules.MaxActive <= 0 {
		rules.MaxActive = 5
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &LoanService{
		loans:  loans,
		books:  books,
		rules:  rules,
		clock:  clock,
		sink:   sink,
		logger: logger,
	}
}

// Create requests a loan on behalf of a member. The request validates the
// member's loan cap and the book's availability but does not reserve a copy;
// reservation happens at approval.
func (s *LoanService) Create(ctx context.Context, input ports.CreateLoanInput) (*domain.Loan, error) {
	if !policy.Allowed(input.Actor, policy.ActionLoanCreate, policy.Resource{OwnerID: input.Actor.ID}) {
		return nil, domain.ErrForbidden
	}

	active, err := s.loans.CountActive(ctx, input.Actor.ID)
	if err != nil {
		return nil, fmt.Errorf("create loan: count active: %w", err)
	}
	if active >= int64(s.rules.MaxActive) {
		return nil, domain.ErrLoanCapExceeded
	}

	book, err := s.books.FindByID(ctx, input.BookID)
	if err != nil {
		return nil, err
	}
	if book.AvailableCopies <= 0 {
		return nil, domain.ErrNoCopiesAvailable
	}

	now := s.clock.Now()
	loan := &domain.Loan{
		ID:        uuid.NewString(),
		MemberID:  input.Actor.ID,
		BookID:    book.ID,
		BranchID:  book.BranchID,
		Status:    domain.StatusRequested,
		Notes:     input.Notes,
		CreatedAt: now,
		UpdatedAt: now,
		StatusHistory: []domain.StatusHistoryEntry{{
			New:       domain.StatusRequested,
			ActorID:   input.Actor.ID,
			ActorRole: input.Actor.Role,
			Notes:     "loan requested",
			ChangedAt: now,
		}},
	}

	if err := s.loans.Create(ctx, loan); err != nil {
		return nil, fmt.Errorf("create loan: %w", err)
	}

	metrics.LoansCreatedTotal.Inc()
	s.logger.Info().
		Str("loan_id", loan.ID).
		Str("member_id", loan.MemberID).
		Str("book_id", loan.BookID).
		Msg("loan requested")

	s.notify(ctx, loan, "", domain.StatusRequested, input.Actor)
	return loan, nil
}

// UpdateStatus applies a single state-machine transition. A transition to the
// loan's current status is a no-op, so overlapping sweeper runs are safe.
func (s *LoanService) UpdateStatus(ctx context.Context, input ports.UpdateLoanStatusInput) (*domain.Loan, error) {
	loan, err := s.loans.FindByID(ctx, input.LoanID)
	if err != nil {
		return nil, err
	}

	if loan.Status == input.Status {
		// The no-op still reveals the loan, so it is gated like a read.
		if !policy.Allowed(input.Actor, policy.ActionLoanRead, policy.Resource{OwnerID: loan.MemberID}) {
			return nil, domain.ErrForbidden
		}
		return loan, nil
	}
	if !loan.Status.CanTransitionTo(input.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, loan.Status, input.Status)
	}
	if !policy.TransitionAllowed(input.Actor, loan.MemberID, loan.Status, input.Status) {
		return nil, domain.ErrForbidden
	}

	now := s.clock.Now()
	update := ports.TransitionUpdate{
		From: loan.Status,
		To:   input.Status,
		History: domain.StatusHistoryEntry{
			Previous:  loan.Status,
			New:       input.Status,
			ActorID:   input.Actor.ID,
			ActorRole: input.Actor.Role,
			Notes:     input.Notes,
			ChangedAt: now,
		},
	}

	switch input.Status {
	case domain.StatusApproved:
		// Reserve the copy first: the availability re-check happens at commit
		// time, not only at request time. If the count has since dropped to
		// zero the approval fails and nothing changes.
		if err := s.books.ReserveCopy(ctx, loan.BookID); err != nil {
			metrics.LoanTransitionErrorsTotal.WithLabelValues("no_copies").Inc()
			return nil, err
		}
	case domain.StatusBorrowed:
		borrow := now
		due := now.AddDate(0, 0, s.rules.PeriodDays)
		update.BorrowDate = &borrow
		update.DueDate = &due
	case domain.StatusReturned:
		ret := now
		fee := domain.LateFee(s.dueDate(loan), now, s.rules.LateFeePerDay)
		update.ReturnDate = &ret
		update.LateFee = &fee
	case domain.StatusLost:
		// The copy stays reserved and total_copies is untouched; restocking a
		// replacement is a librarian decision via adjust_copies.
		fee := domain.LateFee(s.dueDate(loan), now, s.rules.LateFeePerDay)
		update.LateFee = &fee
	}

	updated, err := s.loans.ApplyTransition(ctx, loan.ID, update)
	if err != nil {
		if input.Status == domain.StatusApproved {
			// Lost the loan CAS race after reserving: hand the copy back.
			if relErr := s.books.ReleaseCopy(ctx, loan.BookID); relErr != nil {
				s.logger.Error().Err(relErr).Str("book_id", loan.BookID).
					Msg("failed to release copy after lost approval race")
			}
		}
		metrics.LoanTransitionErrorsTotal.WithLabelValues("conflict").Inc()
		return nil, err
	}

	if input.Status == domain.StatusReturned {
		if err := s.books.ReleaseCopy(ctx, loan.BookID); err != nil {
			// The loan is already returned; reconciliation repairs the count.
			s.logger.Error().Err(err).Str("book_id", loan.BookID).
				Msg("failed to release copy on return")
		}
	}

	metrics.LoanTransitionsTotal.WithLabelValues(string(loan.Status), string(input.Status)).Inc()
	s.logger.Info().
		Str("loan_id", loan.ID).
		Str("from", string(loan.Status)).
		Str("to", string(input.Status)).
		Str("actor_id", input.Actor.ID).
		Msg("loan status changed")

	s.notify(ctx, updated, loan.Status, input.Status, input.Actor)
	return updated, nil
}

// Get retrieves a single loan; members only see their own.
func (s *LoanService) Get(ctx context.Context, actor domain.Actor, loanID string) (*domain.Loan, error) {
	loan, err := s.loans.FindByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !policy.Allowed(actor, policy.ActionLoanRead, policy.Resource{OwnerID: loan.MemberID}) {
		return nil, domain.ErrForbidden
	}
	return loan, nil
}

// List returns a page of loans. Member actors are always scoped to their own
// loans regardless of the requested filter.
func (s *LoanService) List(ctx context.Context, input ports.ListLoansInput) (*ports.ListLoansResult, error) {
	memberID := input.MemberID
	if input.Actor.Role == domain.RoleMember {
		memberID = input.Actor.ID
	}

	page, limit := normalizePage(input.Page, input.Limit)
	items, total, err := s.loans.List(ctx, ports.ListLoansFilter{
		MemberID: memberID,
		BranchID: input.BranchID,
		Status:   input.Status,
		Page:     page,
		Limit:    limit,
		SortBy:   input.SortBy,
		SortAsc:  input.SortAsc,
	})
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}

	return &ports.ListLoansResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

// DisplayFee returns the fee to show for a loan. Settled loans carry a fixed
// fee; a still-overdue loan is evaluated against the current time so the
// displayed amount reflects reality.
func (s *LoanService) DisplayFee(loan *domain.Loan) float64 {
	if loan.LateFee != nil {
		return *loan.LateFee
	}
	if loan.Status == domain.StatusOverdue && loan.DueDate != nil {
		return domain.LateFee(*loan.DueDate, s.clock.Now(), s.rules.LateFeePerDay)
	}
	return 0
}

// dueDate returns the loan's due date, or the current time when unset so the
// fee for a loan lost before borrowing comes out zero.
func (s *LoanService) dueDate(loan *domain.Loan) time.Time {
	if loan.DueDate != nil {
		return *loan.DueDate
	}
	return s.clock.Now()
}

func (s *LoanService) notify(ctx context.Context, loan *domain.Loan, prev, next domain.LoanStatus, actor domain.Actor) {
	if s.sink == nil {
		return
	}
	s.sink.LoanStatusChanged(ctx, ports.LoanEvent{
		LoanID:    loan.ID,
		MemberID:  loan.MemberID,
		BookID:    loan.BookID,
		Previous:  prev,
		New:       next,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		At:        s.clock.Now(),
	})
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return int(pages)
}
