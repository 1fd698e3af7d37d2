package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/librarium/loan-service/internal/api/metrics"
	"github.com/librarium/loan-service/internal/core/domain"
	"github.com/librarium/loan-service/internal/core/ports"
)

// SweepLock is an advisory lock so overlapping deployments do not run the
// sweep twice at the same moment. The sweep itself is idempotent, so a failed
// or unavailable lock only costs duplicate work, never correctness.
type SweepLock interface {
	TryAcquire(ctx context.Context, ttl time.Duration) (bool, error)
	Release(ctx context.Context) error
}

// OverdueSweeper periodically transitions expired borrowed loans to overdue
// through the same engine entry point real actors use, attributed to the
// system actor. It also reconciles the derived available-copies counts.
type OverdueSweeper struct {
	loans    ports.LoanRepository
	books    ports.BookRepository
	service  ports.LoanService
	clock    ports.Clock
	lock     SweepLock
	interval time.Duration
	logger   zerolog.Logger
}

func NewOverdueSweeper(
	loans ports.LoanRepository,
	books ports.BookRepository,
	service ports.LoanService,
	clock ports.Clock,
	lock SweepLock,
	interval time.Duration,
	logger zerolog.Logger,
) *OverdueSweeper {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &OverdueSweeper{
		loans:    loans,
		books:    books,
		service:  service,
		clock:    clock,
		lock:     lock,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks, sweeping every interval until ctx is cancelled.
func (s *OverdueSweeper) Run(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Msg("overdue sweeper started")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("overdue sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.Error().Err(err).Msg("overdue sweep failed")
			}
		}
	}
}

// SweepOnce performs a single sweep and returns the number of loans newly
// marked overdue. Each per-loan transition is independently atomic: a crash
// mid-sweep leaves processed loans overdue and the rest borrowed, safely
// resumable on the next run.
func (s *OverdueSweeper) SweepOnce(ctx context.Context) (int, error) {
	if s.lock != nil {
		acquired, err := s.lock.TryAcquire(ctx, s.interval)
		if err != nil {
			s.logger.Warn().Err(err).Msg("sweep lock unavailable, sweeping anyway")
		} else if !acquired {
			s.logger.Debug().Msg("sweep already running elsewhere, skipping")
			return 0, nil
		} else {
			defer func() {
				if err := s.lock.Release(ctx); err != nil {
					s.logger.Warn().Err(err).Msg("failed to release sweep lock")
				}
			}()
		}
	}

	now := s.clock.Now()
	due, err := s.loans.FindDue(ctx, now)
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, loan := range due {
		_, err := s.service.UpdateStatus(ctx, ports.UpdateLoanStatusInput{
			Actor:  domain.System(),
			LoanID: loan.ID,
			Status: domain.StatusOverdue,
			Notes:  "automatically marked overdue",
		})
		switch {
		case err == nil:
			marked++
		case errors.Is(err, domain.ErrInvalidTransition):
			// Another run or a librarian got there first; nothing to do.
		default:
			s.logger.Error().Err(err).Str("loan_id", loan.ID).Msg("failed to mark loan overdue")
		}
	}

	metrics.SweepsTotal.Inc()
	metrics.LoansMarkedOverdueTotal.Add(float64(marked))
	if marked > 0 {
		s.logger.Info().Int("marked", marked).Msg("overdue sweep completed")
	}

	if err := s.reconcile(ctx); err != nil {
		s.logger.Error().Err(err).Msg("availability reconciliation failed")
	}

	return marked, nil
}

// reconcile is the safety net for the derived available_copies invariant:
// recount copy-holding loans per book and repair any drift.
func (s *OverdueSweeper) reconcile(ctx context.Context) error {
	holding, err := s.loans.CountHoldingByBook(ctx)
	if err != nil {
		return err
	}

	page := 1
	for {
		books, _, err := s.books.List(ctx, ports.ListBooksFilter{Page: page, Limit: 200})
		if err != nil {
			return err
		}
		if len(books) == 0 {
			return nil
		}
		for _, book := range books {
			want := book.TotalCopies - int(holding[book.ID])
			if want < 0 {
				want = 0
			}
			if book.AvailableCopies == want {
				continue
			}
			s.logger.Warn().
				Str("book_id", book.ID).
				Int("stored", book.AvailableCopies).
				Int("derived", want).
				Msg("available_copies drift detected, repairing")
			if err := s.books.SetAvailableCopies(ctx, book.ID, want); err != nil {
				s.logger.Error().Err(err).Str("book_id", book.ID).Msg("failed to repair available_copies")
				continue
			}
			metrics.ReconciliationFixesTotal.Inc()
		}
		page++
	}
}
