package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/librarium/loan-service/internal/core/domain"
	"github.com/librarium/loan-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

// stubLoanRepo mirrors the real Mongo repository's compare-and-set semantics,
// guarded by a mutex so concurrency tests exercise the same races.
type stubLoanRepo struct {
	mu    sync.Mutex
	loans map[string]*domain.Loan
}

func newStubLoanRepo() *stubLoanRepo {
	return &stubLoanRepo{loans: make(map[string]*domain.Loan)}
}

func (r *stubLoanRepo) Create(_ context.Context, loan *domain.Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *loan
	r.loans[loan.ID] = &clone
	return nil
}

func (r *stubLoanRepo) FindByID(_ context.Context, id string) (*domain.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	loan, ok := r.loans[id]
	if !ok {
		return nil, domain.ErrLoanNotFound
	}
	clone := *loan
	return &clone, nil
}

func (r *stubLoanRepo) List(_ context.Context, f ports.ListLoansFilter) ([]*domain.Loan, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.Loan
	for _, loan := range r.loans {
		if f.MemberID != "" && loan.MemberID != f.MemberID {
			continue
		}
		if f.BranchID != "" && loan.BranchID != f.BranchID {
			continue
		}
		if f.Status != "" && loan.Status != f.Status {
			continue
		}
		clone := *loan
		matched = append(matched, &clone)
	}
	return matched, int64(len(matched)), nil
}

func (r *stubLoanRepo) CountActive(_ context.Context, memberID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, loan := range r.loans {
		if loan.MemberID != memberID {
			continue
		}
		for _, s := range domain.ActiveStatuses() {
			if loan.Status == s {
				n++
				break
			}
		}
	}
	return n, nil
}

func (r *stubLoanRepo) ApplyTransition(_ context.Context, loanID string, u ports.TransitionUpdate) (*domain.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	loan, ok := r.loans[loanID]
	if !ok {
		return nil, domain.ErrLoanNotFound
	}
	if loan.Status != u.From {
		return nil, fmt.Errorf("%w: loan no longer in %s", domain.ErrInvalidTransition, u.From)
	}
	loan.Status = u.To
	if u.BorrowDate != nil {
		loan.BorrowDate = u.BorrowDate
	}
	if u.DueDate != nil {
		loan.DueDate = u.DueDate
	}
	if u.ReturnDate != nil {
		loan.ReturnDate = u.ReturnDate
	}
	if u.LateFee != nil {
		loan.LateFee = u.LateFee
	}
	loan.UpdatedAt = u.History.ChangedAt
	loan.StatusHistory = append(loan.StatusHistory, u.History)
	clone := *loan
	return &clone, nil
}

func (r *stubLoanRepo) FindDue(_ context.Context, cutoff time.Time) ([]*domain.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []*domain.Loan
	for _, loan := range r.loans {
		if loan.Status != domain.StatusBorrowed || loan.DueDate == nil {
			continue
		}
		if loan.DueDate.Before(cutoff) {
			clone := *loan
			due = append(due, &clone)
		}
	}
	return due, nil
}

func (r *stubLoanRepo) CountHoldingByBook(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, loan := range r.loans {
		if loan.Status.HoldsCopy() {
			counts[loan.BookID]++
		}
	}
	return counts, nil
}

// stubBookRepo enforces the same conditional copy-count updates as the Mongo
// repository: reserve fails at zero, release never exceeds the total.
type stubBookRepo struct {
	mu    sync.Mutex
	books map[string]*domain.Book
}

func newStubBookRepo() *stubBookRepo {
	return &stubBookRepo{books: make(map[string]*domain.Book)}
}

func (r *stubBookRepo) Create(_ context.Context, book *domain.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *book
	r.books[book.ID] = &clone
	return nil
}

func (r *stubBookRepo) FindByID(_ context.Context, id string) (*domain.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	book, ok := r.books[id]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	clone := *book
	return &clone, nil
}

func (r *stubBookRepo) Update(_ context.Context, book *domain.Book, copiesDelta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.books[book.ID]
	if !ok {
		return domain.ErrBookNotFound
	}
	if stored.AvailableCopies+copiesDelta < 0 {
		return domain.ErrCopiesOnLoan
	}
	clone := *book
	clone.TotalCopies = stored.TotalCopies + copiesDelta
	clone.AvailableCopies = stored.AvailableCopies + copiesDelta
	r.books[book.ID] = &clone
	return nil
}

func (r *stubBookRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[id]; !ok {
		return domain.ErrBookNotFound
	}
	delete(r.books, id)
	return nil
}

func (r *stubBookRepo) List(_ context.Context, f ports.ListBooksFilter) ([]*domain.Book, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f.Page > 1 {
		return nil, int64(len(r.books)), nil
	}
	var all []*domain.Book
	for _, book := range r.books {
		clone := *book
		all = append(all, &clone)
	}
	return all, int64(len(all)), nil
}

func (r *stubBookRepo) ReserveCopy(_ context.Context, bookID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	book, ok := r.books[bookID]
	if !ok {
		return domain.ErrBookNotFound
	}
	if book.AvailableCopies <= 0 {
		return domain.ErrNoCopiesAvailable
	}
	book.AvailableCopies--
	return nil
}

func (r *stubBookRepo) ReleaseCopy(_ context.Context, bookID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	book, ok := r.books[bookID]
	if !ok {
		return domain.ErrBookNotFound
	}
	if book.AvailableCopies < book.TotalCopies {
		book.AvailableCopies++
	}
	return nil
}

func (r *stubBookRepo) SetAvailableCopies(_ context.Context, bookID string, n int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	book, ok := r.books[bookID]
	if !ok {
		return domain.ErrBookNotFound
	}
	book.AvailableCopies = n
	return nil
}

// fixedClock is a settable time source.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(t time.Time) *fixedClock { return &fixedClock{now: t} }

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var (
	discardLogger = zerolog.Nop()
	refTime       = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	member    = domain.Actor{ID: "member-1", Role: domain.RoleMember}
	librarian = domain.Actor{ID: "lib-1", Role: domain.RoleLibrarian}
	admin     = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
)

type loanFixture struct {
	loans *stubLoanRepo
	books *stubBookRepo
	clock *fixedClock
	svc   *LoanService
}

func newLoanFixture(t *testing.T, copies int) *loanFixture {
	t.Helper()
	loans := newStubLoanRepo()
	books := newStubBookRepo()
	clock := newFixedClock(refTime)

	_ = books.Create(context.Background(), &domain.Book{
		ID:              "book-1",
		Title:           "The Go Programming Language",
		BranchID:        "branch-1",
		TotalCopies:     copies,
		AvailableCopies: copies,
	})

	svc := NewLoanService(loans, books, DefaultLoanRules(), clock, nil, discardLogger)
	return &loanFixture{loans: loans, books: books, clock: clock, svc: svc}
}

func (f *loanFixture) request(t *testing.T, actor domain.Actor) *domain.Loan {
	t.Helper()
	loan, err := f.svc.Create(context.Background(), ports.CreateLoanInput{
		Actor:  actor,
		BookID: "book-1",
	})
	if err != nil {
		t.Fatalf("request loan: %v", err)
	}
	return loan
}

func (f *loanFixture) transition(t *testing.T, actor domain.Actor, loanID string, to domain.LoanStatus) *domain.Loan {
	t.Helper()
	loan, err := f.svc.UpdateStatus(context.Background(), ports.UpdateLoanStatusInput{
		Actor:  actor,
		LoanID: loanID,
		Status: to,
	})
	if err != nil {
		t.Fatalf("transition to %s: %v", to, err)
	}
	return loan
}

func (f *loanFixture) available(t *testing.T) int {
	t.Helper()
	book, err := f.books.FindByID(context.Background(), "book-1")
	if err != nil {
		t.Fatalf("find book: %v", err)
	}
	return book.AvailableCopies
}

// ---------------------------------------------------------------------------
// Create tests
// ---------------------------------------------------------------------------

func TestLoanService_Create_Success(t *testing.T) {
	f := newLoanFixture(t, 3)

	loan := f.request(t, member)

	if loan.Status != domain.StatusRequested {
		t.Errorf("expected status %q, got %q", domain.StatusRequested, loan.Status)
	}
	if loan.MemberID != member.ID {
		t.Errorf("expected member %q, got %q", member.ID, loan.MemberID)
	}
	if loan.BranchID != "branch-1" {
		t.Errorf("branch must be denormalized from the book, got %q", loan.BranchID)
	}
	if loan.BorrowDate != nil || loan.DueDate != nil {
		t.Error("borrow and due dates must stay unset until the loan is borrowed")
	}
	if len(loan.StatusHistory) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(loan.StatusHistory))
	}
	if loan.StatusHistory[0].New != domain.StatusRequested {
		t.Errorf("history[0] must record the request, got %q", loan.StatusHistory[0].New)
	}
}

func TestLoanService_Create_DoesNotReserveCopy(t *testing.T) {
	f := newLoanFixture(t, 2)

	f.request(t, member)

	if got := f.available(t); got != 2 {
		t.Errorf("a request must not reserve a copy: expected 2 available, got %d", got)
	}
}

func TestLoanService_Create_NoCopiesAvailable(t *testing.T) {
	f := newLoanFixture(t, 0)

	_, err := f.svc.Create(context.Background(), ports.CreateLoanInput{Actor: member, BookID: "book-1"})
	if !errors.Is(err, domain.ErrNoCopiesAvailable) {
		t.Errorf("expected ErrNoCopiesAvailable, got %v", err)
	}
}

func TestLoanService_Create_CapExceeded(t *testing.T) {
	f := newLoanFixture(t, 50)

	for i := 0; i < 5; i++ {
		f.request(t, member)
	}

	_, err := f.svc.Create(context.Background(), ports.CreateLoanInput{Actor: member, BookID: "book-1"})
	if !errors.Is(err, domain.ErrLoanCapExceeded) {
		t.Errorf("expected ErrLoanCapExceeded on the 6th active loan, got %v", err)
	}
}

func TestLoanService_Create_TerminalLoansDoNotCountTowardCap(t *testing.T) {
	f := newLoanFixture(t, 50)

	for i := 0; i < 5; i++ {
		loan := f.request(t, member)
		f.transition(t, member, loan.ID, domain.StatusCanceled)
	}

	if _, err := f.svc.Create(context.Background(), ports.CreateLoanInput{Actor: member, BookID: "book-1"}); err != nil {
		t.Errorf("canceled loans must not count toward the cap, got %v", err)
	}
}

func TestLoanService_Create_NonMembersForbidden(t *testing.T) {
	f := newLoanFixture(t, 3)

	for _, actor := range []domain.Actor{librarian, admin} {
		_, err := f.svc.Create(context.Background(), ports.CreateLoanInput{Actor: actor, BookID: "book-1"})
		if !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("%s: expected ErrForbidden, got %v", actor.Role, err)
		}
	}
}

// ---------------------------------------------------------------------------
// Transition tests
// ---------------------------------------------------------------------------

func TestLoanService_Approve_ReservesCopy(t *testing.T) {
	f := newLoanFixture(t, 2)
	loan := f.request(t, member)

	approved := f.transition(t, librarian, loan.ID, domain.StatusApproved)

	if approved.Status != domain.StatusApproved {
		t.Errorf("expected approved, got %s", approved.Status)
	}
	if got := f.available(t); got != 1 {
		t.Errorf("approval must reserve a copy: expected 1 available, got %d", got)
	}
	if len(approved.StatusHistory) != 2 {
		t.Errorf("expected 2 history entries, got %d", len(approved.StatusHistory))
	}
}

func TestLoanService_Approve_FailsWhenNoCopiesLeft(t *testing.T) {
	f := newLoanFixture(t, 1)
	first := f.request(t, member)
	second := f.request(t, domain.Actor{ID: "member-2", Role: domain.RoleMember})

	f.transition(t, librarian, first.ID, domain.StatusApproved)

	_, err := f.svc.UpdateStatus(context.Background(), ports.UpdateLoanStatusInput{
		Actor: librarian, LoanID: second.ID, Status: domain.StatusApproved,
	})
	if !errors.Is(err, domain.ErrNoCopiesAvailable) {
		t.Errorf("expected ErrNoCopiesAvailable, got %v", err)
	}

	// The losing request stays requested, free to retry after a return.
	stored, _ := f.loans.FindByID(context.Background(), second.ID)
	if stored.Status != domain.StatusRequested {
		t.Errorf("losing loan must stay requested, got %s", stored.Status)
	}
}

func TestLoanService_Approve_ConcurrentLastCopy(t *testing.T) {
	f := newLoanFixture(t, 1)
	a := f.request(t, member)
	b := f.request(t, domain.Actor{ID: "member-2", Role: domain.RoleMember})

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, id := range []string{a.ID, b.ID} {
		wg.Add(1)
		go func(i int, loanID string) {
			defer wg.Done()
			_, results[i] = f.svc.UpdateStatus(context.Background(), ports.UpdateLoanStatusInput{
				Actor: librarian, LoanID: loanID, Status: domain.StatusApproved,
			})
		}(i, id)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
		} else if !errors.Is(err, domain.ErrNoCopiesAvailable) {
			t.Errorf("loser must fail with ErrNoCopiesAvailable, got %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("exactly one approval must win the last copy, got %d", successes)
	}
	if got := f.available(t); got != 0 {
		t.Errorf("expected 0 available after the race, got %d", got)
	}
}

func TestLoanService_Borrow_SetsDates(t *testing.T) {
	f := newLoanFixture(t, 1)
	loan := f.request(t, member)
	f.transition(t, librarian, loan.ID, domain.StatusApproved)

	borrowed := f.transition(t, librarian, loan.ID, domain.StatusBorrowed)

	if borrowed.BorrowDate == nil || !borrowed.BorrowDate.Equal(refTime) {
		t.Errorf("borrow date must be the pickup time, got %v", borrowed.BorrowDate)
	}
	wantDue := refTime.AddDate(0, 0, 14)
	if borrowed.DueDate == nil || !borrowed.DueDate.Equal(wantDue) {
		t.Errorf("due date must be borrow + 14 days, got %v", borrowed.DueDate)
	}
	if got := f.available(t); got != 0 {
		t.Errorf("borrowing must not double-reserve: expected 0 available, got %d", got)
	}
}

func TestLoanService_Return_ReleasesCopyAndSettlesFee(t *testing.T) {
	f := newLoanFixture(t, 1)
	loan := f.request(t, member)
	f.transition(t, librarian, loan.ID, domain.StatusApproved)
	f.transition(t, librarian, loan.ID, domain.StatusBorrowed)

	// Three whole days past due.
	f.clock.Advance(17 * 24 * time.Hour)
	returned := f.transition(t, librarian, loan.ID, domain.StatusReturned)

	if returned.ReturnDate == nil {
		t.Fatal("return date must be set")
	}
	if returned.LateFee == nil || *returned.LateFee != 1.50 {
		t.Errorf("expected fee 1.50 for 3 days at 0.50/day, got %v", returned.LateFee)
	}
	if got := f.available(t); got != 1 {
		t.Errorf("return must release the copy: expected 1 available, got %d", got)
	}
}

func TestLoanService_Return_OnTimeOwesNothing(t *testing.T) {
	f := newLoanFixture(t, 1)
	loan := f.request(t, member)
	f.transition(t, librarian, loan.ID, domain.StatusApproved)
	f.transition(t, librarian, loan.ID, domain.StatusBorrowed)

	f.clock.Advance(7 * 24 * time.Hour)
	returned := f.transition(t, librarian, loan.ID, domain.StatusReturned)

	if returned.LateFee == nil || *returned.LateFee != 0 {
		t.Errorf("on-time return must settle a zero fee, got %v", returned.LateFee)
	}
}

func TestLoanService_Lost_KeepsCopyReserved(t *testing.T) {
	f := newLoanFixture(t, 2)
	loan := f.request(t, member)
	f.transition(t, librarian, loan.ID, domain.StatusApproved)
	f.transition(t, librarian, loan.ID, domain.StatusBorrowed)

	f.clock.Advance(20 * 24 * time.Hour)
	lost := f.transition(t, librarian, loan.ID, domain.StatusLost)

	if lost.LateFee == nil || *lost.LateFee != 3.0 {
		t.Errorf("expected fee 3.00 for 6 days at 0.50/day, got %v", lost.LateFee)
	}
	if got := f.available(t); got != 1 {
		t.Errorf("a lost copy must stay reserved: expected 1 available, got %d", got)
	}
	book, _ := f.books.FindByID(context.Background(), "book-1")
	if book.TotalCopies != 2 {
		t.Errorf("total copies must never change on loss, got %d", book.TotalCopies)
	}
}

func TestLoanService_UpdateStatus_InvalidTransition(t *testing.T) {
	f := newLoanFixture(t, 1)
	loan := f.request(t, member)

	_, err := f.svc.UpdateStatus(context.Background(), ports.UpdateLoanStatusInput{
		Actor: librarian, LoanID: loan.ID, Status: domain.StatusBorrowed,
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("requested -> borrowed must fail: got %v", err)
	}
}

func TestLoanService_UpdateStatus_SameStatusIsNoOp(t *testing.T) {
	f := newLoanFixture(t, 1)
	loan := f.request(t, member)
	f.transition(t, librarian, loan.ID, domain.StatusApproved)

	again := f.transition(t, librarian, loan.ID, domain.StatusApproved)

	if again.Status != domain.StatusApproved {
		t.Errorf("expected approved, got %s", again.Status)
	}
	if got := f.available(t); got != 0 {
		t.Errorf("a repeated approval must not reserve twice: expected 0 available, got %d", got)
	}
	if len(again.StatusHistory) != 2 {
		t.Errorf("a no-op must not append history, got %d entries", len(again.StatusHistory))
	}
}

func TestLoanService_UpdateStatus_SameStatusByStrangerForbidden(t *testing.T) {
	f := newLoanFixture(t, 1)
	loan := f.request(t, member)

	// Repeating the current status must not leak the loan to an actor who
	// could not read it in the first place.
	loanOut, err := f.svc.UpdateStatus(context.Background(), ports.UpdateLoanStatusInput{
		Actor: domain.Actor{ID: "member-99", Role: domain.RoleMember}, LoanID: loan.ID, Status: domain.StatusRequested,
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if loanOut != nil {
		t.Error("a forbidden no-op must not return the loan")
	}
}

func TestLoanService_UpdateStatus_SameStatusBySystemActor(t *testing.T) {
	f := newLoanFixture(t, 1)
	loan := f.request(t, member)
	f.transition(t, librarian, loan.ID, domain.StatusApproved)
	f.transition(t, librarian, loan.ID, domain.StatusBorrowed)
	f.transition(t, domain.System(), loan.ID, domain.StatusOverdue)

	// Overlapping sweeps repeat the overdue edge; the no-op stays open to
	// the system actor.
	again := f.transition(t, domain.System(), loan.ID, domain.StatusOverdue)
	if again.Status != domain.StatusOverdue {
		t.Errorf("expected overdue, got %s", again.Status)
	}
}

func TestLoanService_UpdateStatus_AdminForbidden(t *testing.T) {
	f := newLoanFixture(t, 1)
	loan := f.request(t, member)

	_, err := f.svc.UpdateStatus(context.Background(), ports.UpdateLoanStatusInput{
		Actor: admin, LoanID: loan.ID, Status: domain.StatusApproved,
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("admins must not drive loan transitions, got %v", err)
	}
	if got := f.available(t); got != 1 {
		t.Errorf("a forbidden approval must not touch availability, got %d", got)
	}
}

func TestLoanService_Cancel_MemberOwnOnly(t *testing.T) {
	f := newLoanFixture(t, 1)
	loan := f.request(t, member)

	_, err := f.svc.UpdateStatus(context.Background(), ports.UpdateLoanStatusInput{
		Actor: domain.Actor{ID: "member-2", Role: domain.RoleMember}, LoanID: loan.ID, Status: domain.StatusCanceled,
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("a member must not cancel another member's request, got %v", err)
	}

	canceled := f.transition(t, member, loan.ID, domain.StatusCanceled)
	if canceled.Status != domain.StatusCanceled {
		t.Errorf("owner cancel failed, status %s", canceled.Status)
	}
}

func TestLoanService_NotFound(t *testing.T) {
	f := newLoanFixture(t, 1)

	_, err := f.svc.UpdateStatus(context.Background(), ports.UpdateLoanStatusInput{
		Actor: librarian, LoanID: "missing", Status: domain.StatusApproved,
	})
	if !errors.Is(err, domain.ErrLoanNotFound) {
		t.Errorf("expected ErrLoanNotFound, got %v", err)
	}
}

// Full lifecycle with a fixed clock: request, approve, borrow, sweep to
// overdue at day 15, return three days late.
func TestLoanService_FullLifecycle(t *testing.T) {
	f := newLoanFixture(t, 1)

	loan := f.request(t, member)
	f.transition(t, librarian, loan.ID, domain.StatusApproved)
	f.transition(t, librarian, loan.ID, domain.StatusBorrowed)

	if got := f.available(t); got != 0 {
		t.Fatalf("expected 0 available while borrowed, got %d", got)
	}

	f.clock.Advance(15 * 24 * time.Hour)
	overdue := f.transition(t, domain.System(), loan.ID, domain.StatusOverdue)
	if overdue.Status != domain.StatusOverdue {
		t.Fatalf("expected overdue, got %s", overdue.Status)
	}

	f.clock.Advance(2 * 24 * time.Hour)
	returned := f.transition(t, librarian, loan.ID, domain.StatusReturned)

	if returned.LateFee == nil || *returned.LateFee != 1.50 {
		t.Errorf("expected fee 1.50 for 3 days at 0.50/day, got %v", returned.LateFee)
	}
	if got := f.available(t); got != 1 {
		t.Errorf("expected the copy back after return, got %d available", got)
	}
	if len(returned.StatusHistory) != 5 {
		t.Errorf("expected 5 history entries, got %d", len(returned.StatusHistory))
	}
	if returned.StatusHistory[3].ActorID != domain.SystemActorID {
		t.Errorf("the overdue entry must be attributed to the system actor, got %q", returned.StatusHistory[3].ActorID)
	}
}

// ---------------------------------------------------------------------------
// Read tests
// ---------------------------------------------------------------------------

func TestLoanService_Get_MemberScoping(t *testing.T) {
	f := newLoanFixture(t, 1)
	loan := f.request(t, member)

	if _, err := f.svc.Get(context.Background(), member, loan.ID); err != nil {
		t.Errorf("owner must read their own loan: %v", err)
	}
	if _, err := f.svc.Get(context.Background(), librarian, loan.ID); err != nil {
		t.Errorf("librarian must read any loan: %v", err)
	}
	_, err := f.svc.Get(context.Background(), domain.Actor{ID: "member-2", Role: domain.RoleMember}, loan.ID)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("another member must not read the loan, got %v", err)
	}
}

func TestLoanService_List_MemberIsAlwaysScopedToSelf(t *testing.T) {
	f := newLoanFixture(t, 10)
	f.request(t, member)
	f.request(t, domain.Actor{ID: "member-2", Role: domain.RoleMember})

	// A member asking for someone else's loans still only sees their own.
	res, err := f.svc.List(context.Background(), ports.ListLoansInput{
		Actor:    member,
		MemberID: "member-2",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 1 {
		t.Fatalf("expected 1 loan, got %d", res.Total)
	}
	if res.Items[0].MemberID != member.ID {
		t.Errorf("expected the member's own loan, got member %q", res.Items[0].MemberID)
	}

	staffRes, err := f.svc.List(context.Background(), ports.ListLoansInput{Actor: librarian})
	if err != nil {
		t.Fatal(err)
	}
	if staffRes.Total != 2 {
		t.Errorf("librarian must see all loans, got %d", staffRes.Total)
	}
}

func TestLoanService_DisplayFee(t *testing.T) {
	f := newLoanFixture(t, 1)
	loan := f.request(t, member)
	f.transition(t, librarian, loan.ID, domain.StatusApproved)
	f.transition(t, librarian, loan.ID, domain.StatusBorrowed)

	f.clock.Advance(15 * 24 * time.Hour)
	overdue := f.transition(t, domain.System(), loan.ID, domain.StatusOverdue)

	// A still-overdue loan is evaluated against the current time.
	if fee := f.svc.DisplayFee(overdue); fee != 0.50 {
		t.Errorf("expected live fee 0.50 one day late, got %.2f", fee)
	}
	f.clock.Advance(4 * 24 * time.Hour)
	if fee := f.svc.DisplayFee(overdue); fee != 2.50 {
		t.Errorf("expected live fee 2.50 five days late, got %.2f", fee)
	}

	// A settled loan shows its stored fee and stops accruing.
	returned := f.transition(t, librarian, loan.ID, domain.StatusReturned)
	f.clock.Advance(30 * 24 * time.Hour)
	if fee := f.svc.DisplayFee(returned); fee != 2.50 {
		t.Errorf("a settled fee must not keep accruing, got %.2f", fee)
	}
}
