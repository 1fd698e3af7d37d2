package domain

import (
	"math"
	"time"
)

// LoanStatus represents the lifecycle state of a loan.
type LoanStatus string

const (
	StatusRequested LoanStatus = "requested"
	StatusApproved  LoanStatus = "approved"
	StatusBorrowed  LoanStatus = "borrowed"
	StatusOverdue   LoanStatus = "overdue"
	StatusReturned  LoanStatus = "returned"
	StatusLost      LoanStatus = "lost"
	StatusCanceled  LoanStatus = "canceled"
)

// validTransitions defines the allowed state machine transitions.
var validTransitions = map[LoanStatus][]LoanStatus{
	StatusRequested: {StatusApproved, StatusCanceled},
	StatusApproved:  {StatusBorrowed},
	StatusBorrowed:  {StatusReturned, StatusLost, StatusOverdue},
	StatusOverdue:   {StatusReturned, StatusLost},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s LoanStatus) CanTransitionTo(next LoanStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s LoanStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// HoldsCopy reports whether a loan in this status has a physical copy
// reserved against the book's availability. The copy is reserved at approval,
// not at request time, so a flood of requests cannot starve the catalog.
func (s LoanStatus) HoldsCopy() bool {
	return s == StatusApproved || s == StatusBorrowed || s == StatusOverdue
}

// ActiveStatuses are the statuses counted against a member's loan cap.
func ActiveStatuses() []LoanStatus {
	return []LoanStatus{StatusRequested, StatusApproved, StatusBorrowed, StatusOverdue}
}

// CopyHoldingStatuses are the statuses that reserve a copy of the book.
// available_copies(book) = total_copies - count(loans in these statuses).
func CopyHoldingStatuses() []LoanStatus {
	return []LoanStatus{StatusApproved, StatusBorrowed, StatusOverdue}
}

// StatusHistoryEntry records a single status transition on a loan.
// History is append-only; entries are never edited or removed.
type StatusHistoryEntry struct {
	Previous  LoanStatus `json:"previous_status,omitempty" bson:"previous_status,omitempty"`
	New       LoanStatus `json:"new_status" bson:"new_status"`
	ActorID   string     `json:"actor_id,omitempty" bson:"actor_id,omitempty"`
	ActorRole Role       `json:"actor_role,omitempty" bson:"actor_role,omitempty"`
	Notes     string     `json:"notes,omitempty" bson:"notes,omitempty"`
	ChangedAt time.Time  `json:"changed_at" bson:"changed_at"`
}

// Loan is the core aggregate root. Book and branch references never change
// after creation; only status, dates, fee and notes mutate.
type Loan struct {
	ID            string               `json:"id" bson:"_id"`
	MemberID      string               `json:"member_id" bson:"member_id"`
	BookID        string               `json:"book_id" bson:"book_id"`
	BranchID      string               `json:"branch_id" bson:"branch_id"`
	Status        LoanStatus           `json:"status" bson:"status"`
	BorrowDate    *time.Time           `json:"borrow_date,omitempty" bson:"borrow_date,omitempty"`
	DueDate       *time.Time           `json:"due_date,omitempty" bson:"due_date,omitempty"`
	ReturnDate    *time.Time           `json:"return_date,omitempty" bson:"return_date,omitempty"`
	LateFee       *float64             `json:"late_fee,omitempty" bson:"late_fee,omitempty"`
	Notes         string               `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt     time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at" bson:"updated_at"`
	StatusHistory []StatusHistoryEntry `json:"status_history" bson:"status_history"`
}

// LateFee computes the fee owed for a loan due at due and evaluated at at.
// Days late are whole days, floor-truncated; early or on-time returns owe 0.
// The result is rounded to cents.
func LateFee(due, at time.Time, ratePerDay float64) float64 {
	if !at.After(due) {
		return 0
	}
	daysLate := int(at.Sub(due).Hours() / 24)
	if daysLate <= 0 {
		return 0
	}
	return math.Round(float64(daysLate)*ratePerDay*100) / 100
}
