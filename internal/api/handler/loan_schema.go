package handler

import (
	"time"

	"github.com/librarium/loan-service/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type createLoanRequest struct {
	BookID string `json:"book_id" validate:"required,uuid4"`
	Notes  string `json:"notes"`
}

type updateLoanStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=requested approved borrowed overdue returned lost canceled"`
	Notes  string `json:"notes"`
}

// --- Response types ---
// These are intentionally separate from domain types so the JSON contract is
// not coupled to internal changes.

type statusHistoryEntryResponse struct {
	Previous  string    `json:"previous_status,omitempty"`
	New       string    `json:"new_status"`
	ActorID   string    `json:"actor_id,omitempty"`
	ActorRole string    `json:"actor_role,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

type loanResponse struct {
	ID            string                       `json:"id"`
	MemberID      string                       `json:"member_id"`
	BookID        string                       `json:"book_id"`
	BranchID      string                       `json:"branch_id"`
	Status        string                       `json:"status"`
	BorrowDate    *time.Time                   `json:"borrow_date,omitempty"`
	DueDate       *time.Time                   `json:"due_date,omitempty"`
	ReturnDate    *time.Time                   `json:"return_date,omitempty"`
	LateFee       float64                      `json:"late_fee"`
	Notes         string                       `json:"notes,omitempty"`
	CreatedAt     time.Time                    `json:"created_at"`
	UpdatedAt     time.Time                    `json:"updated_at"`
	StatusHistory []statusHistoryEntryResponse `json:"status_history,omitempty"`
}

// loanSummaryResponse is the lightweight item used in list responses.
// It intentionally omits status_history to keep payloads small.
type loanSummaryResponse struct {
	ID         string     `json:"id"`
	MemberID   string     `json:"member_id"`
	BookID     string     `json:"book_id"`
	BranchID   string     `json:"branch_id"`
	Status     string     `json:"status"`
	BorrowDate *time.Time `json:"borrow_date,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	LateFee    float64    `json:"late_fee"`
	CreatedAt  time.Time  `json:"created_at"`
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

type listLoansResponse struct {
	Data       []loanSummaryResponse `json:"data"`
	Pagination paginationResponse    `json:"pagination"`
}

// --- Domain → HTTP response ---

func toLoanResponse(l *domain.Loan, displayFee float64) loanResponse {
	history := make([]statusHistoryEntryResponse, len(l.StatusHistory))
	for i, h := range l.StatusHistory {
		history[i] = statusHistoryEntryResponse{
			Previous:  string(h.Previous),
			New:       string(h.New),
			ActorID:   h.ActorID,
			ActorRole: string(h.ActorRole),
			Notes:     h.Notes,
			ChangedAt: h.ChangedAt.UTC(),
		}
	}
	return loanResponse{
		ID:            l.ID,
		MemberID:      l.MemberID,
		BookID:        l.BookID,
		BranchID:      l.BranchID,
		Status:        string(l.Status),
		BorrowDate:    utcTime(l.BorrowDate),
		DueDate:       utcTime(l.DueDate),
		ReturnDate:    utcTime(l.ReturnDate),
		LateFee:       displayFee,
		Notes:         l.Notes,
		CreatedAt:     l.CreatedAt.UTC(),
		UpdatedAt:     l.UpdatedAt.UTC(),
		StatusHistory: history,
	}
}

func toLoanSummaryResponse(l *domain.Loan, displayFee float64) loanSummaryResponse {
	return loanSummaryResponse{
		ID:         l.ID,
		MemberID:   l.MemberID,
		BookID:     l.BookID,
		BranchID:   l.BranchID,
		Status:     string(l.Status),
		BorrowDate: utcTime(l.BorrowDate),
		DueDate:    utcTime(l.DueDate),
		LateFee:    displayFee,
		CreatedAt:  l.CreatedAt.UTC(),
	}
}

func utcTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
