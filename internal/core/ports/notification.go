package ports

import (
	"context"
	"time"

	"github.com/librarium/loan-service/internal/core/domain"
)

// LoanEvent describes a completed loan status transition.
type LoanEvent struct {
	LoanID    string
	MemberID  string
	BookID    string
	Previous  domain.LoanStatus
	New       domain.LoanStatus
	ActorID   string
	ActorRole domain.Role
	At        time.Time
}

// NotificationSink receives loan transition events. It is a hook point only:
// delivery is best-effort and no consumer is guaranteed.
type NotificationSink interface {
	LoanStatusChanged(ctx context.Context, event LoanEvent)
}
