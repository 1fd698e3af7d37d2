package domain

import "errors"

// Recoverable request-level failures. Each maps to a deterministic HTTP
// status in the API error handler; none aborts the process.
var (
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrNoCopiesAvailable  = errors.New("no copies available")
	ErrLoanCapExceeded    = errors.New("maximum number of active loans reached")
	ErrCopiesOnLoan       = errors.New("cannot reduce copies below the number currently on loan")
	ErrForbidden          = errors.New("access forbidden")
	ErrBuiltInAdmin       = errors.New("the built-in admin account cannot be modified")
	ErrLoanNotFound       = errors.New("loan not found")
	ErrBookNotFound       = errors.New("book not found")
	ErrBranchNotFound     = errors.New("branch not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrBookExists         = errors.New("a book with this ISBN already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
