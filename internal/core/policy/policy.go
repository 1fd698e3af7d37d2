// Package policy encodes the permission matrix as a pure lookup table keyed
// by (role, action). It has no side effects and is consulted before every
// mutating operation.
package policy

import "github.com/librarium/loan-service/internal/core/domain"

// Action is a named operation subject to access control.
type Action string

const (
	ActionLoanCreate Action = "loan:create"
	ActionLoanRead   Action = "loan:read"

	ActionBookCreate  Action = "book:create"
	ActionBookUpdate  Action = "book:update"
	ActionBookAdjust  Action = "book:adjust_copies"
	ActionBookDelete  Action = "book:delete"
	ActionBranchWrite Action = "branch:write"
	ActionBranchDelete Action = "branch:delete"

	ActionUserRead   Action = "user:read"
	ActionUserCreate Action = "user:create"
	ActionUserUpdate Action = "user:update"
	ActionUserDelete Action = "user:delete"
)

// scope restricts an allowed action to a subset of resources.
type scope int

const (
	scopeNone scope = iota // action denied
	scopeOwn               // only resources owned by the actor
	scopeAny               // any resource
)

// permissions is the role/action matrix. Loan status transitions are gated
// separately by transitionRoles since the permitted actor depends on the edge,
// and admin rank does not override them.
var permissions = map[domain.Role]map[Action]scope{
	domain.RoleMember: {
		ActionLoanCreate: scopeOwn,
		ActionLoanRead:   scopeOwn,
	},
	domain.RoleLibrarian: {
		ActionLoanRead:    scopeAny,
		ActionBookCreate:  scopeAny,
		ActionBookUpdate:  scopeAny,
		ActionBookAdjust:  scopeAny,
		ActionBranchWrite: scopeAny,
	},
	// The sweeper's system actor reads loans it is about to transition; it
	// holds no other permission.
	domain.RoleSystem: {
		ActionLoanRead: scopeAny,
	},
	domain.RoleAdmin: {
		ActionLoanRead:     scopeAny,
		ActionBookCreate:   scopeAny,
		ActionBookUpdate:   scopeAny,
		ActionBookAdjust:   scopeAny,
		ActionBookDelete:   scopeAny,
		ActionBranchWrite:  scopeAny,
		ActionBranchDelete: scopeAny,
		ActionUserRead:     scopeAny,
		ActionUserCreate:   scopeAny,
		ActionUserUpdate:   scopeAny,
		ActionUserDelete:   scopeAny,
	},
}

// Resource carries the ownership facts the policy needs about the target.
type Resource struct {
	// OwnerID is the id of the user the resource belongs to; empty for
	// unowned resources such as books and branches.
	OwnerID string
	// BuiltIn marks the seeded admin account, which no actor may delete or
	// change the role of.
	BuiltIn bool
}

// Allowed reports whether the actor may perform action on resource.
func Allowed(actor domain.Actor, action Action, res Resource) bool {
	if res.BuiltIn && (action == ActionUserDelete || action == ActionUserUpdate) {
		return false
	}
	switch permissions[actor.Role][action] {
	case scopeAny:
		return true
	case scopeOwn:
		return res.OwnerID != "" && res.OwnerID == actor.ID
	default:
		return false
	}
}

// transitionRoles maps each state-machine edge to the roles permitted to
// drive it. Edges absent from the map are invalid regardless of role.
var transitionRoles = map[domain.LoanStatus]map[domain.LoanStatus][]domain.Role{
	domain.StatusRequested: {
		domain.StatusCanceled: {domain.RoleMember, domain.RoleLibrarian},
		domain.StatusApproved: {domain.RoleLibrarian},
	},
	domain.StatusApproved: {
		domain.StatusBorrowed: {domain.RoleLibrarian},
	},
	domain.StatusBorrowed: {
		domain.StatusReturned: {domain.RoleLibrarian},
		domain.StatusLost:     {domain.RoleLibrarian},
		domain.StatusOverdue:  {domain.RoleSystem},
	},
	domain.StatusOverdue: {
		domain.StatusReturned: {domain.RoleLibrarian},
		domain.StatusLost:     {domain.RoleLibrarian},
	},
}

// TransitionAllowed reports whether actor may move a loan owned by ownerID
// along the from→to edge. Members may only cancel their own loans; the
// overdue edge belongs exclusively to the system actor.
func TransitionAllowed(actor domain.Actor, ownerID string, from, to domain.LoanStatus) bool {
	for _, role := range transitionRoles[from][to] {
		if role != actor.Role {
			continue
		}
		if actor.Role == domain.RoleMember && actor.ID != ownerID {
			return false
		}
		return true
	}
	return false
}
