package domain

import "time"

// Role identifies what an actor is allowed to do.
type Role string

const (
	RoleMember    Role = "member"
	RoleLibrarian Role = "librarian"
	RoleAdmin     Role = "admin"

	// RoleSystem is the pseudo-role used by background jobs (the overdue
	// sweeper). It is never assigned to a stored user.
	RoleSystem Role = "system"
)

// SystemActorID is the actor id recorded in loan history for transitions
// applied by background jobs.
const SystemActorID = "system"

// Actor is the authenticated identity performing an operation, supplied by
// the transport layer on every call.
type Actor struct {
	ID   string
	Role Role
}

// System returns the actor used by the overdue sweeper.
func System() Actor {
	return Actor{ID: SystemActorID, Role: RoleSystem}
}

// User models an account in the system.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	FullName     string    `json:"full_name" bson:"full_name"`
	Role         Role      `json:"role" bson:"role"`
	Active       bool      `json:"is_active" bson:"is_active"`
	// BuiltIn marks the seeded admin account, which is exempt from deletion
	// and role changes by any actor.
	BuiltIn   bool      `json:"is_built_in" bson:"is_built_in"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
