package domain

import "time"

// Branch is a physical library location. Branches are soft-deactivated;
// book associations persist.
type Branch struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Address     string    `json:"address" bson:"address"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Phone       string    `json:"phone_number,omitempty" bson:"phone_number,omitempty"`
	Email       string    `json:"email,omitempty" bson:"email,omitempty"`
	Active      bool      `json:"is_active" bson:"is_active"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Book is a catalog entry at a branch.
//
// AvailableCopies is derived, not independently settable: it equals
// TotalCopies minus the count of loans currently holding a copy. Every
// mutation goes through the repository's conditional-update choke point so
// the count can never go negative or exceed TotalCopies.
type Book struct {
	ID              string    `json:"id" bson:"_id"`
	Title           string    `json:"title" bson:"title"`
	Author          string    `json:"author" bson:"author"`
	ISBN            string    `json:"isbn" bson:"isbn"`
	Description     string    `json:"description,omitempty" bson:"description,omitempty"`
	Genre           string    `json:"genre,omitempty" bson:"genre,omitempty"`
	PublicationYear int       `json:"publication_year,omitempty" bson:"publication_year,omitempty"`
	TotalCopies     int       `json:"total_copies" bson:"total_copies"`
	AvailableCopies int       `json:"available_copies" bson:"available_copies"`
	BranchID        string    `json:"branch_id" bson:"branch_id"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}
