package models

import "time"

// Account represents a student or staff member stored in the accounts table.
type Account struct {
	ID           string    `db:"id" json:"id"`
	NSHEID       string    `db:"nshe_id" json:"nshe_id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	IsStaff      bool      `db:"is_staff" json:"is_staff"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// FullName joins first and last name for display.
func (a Account) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// AccountFilter captures filtering criteria for listing accounts.
type AccountFilter struct {
	IsStaff   *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Principal is the authenticated caller handed to services by the transport layer.
type Principal struct {
	AccountID string
	IsStaff   bool
}
