package models

import "time"

// ExamType identifies a subject a student may register to take.
type ExamType string

// TimeSlot is a discrete slot label such as "09:00".
type TimeSlot string

// Reservation is a single (account, exam type, time slot) registration.
type Reservation struct {
	ID        string    `db:"id" json:"id"`
	AccountID string    `db:"account_id" json:"account_id"`
	ExamType  ExamType  `db:"exam_type" json:"exam_type"`
	TimeSlot  TimeSlot  `db:"time_slot" json:"time_slot"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ReservationDetail enriches Reservation with the owning account.
type ReservationDetail struct {
	Reservation
	NSHEID    string `db:"nshe_id" json:"nshe_id"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Email     string `db:"email" json:"email"`
}

// ReservationFilter provides filters for listing reservations.
type ReservationFilter struct {
	AccountID string
	ExamType  ExamType
	TimeSlot  TimeSlot
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// SlotOccupancy is the number of reservations currently held in a slot.
type SlotOccupancy struct {
	TimeSlot TimeSlot `db:"time_slot" json:"time_slot"`
	Count    int      `db:"count" json:"count"`
}
