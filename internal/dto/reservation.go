package dto

import "github.com/noah-isme/exam-registration-api/internal/models"

// SubmitReservationRequest is the payload for reserving an exam slot.
// Both fields are checked against the catalog, so missing values are rejected
// as an unknown exam type or time slot.
type SubmitReservationRequest struct {
	ExamType string `json:"exam_type"`
	TimeSlot string `json:"time_slot"`
}

// ReservationItem is a reservation with catalog display names resolved.
type ReservationItem struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	ExamType    models.ExamType `json:"exam_type"`
	ExamName    string          `json:"exam_name"`
	TimeSlot    models.TimeSlot `json:"time_slot"`
	SlotDisplay string          `json:"slot_display"`
	CreatedAt   string          `json:"created_at"`
}

// RosterItem is a reservation row in the staff roster.
type RosterItem struct {
	ReservationItem
	NSHEID   string `json:"nshe_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// SlotAvailability reports how full a time slot is.
type SlotAvailability struct {
	TimeSlot  models.TimeSlot `json:"time_slot"`
	Display   string          `json:"display"`
	Occupancy int             `json:"occupancy"`
	Capacity  int             `json:"capacity"`
	Remaining int             `json:"remaining"`
	Full      bool            `json:"full"`
}

// QuotaSummary reports an account's exam diversity usage.
type QuotaSummary struct {
	HeldExams      []models.ExamType `json:"held_exams"`
	DistinctCount  int               `json:"distinct_count"`
	MaxUniqueExams int               `json:"max_unique_exams"`
	Remaining      int               `json:"remaining"`
}

// CatalogExam describes an offered exam type.
type CatalogExam struct {
	Code models.ExamType `json:"code"`
	Name string          `json:"name"`
}

// CatalogSlot describes an offered time slot.
type CatalogSlot struct {
	Label   models.TimeSlot `json:"label"`
	Display string          `json:"display"`
}

// CatalogResponse lists what can be reserved and the limits applied.
type CatalogResponse struct {
	ExamTypes      []CatalogExam `json:"exam_types"`
	TimeSlots      []CatalogSlot `json:"time_slots"`
	SlotCapacity   int           `json:"slot_capacity"`
	MaxUniqueExams int           `json:"max_unique_exams"`
}
