package allocation

import (
	"fmt"
	"strings"

	"github.com/noah-isme/exam-registration-api/internal/models"
)

// Default limits.
const (
	DefaultMaxCapacity    = 20
	DefaultMaxUniqueExams = 3
)

// Policy holds the numeric limits enforced on every submission.
type Policy struct {
	MaxCapacity    int `json:"max_capacity"`
	MaxUniqueExams int `json:"max_unique_exams"`
}

// DefaultPolicy returns the standard limits.
func DefaultPolicy() Policy {
	return Policy{MaxCapacity: DefaultMaxCapacity, MaxUniqueExams: DefaultMaxUniqueExams}
}

// Validate ensures both limits are positive.
func (p Policy) Validate() error {
	if p.MaxCapacity <= 0 {
		return fmt.Errorf("max capacity must be positive, got %d", p.MaxCapacity)
	}
	if p.MaxUniqueExams <= 0 {
		return fmt.Errorf("max unique exams must be positive, got %d", p.MaxUniqueExams)
	}
	return nil
}

// Snapshot is the state read inside the submission transaction.
type Snapshot struct {
	// Duplicate is true when the account already holds the requested exam/slot pair.
	Duplicate bool
	// HeldExams are the distinct exam types the account already holds.
	HeldExams []models.ExamType
	// SlotOccupancy counts reservations in the requested slot across all accounts.
	SlotOccupancy int
}

// Engine decides whether a reservation request is admissible.
type Engine struct {
	catalog *Catalog
	policy  Policy
}

// NewEngine binds a catalog and policy. Both are fixed for the engine's lifetime.
func NewEngine(catalog *Catalog, policy Policy) (*Engine, error) {
	if catalog == nil {
		return nil, fmt.Errorf("allocation engine requires a catalog")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Engine{catalog: catalog, policy: policy}, nil
}

// Catalog exposes the configured catalog.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Policy exposes the configured limits.
func (e *Engine) Policy() Policy {
	return e.policy
}

// CheckRequest performs the membership checks that need no stored state.
func (e *Engine) CheckRequest(exam models.ExamType, slot models.TimeSlot) error {
	if !e.catalog.HasExam(exam) {
		return reject(ReasonInvalidExamType, fmt.Sprintf("exam type %q is not offered", exam))
	}
	if !e.catalog.HasSlot(slot) {
		return reject(ReasonInvalidTimeSlot, fmt.Sprintf("time slot %q is not offered", slot))
	}
	return nil
}

// Evaluate applies the business rules to a snapshot, in order:
// duplicate, exam diversity, slot capacity.
func (e *Engine) Evaluate(exam models.ExamType, slot models.TimeSlot, snap Snapshot) error {
	if snap.Duplicate {
		return reject(ReasonDuplicate, fmt.Sprintf("already registered for %s at %s", e.catalog.ExamName(exam), e.catalog.SlotDisplay(slot)))
	}
	if !containsExam(snap.HeldExams, exam) && len(snap.HeldExams) >= e.policy.MaxUniqueExams {
		held := e.catalog.SortExams(snap.HeldExams)
		names := make([]string, len(held))
		for i, h := range held {
			names[i] = e.catalog.ExamName(h)
		}
		r := reject(ReasonDiversityExceeded, fmt.Sprintf("you can register for at most %d different exams; already registered for: %s", e.policy.MaxUniqueExams, strings.Join(names, ", ")))
		r.HeldExams = held
		return r
	}
	if snap.SlotOccupancy >= e.policy.MaxCapacity {
		return reject(ReasonSlotFull, fmt.Sprintf("time slot %s is full", e.catalog.SlotDisplay(slot)))
	}
	return nil
}

// Remaining returns how many more distinct exam types an account may add.
func (e *Engine) Remaining(distinct int) int {
	remaining := e.policy.MaxUniqueExams - distinct
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SlotRemaining returns the free seats in a slot given its occupancy.
func (e *Engine) SlotRemaining(occupancy int) int {
	remaining := e.policy.MaxCapacity - occupancy
	if remaining < 0 {
		return 0
	}
	return remaining
}

func containsExam(held []models.ExamType, exam models.ExamType) bool {
	for _, h := range held {
		if h == exam {
			return true
		}
	}
	return false
}
