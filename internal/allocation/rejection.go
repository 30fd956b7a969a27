package allocation

import (
	"errors"

	"github.com/noah-isme/exam-registration-api/internal/models"
)

// Reason classifies why a submission was not admitted.
type Reason string

// Rejection reasons, in the order they are checked.
const (
	ReasonInvalidExamType   Reason = "INVALID_EXAM_TYPE"
	ReasonInvalidTimeSlot   Reason = "INVALID_TIME_SLOT"
	ReasonDuplicate         Reason = "DUPLICATE_RESERVATION"
	ReasonDiversityExceeded Reason = "EXAM_DIVERSITY_EXCEEDED"
	ReasonSlotFull          Reason = "SLOT_FULL"
)

// Rejection is returned when a rule refuses a request.
type Rejection struct {
	Reason  Reason
	Message string
	// HeldExams is set for ReasonDiversityExceeded.
	HeldExams []models.ExamType
}

// Error implements the error interface.
func (r *Rejection) Error() string {
	if r == nil {
		return "<nil>"
	}
	return r.Message
}

// AsRejection extracts a Rejection from err.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

func reject(reason Reason, message string) *Rejection {
	return &Rejection{Reason: reason, Message: message}
}
