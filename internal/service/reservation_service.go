package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/exam-registration-api/internal/allocation"
	"github.com/noah-isme/exam-registration-api/internal/dto"
	"github.com/noah-isme/exam-registration-api/internal/models"
	"github.com/noah-isme/exam-registration-api/internal/repository"
	appErrors "github.com/noah-isme/exam-registration-api/pkg/errors"
)

// OutcomeAdmitted labels successful submissions in metrics.
const OutcomeAdmitted = "ADMITTED"

type reservationRepository interface {
	Allocate(ctx context.Context, reservation *models.Reservation, decide func(allocation.Snapshot) error) error
	FindByID(ctx context.Context, id string) (*models.Reservation, error)
	Delete(ctx context.Context, id string) (bool, error)
	ListByAccount(ctx context.Context, accountID string) ([]models.Reservation, error)
	List(ctx context.Context, filter models.ReservationFilter) ([]models.ReservationDetail, int, error)
	HeldExamTypes(ctx context.Context, accountID string) ([]models.ExamType, error)
	DistinctExamCount(ctx context.Context, accountID string) (int, error)
	SlotOccupancy(ctx context.Context, slot models.TimeSlot) (int, error)
	OccupancyBySlot(ctx context.Context) ([]models.SlotOccupancy, error)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// RequestMeta carries client details recorded in the audit trail.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// ReservationService admits, lists and cancels exam reservations.
type ReservationService struct {
	repo    reservationRepository
	audit   auditRecorder
	engine  *allocation.Engine
	logger  *zap.Logger
	metrics *MetricsService
}

// NewReservationService constructs a ReservationService.
func NewReservationService(repo reservationRepository, audit auditRecorder, engine *allocation.Engine, logger *zap.Logger, metrics *MetricsService) *ReservationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationService{repo: repo, audit: audit, engine: engine, logger: logger, metrics: metrics}
}

// Catalog describes the offered exam types, slots and limits.
func (s *ReservationService) Catalog() dto.CatalogResponse {
	catalog := s.engine.Catalog()
	policy := s.engine.Policy()
	resp := dto.CatalogResponse{SlotCapacity: policy.MaxCapacity, MaxUniqueExams: policy.MaxUniqueExams}
	for _, exam := range catalog.ExamTypes() {
		resp.ExamTypes = append(resp.ExamTypes, dto.CatalogExam{Code: exam.Code, Name: exam.Name})
	}
	for _, slot := range catalog.Slots() {
		resp.TimeSlots = append(resp.TimeSlots, dto.CatalogSlot{Label: slot.Label, Display: slot.Display})
	}
	return resp
}

// Submit reserves (exam type, time slot) for the principal if every rule admits it.
func (s *ReservationService) Submit(ctx context.Context, principal models.Principal, req dto.SubmitReservationRequest, meta RequestMeta) (*models.Reservation, error) {
	exam := models.ExamType(strings.ToUpper(strings.TrimSpace(req.ExamType)))
	slot := models.TimeSlot(strings.TrimSpace(req.TimeSlot))
	if err := s.engine.CheckRequest(exam, slot); err != nil {
		return nil, s.rejected(err)
	}

	reservation := &models.Reservation{AccountID: principal.AccountID, ExamType: exam, TimeSlot: slot}
	start := time.Now()
	err := s.repo.Allocate(ctx, reservation, func(snap allocation.Snapshot) error {
		return s.engine.Evaluate(exam, slot, snap)
	})
	s.metrics.ObserveDBQuery("reservation_allocate", time.Since(start))
	if err != nil {
		return nil, s.rejected(err)
	}
	s.metrics.RecordReservationOutcome(OutcomeAdmitted)

	s.recordAudit(ctx, principal.AccountID, models.AuditActionReservationCreate, reservation.ID, reservation, meta)
	return reservation, nil
}

// Cancel hard-deletes a reservation owned by the principal, or any reservation for staff.
func (s *ReservationService) Cancel(ctx context.Context, principal models.Principal, id string, meta RequestMeta) error {
	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
		}
		return appErrors.Wrap(err, appErrors.ErrPersistenceFailure.Code, appErrors.ErrPersistenceFailure.Status, "failed to load reservation")
	}

	owner := reservation.AccountID == principal.AccountID
	if !owner && !principal.IsStaff {
		return appErrors.Clone(appErrors.ErrUnauthorized, "you can only cancel your own reservations")
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistenceFailure.Code, appErrors.ErrPersistenceFailure.Status, "failed to cancel reservation")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
	}

	actor := "owner"
	if !owner {
		actor = "staff"
	}
	s.metrics.RecordCancellation(actor)
	s.recordAudit(ctx, principal.AccountID, models.AuditActionReservationCancel, reservation.ID, reservation, meta)
	return nil
}

// ListMine returns the principal's reservations ordered by slot.
func (s *ReservationService) ListMine(ctx context.Context, principal models.Principal) ([]dto.ReservationItem, error) {
	reservations, err := s.repo.ListByAccount(ctx, principal.AccountID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reservations")
	}
	items := make([]dto.ReservationItem, 0, len(reservations))
	for _, r := range reservations {
		items = append(items, s.toItem(r))
	}
	return items, nil
}

// List returns the roster of reservations for staff.
func (s *ReservationService) List(ctx context.Context, principal models.Principal, filter models.ReservationFilter) ([]dto.RosterItem, *models.Pagination, error) {
	if !principal.IsStaff {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "staff access required")
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reservations")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	items := make([]dto.RosterItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, s.toRosterItem(row))
	}
	return items, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// HeldExamTypes returns the distinct exam types held by an account in catalog order.
func (s *ReservationService) HeldExamTypes(ctx context.Context, accountID string) ([]models.ExamType, error) {
	held, err := s.repo.HeldExamTypes(ctx, accountID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load held exam types")
	}
	return s.engine.Catalog().SortExams(held), nil
}

// DistinctExamCount returns how many different exam types the account holds.
func (s *ReservationService) DistinctExamCount(ctx context.Context, accountID string) (int, error) {
	count, err := s.repo.DistinctExamCount(ctx, accountID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count exam types")
	}
	return count, nil
}

// RemainingExamSlots returns how many more exam types the account may add.
func (s *ReservationService) RemainingExamSlots(ctx context.Context, accountID string) (int, error) {
	count, err := s.DistinctExamCount(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return s.engine.Remaining(count), nil
}

// SlotOccupancy counts reservations in a catalog slot.
func (s *ReservationService) SlotOccupancy(ctx context.Context, slot models.TimeSlot) (int, error) {
	if !s.engine.Catalog().HasSlot(slot) {
		return 0, appErrors.Clone(appErrors.ErrInvalidTimeSlot, "time slot "+string(slot)+" is not offered")
	}
	count, err := s.repo.SlotOccupancy(ctx, slot)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count slot occupancy")
	}
	return count, nil
}

// Quota summarizes the principal's exam diversity usage.
func (s *ReservationService) Quota(ctx context.Context, principal models.Principal) (*dto.QuotaSummary, error) {
	held, err := s.HeldExamTypes(ctx, principal.AccountID)
	if err != nil {
		return nil, err
	}
	if held == nil {
		held = []models.ExamType{}
	}
	return &dto.QuotaSummary{
		HeldExams:      held,
		DistinctCount:  len(held),
		MaxUniqueExams: s.engine.Policy().MaxUniqueExams,
		Remaining:      s.engine.Remaining(len(held)),
	}, nil
}

// Availability reports occupancy for every catalog slot in catalog order.
func (s *ReservationService) Availability(ctx context.Context) ([]dto.SlotAvailability, error) {
	rows, err := s.repo.OccupancyBySlot(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot availability")
	}
	occupancy := make(map[models.TimeSlot]int, len(rows))
	for _, row := range rows {
		occupancy[row.TimeSlot] = row.Count
	}

	capacity := s.engine.Policy().MaxCapacity
	slots := s.engine.Catalog().Slots()
	result := make([]dto.SlotAvailability, 0, len(slots))
	for _, slot := range slots {
		count := occupancy[slot.Label]
		remaining := s.engine.SlotRemaining(count)
		result = append(result, dto.SlotAvailability{
			TimeSlot:  slot.Label,
			Display:   slot.Display,
			Occupancy: count,
			Capacity:  capacity,
			Remaining: remaining,
			Full:      remaining == 0,
		})
	}
	return result, nil
}

func (s *ReservationService) rejected(err error) error {
	appErr := translateAllocationError(err)
	s.metrics.RecordReservationOutcome(appErr.Code)
	switch {
	case errors.Is(err, repository.ErrSlotNotProvisioned):
		s.logger.Error("time slot has no time_slots row; seed it or enable AUTO_MIGRATE", zap.Error(err))
	case appErr.Status >= 500:
		s.logger.Error("reservation persistence failure", zap.Error(err))
	}
	return appErr
}

func translateAllocationError(err error) *appErrors.Error {
	if rejection, ok := allocation.AsRejection(err); ok {
		switch rejection.Reason {
		case allocation.ReasonInvalidExamType:
			return appErrors.Clone(appErrors.ErrInvalidExamType, rejection.Message)
		case allocation.ReasonInvalidTimeSlot:
			return appErrors.Clone(appErrors.ErrInvalidTimeSlot, rejection.Message)
		case allocation.ReasonDuplicate:
			return appErrors.Clone(appErrors.ErrDuplicateReservation, rejection.Message)
		case allocation.ReasonDiversityExceeded:
			return appErrors.Clone(appErrors.ErrExamDiversityExceeded, rejection.Message)
		case allocation.ReasonSlotFull:
			return appErrors.Clone(appErrors.ErrSlotFull, rejection.Message)
		}
	}
	switch {
	case errors.Is(err, repository.ErrDuplicateKey):
		return appErrors.Clone(appErrors.ErrDuplicateReservation, "")
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "account not found")
	}
	return appErrors.Wrap(err, appErrors.ErrPersistenceFailure.Code, appErrors.ErrPersistenceFailure.Status, appErrors.ErrPersistenceFailure.Message)
}

func (s *ReservationService) recordAudit(ctx context.Context, accountID, action, resourceID string, payload interface{}, meta RequestMeta) {
	if s.audit == nil {
		return
	}
	values, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("failed to encode audit payload", zap.Error(err))
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		AccountID:  &accountID,
		Action:     action,
		Resource:   "reservation",
		ResourceID: &resourceID,
		NewValues:  values,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record reservation audit log", zap.String("action", action), zap.Error(err))
	}
}

func (s *ReservationService) toItem(r models.Reservation) dto.ReservationItem {
	catalog := s.engine.Catalog()
	return dto.ReservationItem{
		ID:          r.ID,
		AccountID:   r.AccountID,
		ExamType:    r.ExamType,
		ExamName:    catalog.ExamName(r.ExamType),
		TimeSlot:    r.TimeSlot,
		SlotDisplay: catalog.SlotDisplay(r.TimeSlot),
		CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *ReservationService) toRosterItem(row models.ReservationDetail) dto.RosterItem {
	account := models.Account{FirstName: row.FirstName, LastName: row.LastName}
	return dto.RosterItem{
		ReservationItem: s.toItem(row.Reservation),
		NSHEID:          row.NSHEID,
		FullName:        account.FullName(),
		Email:           row.Email,
	}
}
