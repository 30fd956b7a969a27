package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-registration-api/internal/allocation"
	"github.com/noah-isme/exam-registration-api/internal/models"
)

const reservationColumns = `id, account_id, exam_type, time_slot, created_at`

// ReservationRepository handles persistence for exam reservations.
type ReservationRepository struct {
	db *sqlx.DB
}

// NewReservationRepository constructs a ReservationRepository.
func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Allocate inserts the reservation if decide admits it. The account row and
// then the slot row are locked for the life of the transaction, so decide
// sees a snapshot no concurrent submission can change underneath it.
// Errors returned by decide are passed through untouched.
func (r *ReservationRepository) Allocate(ctx context.Context, reservation *models.Reservation, decide func(allocation.Snapshot) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reservation transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var lockedID string
	if err = tx.GetContext(ctx, &lockedID, `SELECT id FROM accounts WHERE id = $1 FOR UPDATE`, reservation.AccountID); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("lock account: %w", err)
	}

	var lockedSlot string
	if err = tx.GetContext(ctx, &lockedSlot, `SELECT label FROM time_slots WHERE label = $1 FOR UPDATE`, reservation.TimeSlot); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("lock time slot %s: %w", reservation.TimeSlot, ErrSlotNotProvisioned)
		}
		return fmt.Errorf("lock time slot %s: %w", reservation.TimeSlot, err)
	}

	var snapshot allocation.Snapshot
	const duplicateQuery = `SELECT EXISTS (SELECT 1 FROM reservations WHERE account_id = $1 AND exam_type = $2 AND time_slot = $3)`
	if err = tx.GetContext(ctx, &snapshot.Duplicate, duplicateQuery, reservation.AccountID, reservation.ExamType, reservation.TimeSlot); err != nil {
		return fmt.Errorf("check duplicate reservation: %w", err)
	}
	if err = tx.SelectContext(ctx, &snapshot.HeldExams, `SELECT DISTINCT exam_type FROM reservations WHERE account_id = $1`, reservation.AccountID); err != nil {
		return fmt.Errorf("load held exam types: %w", err)
	}
	if err = tx.GetContext(ctx, &snapshot.SlotOccupancy, `SELECT COUNT(*) FROM reservations WHERE time_slot = $1`, reservation.TimeSlot); err != nil {
		return fmt.Errorf("count slot occupancy: %w", err)
	}

	if err = decide(snapshot); err != nil {
		return err
	}

	if reservation.ID == "" {
		reservation.ID = uuid.NewString()
	}
	if reservation.CreatedAt.IsZero() {
		reservation.CreatedAt = time.Now().UTC()
	}
	const insertQuery = `INSERT INTO reservations (id, account_id, exam_type, time_slot, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err = tx.ExecContext(ctx, insertQuery, reservation.ID, reservation.AccountID, reservation.ExamType, reservation.TimeSlot, reservation.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert reservation: %w", ErrDuplicateKey)
		}
		return fmt.Errorf("insert reservation: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit reservation: %w", err)
	}
	return nil
}

// FindByID returns a reservation by id. Ids that are not valid UUIDs resolve to sql.ErrNoRows.
func (r *ReservationRepository) FindByID(ctx context.Context, id string) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	var reservation models.Reservation
	if err := r.db.GetContext(ctx, &reservation, query, id); err != nil {
		if err == sql.ErrNoRows || isMalformedID(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return &reservation, nil
}

// Delete removes a reservation and reports whether a row was affected.
func (r *ReservationRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		if isMalformedID(err) {
			return false, nil
		}
		return false, fmt.Errorf("delete reservation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete reservation rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListByAccount returns every reservation held by the account ordered by slot.
func (r *ReservationRepository) ListByAccount(ctx context.Context, accountID string) ([]models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE account_id = $1 ORDER BY time_slot ASC, exam_type ASC`
	var reservations []models.Reservation
	if err := r.db.SelectContext(ctx, &reservations, query, accountID); err != nil {
		return nil, fmt.Errorf("list account reservations: %w", err)
	}
	return reservations, nil
}

// List returns reservations joined with their owners, filtered and paginated.
func (r *ReservationRepository) List(ctx context.Context, filter models.ReservationFilter) ([]models.ReservationDetail, int, error) {
	baseQuery := `FROM reservations r JOIN accounts a ON a.id = r.account_id WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.AccountID != "" {
		conditions = append(conditions, fmt.Sprintf("r.account_id = $%d", len(args)+1))
		args = append(args, filter.AccountID)
	}
	if filter.ExamType != "" {
		conditions = append(conditions, fmt.Sprintf("r.exam_type = $%d", len(args)+1))
		args = append(args, filter.ExamType)
	}
	if filter.TimeSlot != "" {
		conditions = append(conditions, fmt.Sprintf("r.time_slot = $%d", len(args)+1))
		args = append(args, filter.TimeSlot)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortColumns := map[string]string{
		"time_slot":  "r.time_slot",
		"exam_type":  "r.exam_type",
		"created_at": "r.created_at",
		"last_name":  "a.last_name",
		"nshe_id":    "a.nshe_id",
	}
	sortBy, ok := sortColumns[filter.SortBy]
	if !ok {
		sortBy = "r.time_slot"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "ASC"
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf(`SELECT r.id, r.account_id, r.exam_type, r.time_slot, r.created_at, a.nshe_id, a.first_name, a.last_name, a.email %s ORDER BY %s %s, r.id ASC LIMIT %d OFFSET %d`, baseQuery, sortBy, sortOrder, pageSize, offset)

	var items []models.ReservationDetail
	if err := r.db.SelectContext(ctx, &items, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list reservations: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", baseQuery), args...); err != nil {
		return nil, 0, fmt.Errorf("count reservations: %w", err)
	}
	return items, total, nil
}

// HeldExamTypes returns the distinct exam types the account has reserved.
func (r *ReservationRepository) HeldExamTypes(ctx context.Context, accountID string) ([]models.ExamType, error) {
	var held []models.ExamType
	if err := r.db.SelectContext(ctx, &held, `SELECT DISTINCT exam_type FROM reservations WHERE account_id = $1`, accountID); err != nil {
		return nil, fmt.Errorf("list held exam types: %w", err)
	}
	return held, nil
}

// DistinctExamCount counts the distinct exam types held by the account.
func (r *ReservationRepository) DistinctExamCount(ctx context.Context, accountID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(DISTINCT exam_type) FROM reservations WHERE account_id = $1`, accountID); err != nil {
		return 0, fmt.Errorf("count distinct exam types: %w", err)
	}
	return count, nil
}

// SlotOccupancy counts reservations in the slot across all exam types.
func (r *ReservationRepository) SlotOccupancy(ctx context.Context, slot models.TimeSlot) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM reservations WHERE time_slot = $1`, slot); err != nil {
		return 0, fmt.Errorf("count slot occupancy: %w", err)
	}
	return count, nil
}

// OccupancyBySlot returns the occupancy of every slot that has at least one reservation.
func (r *ReservationRepository) OccupancyBySlot(ctx context.Context) ([]models.SlotOccupancy, error) {
	var rows []models.SlotOccupancy
	if err := r.db.SelectContext(ctx, &rows, `SELECT time_slot, COUNT(*) AS count FROM reservations GROUP BY time_slot`); err != nil {
		return nil, fmt.Errorf("occupancy by slot: %w", err)
	}
	return rows, nil
}
