package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/exam-registration-api/internal/allocation"
	"github.com/noah-isme/exam-registration-api/internal/models"
	appErrors "github.com/noah-isme/exam-registration-api/pkg/errors"
	"github.com/noah-isme/exam-registration-api/pkg/export"
)

const exportPageSize = 100

type rosterRepository interface {
	List(ctx context.Context, filter models.ReservationFilter) ([]models.ReservationDetail, int, error)
}

// ExportFile is a rendered roster ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the reservation roster to CSV or PDF.
type ExportService struct {
	repo    rosterRepository
	catalog *allocation.Catalog
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(repo rosterRepository, catalog *allocation.Catalog, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{repo: repo, catalog: catalog, logger: logger, now: time.Now}
}

// Roster renders every reservation matching filter. Pagination fields of filter are ignored.
func (s *ExportService) Roster(ctx context.Context, principal models.Principal, format string, filter models.ReservationFilter) (*ExportFile, error) {
	if !principal.IsStaff {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "staff access required")
	}
	parsed, err := export.ParseFormat(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	rows, err := s.collect(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	generatedAt := s.now().UTC()
	dataset := export.Dataset{
		Title:   fmt.Sprintf("Exam Reservations (%s)", generatedAt.Format("2006-01-02 15:04 MST")),
		Headers: []string{"NSHE ID", "Name", "Email", "Exam", "Time Slot", "Reserved At"},
	}
	for _, row := range rows {
		account := models.Account{FirstName: row.FirstName, LastName: row.LastName}
		dataset.Rows = append(dataset.Rows, []string{
			row.NSHEID,
			account.FullName(),
			row.Email,
			s.catalog.ExamName(row.ExamType),
			s.catalog.SlotDisplay(row.TimeSlot),
			row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	renderer := export.RendererFor(parsed)
	body, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}

	s.logger.Info("roster exported",
		zap.String("format", string(parsed)),
		zap.Int("rows", len(rows)),
		zap.String("requested_by", principal.AccountID),
	)

	return &ExportFile{
		Filename:    fmt.Sprintf("reservations-%s.%s", generatedAt.Format("20060102-150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func (s *ExportService) collect(ctx context.Context, filter models.ReservationFilter) ([]models.ReservationDetail, error) {
	filter.PageSize = exportPageSize
	var all []models.ReservationDetail
	for page := 1; ; page++ {
		filter.Page = page
		rows, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
		if len(rows) == 0 || len(all) >= total {
			return all, nil
		}
	}
}
