package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-registration-api/internal/allocation"
	"github.com/noah-isme/exam-registration-api/internal/models"
	appErrors "github.com/noah-isme/exam-registration-api/pkg/errors"
)

type pagedRosterRepo struct {
	rows  []models.ReservationDetail
	pages []int
}

func (p *pagedRosterRepo) List(ctx context.Context, filter models.ReservationFilter) ([]models.ReservationDetail, int, error) {
	p.pages = append(p.pages, filter.Page)
	start := (filter.Page - 1) * filter.PageSize
	if start >= len(p.rows) {
		return nil, len(p.rows), nil
	}
	end := start + filter.PageSize
	if end > len(p.rows) {
		end = len(p.rows)
	}
	return p.rows[start:end], len(p.rows), nil
}

func rosterRows(n int) []models.ReservationDetail {
	rows := make([]models.ReservationDetail, n)
	for i := range rows {
		rows[i] = models.ReservationDetail{
			Reservation: models.Reservation{ID: "r", AccountID: "a", ExamType: "MATH", TimeSlot: "09:00", CreatedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
			NSHEID:      "1234567890",
			FirstName:   "Ada",
			LastName:    "Lovelace",
			Email:       "1234567890@student.csn.edu",
		}
	}
	return rows
}

func TestRosterCSVCollectsAllPages(t *testing.T) {
	repo := &pagedRosterRepo{rows: rosterRows(150)}
	svc := NewExportService(repo, allocation.DefaultCatalog(), nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC) }

	file, err := svc.Roster(context.Background(), models.Principal{AccountID: "s", IsStaff: true}, "csv", models.ReservationFilter{})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, repo.pages)
	assert.Equal(t, "reservations-20240302-083000.csv", file.Filename)
	assert.Contains(t, file.ContentType, "text/csv")

	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	assert.Len(t, lines, 151)
	assert.Contains(t, lines[1], "Ada Lovelace")
	assert.Contains(t, lines[1], "9:00 AM - 10:00 AM")
}

func TestRosterPDF(t *testing.T) {
	svc := NewExportService(&pagedRosterRepo{rows: rosterRows(3)}, allocation.DefaultCatalog(), nil)
	file, err := svc.Roster(context.Background(), models.Principal{IsStaff: true}, "pdf", models.ReservationFilter{})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Body), "%PDF"))
}

func TestRosterRejectsNonStaffAndBadFormat(t *testing.T) {
	svc := NewExportService(&pagedRosterRepo{}, allocation.DefaultCatalog(), nil)

	_, err := svc.Roster(context.Background(), models.Principal{AccountID: "a"}, "csv", models.ReservationFilter{})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Roster(context.Background(), models.Principal{IsStaff: true}, "xlsx", models.ReservationFilter{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
