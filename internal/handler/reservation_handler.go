package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-registration-api/internal/dto"
	"github.com/noah-isme/exam-registration-api/internal/models"
	"github.com/noah-isme/exam-registration-api/internal/service"
	appErrors "github.com/noah-isme/exam-registration-api/pkg/errors"
	"github.com/noah-isme/exam-registration-api/pkg/response"
)

type reservationService interface {
	Catalog() dto.CatalogResponse
	Submit(ctx context.Context, principal models.Principal, req dto.SubmitReservationRequest, meta service.RequestMeta) (*models.Reservation, error)
	Cancel(ctx context.Context, principal models.Principal, id string, meta service.RequestMeta) error
	ListMine(ctx context.Context, principal models.Principal) ([]dto.ReservationItem, error)
	List(ctx context.Context, principal models.Principal, filter models.ReservationFilter) ([]dto.RosterItem, *models.Pagination, error)
	Quota(ctx context.Context, principal models.Principal) (*dto.QuotaSummary, error)
	Availability(ctx context.Context) ([]dto.SlotAvailability, error)
}

type rosterExporter interface {
	Roster(ctx context.Context, principal models.Principal, format string, filter models.ReservationFilter) (*service.ExportFile, error)
}

// ReservationHandler exposes exam reservation endpoints.
type ReservationHandler struct {
	service  reservationService
	exporter rosterExporter
}

// NewReservationHandler builds a new handler.
func NewReservationHandler(service reservationService, exporter rosterExporter) *ReservationHandler {
	return &ReservationHandler{service: service, exporter: exporter}
}

// Catalog godoc
// @Summary Exam catalog
// @Description List offered exam types, time slots and registration limits
// @Tags Reservations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog [get]
func (h *ReservationHandler) Catalog(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Catalog(), nil)
}

// Availability godoc
// @Summary Slot availability
// @Description Occupancy and remaining capacity for every time slot
// @Tags Reservations
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /slots/availability [get]
func (h *ReservationHandler) Availability(c *gin.Context) {
	board, err := h.service.Availability(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board, nil)
}

// Submit godoc
// @Summary Reserve an exam slot
// @Tags Reservations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.SubmitReservationRequest true "Reservation payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /reservations [post]
func (h *ReservationHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	var req dto.SubmitReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reservation payload"))
		return
	}

	reservation, err := h.service.Submit(c.Request.Context(), claims.Principal(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reservation)
}

// Cancel godoc
// @Summary Cancel a reservation
// @Description Owners may cancel their own reservations; staff may cancel any
// @Tags Reservations
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Success 204 {string} string ""
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reservations/{id} [delete]
func (h *ReservationHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	if err := h.service.Cancel(c.Request.Context(), claims.Principal(), c.Param("id"), requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Mine godoc
// @Summary My reservations
// @Tags Reservations
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reservations/me [get]
func (h *ReservationHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	items, err := h.service.ListMine(c.Request.Context(), claims.Principal())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Quota godoc
// @Summary My exam quota
// @Description Held exam types and how many more different exams may be added
// @Tags Reservations
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reservations/quota [get]
func (h *ReservationHandler) Quota(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	quota, err := h.service.Quota(c.Request.Context(), claims.Principal())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quota, nil)
}

// List godoc
// @Summary Reservation roster
// @Tags Reservations
// @Security BearerAuth
// @Produce json
// @Param account_id query string false "Account ID"
// @Param exam_type query string false "Exam type"
// @Param time_slot query string false "Time slot"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Param sort_by query string false "Sort column"
// @Param sort_order query string false "ASC or DESC"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reservations [get]
func (h *ReservationHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), claims.Principal(), reservationFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Export godoc
// @Summary Export roster
// @Description Download the filtered reservation roster as CSV or PDF
// @Tags Reservations
// @Security BearerAuth
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param exam_type query string false "Exam type"
// @Param time_slot query string false "Time slot"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reservations/export [get]
func (h *ReservationHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	file, err := h.exporter.Roster(c.Request.Context(), claims.Principal(), c.Query("format"), reservationFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

func reservationFilter(c *gin.Context) models.ReservationFilter {
	return models.ReservationFilter{
		AccountID: c.Query("account_id"),
		ExamType:  models.ExamType(strings.ToUpper(strings.TrimSpace(c.Query("exam_type")))),
		TimeSlot:  models.TimeSlot(strings.TrimSpace(c.Query("time_slot"))),
		Page:      queryInt(c, "page"),
		PageSize:  queryInt(c, "page_size"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
}
