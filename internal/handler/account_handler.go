package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-registration-api/internal/dto"
	"github.com/noah-isme/exam-registration-api/internal/models"
	"github.com/noah-isme/exam-registration-api/internal/service"
	appErrors "github.com/noah-isme/exam-registration-api/pkg/errors"
	"github.com/noah-isme/exam-registration-api/pkg/response"
)

type accountService interface {
	List(ctx context.Context, filter models.AccountFilter) ([]models.Account, *models.Pagination, error)
	Create(ctx context.Context, req dto.CreateAccountRequest, actorID string, meta service.RequestMeta) (*models.Account, error)
}

// AccountHandler manages account endpoints for staff.
type AccountHandler struct {
	service accountService
}

// NewAccountHandler constructs an AccountHandler.
func NewAccountHandler(svc accountService) *AccountHandler {
	return &AccountHandler{service: svc}
}

// List godoc
// @Summary List accounts
// @Tags Accounts
// @Security BearerAuth
// @Produce json
// @Param is_staff query bool false "Filter by staff flag"
// @Param search query string false "Search by email, name or NSHE ID"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /accounts [get]
func (h *AccountHandler) List(c *gin.Context) {
	filter := models.AccountFilter{
		Search:    c.Query("search"),
		Page:      queryInt(c, "page"),
		PageSize:  queryInt(c, "page_size"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if raw := c.Query("is_staff"); raw != "" {
		isStaff, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "is_staff must be a boolean"))
			return
		}
		filter.IsStaff = &isStaff
	}

	accounts, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, accounts, pagination)
}

// Create godoc
// @Summary Provision account
// @Tags Accounts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.CreateAccountRequest true "Account payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /accounts [post]
func (h *AccountHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid account payload"))
		return
	}

	account, err := h.service.Create(c.Request.Context(), req, claims.AccountID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, account)
}
