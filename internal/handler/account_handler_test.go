package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-registration-api/internal/dto"
	"github.com/noah-isme/exam-registration-api/internal/models"
	"github.com/noah-isme/exam-registration-api/internal/service"
	appErrors "github.com/noah-isme/exam-registration-api/pkg/errors"
)

type accountServiceMock struct {
	lastFilter models.AccountFilter
	lastActor  string
	createErr  error
}

func (m *accountServiceMock) List(ctx context.Context, filter models.AccountFilter) ([]models.Account, *models.Pagination, error) {
	m.lastFilter = filter
	return []models.Account{{ID: "a1", PasswordHash: "secret-hash"}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (m *accountServiceMock) Create(ctx context.Context, req dto.CreateAccountRequest, actorID string, meta service.RequestMeta) (*models.Account, error) {
	m.lastActor = actorID
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.Account{ID: "a2", Email: req.Email}, nil
}

func TestAccountHandlerListHidesPasswordHash(t *testing.T) {
	mockSvc := &accountServiceMock{}
	handler := NewAccountHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/accounts?is_staff=true&search=ada", nil, &models.JWTClaims{AccountID: "s", IsStaff: true})
	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.lastFilter.IsStaff)
	assert.True(t, *mockSvc.lastFilter.IsStaff)
	assert.Equal(t, "ada", mockSvc.lastFilter.Search)
	assert.NotContains(t, w.Body.String(), "secret-hash")

	c, w = newTestContext(http.MethodGet, "/accounts?is_staff=maybe", nil, &models.JWTClaims{AccountID: "s", IsStaff: true})
	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccountHandlerCreate(t *testing.T) {
	mockSvc := &accountServiceMock{}
	handler := NewAccountHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/accounts", []byte(`{"nshe_id":"1234567890","first_name":"Ada","last_name":"Lovelace","email":"1234567890@student.csn.edu","password":"longenough"}`), &models.JWTClaims{AccountID: "staff-1", IsStaff: true})
	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "staff-1", mockSvc.lastActor)

	mockSvc.createErr = appErrors.Clone(appErrors.ErrConflict, "email or NSHE ID already exists")
	c, w = newTestContext(http.MethodPost, "/accounts", []byte(`{"nshe_id":"1234567890"}`), &models.JWTClaims{AccountID: "staff-1", IsStaff: true})
	handler.Create(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}
