package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-registration-api/internal/models"
	"github.com/noah-isme/exam-registration-api/internal/service"
	appErrors "github.com/noah-isme/exam-registration-api/pkg/errors"
)

type authServiceMock struct {
	loginReq   models.LoginRequest
	loginResp  *models.LoginResponse
	loginErr   error
	loggedOut  *models.JWTClaims
	logoutMeta service.RequestMeta
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	m.loginReq = req
	return m.loginResp, m.loginErr
}

func (m *authServiceMock) Logout(ctx context.Context, claims *models.JWTClaims, meta service.RequestMeta) error {
	m.loggedOut = claims
	m.logoutMeta = meta
	return nil
}

func TestAuthHandlerLogin(t *testing.T) {
	mockSvc := &authServiceMock{loginResp: &models.LoginResponse{AccessToken: "tok"}}
	handler := NewAuthHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/auth/login", []byte(`{"email":"1234567890@student.csn.edu","password":"pw"}`), nil)
	c.Request.Header.Set("User-Agent", "test-agent")
	handler.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"access_token":"tok"`)
	assert.Equal(t, "test-agent", mockSvc.loginReq.UserAgent)
}

func TestAuthHandlerLoginFailure(t *testing.T) {
	handler := NewAuthHandler(&authServiceMock{loginErr: appErrors.ErrInvalidCredentials})
	c, w := newTestContext(http.MethodPost, "/auth/login", []byte(`{"email":"jdoe@csn.edu","password":"bad"}`), nil)
	handler.Login(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerLogoutAndMe(t *testing.T) {
	mockSvc := &authServiceMock{}
	handler := NewAuthHandler(mockSvc)
	claims := &models.JWTClaims{AccountID: "acc-1", NSHEID: "1234567890", FullName: "Ada Lovelace"}

	c, _ := newTestContext(http.MethodPost, "/auth/logout", nil, claims)
	handler.Logout(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Same(t, claims, mockSvc.loggedOut)

	c, w := newTestContext(http.MethodGet, "/auth/me", nil, claims)
	handler.Me(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"nshe_id":"1234567890"`)
}
