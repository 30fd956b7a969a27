package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-registration-api/internal/handler"
	"github.com/noah-isme/exam-registration-api/internal/models"
	"github.com/noah-isme/exam-registration-api/internal/repository"
	"github.com/noah-isme/exam-registration-api/internal/service"
	"github.com/noah-isme/exam-registration-api/pkg/config"
	"github.com/noah-isme/exam-registration-api/pkg/middleware/ratelimit"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		Env:       config.EnvDevelopment,
		APIPrefix: "/api/v1",
		Login:     config.LoginConfig{EmailPatterns: []string{`^[A-Za-z0-9._%+-]+@csn\.edu$`}},
	}
	engine, err := newEngine(config.ExamConfig{
		ExamTypes:      []string{"MATH:Math", "SCIENCE:Science", "ENGLISH:English"},
		TimeSlots:      []string{"09:00", "10:00"},
		SlotCapacity:   20,
		MaxUniqueExams: 3,
	})
	require.NoError(t, err)

	metrics := service.NewMetricsService()
	sessions := repository.NewSessionRepository(nil, nil)
	accountSvc := service.NewAccountService(nil, nil, nil, nil, nil)
	authSvc, err := service.NewAuthService(accountSvc, sessions, nil, nil, nil, metrics, service.AuthConfig{
		AccessTokenSecret: testSecret,
		AccessTokenExpiry: time.Hour,
		EmailPatterns:     cfg.Login.EmailPatterns,
	})
	require.NoError(t, err)
	reservationSvc := service.NewReservationService(nil, nil, engine, nil, metrics)
	exportSvc := service.NewExportService(nil, engine.Catalog(), nil)

	return newRouter(cfg, zap.NewNop(), routes{
		auth:         handler.NewAuthHandler(authSvc),
		reservations: handler.NewReservationHandler(reservationSvc, exportSvc),
		accounts:     handler.NewAccountHandler(accountSvc),
		ops:          handler.NewMetricsHandler(metrics, nil),
		tokens:       authSvc,
		metrics:      metrics,
		loginLimiter: ratelimit.NewStore(0.001, 1),
	})
}

func bearer(t *testing.T, isStaff bool) string {
	t.Helper()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{
		AccountID: "acc-1",
		IsStaff:   isStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func serve(r http.Handler, method, path, auth string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPublicRoutes(t *testing.T) {
	r := newTestRouter(t)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ready", "", nil).Code)

	w := serve(r, http.MethodGet, "/api/v1/catalog", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"label":"10:00"`)

	metrics := serve(r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "http_requests_total")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/api/v1/reservations", "", []byte(`{}`)).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/v1/auth/me", "Bearer nonsense", nil).Code)

	me := serve(r, http.MethodGet, "/api/v1/auth/me", bearer(t, false), nil)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), `"id":"acc-1"`)
}

func TestStaffRoutesRejectStudents(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{"/api/v1/reservations", "/api/v1/reservations/export", "/api/v1/accounts"} {
		w := serve(r, http.MethodGet, path, bearer(t, false), nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}
}

func TestSubmitRejectsUnknownExamBeforeStore(t *testing.T) {
	r := newTestRouter(t)

	w := serve(r, http.MethodPost, "/api/v1/reservations", bearer(t, false), []byte(`{"exam_type":"HISTORY","time_slot":"09:00"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_EXAM_TYPE")

	w = serve(r, http.MethodPost, "/api/v1/reservations", bearer(t, false), []byte(`{"exam_type":"MATH","time_slot":"17:00"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TIME_SLOT")
}

func TestLoginIsRateLimited(t *testing.T) {
	r := newTestRouter(t)
	body := []byte(`{"email":"someone@gmail.com","password":"pw"}`)

	first := serve(r, http.MethodPost, "/api/v1/auth/login", "", body)
	assert.Equal(t, http.StatusBadRequest, first.Code)

	second := serve(r, http.MethodPost, "/api/v1/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}

func TestNewEngineRejectsBadConfig(t *testing.T) {
	_, err := newEngine(config.ExamConfig{ExamTypes: []string{"MATH"}, TimeSlots: []string{"9am"}, SlotCapacity: 20, MaxUniqueExams: 3})
	assert.Error(t, err)

	_, err = newEngine(config.ExamConfig{ExamTypes: []string{"MATH"}, TimeSlots: []string{"09:00"}, SlotCapacity: 0, MaxUniqueExams: 3})
	assert.Error(t, err)
}
