package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-registration-api/internal/models"
	"github.com/noah-isme/exam-registration-api/internal/service"
	appErrors "github.com/noah-isme/exam-registration-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
	err    error
	token  string
}

func (s *stubValidator) ValidateToken(ctx context.Context, token string) (*models.JWTClaims, error) {
	s.token = token
	return s.claims, s.err
}

type recordingAudit struct {
	logs []*models.AuditLog
}

func (r *recordingAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.logs = append(r.logs, log)
	return nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTRequiresBearerToken(t *testing.T) {
	validator := &stubValidator{claims: &models.JWTClaims{AccountID: "acc-1"}}
	r := gin.New()
	r.GET("/me", JWT(validator), func(c *gin.Context) {
		claims, ok := Claims(c)
		require.True(t, ok)
		c.String(http.StatusOK, claims.AccountID)
	})

	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/me", "Token abc").Code)

	w := perform(r, http.MethodGet, "/me", "Bearer abc")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acc-1", w.Body.String())
	assert.Equal(t, "abc", validator.token)
}

func TestJWTPropagatesValidationError(t *testing.T) {
	validator := &stubValidator{err: appErrors.Clone(appErrors.ErrUnauthenticated, "token has been revoked")}
	r := gin.New()
	r.GET("/me", JWT(validator), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodGet, "/me", "Bearer revoked")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "revoked")
}

func TestRequireStaff(t *testing.T) {
	newRouter := func(claims *models.JWTClaims) *gin.Engine {
		r := gin.New()
		r.GET("/roster", func(c *gin.Context) {
			if claims != nil {
				c.Set(ContextUserKey, claims)
			}
			c.Next()
		}, RequireStaff(), func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}

	assert.Equal(t, http.StatusUnauthorized, perform(newRouter(nil), http.MethodGet, "/roster", "").Code)
	assert.Equal(t, http.StatusForbidden, perform(newRouter(&models.JWTClaims{AccountID: "s"}), http.MethodGet, "/roster", "").Code)
	assert.Equal(t, http.StatusOK, perform(newRouter(&models.JWTClaims{AccountID: "s", IsStaff: true}), http.MethodGet, "/roster", "").Code)
}

func TestAuditRecordsSuccessfulRequestsOnly(t *testing.T) {
	audit := &recordingAudit{}
	status := http.StatusOK
	r := gin.New()
	r.GET("/export", func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{AccountID: "staff-1", IsStaff: true})
		c.Next()
	}, Audit(audit, nil, models.AuditActionRosterExport, "reservations"), func(c *gin.Context) { c.Status(status) })

	perform(r, http.MethodGet, "/export?format=csv", "")
	require.Len(t, audit.logs, 1)
	assert.Equal(t, "staff-1", *audit.logs[0].AccountID)
	assert.Contains(t, string(audit.logs[0].NewValues), "format=csv")

	status = http.StatusBadRequest
	perform(r, http.MethodGet, "/export?format=xml", "")
	assert.Len(t, audit.logs, 1)
}

func TestMetricsObservesRoutePattern(t *testing.T) {
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.DELETE("/reservations/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	perform(r, http.MethodDelete, "/reservations/r1", "")
	perform(r, http.MethodDelete, "/reservations/r2", "")

	count, err := testutil.GatherAndCount(metrics.Registry(), "http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

type recordingObserver struct {
	routes []string
}

func (o *recordingObserver) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	o.routes = append(o.routes, method+" "+path)
}

func TestMetricsSkipsListedPathsAndCollapsesUnmatched(t *testing.T) {
	observer := &recordingObserver{}
	r := gin.New()
	r.Use(Metrics(observer, "/metrics"))
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	perform(r, http.MethodGet, "/metrics", "")
	perform(r, http.MethodGet, "/wp-admin/setup.php", "")

	assert.Equal(t, []string{"GET unmatched"}, observer.routes)
}
