package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-registration-api/internal/models"
	appErrors "github.com/noah-isme/exam-registration-api/pkg/errors"
)

type mockVerifier struct {
	account *models.Account
	err     error
	calls   int
}

func (m *mockVerifier) Verify(ctx context.Context, email, secret string) (*models.Account, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.account, nil
}

type mockSessionStore struct {
	revoked  map[string]time.Duration
	failures map[string]int
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{revoked: map[string]time.Duration{}, failures: map[string]int{}}
}

func (m *mockSessionStore) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	m.revoked[jti] = ttl
	return nil
}

func (m *mockSessionStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, ok := m.revoked[jti]
	return ok, nil
}

func (m *mockSessionStore) RegisterLoginFailure(ctx context.Context, email string, window time.Duration) (int, error) {
	m.failures[email]++
	return m.failures[email], nil
}

func (m *mockSessionStore) LoginFailures(ctx context.Context, email string) (int, error) {
	return m.failures[email], nil
}

func (m *mockSessionStore) ResetLoginFailures(ctx context.Context, email string) error {
	delete(m.failures, email)
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "exam-registration-api",
		EmailPatterns:     []string{`^[0-9]{10}@student\.csn\.edu$`, `^[A-Za-z0-9._%+-]+@csn\.edu$`},
		MaxFailures:       3,
		LockoutWindow:     time.Minute,
	}
}

func newAuthTestService(t *testing.T, verifier *mockVerifier) (*AuthService, *mockSessionStore, *mockAuditRecorder) {
	t.Helper()
	sessions := newMockSessionStore()
	audit := &mockAuditRecorder{}
	svc, err := NewAuthService(verifier, sessions, audit, nil, nil, NewMetricsService(), testAuthConfig())
	require.NoError(t, err)
	return svc, sessions, audit
}

func studentAccount() *models.Account {
	return &models.Account{ID: "acc-1", NSHEID: "1234567890", FirstName: "Ada", LastName: "Lovelace", Email: "1234567890@student.csn.edu"}
}

func TestLoginIssuesTokenWithClaims(t *testing.T) {
	verifier := &mockVerifier{account: studentAccount()}
	svc, sessions, audit := newAuthTestService(t, verifier)
	sessions.failures["1234567890@student.csn.edu"] = 2

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "1234567890@Student.CSN.edu", Password: "pw", IP: "127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "Ada Lovelace", resp.Account.FullName)
	assert.Zero(t, sessions.failures["1234567890@student.csn.edu"])
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionLogin, audit.logs[0].Action)

	claims, err := svc.ValidateToken(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.AccountID)
	assert.Equal(t, "1234567890", claims.NSHEID)
	assert.False(t, claims.IsStaff)
	assert.NotEmpty(t, claims.ID)
}

func TestLoginRejectsEmailOutsidePatterns(t *testing.T) {
	verifier := &mockVerifier{account: studentAccount()}
	svc, _, _ := newAuthTestService(t, verifier)

	for _, email := range []string{"12345@student.csn.edu", "someone@gmail.com", "1234567890@student.csn.edu.evil.com"} {
		_, err := svc.Login(context.Background(), models.LoginRequest{Email: email, Password: "pw"})
		require.Error(t, err, email)
		assert.True(t, strings.Contains(err.Error(), "CSN"), email)
	}
	assert.Zero(t, verifier.calls)
}

func TestLoginLocksOutAfterFailures(t *testing.T) {
	verifier := &mockVerifier{err: appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")}
	svc, sessions, _ := newAuthTestService(t, verifier)
	req := models.LoginRequest{Email: "jdoe@csn.edu", Password: "wrong"}

	for i := 0; i < 3; i++ {
		_, err := svc.Login(context.Background(), req)
		assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	}
	assert.Equal(t, 3, sessions.failures["jdoe@csn.edu"])

	_, err := svc.Login(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrTooManyRequests)
	assert.Equal(t, 3, verifier.calls)
}

func TestLogoutRevokesToken(t *testing.T) {
	verifier := &mockVerifier{account: studentAccount()}
	svc, sessions, _ := newAuthTestService(t, verifier)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "1234567890@student.csn.edu", Password: "pw"})
	require.NoError(t, err)
	claims, err := svc.ValidateToken(context.Background(), resp.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), claims, RequestMeta{}))
	assert.Contains(t, sessions.revoked, claims.ID)
	assert.Greater(t, sessions.revoked[claims.ID], time.Duration(0))

	_, err = svc.ValidateToken(context.Background(), resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthenticated)
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	svc, _, _ := newAuthTestService(t, &mockVerifier{})
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{AccountID: "x"})
	signed, err := token.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), signed)
	assert.ErrorIs(t, err, appErrors.ErrUnauthenticated)
}

func TestNewAuthServiceRejectsBadPattern(t *testing.T) {
	cfg := testAuthConfig()
	cfg.EmailPatterns = []string{"("}
	_, err := NewAuthService(&mockVerifier{}, newMockSessionStore(), nil, nil, nil, nil, cfg)
	assert.Error(t, err)
}
