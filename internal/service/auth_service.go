package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-registration-api/internal/models"
	appErrors "github.com/noah-isme/exam-registration-api/pkg/errors"
)

// CredentialVerifier checks a login secret and returns the matching account.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, secret string) (*models.Account, error)
}

type sessionStore interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	RegisterLoginFailure(ctx context.Context, email string, window time.Duration) (int, error)
	LoginFailures(ctx context.Context, email string) (int, error)
	ResetLoginFailures(ctx context.Context, email string) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	EmailPatterns     []string
	MaxFailures       int
	LockoutWindow     time.Duration
}

// AuthService provides authentication use cases.
type AuthService struct {
	verifier  CredentialVerifier
	sessions  sessionStore
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	config    AuthConfig
	emails    *EmailPolicy
}

// NewAuthService constructs an AuthService instance. Every email pattern must compile.
func NewAuthService(verifier CredentialVerifier, sessions sessionStore, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, config AuthConfig) (*AuthService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	emails, err := NewEmailPolicy(config.EmailPatterns)
	if err != nil {
		return nil, err
	}
	return &AuthService{
		verifier:  verifier,
		sessions:  sessions,
		audit:     audit,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		config:    config,
		emails:    emails,
	}, nil
}

// Login authenticates an account and returns an access token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !s.emails.Allows(email) {
		s.metrics.RecordLogin("rejected_email")
		return nil, appErrors.Clone(appErrors.ErrValidation, "email must be a CSN student or staff address")
	}

	if s.config.MaxFailures > 0 {
		failures, err := s.sessions.LoginFailures(ctx, email)
		if err != nil {
			s.logger.Warn("failed to read login failures", zap.Error(err))
		} else if failures >= s.config.MaxFailures {
			s.metrics.RecordLogin("locked")
			return nil, appErrors.Clone(appErrors.ErrTooManyRequests, "too many failed login attempts, try again later")
		}
	}

	account, err := s.verifier.Verify(ctx, email, req.Password)
	if err != nil {
		if errors.Is(err, appErrors.ErrInvalidCredentials) {
			s.metrics.RecordLogin("failure")
			if _, regErr := s.sessions.RegisterLoginFailure(ctx, email, s.config.LockoutWindow); regErr != nil {
				s.logger.Warn("failed to register login failure", zap.Error(regErr))
			}
		}
		return nil, err
	}

	if err := s.sessions.ResetLoginFailures(ctx, email); err != nil {
		s.logger.Warn("failed to reset login failures", zap.Error(err))
	}

	accessToken, issuedAt, err := s.generateAccessToken(account)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	s.metrics.RecordLogin("success")

	s.recordAudit(ctx, account.ID, models.AuditActionLogin, RequestMeta{IP: req.IP, UserAgent: req.UserAgent})

	return &models.LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:    issuedAt,
		Account: models.AccountInfo{
			ID:       account.ID,
			NSHEID:   account.NSHEID,
			Email:    account.Email,
			FullName: account.FullName(),
			IsStaff:  account.IsStaff,
		},
	}, nil
}

// Logout revokes the presented token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *models.JWTClaims, meta RequestMeta) error {
	if claims == nil {
		return appErrors.ErrUnauthenticated
	}
	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err := s.sessions.RevokeToken(ctx, claims.ID, ttl); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke token")
	}
	s.recordAudit(ctx, claims.AccountID, models.AuditActionLogout, meta)
	return nil
}

// ValidateToken parses a JWT and rejects revoked tokens.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthenticated.Code, appErrors.ErrUnauthenticated.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "invalid token claims")
	}

	revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Warn("failed to check token revocation", zap.Error(err))
	} else if revoked {
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "token has been revoked")
	}

	return claims, nil
}

func (s *AuthService) generateAccessToken(account *models.Account) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		AccountID: account.ID,
		NSHEID:    account.NSHEID,
		Email:     account.Email,
		FullName:  account.FullName(),
		IsStaff:   account.IsStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   account.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, issuedAt, nil
}

func (s *AuthService) recordAudit(ctx context.Context, accountID, action string, meta RequestMeta) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		AccountID:  &accountID,
		Action:     action,
		Resource:   "auth",
		ResourceID: &accountID,
		NewValues:  []byte(`{"status":"success"}`),
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record auth audit log", zap.String("action", action), zap.Error(err))
	}
}
