package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating an account.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued token and account info.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   int64       `json:"expires_in"`
	Account     AccountInfo `json:"account"`
	IssuedAt    time.Time   `json:"issued_at"`
}

// AccountInfo describes the authenticated account in responses.
type AccountInfo struct {
	ID       string `json:"id"`
	NSHEID   string `json:"nshe_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	IsStaff  bool   `json:"is_staff"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	AccountID string `json:"account_id"`
	NSHEID    string `json:"nshe_id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	IsStaff   bool   `json:"is_staff"`
	jwt.RegisteredClaims
}

// Principal converts the claims into the identity services operate on.
func (c *JWTClaims) Principal() Principal {
	return Principal{AccountID: c.AccountID, IsStaff: c.IsStaff}
}
