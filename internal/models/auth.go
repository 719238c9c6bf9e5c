package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials forwarded to the sheet backend for
// verification.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// JWTClaims represents the JWT payload for access tokens. SessionID points
// at the server-side session holding the sealed upstream credentials.
type JWTClaims struct {
	Username  string   `json:"username"`
	Name      string   `json:"name"`
	Role      UserRole `json:"role"`
	SessionID string   `json:"session_id"`
	jwt.RegisteredClaims
}

// UpstreamCredentials are the sheet-backend credentials a session retains so
// admin mutations can be re-authenticated upstream. Never serialised to
// clients.
type UpstreamCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
