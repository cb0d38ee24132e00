package models

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Session is the authenticated identity. It never carries secrets.
type Session struct {
	UserID   string    `json:"id"`
	Role     UserRole  `json:"role"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	IssuedAt time.Time `json:"issuedAt"`
}

// IsAdmin reports whether the session has the admin scope.
func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }

// LoginResponse returns the access token and session.
type LoginResponse struct {
	AccessToken string  `json:"accessToken"`
	ExpiresIn   int64   `json:"expiresIn"`
	Session     Session `json:"user"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	jwt.RegisteredClaims
}

// Session converts token claims back into a session.
func (c *JWTClaims) Session() Session {
	s := Session{UserID: c.UserID, Role: c.Role, Email: c.Email, Name: c.Name}
	if c.IssuedAt != nil {
		s.IssuedAt = c.IssuedAt.Time
	}
	return s
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
