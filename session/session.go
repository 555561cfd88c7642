package session

import (
	"errors"
	"strings"
	"time"

	"github.com/Farhad7860/TaskFlow/models"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSessionExpired   = errors.New("session expired, log in again")
)

// Session is the credential a request is issued under.
type Session struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// New builds a session from a login response. The token's exp claim is read
// without verifying the signature: the client cannot verify it and only uses
// it to avoid sending requests that the server would reject anyway.
func New(token string, user models.User) Session {
	s := Session{Token: token, User: user}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil && claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s
}

func (s Session) Empty() bool {
	return strings.TrimSpace(s.Token) == ""
}

// Expired reports whether the token carries an exp claim that has passed.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Check is the pre-flight every authenticated call runs before sending.
func (s Session) Check(now time.Time) error {
	if s.Empty() {
		return ErrNotAuthenticated
	}
	if s.Expired(now) {
		return ErrSessionExpired
	}
	return nil
}

// Authorization returns the header value for the session.
func (s Session) Authorization() string {
	return "Bearer " + s.Token
}
