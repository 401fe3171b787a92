// Package session carries the authenticated caller through a request.
package session

import (
	"crypto/subtle"

	"cms0/internal/models"
	"cms0/internal/utils/crypto"

	"github.com/labstack/echo/v4"
)

const contextKey = "session"

// Context is the explicit per-request identity handed to every handler.
type Context struct {
	UserID    uint64
	Role      models.UserRole
	SessionID string
	CSRFToken string
}

func (s Context) IsAdmin() bool {
	return s.Role == models.UserRoleAdmin
}

// New builds the request context and derives its CSRF token from the session id.
func New(userID uint64, role models.UserRole, sid, secret string) Context {
	return Context{
		UserID:    userID,
		Role:      role,
		SessionID: sid,
		CSRFToken: CSRFToken(secret, sid),
	}
}

func Set(c echo.Context, s Context) {
	c.Set(contextKey, s)
}

// From returns the request context; ok is false on unauthenticated requests.
func From(c echo.Context) (Context, bool) {
	s, ok := c.Get(contextKey).(Context)
	return s, ok && s.UserID != 0
}

// CSRFToken derives the session-bound token.
func CSRFToken(secret, sid string) string {
	return crypto.Sign([]byte("csrf:"+sid), secret)
}

// ValidCSRF reports whether token belongs to this session.
func (s Context) ValidCSRF(token string) bool {
	if token == "" || s.CSRFToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.CSRFToken)) == 1
}
