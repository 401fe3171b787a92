package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"cms0/internal/models"
	"cms0/internal/session"
	"cms0/internal/utils"
	"cms0/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

var log = logger.New("auth_middleware")

// SessionCookie carries the token for browser clients.
const SessionCookie = "session"

type AuthMiddleware struct {
	jwtSecret string
	db        *gorm.DB
}

func NewAuthMiddleware(jwtSecret string, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
		db:        db,
	}
}

// Middleware authenticates the request from a bearer token or the session
// cookie and attaches a session.Context.
func (m *AuthMiddleware) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := tokenFrom(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}
			return m.validateJWT(c, token, next)
		}
	}
}

func tokenFrom(c echo.Context) (string, error) {
	if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" {
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" || tokenParts[1] == "" {
			return "", errors.New("Invalid authorization header format")
		}
		return tokenParts[1], nil
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", errors.New("Missing authorization header")
}

func (m *AuthMiddleware) validateJWT(c echo.Context, tokenString string, next echo.HandlerFunc) error {
	s, err := m.resolve(c, tokenString)
	if err != nil {
		return err
	}
	session.Set(c, s)
	return next(c)
}

// Authenticate resolves the caller of a request outside the middleware chain.
func (m *AuthMiddleware) Authenticate(c echo.Context) (session.Context, error) {
	if s, ok := session.From(c); ok {
		return s, nil
	}
	token, err := tokenFrom(c)
	if err != nil {
		return session.Context{}, echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	s, err := m.resolve(c, token)
	if err != nil {
		return session.Context{}, err
	}
	session.Set(c, s)
	return s, nil
}

func (m *AuthMiddleware) resolve(c echo.Context, tokenString string) (session.Context, error) {
	claims, err := utils.ParseJWT(tokenString, m.jwtSecret)
	if err != nil {
		log.Warn("Rejected token: %v", err)
		return session.Context{}, echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	// The session row must still exist; logout deletes it.
	sess := &models.Session{}
	err = m.db.WithContext(c.Request().Context()).
		Preload("User").
		Where("sid = ? AND user_id = ? AND expires_at > ?", claims.SID, claims.UserID, time.Now()).
		First(sess).Error
	if err != nil || sess.User == nil {
		return session.Context{}, echo.NewHTTPError(http.StatusUnauthorized, "Session expired")
	}

	// Role comes from the user row so demotions apply immediately.
	return session.New(sess.User.ID, sess.User.Role, sess.SID, m.jwtSecret), nil
}
