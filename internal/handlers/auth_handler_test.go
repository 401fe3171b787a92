package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cms0/internal/api/validator"
	"cms0/internal/config"
	database "cms0/internal/db"
	"cms0/internal/models"
	"cms0/internal/session"
	"cms0/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeLimiter struct {
	allow  bool
	resets int
}

func (f *fakeLimiter) Allow(ctx context.Context, identifier string) (bool, error) {
	return f.allow, nil
}

func (f *fakeLimiter) Reset(ctx context.Context, identifier string) error {
	f.resets++
	return nil
}

func setupAuth(t *testing.T, limiter LoginLimiter) (*AuthHandler, *echo.Echo, *gorm.DB) {
	t.Helper()
	logger.Mute(true)

	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	e := echo.New()
	e.Validator = validator.NewValidator()
	return NewAuthHandler(db, config.LoadTestConfig().JWT, limiter, logger.NopSink()), e, db
}

func call(e *echo.Echo, h echo.HandlerFunc, method, body string, sess *session.Context, params ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(params) == 2 {
		c.SetParamNames(params[0])
		c.SetParamValues(params[1])
	}
	if sess != nil {
		session.Set(c, *sess)
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestRegisterAndLogin(t *testing.T) {
	limiter := &fakeLimiter{allow: true}
	h, e, db := setupAuth(t, limiter)

	body := `{"email":" New@Example.com ","password":"password123","name":"New"}`
	rec := call(e, h.Register, http.MethodPost, body, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	user, err := models.GetUserByEmail("new@example.com", db)
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleUser, user.Role)

	assert.Equal(t, http.StatusConflict, call(e, h.Register, http.MethodPost, body, nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, call(e, h.Register, http.MethodPost, `{"email":"bad","password":"x","name":""}`, nil).Code)

	rec = call(e, h.Login, http.MethodPost, `{"email":"new@example.com","password":"wrong-password"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, limiter.resets)

	rec = call(e, h.Login, http.MethodPost, `{"email":"new@example.com","password":"password123"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Len(t, resp.CSRFToken, 64)
	assert.Equal(t, 1, limiter.resets)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "session=")

	var sessions int64
	require.NoError(t, db.Model(&models.Session{}).Count(&sessions).Error)
	assert.EqualValues(t, 1, sessions)
}

func TestLoginThrottled(t *testing.T) {
	h, e, db := setupAuth(t, &fakeLimiter{allow: false})
	require.NoError(t, models.CreateAdmin(db, "admin@example.com", "password123", "Admin"))

	rec := call(e, h.Login, http.MethodPost, `{"email":"admin@example.com","password":"password123"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestUpdateSettings(t *testing.T) {
	h, e, db := setupAuth(t, nil)
	require.NoError(t, models.CreateAdmin(db, "admin@example.com", "password123", "Admin"))
	user, err := models.GetUserByEmail("admin@example.com", db)
	require.NoError(t, err)
	sess := session.New(user.ID, user.Role, "sid", "secret")

	rec := call(e, h.UpdateSettings, http.MethodPut, `{"theme":"dark","language":"de"}`, &sess)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(e, h.UpdateSettings, http.MethodPut, `{"theme":"neon","shell":"zsh"}`, &sess)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "theme")
	assert.Contains(t, rec.Body.String(), "shell")

	rec = call(e, h.GetMe, http.MethodGet, "", &sess)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `dark`)
	assert.Contains(t, rec.Body.String(), sess.CSRFToken)
}

func TestSetRole(t *testing.T) {
	h, e, db := setupAuth(t, nil)
	require.NoError(t, models.CreateAdmin(db, "admin@example.com", "password123", "Admin"))
	admin, err := models.GetUserByEmail("admin@example.com", db)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{Email: "u@example.com", Password: "x", Role: models.UserRoleUser}).Error)
	member, err := models.GetUserByEmail("u@example.com", db)
	require.NoError(t, err)

	sess := session.New(admin.ID, admin.Role, "sid", "secret")

	rec := call(e, h.SetRole, http.MethodPut, `{"role":"admin"}`, &sess, "id", jsonID(member.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(e, h.SetRole, http.MethodPut, `{"role":"user"}`, &sess, "id", jsonID(admin.ID))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = call(e, h.SetRole, http.MethodPut, `{"role":"owner"}`, &sess, "id", jsonID(member.ID))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = call(e, h.SetRole, http.MethodPut, `{"role":"user"}`, &sess, "id", "9999")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func jsonID(id uint64) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}
