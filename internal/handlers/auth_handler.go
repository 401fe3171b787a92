package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"cms0/internal/api/controllers"
	"cms0/internal/api/middleware"
	"cms0/internal/config"
	"cms0/internal/models"
	"cms0/internal/session"
	"cms0/internal/utils"
	"cms0/internal/utils/logger"

	playgroundvalidator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthHandler struct {
	db      *gorm.DB
	jwt     config.JWTConfig
	limiter LoginLimiter
	sink    *logger.Sink
	check   *playgroundvalidator.Validate
	log     *logger.Logger
}

func NewAuthHandler(db *gorm.DB, jwt config.JWTConfig, limiter LoginLimiter, sink *logger.Sink) *AuthHandler {
	return &AuthHandler{
		db:      db,
		jwt:     jwt,
		limiter: limiter,
		sink:    sink,
		check:   playgroundvalidator.New(),
		log:     logger.New("AuthHandler"),
	}
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	CSRFToken string       `json:"csrfToken"`
	User      *models.User `json:"user"`
}

type ProfileRequest struct {
	Name            string `json:"name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"omitempty,min=8"`
	CurrentPassword string `json:"currentPassword" validate:"required_with=Password"`
}

type SetRoleRequest struct {
	Role string `json:"role" validate:"required,user_role"`
}

// settingRules lists the user settings a profile may carry.
var settingRules = map[string]string{
	"language": "required,oneof=en ru de",
	"timezone": "required,timezone",
	"theme":    "required,oneof=light dark",
}

// Register creates a user account with the "user" role.
// @Summary Register a new user
// @Description Register a new user with email, password and name
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration details"
// @Success 201 {object} controllers.Flash "User registered successfully"
// @Failure 409 {object} controllers.Flash "Email exists"
// @Failure 422 {object} controllers.Flash "Validation error"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := c.Validate(req); err != nil {
		return controllers.Fail(c, h.sink, err)
	}

	if _, err := models.GetUserByEmail(req.Email, h.db); err == nil {
		return c.JSON(http.StatusConflict, controllers.Flash{Message: "User already exists"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return controllers.Fail(c, h.sink, err)
	}

	user := models.User{
		Email:    req.Email,
		Password: string(hashedPassword),
		Name:     strings.TrimSpace(req.Name),
		Role:     models.UserRoleUser,
	}
	if err := h.db.WithContext(c.Request().Context()).Create(&user).Error; err != nil {
		return controllers.Fail(c, h.sink, err)
	}

	h.sink.Info("user registered", zap.Uint64("user_id", user.ID))
	return c.JSON(http.StatusCreated, controllers.Flash{Success: true, Message: "User registered successfully"})
}

// Login verifies credentials and opens a session.
// @Summary Login user
// @Description Authenticate user and return a session token and its CSRF token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} controllers.Flash "Invalid credentials"
// @Failure 429 {object} controllers.Flash "Too many attempts"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return controllers.Fail(c, h.sink, err)
	}

	ctx := c.Request().Context()
	ip := utils.GetIPAddress(c.Request())
	if h.limiter != nil {
		allowed, err := h.limiter.Allow(ctx, ip)
		if err != nil {
			h.log.Warn("Login limiter unavailable: %v", err)
		} else if !allowed {
			h.sink.Warn("login throttled", zap.String("ip", ip))
			return c.JSON(http.StatusTooManyRequests, controllers.Flash{Message: "Too many login attempts. Try again later."})
		}
	}

	user, err := models.GetUserByEmail(strings.ToLower(strings.TrimSpace(req.Email)), h.db.WithContext(ctx))
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		h.sink.Info("login failed", zap.String("ip", ip))
		return c.JSON(http.StatusUnauthorized, controllers.Flash{Message: "Invalid credentials"})
	}

	sess := &models.Session{
		SID:       uuid.NewString(),
		UserID:    user.ID,
		IPAddress: ip,
		UserAgent: c.Request().UserAgent(),
		ExpiresAt: time.Now().Add(h.jwt.TTL),
	}
	if err := h.db.WithContext(ctx).Create(sess).Error; err != nil {
		return controllers.Fail(c, h.sink, err)
	}

	token, err := utils.GenerateJWT(*user, sess.SID, h.jwt.Secret, h.jwt.TTL)
	if err != nil {
		return controllers.Fail(c, h.sink, err)
	}

	if h.limiter != nil {
		if err := h.limiter.Reset(ctx, ip); err != nil {
			h.log.Warn("Failed to reset login limiter: %v", err)
		}
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   c.Scheme() == "https",
		SameSite: http.SameSiteLaxMode,
	})

	h.sink.Info("login", zap.Uint64("user_id", user.ID), zap.String("ip", ip))
	return c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		CSRFToken: session.CSRFToken(h.jwt.Secret, sess.SID),
		User:      user,
	})
}

// Logout deletes the caller's session.
// @Summary Logout
// @Tags auth
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Success 200 {object} controllers.Flash
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	s, ok := session.From(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	if err := h.db.WithContext(c.Request().Context()).Where("sid = ?", s.SessionID).Delete(&models.Session{}).Error; err != nil {
		return controllers.Fail(c, h.sink, err)
	}
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return c.JSON(http.StatusOK, controllers.Flash{Success: true, Message: "Logged out"})
}

func (h *AuthHandler) currentUser(c echo.Context) (*models.User, session.Context, error) {
	s, ok := session.From(c)
	if !ok {
		return nil, s, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	var user models.User
	if err := h.db.WithContext(c.Request().Context()).First(&user, s.UserID).Error; err != nil {
		return nil, s, echo.NewHTTPError(http.StatusUnauthorized, "User not found")
	}
	return &user, s, nil
}

// GetMe returns the caller and the CSRF token of the session.
// @Summary Get current user
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} controllers.Flash
// @Router /users/me [get]
func (h *AuthHandler) GetMe(c echo.Context) error {
	user, s, err := h.currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user":      user,
		"csrfToken": s.CSRFToken,
	})
}

// UpdateProfile changes name, email and optionally the password.
// @Summary Update own profile
// @Tags users
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Param request body ProfileRequest true "Profile"
// @Success 200 {object} models.User
// @Failure 422 {object} controllers.Flash
// @Router /users/me [put]
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	user, _, err := h.currentUser(c)
	if err != nil {
		return err
	}

	var req ProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := c.Validate(req); err != nil {
		return controllers.Fail(c, h.sink, err)
	}

	updates := map[string]interface{}{
		"name":  strings.TrimSpace(req.Name),
		"email": req.Email,
	}
	if req.Email != user.Email {
		if other, err := models.GetUserByEmail(req.Email, h.db); err == nil && other.ID != user.ID {
			return c.JSON(http.StatusConflict, controllers.Flash{Message: "Email is already in use"})
		}
	}
	if req.Password != "" {
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)) != nil {
			return c.JSON(http.StatusUnprocessableEntity, controllers.Flash{
				Message: "Please correct the highlighted fields",
				Fields:  map[string]string{"currentPassword": "is incorrect"},
			})
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return controllers.Fail(c, h.sink, err)
		}
		updates["password"] = string(hashed)
	}

	if err := h.db.WithContext(c.Request().Context()).Model(user).Updates(updates).Error; err != nil {
		return controllers.Fail(c, h.sink, err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateSettings merges allowlisted keys into the caller's settings.
// @Summary Update own settings
// @Tags users
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Param request body map[string]string true "Settings"
// @Success 200 {object} map[string]string
// @Failure 422 {object} controllers.Flash
// @Router /users/me/settings [put]
func (h *AuthHandler) UpdateSettings(c echo.Context) error {
	user, _, err := h.currentUser(c)
	if err != nil {
		return err
	}

	var req map[string]string
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	fields := make(map[string]string)
	for key, value := range req {
		rule, ok := settingRules[key]
		if !ok {
			fields[key] = "is not a known setting"
			continue
		}
		if err := h.check.Var(value, rule); err != nil {
			fields[key] = "is invalid"
		}
	}
	if len(fields) > 0 {
		return c.JSON(http.StatusUnprocessableEntity, controllers.Flash{Message: "Please correct the highlighted fields", Fields: fields})
	}

	settings, err := utils.JSONToStringMap(user.Settings)
	if err != nil {
		return controllers.Fail(c, h.sink, err)
	}
	for key, value := range req {
		settings[key] = value
	}
	if user.Settings, err = utils.StringMapToJSON(settings); err != nil {
		return controllers.Fail(c, h.sink, err)
	}
	if err := h.db.WithContext(c.Request().Context()).Model(user).Update("settings", user.Settings).Error; err != nil {
		return controllers.Fail(c, h.sink, err)
	}
	return c.JSON(http.StatusOK, settings)
}

// ListUsers returns every user (admin only)
// @Summary List all users
// @Tags users
// @Produce json
// @Success 200 {array} models.User
// @Failure 403 {object} controllers.Flash "Forbidden"
// @Router /users [get]
func (h *AuthHandler) ListUsers(c echo.Context) error {
	users := make([]models.User, 0)
	if err := h.db.WithContext(c.Request().Context()).Order("id ASC").Find(&users).Error; err != nil {
		return controllers.Fail(c, h.sink, err)
	}
	return c.JSON(http.StatusOK, users)
}

// SetRole changes a user's role (admin only). Admins cannot demote themselves.
// @Summary Change a user's role
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param X-CSRF-Token header string true "CSRF token"
// @Param request body SetRoleRequest true "Role"
// @Success 200 {object} models.User
// @Failure 404 {object} controllers.Flash "User not found"
// @Failure 422 {object} controllers.Flash
// @Router /users/{id}/role [put]
func (h *AuthHandler) SetRole(c echo.Context) error {
	s, ok := session.From(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var req SetRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return controllers.Fail(c, h.sink, err)
	}

	var user models.User
	err := h.db.WithContext(c.Request().Context()).First(&user, "id = ?", c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusNotFound, controllers.Flash{Message: "User not found"})
	}
	if err != nil {
		return controllers.Fail(c, h.sink, err)
	}

	role := models.UserRole(req.Role)
	if user.ID == s.UserID && role != models.UserRoleAdmin {
		return c.JSON(http.StatusUnprocessableEntity, controllers.Flash{
			Message: "You cannot remove your own admin role",
			Fields:  map[string]string{"role": "cannot demote yourself"},
		})
	}

	if err := h.db.WithContext(c.Request().Context()).Model(&user).Update("role", role).Error; err != nil {
		return controllers.Fail(c, h.sink, err)
	}
	h.sink.Info("role changed", zap.Uint64("user_id", user.ID), zap.String("role", req.Role), zap.Uint64("by", s.UserID))
	return c.JSON(http.StatusOK, user)
}
