package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-advanced-admin/admin"
	admingorm "github.com/go-advanced-admin/orm-gorm"
	adminecho "github.com/go-advanced-admin/web-echo"
	"golang.org/x/time/rate"

	"cms0/internal/api/middleware"
	"cms0/internal/api/validator"
	"cms0/internal/config"
	"cms0/internal/handlers"
	"cms0/internal/models"
	"cms0/internal/services"

	console "cms0/internal/utils/logger"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Media   *services.MediaLibrary
	Catalog *services.CatalogService
	Plugins *services.PluginService
	Limiter handlers.LoginLimiter
	Sink    *console.Sink
}

type Server struct {
	echo   *echo.Echo
	config *config.Config
	db     *gorm.DB
	deps   Deps

	panelNames []string
}

// panelModels are the tables the superuser panel can browse.
var panelModels = []interface{}{
	&models.User{},
	&models.Plugin{},
	&models.Media{},
	&models.FileTombstone{},
}

var log = console.New("API-Server")

// NewServer @title cms0 API
// @version 1.0
// @description Admin backend for the news, record, shop and pages modules.
// @host localhost:8080
// @BasePath /api/v1
func NewServer(cfg *config.Config, db *gorm.DB, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Validator = validator.NewValidator()

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.Server.PublicURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentLength, middleware.CSRFHeader},
		AllowCredentials: true,
	}))
	e.Use(echomw.RequestID())
	e.Use(echomw.Secure())
	e.Use(echomw.TimeoutWithConfig(echomw.TimeoutConfig{
		Timeout: 30 * time.Second,
	}))
	e.Use(echomw.GzipWithConfig(echomw.GzipConfig{
		Level: 5,
	}))
	e.Use(echomw.BodyLimit("12M"))

	e.HTTPErrorHandler = customHTTPErrorHandler

	if deps.Sink == nil {
		deps.Sink = console.NopSink()
	}

	s := &Server{
		echo:   e,
		config: cfg,
		db:     db,
		deps:   deps,
	}

	if err := models.CreateAdminFromEnv(db); err != nil {
		log.Warn("Warning: Failed to create admin: %v", err)
	} else {
		log.Success("Admin account ready")
	}

	e.Use(echomw.RateLimiter(echomw.NewRateLimiterMemoryStore(rate.Limit(20))))

	if err := s.mountAdminPanel(); err != nil {
		_ = log.Error("Failed to create admin panel", err)
	}

	s.registerRoutes()
	return s
}

// mountAdminPanel exposes the raw tables to admins. Every panel request is
// authenticated from the session cookie or bearer token.
func (s *Server) mountAdminPanel() error {
	auth := middleware.NewAuthMiddleware(s.config.JWT.Secret, s.db)
	gormIntegrator := admingorm.NewIntegrator(s.db)
	echoIntegrator := adminecho.NewIntegrator(s.echo.Group(""))

	permissionChecker := func(request admin.PermissionRequest, ctx interface{}) (bool, error) {
		c, ok := ctx.(echo.Context)
		if !ok {
			return false, nil
		}
		sess, err := auth.Authenticate(c)
		if err != nil {
			return false, nil
		}
		return sess.IsAdmin(), nil
	}

	adminPanel, err := admin.NewPanel(gormIntegrator, echoIntegrator, permissionChecker, nil)
	if err != nil {
		return err
	}
	app, err := adminPanel.RegisterApp("cms0", "cms0 Admin Panel", nil)
	if err != nil {
		return err
	}
	for _, model := range panelModels {
		name := fmt.Sprintf("%T", model)
		if _, err := app.RegisterModel(model, nil); err != nil {
			log.Warn("Admin panel skipped %s: %v", name, err)
			continue
		}
		s.panelNames = append(s.panelNames, name)
	}
	return nil
}

// Handler exposes the router for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Health check endpoint
func (s *Server) healthCheck(c echo.Context) error {
	status := "healthy"
	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(c.Request().Context()) != nil {
		status = "degraded"
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  status,
		"version": "1.0.0",
		"time":    time.Now().Format(time.RFC3339),
	})
}

// Custom HTTP error handler
func customHTTPErrorHandler(err error, c echo.Context) {
	var (
		code    = http.StatusInternalServerError
		message interface{}
	)

	switch e := err.(type) {
	case *echo.HTTPError:
		code = e.Code
		message = e.Message
	case validator.ValidationErrors:
		code = http.StatusUnprocessableEntity
		message = e.Fields()
	default:
		message = http.StatusText(code)
	}

	if !c.Response().Committed {
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, map[string]interface{}{
				"success": false,
				"error":   message,
				"code":    code,
				"time":    time.Now().Format(time.RFC3339),
			})
		}
		if err != nil {
			c.Echo().Logger.Error(err)
		}
	}
}
