package api

import (
	"net/http"

	"cms0/internal/api/middleware"
	"cms0/internal/api/registry"
	"cms0/internal/routes"

	_ "cms0/docs/swagger"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func (s *Server) registerRoutes() {
	s.echo.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/swagger/index.html")
	})
	// Health check
	// @Summary Health check
	// @Description Check if the server is running
	// @Accept json
	// @Produce json
	// @Success 200 {object} map[string]string "OK"
	// @Router /health [get]
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	routes.SetupAuthRoutes(s.echo, s.db, s.config, s.deps.Limiter, s.deps.Sink)

	// API v1 group
	api := s.echo.Group("/api/v1")
	auth := middleware.NewAuthMiddleware(s.config.JWT.Secret, s.db)
	api.Use(auth.Middleware())
	api.Use(middleware.CSRF(s.deps.Sink))

	registry.RegisterCatalogRoutes(api, s.deps.Catalog, s.deps.Sink)
	routes.SetupUploadRoutes(s.echo, api, s.deps.Media, s.deps.Sink)
	routes.SetupPluginRoutes(api, s.deps.Plugins, s.deps.Sink)
}
