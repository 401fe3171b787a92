package routes

import (
	"cms0/internal/api/middleware"
	"cms0/internal/config"
	"cms0/internal/handlers"
	"cms0/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func SetupAuthRoutes(e *echo.Echo, db *gorm.DB, cfg *config.Config, limiter handlers.LoginLimiter, sink *logger.Sink) {
	authHandler := handlers.NewAuthHandler(db, cfg.JWT, limiter, sink)
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, db)

	base := e.Group("/api/v1")

	// Public auth routes group
	auth := base.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes (require authentication and a matching CSRF token)
	protected := []echo.MiddlewareFunc{authMiddleware.Middleware(), middleware.CSRF(sink)}
	auth.POST("/logout", authHandler.Logout, protected...)

	users := base.Group("/users", protected...)
	users.GET("/me", authHandler.GetMe)
	users.PUT("/me", authHandler.UpdateProfile)
	users.PUT("/me/settings", authHandler.UpdateSettings)

	// User management routes (require admin role)
	userManagement := users.Group("", middleware.RequireAdmin())
	userManagement.GET("", authHandler.ListUsers)
	userManagement.PUT("/:id/role", authHandler.SetRole)
}
