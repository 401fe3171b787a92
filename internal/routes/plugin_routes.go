package routes

import (
	"cms0/internal/api/middleware"
	"cms0/internal/handlers"
	"cms0/internal/services"
	"cms0/internal/utils/logger"

	"github.com/labstack/echo/v4"
)

// SetupPluginRoutes registers the admin-only plugin lifecycle.
func SetupPluginRoutes(api *echo.Group, plugins *services.PluginService, sink *logger.Sink) {
	pluginHandler := handlers.NewPluginHandler(plugins, sink)

	pluginGroup := api.Group("/plugins", middleware.RequireAdmin())
	pluginGroup.GET("", pluginHandler.List)
	pluginGroup.POST("/:slug/install", pluginHandler.Install)
	pluginGroup.POST("/:slug/uninstall", pluginHandler.Uninstall)
	pluginGroup.POST("/:slug/settings", pluginHandler.UpdateSettings)
	pluginGroup.POST("/:slug/enabled", pluginHandler.SetEnabled)
}
