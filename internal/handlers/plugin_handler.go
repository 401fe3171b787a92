package handlers

import (
	"net/http"

	"cms0/internal/api/controllers"
	"cms0/internal/services"
	"cms0/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type PluginHandler struct {
	plugins *services.PluginService
	sink    *logger.Sink
}

func NewPluginHandler(plugins *services.PluginService, sink *logger.Sink) *PluginHandler {
	return &PluginHandler{plugins: plugins, sink: sink}
}

type pluginSettingsRequest struct {
	Settings map[string]string `json:"settings"`
}

type toggleRequest struct {
	Enabled bool `json:"enabled"`
}

// List returns available and installed plugins
// @Summary List plugins
// @Tags plugins
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /plugins [get]
func (h *PluginHandler) List(c echo.Context) error {
	installed, err := h.plugins.Installed(c.Request().Context())
	if err != nil {
		return controllers.Fail(c, h.sink, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"available": h.plugins.Available(),
		"installed": installed,
	})
}

// Install installs a plugin with its default settings
// @Summary Install plugin
// @Tags plugins
// @Produce json
// @Param slug path string true "Plugin slug"
// @Param X-CSRF-Token header string true "CSRF token"
// @Success 200 {object} models.Plugin
// @Failure 404 {object} controllers.Flash "Unknown plugin"
// @Router /plugins/{slug}/install [post]
func (h *PluginHandler) Install(c echo.Context) error {
	plugin, err := h.plugins.Install(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return controllers.Fail(c, h.sink, err)
	}
	h.sink.Info("plugin installed", zap.String("slug", plugin.Slug))
	return c.JSON(http.StatusOK, plugin)
}

// Uninstall removes a plugin
// @Summary Uninstall plugin
// @Tags plugins
// @Produce json
// @Param slug path string true "Plugin slug"
// @Param X-CSRF-Token header string true "CSRF token"
// @Success 200 {object} controllers.Flash
// @Router /plugins/{slug}/uninstall [post]
func (h *PluginHandler) Uninstall(c echo.Context) error {
	slug := c.Param("slug")
	if err := h.plugins.Uninstall(c.Request().Context(), slug); err != nil {
		return controllers.Fail(c, h.sink, err)
	}
	h.sink.Info("plugin uninstalled", zap.String("slug", slug))
	return c.JSON(http.StatusOK, controllers.Flash{Success: true, Message: "Plugin uninstalled"})
}

// UpdateSettings stores declared plugin settings
// @Summary Update plugin settings
// @Tags plugins
// @Accept json
// @Produce json
// @Param slug path string true "Plugin slug"
// @Param X-CSRF-Token header string true "CSRF token"
// @Param request body pluginSettingsRequest true "Settings"
// @Success 200 {object} models.Plugin
// @Failure 422 {object} controllers.Flash
// @Router /plugins/{slug}/settings [post]
func (h *PluginHandler) UpdateSettings(c echo.Context) error {
	var req pluginSettingsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	plugin, err := h.plugins.UpdateSettings(c.Request().Context(), c.Param("slug"), req.Settings)
	if err != nil {
		return controllers.Fail(c, h.sink, err)
	}
	return c.JSON(http.StatusOK, plugin)
}

// SetEnabled switches a plugin on or off
// @Summary Enable or disable plugin
// @Tags plugins
// @Accept json
// @Produce json
// @Param slug path string true "Plugin slug"
// @Param X-CSRF-Token header string true "CSRF token"
// @Param request body toggleRequest true "State"
// @Success 200 {object} models.Plugin
// @Router /plugins/{slug}/enabled [post]
func (h *PluginHandler) SetEnabled(c echo.Context) error {
	var req toggleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	plugin, err := h.plugins.SetEnabled(c.Request().Context(), c.Param("slug"), req.Enabled)
	if err != nil {
		return controllers.Fail(c, h.sink, err)
	}
	return c.JSON(http.StatusOK, plugin)
}
