package routes

import (
	"cms0/internal/handlers"
	"cms0/internal/services"
	"cms0/internal/utils/logger"

	"github.com/labstack/echo/v4"
)

// SetupUploadRoutes registers the media library under the authenticated api
// group and the public file endpoint on e.
func SetupUploadRoutes(e *echo.Echo, api *echo.Group, media *services.MediaLibrary, sink *logger.Sink) {
	log := logger.New("upload_routes")

	uploadHandler := handlers.NewUploadHandler(media, sink)

	mediaGroup := api.Group("/media")
	mediaGroup.GET("", uploadHandler.ListMedia)
	mediaGroup.POST("/upload", uploadHandler.UploadFile)
	mediaGroup.GET("/thumbnail", uploadHandler.Thumbnail)
	mediaGroup.POST("/delete", uploadHandler.DeleteMedia)

	e.GET("/media/:key", uploadHandler.ServeFile)
	e.HEAD("/media/:key", uploadHandler.FileExists)

	log.Success("Upload routes initialized successfully")
}
