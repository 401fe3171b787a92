package registry

import (
	"github.com/labstack/echo/v4"

	"cms0/internal/api/controllers"
	"cms0/internal/services"
	"cms0/internal/utils/logger"
)

// RegisterCatalogRoutes registers the list, edit and bulk routes shared by
// every content module. Unknown module segments are served by the record
// module.
func RegisterCatalogRoutes(g *echo.Group, catalog *services.CatalogService, sink *logger.Sink) {
	catalogController := controllers.NewCatalogController(catalog, sink)
	moduleGroup := g.Group("/catalog/:module")

	// Items
	moduleGroup.GET("/list", catalogController.List)
	moduleGroup.GET("/item/:id", catalogController.Get)
	moduleGroup.POST("/save", catalogController.Save)
	moduleGroup.POST("/bulk", catalogController.Bulk)

	// Categories of modules that have them
	categoryGroup := moduleGroup.Group("/categories")
	categoryGroup.GET("/list", catalogController.ListCategories)
	categoryGroup.GET("/item/:id", catalogController.GetCategory)
	categoryGroup.POST("/save", catalogController.SaveCategory)
	categoryGroup.POST("/bulk", catalogController.BulkCategories)
}
