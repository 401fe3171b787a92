package controllers

import (
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"cms0/internal/models"
	"cms0/internal/modules"
	"cms0/internal/services"
	"cms0/internal/utils/logger"
	"cms0/internal/utils/pagination"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CatalogController serves the list, edit and bulk screens of every content
// module. The module comes from the :module path segment.
type CatalogController struct {
	catalog *services.CatalogService
	sink    *logger.Sink
}

func NewCatalogController(catalog *services.CatalogService, sink *logger.Sink) *CatalogController {
	return &CatalogController{catalog: catalog, sink: sink}
}

type moduleInfo struct {
	Kind          modules.Kind   `json:"kind"`
	Labels        modules.Labels `json:"labels"`
	HasCategories bool           `json:"hasCategories"`
}

func describe(cfg modules.Config) moduleInfo {
	return moduleInfo{Kind: cfg.Kind, Labels: cfg.Labels, HasCategories: cfg.HasCategories()}
}

type listResponse struct {
	Module moduleInfo `json:"module"`
	*services.Page
	Pagination template.HTML `json:"pagination"`
	CSRFToken  string        `json:"csrfToken"`
}

type itemResponse struct {
	Module    moduleInfo            `json:"module"`
	Item      *models.CatalogRecord `json:"item"`
	CSRFToken string                `json:"csrfToken"`
}

type saveRequest struct {
	ID     uint64                 `json:"id"`
	Title  string                 `json:"title"`
	Author string                 `json:"author"`
	Status *int                   `json:"status" validate:"omitempty,record_status"`
	Data   map[string]interface{} `json:"data"`
}

type saveResponse struct {
	Flash
	Item *models.CatalogRecord `json:"item"`
}

type bulkRequest struct {
	IDs    []uint64 `json:"ids" form:"ids[]"`
	Action string   `json:"action" form:"action" validate:"required,bulk_action"`
}

// List godoc
// @Summary List module rows
// @Description One page of the caller's rows, filtered by search text, parent and trash state
// @Tags catalog
// @Produce json
// @Param module path string true "Module (news, record, shop, pages)"
// @Param search query string false "Case-insensitive title search"
// @Param author query string false "Parent category id"
// @Param parent query string false "Alias of author"
// @Param trash query int false "1 lists the trash"
// @Param page query int false "Page number"
// @Success 200 {object} listResponse
// @Failure 401 {object} Flash
// @Router /catalog/{module}/list [get]
func (cc *CatalogController) List(c echo.Context) error {
	return cc.list(c, false)
}

// ListCategories godoc
// @Summary List module categories
// @Tags catalog
// @Produce json
// @Param module path string true "Module"
// @Success 200 {object} listResponse
// @Failure 404 {object} Flash "Module has no categories"
// @Router /catalog/{module}/categories/list [get]
func (cc *CatalogController) ListCategories(c echo.Context) error {
	return cc.list(c, true)
}

func (cc *CatalogController) list(c echo.Context, categories bool) error {
	s, err := caller(c)
	if err != nil {
		return err
	}
	cfg := modules.Resolve(c.Param("module"))

	status := models.StatusActive
	if c.QueryParam("trash") == "1" {
		status = models.StatusTrashed
	}

	parent := c.QueryParam("author")
	if parent == "" {
		parent = c.QueryParam("parent")
	}

	page, err := cc.catalog.List(c.Request().Context(), cfg, services.ListQuery{
		OwnerID:    s.UserID,
		Status:     status,
		Search:     c.QueryParam("search"),
		ParentID:   parent,
		Page:       queryInt(c, "page", 1),
		Categories: categories,
	})
	if err != nil {
		return Fail(c, cc.sink, err)
	}

	extra := url.Values{}
	for _, key := range []string{"search", "author", "parent", "trash"} {
		if v := c.QueryParam(key); v != "" {
			extra.Set(key, v)
		}
	}

	return c.JSON(http.StatusOK, listResponse{
		Module:     describe(cfg),
		Page:       page,
		Pagination: pagination.Render(page.Page, page.TotalPages, extra),
		CSRFToken:  s.CSRFToken,
	})
}

// Get godoc
// @Summary Get a module row for editing
// @Tags catalog
// @Produce json
// @Param module path string true "Module"
// @Param id path int true "Row id"
// @Success 200 {object} itemResponse
// @Failure 404 {object} Flash
// @Router /catalog/{module}/item/{id} [get]
func (cc *CatalogController) Get(c echo.Context) error {
	return cc.get(c, false)
}

func (cc *CatalogController) GetCategory(c echo.Context) error {
	return cc.get(c, true)
}

func (cc *CatalogController) get(c echo.Context, categories bool) error {
	s, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	cfg := modules.Resolve(c.Param("module"))

	item, err := cc.catalog.Get(c.Request().Context(), cfg, s.UserID, id, categories)
	if err != nil {
		return Fail(c, cc.sink, err)
	}
	return c.JSON(http.StatusOK, itemResponse{Module: describe(cfg), Item: item, CSRFToken: s.CSRFToken})
}

// Save godoc
// @Summary Create or update a module row
// @Description JSON body, or form fields title, author, status and data[key]. A non-zero id updates.
// @Tags catalog
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param module path string true "Module"
// @Param X-CSRF-Token header string true "CSRF token"
// @Param request body saveRequest true "Row"
// @Success 200 {object} saveResponse "Updated"
// @Success 201 {object} saveResponse "Created"
// @Failure 403 {object} Flash "CSRF token mismatch"
// @Failure 404 {object} Flash
// @Failure 422 {object} Flash
// @Router /catalog/{module}/save [post]
func (cc *CatalogController) Save(c echo.Context) error {
	return cc.save(c, false)
}

func (cc *CatalogController) SaveCategory(c echo.Context) error {
	return cc.save(c, true)
}

func (cc *CatalogController) save(c echo.Context, categories bool) error {
	s, err := caller(c)
	if err != nil {
		return err
	}
	cfg := modules.Resolve(c.Param("module"))

	req, err := bindSave(c)
	if err != nil {
		return err
	}
	if err := c.Validate(req); err != nil {
		return Fail(c, cc.sink, err)
	}

	var status *models.RecordStatus
	if req.Status != nil {
		st := models.RecordStatus(*req.Status)
		status = &st
	}

	item, err := cc.catalog.Save(c.Request().Context(), cfg, services.EditRequest{
		OwnerID:    s.UserID,
		ID:         req.ID,
		Title:      req.Title,
		Author:     req.Author,
		Status:     status,
		Data:       req.Data,
		Categories: categories,
	})
	if err != nil {
		return Fail(c, cc.sink, err)
	}

	cc.sink.Info("catalog row saved",
		zap.String("module", string(cfg.Kind)),
		zap.Uint64("user_id", s.UserID),
		zap.Uint64("id", item.ID),
		zap.Bool("created", req.ID == 0),
	)

	code := http.StatusOK
	if req.ID == 0 {
		code = http.StatusCreated
	}
	return c.JSON(code, saveResponse{
		Flash: Flash{Success: true, Message: cfg.Messages.Saved},
		Item:  item,
	})
}

// bindSave reads a JSON body, or a form whose extra data comes as data[key].
func bindSave(c echo.Context) (*saveRequest, error) {
	req := &saveRequest{}
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if err := c.Bind(req); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		return req, nil
	}

	form, err := c.FormParams()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	req.Title = form.Get("title")
	req.Author = form.Get("author")
	if v := form.Get("id"); v != "" && v != "0" {
		if req.ID, err = strconv.ParseUint(v, 10, 64); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
		}
	}
	if v := form.Get("status"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			n = -1
		}
		req.Status = &n
	}
	for key, values := range form {
		if strings.HasPrefix(key, "data[") && strings.HasSuffix(key, "]") && len(values) > 0 {
			if req.Data == nil {
				req.Data = make(map[string]interface{})
			}
			req.Data[key[len("data["):len(key)-1]] = values[0]
		}
	}
	return req, nil
}

// Bulk godoc
// @Summary Trash, restore or purge selected rows
// @Description Rows not owned by the caller are skipped. Purge also deletes attached media files.
// @Tags catalog
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param module path string true "Module"
// @Param X-CSRF-Token header string true "CSRF token"
// @Param request body bulkRequest true "Selection"
// @Success 200 {object} services.BulkResult
// @Failure 403 {object} Flash "CSRF token mismatch"
// @Failure 422 {object} Flash
// @Router /catalog/{module}/bulk [post]
func (cc *CatalogController) Bulk(c echo.Context) error {
	return cc.bulk(c, false)
}

func (cc *CatalogController) BulkCategories(c echo.Context) error {
	return cc.bulk(c, true)
}

func (cc *CatalogController) bulk(c echo.Context, categories bool) error {
	s, err := caller(c)
	if err != nil {
		return err
	}
	cfg := modules.Resolve(c.Param("module"))

	var req bulkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return Fail(c, cc.sink, err)
	}

	result, err := cc.catalog.Bulk(c.Request().Context(), cfg, services.BulkRequest{
		OwnerID:    s.UserID,
		IDs:        req.IDs,
		Action:     models.BulkAction(req.Action),
		Categories: categories,
	})
	if err != nil {
		return Fail(c, cc.sink, err)
	}

	cc.sink.Info("catalog bulk action",
		zap.String("module", string(cfg.Kind)),
		zap.String("action", req.Action),
		zap.Uint64("user_id", s.UserID),
		zap.Int("requested", len(req.IDs)),
		zap.Int64("affected", result.Affected),
	)
	return c.JSON(http.StatusOK, result)
}
