package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"cms0/internal/api/controllers"
	"cms0/internal/services"
	"cms0/internal/session"
	"cms0/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// maxUploadSize bounds a single media file.
const maxUploadSize = 10 << 20

type UploadHandler struct {
	media *services.MediaLibrary
	sink  *logger.Sink
	log   *logger.Logger
}

func NewUploadHandler(media *services.MediaLibrary, sink *logger.Sink) *UploadHandler {
	return &UploadHandler{
		media: media,
		sink:  sink,
		log:   logger.New("upload_handler"),
	}
}

type deleteMediaRequest struct {
	IDs []uint64 `json:"ids" form:"ids[]" validate:"required,min=1"`
}

// UploadFile stores a file in the caller's media library
// @Summary Upload a file
// @Description Upload a file to the media library
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to upload"
// @Param csrf_token formData string true "CSRF token"
// @Success 201 {object} map[string]interface{} "File uploaded successfully"
// @Failure 400 {object} controllers.Flash "No file provided"
// @Failure 500 {object} controllers.Flash "Internal server error"
// @Router /media/upload [post]
func (h *UploadHandler) UploadFile(c echo.Context) error {
	s, ok := session.From(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		return c.JSON(http.StatusBadRequest, controllers.Flash{Message: "Content-Type must be multipart/form-data"})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, controllers.Flash{Message: "No file provided"})
	}
	if file.Size > maxUploadSize {
		return c.JSON(http.StatusRequestEntityTooLarge, controllers.Flash{Message: "File is too large"})
	}

	src, err := file.Open()
	if err != nil {
		return controllers.Fail(c, h.sink, err)
	}
	defer src.Close()

	content, err := io.ReadAll(io.LimitReader(src, maxUploadSize+1))
	if err != nil {
		return controllers.Fail(c, h.sink, err)
	}

	media, err := h.media.Upload(c.Request().Context(), s.UserID, filepath.Base(file.Filename), file.Header.Get(echo.HeaderContentType), content)
	if err != nil {
		return controllers.Fail(c, h.sink, err)
	}
	if url, err := h.media.Storage().URL(c.Request().Context(), media.Path); err == nil {
		media.URL = url
	}

	h.log.Success("File uploaded successfully: %s", media.Path)
	h.sink.Info("media uploaded", zap.Uint64("user_id", s.UserID), zap.Uint64("media_id", media.ID), zap.Int64("size", media.Size))

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "File uploaded successfully",
		"media":   media,
	})
}

// ListMedia returns the caller's media library
// @Summary List media
// @Tags media
// @Produce json
// @Success 200 {array} models.Media
// @Router /media [get]
func (h *UploadHandler) ListMedia(c echo.Context) error {
	s, ok := session.From(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	media, err := h.media.List(c.Request().Context(), s.UserID)
	if err != nil {
		return controllers.Fail(c, h.sink, err)
	}
	return c.JSON(http.StatusOK, media)
}

// Thumbnail resolves the first usable id of a comma-separated list
// @Summary Thumbnail URL
// @Tags media
// @Produce json
// @Param ids query string true "Comma-separated media ids"
// @Success 200 {object} map[string]string
// @Router /media/thumbnail [get]
func (h *UploadHandler) Thumbnail(c echo.Context) error {
	s, ok := session.From(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	url, err := h.media.Thumbnail(c.Request().Context(), s.UserID, c.QueryParam("ids"))
	if err != nil {
		return controllers.Fail(c, h.sink, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}

// DeleteMedia removes media of the caller together with their files
// @Summary Delete media
// @Tags media
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Param request body deleteMediaRequest true "Selection"
// @Success 200 {object} controllers.Flash
// @Router /media/delete [post]
func (h *UploadHandler) DeleteMedia(c echo.Context) error {
	s, ok := session.From(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	var req deleteMediaRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return controllers.Fail(c, h.sink, err)
	}

	n, err := h.media.Delete(c.Request().Context(), s.UserID, req.IDs)
	if err != nil {
		return controllers.Fail(c, h.sink, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "Media deleted",
		"affected": n,
	})
}

// ServeFile streams a stored file
// @Summary Download a stored file
// @Tags media
// @Produce octet-stream
// @Param key path string true "Object key"
// @Success 200 {file} file
// @Failure 404 {object} controllers.Flash
// @Router /media/{key} [get]
func (h *UploadHandler) ServeFile(c echo.Context) error {
	key := c.Param("key")
	rc, err := h.media.Storage().Open(c.Request().Context(), key)
	if errors.Is(err, services.ErrObjectNotFound) {
		return c.JSON(http.StatusNotFound, controllers.Flash{Message: "File not found"})
	}
	if err != nil {
		return controllers.Fail(c, h.sink, err)
	}
	defer rc.Close()

	contentType := servedHeaders(c, key)
	return c.Stream(http.StatusOK, contentType, rc)
}

// FileExists answers HEAD for a stored file without reading it
// @Summary Check a stored file
// @Tags media
// @Param key path string true "Object key"
// @Success 200
// @Failure 404
// @Router /media/{key} [head]
func (h *UploadHandler) FileExists(c echo.Context) error {
	key := c.Param("key")
	ok, err := h.media.Storage().Exists(c.Request().Context(), key)
	if err != nil {
		return controllers.Fail(c, h.sink, err)
	}
	if !ok {
		return c.NoContent(http.StatusNotFound)
	}
	c.Response().Header().Set(echo.HeaderContentType, servedHeaders(c, key))
	return c.NoContent(http.StatusOK)
}

// servedHeaders keeps stored files inert on this origin: only images render
// inline and nothing may run script.
func servedHeaders(c echo.Context, key string) string {
	contentType, inline := services.ServedType(key)
	header := c.Response().Header()
	header.Set("X-Content-Type-Options", "nosniff")
	header.Set("Content-Security-Policy", "sandbox; default-src 'none'")
	if !inline {
		header.Set(echo.HeaderContentDisposition, "attachment")
	}
	return contentType
}
