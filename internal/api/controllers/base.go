package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"cms0/internal/api/validator"
	"cms0/internal/services"
	"cms0/internal/session"
	"cms0/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Flash is the body of every failed request and of write responses.
type Flash struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

const genericFailure = "Something went wrong. Please try again later."

// Fail converts err into a flash response. Unexpected errors are logged to the
// sink and never reach the client.
func Fail(c echo.Context, sink *logger.Sink, err error) error {
	var (
		verr  *services.ValidationError
		vreqs validator.ValidationErrors
		herr  *echo.HTTPError
	)
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusUnprocessableEntity, Flash{Message: "Please correct the highlighted fields", Fields: verr.Fields})
	case errors.As(err, &vreqs):
		return c.JSON(http.StatusUnprocessableEntity, Flash{Message: "Please correct the highlighted fields", Fields: vreqs.Fields()})
	case errors.Is(err, services.ErrNotFound):
		return c.JSON(http.StatusNotFound, Flash{Message: "The requested item does not exist"})
	case errors.Is(err, services.ErrNoCategories):
		return c.JSON(http.StatusNotFound, Flash{Message: "This module has no categories"})
	case errors.Is(err, services.ErrUnknownPlugin):
		return c.JSON(http.StatusNotFound, Flash{Message: "Unknown plugin"})
	case errors.As(err, &herr):
		return herr
	}

	s, _ := session.From(c)
	sink.Error("request failed", err,
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Uint64("user_id", s.UserID),
	)
	return c.JSON(http.StatusInternalServerError, Flash{Message: genericFailure})
}

// caller returns the authenticated session or a 401.
func caller(c echo.Context) (session.Context, error) {
	s, ok := session.From(c)
	if !ok {
		return s, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return s, nil
}

// paramID parses a positive numeric path parameter.
func paramID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// queryInt reads an integer query parameter, falling back on bad input.
func queryInt(c echo.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return fallback
	}
	return v
}
