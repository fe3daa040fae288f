package server

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/easeaico/tryangel/internal/companion"
	"github.com/easeaico/tryangel/internal/content"
	"github.com/easeaico/tryangel/internal/learner"
	"github.com/easeaico/tryangel/internal/types"
	"github.com/easeaico/tryangel/internal/voice"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error      string   `json:"error"`
	Categories []string `json:"categories,omitempty"`
}

// httpError maps domain errors onto HTTP status codes.
func httpError(err error) error {
	var unknown *content.UnknownCategoryError
	switch {
	case errors.Is(err, companion.ErrMessageRequired):
		return echo.NewHTTPError(http.StatusBadRequest, "Message is required.")
	case errors.As(err, &unknown):
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Categories: unknown.Valid})
	case errors.Is(err, types.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	case errors.Is(err, voice.ErrInvalidFilename), errors.Is(err, fs.ErrNotExist):
		return echo.NewHTTPError(http.StatusNotFound, "voice clip not found")
	case errors.Is(err, companion.ErrInvalidInput),
		errors.Is(err, types.ErrInvalidUserID),
		errors.Is(err, learner.ErrInvalidScore):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return err
	}
}

// errorHandler renders errors as {"error": "..."}.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	body := ErrorResponse{Error: http.StatusText(code)}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch m := he.Message.(type) {
		case ErrorResponse:
			body = m
		case string:
			body = ErrorResponse{Error: m}
		default:
			body = ErrorResponse{Error: fmt.Sprint(m)}
		}
	} else {
		slog.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, body)
	}
	if err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}
