package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/notesd/internal/enrich"
	"github.com/fyrsmithlabs/notesd/internal/note"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, note.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, note.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, note.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, enrich.ErrExhaustedFallback):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// toHTTPError converts a domain error. Internal errors are reported
// without detail; the request log carries the cause.
func toHTTPError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError || status == http.StatusServiceUnavailable {
		msg = http.StatusText(status)
	}
	return echo.NewHTTPError(status, msg).SetInternal(err)
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func errorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		he := toHTTPError(err)

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(he.Code)
		} else {
			werr = c.JSON(he.Code, ErrorResponse{Error: fmt.Sprint(he.Message)})
		}
		if werr != nil {
			e.Logger.Error(werr)
		}
	}
}
