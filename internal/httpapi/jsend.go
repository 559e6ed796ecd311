package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	statusSuccess = "success"
	statusFail    = "fail"
	statusError   = "error"
)

// envelope is the JSend body every endpoint answers with.
type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

func respond(c echo.Context, code int, body envelope) error {
	if body.Status == statusError {
		body.Code = code
	}
	return c.JSON(code, body)
}

func succeed(c echo.Context, data any) error {
	return respond(c, http.StatusOK, envelope{Status: statusSuccess, Data: data})
}

func fail(c echo.Context, code int, message string, data any) error {
	return respond(c, code, envelope{Status: statusFail, Message: message, Data: data})
}

// invalid reports request problems keyed by field name.
func invalid(c echo.Context, fieldErrors map[string]string) error {
	return fail(c, http.StatusBadRequest, "Validation failed", map[string]any{
		"validation_errors": fieldErrors,
	})
}

func notFound(c echo.Context, message string) error {
	return fail(c, http.StatusNotFound, message, nil)
}

func serverError(c echo.Context, message string) error {
	return respond(c, http.StatusInternalServerError, envelope{Status: statusError, Message: message})
}
