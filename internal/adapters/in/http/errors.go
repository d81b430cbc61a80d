package http

import (
	"errors"
	"log/slog"
	"net/http"

	"robodelivery/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    errs.Code `json:"code"`
	Message string    `json:"message"`
}

var statusByCode = map[errs.Code]int{
	errs.CodeValidationFailed:  http.StatusBadRequest,
	errs.CodeInvalidTransition: http.StatusConflict,
	errs.CodeNotAuthorized:     http.StatusForbidden,
	errs.CodeNoRobotAvailable:  http.StatusConflict,
	errs.CodeOTPInvalid:        http.StatusUnprocessableEntity,
	errs.CodeNotFound:          http.StatusNotFound,
	errs.CodeConflict:          http.StatusConflict,
	errs.CodeUnavailable:       http.StatusServiceUnavailable,
	errs.CodeInternal:          http.StatusInternalServerError,
}

// StatusOf maps a result code to its HTTP status.
func StatusOf(code errs.Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NewErrorHandler renders every error as {"code", "message"}. OTP failures and
// internal errors get fixed messages so the response never says why.
func NewErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := render(err)
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request().Context(), "request failed",
				"method", c.Request().Method, "path", c.Path(), "code", body.Code, "error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.ErrorContext(c.Request().Context(), "failed to write error response", "error", err)
		}
	}
}

func render(err error) (int, ErrorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code := errs.CodeInternal
		switch he.Code {
		case http.StatusUnauthorized:
			code = errs.CodeNotAuthorized
		case http.StatusNotFound:
			code = errs.CodeNotFound
		case http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusRequestEntityTooLarge:
			code = errs.CodeValidationFailed
		case http.StatusMethodNotAllowed:
			code = errs.CodeNotFound
		}
		message, _ := he.Message.(string)
		if message == "" {
			message = http.StatusText(he.Code)
		}
		return he.Code, ErrorResponse{Code: code, Message: message}
	}

	code := errs.CodeOf(err)
	message := err.Error()
	switch code {
	case errs.CodeOTPInvalid:
		message = "delivery code is invalid"
	case errs.CodeInternal:
		message = "internal error"
	case errs.CodeUnavailable:
		message = "a dependency is unavailable, retry later"
	}
	return StatusOf(code), ErrorResponse{Code: code, Message: message}
}
