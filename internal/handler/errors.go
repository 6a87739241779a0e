package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-booking/internal/apperrors"
)

type errorBody struct {
	Error *apperrors.AppError `json:"error"`
}

// ErrorHandler renders every error as {"error":{"code","message","field"}}.
// Unclassified errors become a generic 500 and are logged with their cause.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var appErr *apperrors.AppError
		var he *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
		case errors.As(err, &he):
			appErr = fromHTTPError(he)
		default:
			appErr = apperrors.As(err)
		}

		if appErr.Status >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request().Context(), "request failed",
				slog.String("method", c.Request().Method),
				slog.String("path", c.Path()),
				slog.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				slog.String("error", err.Error()))
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(appErr.Status)
			return
		}
		_ = c.JSON(appErr.Status, errorBody{Error: appErr})
	}
}

// fromHTTPError maps echo's own errors (unknown route, wrong method, body
// too large) onto the same envelope.
func fromHTTPError(he *echo.HTTPError) *apperrors.AppError {
	msg := http.StatusText(he.Code)
	if s, ok := he.Message.(string); ok && s != "" {
		msg = s
	}
	code := "HTTP_ERROR"
	switch he.Code {
	case http.StatusNotFound:
		code = "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		code = "METHOD_NOT_ALLOWED"
	case http.StatusUnauthorized:
		code = "UNAUTHENTICATED"
	case http.StatusForbidden:
		code = "FORBIDDEN"
	case http.StatusBadRequest:
		code = "INVALID_INPUT"
	case http.StatusRequestEntityTooLarge:
		code = "PAYLOAD_TOO_LARGE"
	case http.StatusInternalServerError:
		code = "INTERNAL_ERROR"
	}
	return &apperrors.AppError{Code: code, Message: msg, Status: he.Code, Err: he}
}
