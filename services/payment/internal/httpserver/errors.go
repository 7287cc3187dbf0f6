package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/services/payment/internal/service"
	"github.com/Skotchmaster/storefront/services/payment/internal/transport"
)

type failure struct {
	status      int
	message     string
	withDetails bool
}

// classify maps service sentinels onto HTTP failures. Details are only echoed
// for configuration and gateway problems, which an operator can act on.
func classify(err error) failure {
	switch {
	case errors.Is(err, service.ErrInvalidAmount):
		return failure{status: http.StatusBadRequest, message: "invalid amount"}
	case errors.Is(err, service.ErrMissingFields):
		return failure{status: http.StatusBadRequest, message: "missing required payment fields"}
	case errors.Is(err, service.ErrSignatureMismatch):
		return failure{status: http.StatusBadRequest, message: "invalid payment signature"}
	case errors.Is(err, service.ErrMissingPaymentRef):
		return failure{status: http.StatusBadRequest, message: "payment id is required"}
	case errors.Is(err, service.ErrValidation):
		return failure{status: http.StatusBadRequest, message: "invalid body", withDetails: true}
	case errors.Is(err, service.ErrNotFound):
		return failure{status: http.StatusNotFound, message: "not found"}
	case errors.Is(err, service.ErrConfigurationMissing):
		return failure{status: http.StatusInternalServerError, message: "payment gateway is not configured", withDetails: true}
	case errors.Is(err, service.ErrGateway):
		return failure{status: http.StatusBadGateway, message: "payment gateway request failed", withDetails: true}
	case errors.Is(err, service.ErrPersistence):
		return failure{status: http.StatusInternalServerError, message: "payment verified but order could not be saved"}
	default:
		return failure{status: http.StatusInternalServerError, message: "internal error"}
	}
}

func respondError(c echo.Context, l *slog.Logger, op string, err error) error {
	f := classify(err)
	if f.status >= http.StatusInternalServerError {
		l.Error(op+"_error", "status", f.status, "reason", f.message, "error", err)
	} else {
		l.Warn(op+"_error", "status", f.status, "reason", f.message, "error", err)
	}

	body := transport.ErrorResponse{Success: false, Error: f.message}
	if f.withDetails {
		body.Details = err.Error()
	}
	return c.JSON(f.status, body)
}

func badBody(c echo.Context, l *slog.Logger, op string, err error) error {
	l.Warn(op+"_error", "status", 400, "reason", "invalid body", "error", err)
	return c.JSON(http.StatusBadRequest, transport.ErrorResponse{Success: false, Error: "invalid body"})
}
