package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/services/payment/internal/service"
	"github.com/Skotchmaster/storefront/services/payment/internal/transport"
)

type SettingsHTTP struct {
	Svc *service.SettingsService
}

func (h *SettingsHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "settings.list")

	rows, err := h.Svc.List(ctx)
	if err != nil {
		return respondError(c, l, "list_settings", err)
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *SettingsHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "settings.update")

	var req transport.UpdateSettingsRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c, l, "update_settings", err)
	}

	if err := h.Svc.Update(ctx, req.Settings); err != nil {
		return respondError(c, l, "update_settings", err)
	}
	return c.NoContent(http.StatusNoContent)
}
