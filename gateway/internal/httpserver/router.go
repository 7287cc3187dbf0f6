package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/gateway/internal/middleware"
	"github.com/Skotchmaster/storefront/pkg/middleware/csrf"
)

const apiPrefix = "/api/v1"

type Deps struct {
	Payment Upstream
	Coupon  Upstream

	CSRFConfig csrf.Config
	Logger     *slog.Logger
}

func Register(e *echo.Echo, d *Deps) error {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, m := range middleware.Common(d.Logger) {
		e.Use(m)
	}

	paymentProxy, err := proxyTo(d.Payment, apiPrefix)
	if err != nil {
		return err
	}

	couponProxy, err := proxyTo(d.Coupon, apiPrefix)
	if err != nil {
		return err
	}

	api := e.Group(apiPrefix)
	api.Use(csrf.Middleware(d.CSRFConfig))

	api.Any("/payment/*", paymentProxy)
	api.Any("/orders", paymentProxy)
	api.Any("/orders/*", paymentProxy)
	api.Any("/settings", paymentProxy)
	api.Any("/coupons", couponProxy)
	api.Any("/coupons/*", couponProxy)

	return nil
}
