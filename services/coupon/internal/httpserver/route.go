package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/pkg/db"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type Deps struct {
	CouponHandler *CouponHTTP
	JWTSecret     []byte
	DB            *gorm.DB
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context(), d.DB); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := middleware.New(d.JWTSecret)

	coupons := e.Group("/coupons")
	coupons.POST("/validate", d.CouponHandler.Validate)
	coupons.POST("/redeem", d.CouponHandler.Redeem, authMW.RequireAuth)

	admin := coupons.Group("", authMW.RequireAdmin)
	admin.POST("", d.CouponHandler.Create)
	admin.GET("", d.CouponHandler.List)
}
