package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/pkg/db"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type Deps struct {
	PaymentHandler  *PaymentHTTP
	OrderHandler    *OrderHTTP
	SettingsHandler *SettingsHTTP
	JWTSecret       []byte
	DB              *gorm.DB
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

	payment := e.Group("/payment")
	payment.POST("/create-order", d.PaymentHandler.CreateOrder)
	payment.POST("/verify-payment", d.PaymentHandler.VerifyPayment)
	payment.GET("/payment/:paymentId", d.PaymentHandler.GetPayment)
	payment.POST("/refund", d.PaymentHandler.Refund, authMW.RequireAdmin)

	orders := e.Group("/orders")
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("/:id", d.OrderHandler.GetOrder)

	adminOrders := orders.Group("", authMW.RequireAdmin)
	adminOrders.GET("", d.OrderHandler.ListOrders)
	adminOrders.PATCH("/:id/status", d.OrderHandler.UpdateStatus)

	settings := e.Group("/settings", authMW.RequireAdmin)
	settings.GET("", d.SettingsHandler.List)
	settings.PUT("", d.SettingsHandler.Update)
}
