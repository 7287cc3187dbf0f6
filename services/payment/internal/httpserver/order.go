package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/pagination"
	"github.com/Skotchmaster/storefront/services/payment/internal/service"
	"github.com/Skotchmaster/storefront/services/payment/internal/transport"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c, l, "create_order", err)
	}

	order, err := h.Svc.CreateOrder(ctx, req)
	if err != nil {
		return respondError(c, l, "create_order", err)
	}

	l.Info("create_order_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("get_order_error", "status", 400, "reason", "id is not uuid", "error", err)
		return c.JSON(http.StatusBadRequest, transport.ErrorResponse{Error: "id is not uuid"})
	}

	order, err := h.Svc.GetOrder(ctx, id)
	if err != nil {
		return respondError(c, l, "get_order", err)
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_orders")

	page, offset, limit := pagination.Calculate(
		pagination.ParseIntDefault(c.QueryParam("page"), 1),
		pagination.ParseIntDefault(c.QueryParam("size"), pagination.DefaultPageSize),
	)

	total, items, err := h.Svc.ListOrders(ctx, c.QueryParam("email"), offset, limit)
	if err != nil {
		return respondError(c, l, "list_orders", err)
	}

	return c.JSON(http.StatusOK, transport.ListOrdersResponse{
		Data: items,
		Meta: pagination.NewMeta(page, limit, total),
	})
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("update_status_error", "status", 400, "reason", "id is not uuid", "error", err)
		return c.JSON(http.StatusBadRequest, transport.ErrorResponse{Error: "id is not uuid"})
	}

	var req transport.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c, l, "update_status", err)
	}

	order, err := h.Svc.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return respondError(c, l, "update_status", err)
	}

	l.Info("update_status_success", "order_id", order.ID, "new_status", order.Status)
	return c.JSON(http.StatusOK, order)
}
