package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/pagination"
	"github.com/Skotchmaster/storefront/services/coupon/internal/service"
	"github.com/Skotchmaster/storefront/services/coupon/internal/transport"
)

type CouponHTTP struct {
	Svc *service.CouponService
}

func (h *CouponHTTP) Validate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.validate")

	var req transport.ValidateRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("validate_coupon_error", "status", 400, "reason", "invalid body", "error", err)
		return c.JSON(http.StatusBadRequest, transport.ErrorResponse{Error: "invalid body"})
	}

	res, err := h.Svc.Validate(ctx, req.Code, req.OrderAmount)
	if err != nil {
		return respondError(c, l, "validate_coupon", err)
	}

	return c.JSON(http.StatusOK, transport.ValidateResponse{
		Valid:    true,
		Discount: res.Discount,
		CouponID: res.CouponID,
		Code:     res.Code,
	})
}

func (h *CouponHTTP) Redeem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.redeem")

	var req transport.ValidateRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("redeem_coupon_error", "status", 400, "reason", "invalid body", "error", err)
		return c.JSON(http.StatusBadRequest, transport.ErrorResponse{Error: "invalid body"})
	}

	res, err := h.Svc.Redeem(ctx, req.Code, req.OrderAmount)
	if err != nil {
		return respondError(c, l, "redeem_coupon", err)
	}

	return c.JSON(http.StatusOK, transport.ValidateResponse{
		Valid:    true,
		Discount: res.Discount,
		CouponID: res.CouponID,
		Code:     res.Code,
	})
}

func (h *CouponHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.create")

	var req transport.CreateCouponRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_coupon_error", "status", 400, "reason", "invalid body", "error", err)
		return c.JSON(http.StatusBadRequest, transport.ErrorResponse{Error: "invalid body"})
	}

	coupon, err := h.Svc.Create(ctx, req)
	if err != nil {
		return respondError(c, l, "create_coupon", err)
	}

	l.Info("create_coupon_success", "code", coupon.Code)
	return c.JSON(http.StatusCreated, coupon)
}

func (h *CouponHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.list")

	page, offset, limit := pagination.Calculate(
		pagination.ParseIntDefault(c.QueryParam("page"), 1),
		pagination.ParseIntDefault(c.QueryParam("size"), pagination.DefaultPageSize),
	)

	total, items, err := h.Svc.List(ctx, offset, limit)
	if err != nil {
		return respondError(c, l, "list_coupons", err)
	}

	return c.JSON(http.StatusOK, transport.ListCouponsResponse{
		Data: items,
		Meta: pagination.NewMeta(page, limit, total),
	})
}

func respondError(c echo.Context, l *slog.Logger, op string, err error) error {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateCode):
		status = http.StatusConflict
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInactive),
		errors.Is(err, service.ErrExpired),
		errors.Is(err, service.ErrUsageLimitReached),
		errors.Is(err, service.ErrBelowMinimum):
	default:
		l.Error(op+"_error", "status", 500, "reason", "internal error", "error", err)
		return c.JSON(http.StatusInternalServerError, transport.ErrorResponse{Error: "internal error"})
	}

	l.Warn(op+"_error", "status", status, "reason", err.Error())
	return c.JSON(status, transport.ErrorResponse{Error: err.Error()})
}
