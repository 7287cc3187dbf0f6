package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/services/payment/internal/service"
	"github.com/Skotchmaster/storefront/services/payment/internal/transport"
)

type PaymentHTTP struct {
	Svc *service.PaymentService
}

func (h *PaymentHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.create_order")

	var req transport.CreatePaymentOrderRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c, l, "create_payment_order", err)
	}

	order, err := h.Svc.CreatePaymentIntent(ctx, service.CreateIntentInput{
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
	})
	if err != nil {
		return respondError(c, l, "create_payment_order", err)
	}

	l.Info("create_payment_order_success", "gateway_order_id", order.ID)
	return c.JSON(http.StatusOK, transport.CreatePaymentOrderResponse{Success: true, Order: order})
}

func (h *PaymentHTTP) VerifyPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.verify_payment")

	var req transport.VerifyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c, l, "verify_payment", err)
	}

	res, err := h.Svc.VerifyAndSettle(ctx, service.SettleInput{
		OrderRef:   req.RazorpayOrderID,
		PaymentRef: req.RazorpayPaymentID,
		Signature:  req.RazorpaySignature,
		Details:    req.OrderDetails,
	})
	if err != nil {
		return respondError(c, l, "verify_payment", err)
	}

	msg := "Payment verified and order created"
	if res.AlreadySettled {
		msg = "Payment already verified"
	}

	l.Info("verify_payment_success", "order_id", res.Order.ID, "duplicate", res.AlreadySettled)
	return c.JSON(http.StatusOK, transport.VerifyPaymentResponse{Success: true, Message: msg, Order: res.Order})
}

func (h *PaymentHTTP) GetPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.get_payment")

	p, err := h.Svc.FetchPayment(ctx, c.Param("paymentId"))
	if err != nil {
		return respondError(c, l, "get_payment", err)
	}

	return c.JSON(http.StatusOK, transport.PaymentResponse{Success: true, Payment: p})
}

func (h *PaymentHTTP) Refund(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.refund")

	var req transport.RefundRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c, l, "refund", err)
	}

	res, err := h.Svc.Refund(ctx, req.PaymentID, req.Amount)
	if err != nil {
		return respondError(c, l, "refund", err)
	}

	l.Info("refund_success", "payment_id", req.PaymentID, "updated_orders", res.Updated)
	return c.JSON(http.StatusOK, transport.RefundResponse{Success: true, Refund: res.Refund, Updated: res.Updated})
}
