package transport

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/pkg/pagination"
	"github.com/Skotchmaster/storefront/services/payment/internal/gateway"
	"github.com/Skotchmaster/storefront/services/payment/internal/models"
)

type CreatePaymentOrderRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Receipt  string          `json:"receipt"`
}

type CreatePaymentOrderResponse struct {
	Success bool           `json:"success"`
	Order   *gateway.Order `json:"order"`
}

// VerifyPaymentRequest keeps orderDetails raw: it is only parsed after the
// signature has been checked.
type VerifyPaymentRequest struct {
	RazorpayOrderID   string          `json:"razorpay_order_id"`
	RazorpayPaymentID string          `json:"razorpay_payment_id"`
	RazorpaySignature string          `json:"razorpay_signature"`
	OrderDetails      json.RawMessage `json:"orderDetails"`
}

type VerifyPaymentResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Order   *models.Order `json:"order"`
}

// OrderDetails is the customer-supplied part of a checkout. Every field is optional.
type OrderDetails struct {
	CustomerName    *string            `json:"customerName"`
	CustomerEmail   *string            `json:"customerEmail"`
	CustomerPhone   *string            `json:"customerPhone"`
	TotalAmount     *decimal.Decimal   `json:"totalAmount"`
	Currency        *string            `json:"currency"`
	ShippingAddress *models.Address    `json:"shippingAddress"`
	Items           []models.OrderItem `json:"items"`
	Source          *string            `json:"source"`
}

type PaymentResponse struct {
	Success bool             `json:"success"`
	Payment *gateway.Payment `json:"payment"`
}

type RefundRequest struct {
	PaymentID string           `json:"paymentId"`
	Amount    *decimal.Decimal `json:"amount"`
}

type RefundResponse struct {
	Success bool            `json:"success"`
	Refund  *gateway.Refund `json:"refund"`
	Updated int64           `json:"updatedOrders"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type CreateOrderRequest struct {
	CustomerName    string             `json:"customerName"`
	CustomerEmail   string             `json:"customerEmail"`
	CustomerPhone   *string            `json:"customerPhone"`
	TotalAmount     decimal.Decimal    `json:"totalAmount"`
	Currency        string             `json:"currency"`
	ShippingAddress models.Address     `json:"shippingAddress"`
	Items           []models.OrderItem `json:"items"`
	Source          string             `json:"source"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type ListOrdersResponse struct {
	Data []models.Order  `json:"data"`
	Meta pagination.Meta `json:"meta"`
}

type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings"`
}
