package events

import "time"

const (
	TopicPayment = "payment_events"
	TopicCoupon  = "coupon_events"
)

const (
	TypeOrderCreated   = "order_created"
	TypeOrderPaid      = "order_paid"
	TypeOrderRefunded  = "order_refunded"
	TypeCouponRedeemed = "coupon_redeemed"
)

type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id,omitempty"`
	PaymentID  string    `json:"payment_id,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	Status     string    `json:"status,omitempty"`
	Affected   int64     `json:"affected,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type CouponEvent struct {
	Type       string    `json:"type"`
	CouponID   string    `json:"coupon_id"`
	Code       string    `json:"code"`
	Discount   string    `json:"discount"`
	OccurredAt time.Time `json:"occurred_at"`
}
