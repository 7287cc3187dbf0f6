package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/pkg/pagination"
	"github.com/Skotchmaster/storefront/services/coupon/internal/models"
)

type ValidateRequest struct {
	Code        string          `json:"code"`
	OrderAmount decimal.Decimal `json:"orderAmount"`
}

type ValidateResponse struct {
	Valid    bool            `json:"valid"`
	Discount decimal.Decimal `json:"discount"`
	CouponID uuid.UUID       `json:"couponId"`
	Code     string          `json:"code"`
}

type CreateCouponRequest struct {
	Code           string           `json:"code"`
	DiscountType   string           `json:"discountType"`
	DiscountValue  decimal.Decimal  `json:"discountValue"`
	MinOrderAmount decimal.Decimal  `json:"minOrderAmount"`
	MaxDiscount    *decimal.Decimal `json:"maxDiscount"`
	ExpiryDate     *time.Time       `json:"expiryDate"`
	UsageLimit     int              `json:"usageLimit"`
	Active         *bool            `json:"active"`
}

type ListCouponsResponse struct {
	Data []models.Coupon `json:"data"`
	Meta pagination.Meta `json:"meta"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
