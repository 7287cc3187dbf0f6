package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/pkg/money"
	"github.com/Skotchmaster/storefront/services/coupon/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Evaluate applies the coupon rules to orderAmount at instant now. Checks run
// in a fixed order and the first failing one wins: active, expiry, usage
// limit, minimum order amount.
//
// Percentage discounts are rounded to two places and capped at MaxDiscount
// when one is set. Flat discounts are returned as configured, even when they
// exceed the order amount.
func Evaluate(c *models.Coupon, orderAmount decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if !c.Active {
		return decimal.Zero, ErrInactive
	}
	if c.ExpiryDate != nil && c.ExpiryDate.Before(now) {
		return decimal.Zero, ErrExpired
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return decimal.Zero, ErrUsageLimitReached
	}
	if orderAmount.LessThan(c.MinOrderAmount) {
		return decimal.Zero, ErrBelowMinimum
	}

	switch c.DiscountType {
	case models.DiscountFlat:
		return c.DiscountValue, nil
	case models.DiscountPercentage:
		discount := money.Percent(orderAmount, c.DiscountValue)
		if c.MaxDiscount != nil && c.MaxDiscount.IsPositive() && discount.GreaterThan(*c.MaxDiscount) {
			discount = *c.MaxDiscount
		}
		return discount, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: unknown discount type %q", ErrValidation, c.DiscountType)
	}
}
