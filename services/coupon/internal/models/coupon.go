package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	DiscountPercentage = "percentage"
	DiscountFlat       = "flat"
)

type Coupon struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey"              json:"id"`
	Code           string           `gorm:"size:64;uniqueIndex;not null"      json:"code"`
	DiscountType   string           `gorm:"size:16;not null"                  json:"discountType"`
	DiscountValue  decimal.Decimal  `gorm:"type:numeric(12,2);not null"       json:"discountValue"`
	MinOrderAmount decimal.Decimal  `gorm:"type:numeric(12,2);not null"       json:"minOrderAmount"`
	MaxDiscount    *decimal.Decimal `gorm:"type:numeric(12,2)"                json:"maxDiscount,omitempty"`
	ExpiryDate     *time.Time       `                                         json:"expiryDate,omitempty"`
	UsageLimit     int              `gorm:"not null"                          json:"usageLimit"`
	UsedCount      int              `gorm:"not null"                          json:"usedCount"`
	Active         bool             `gorm:"not null"                          json:"active"`
	CreatedAt      time.Time        `                                         json:"createdAt"`
	UpdatedAt      time.Time        `                                         json:"updatedAt"`
}

func (c *Coupon) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.Code = NormalizeCode(c.Code)
	return nil
}

func (Coupon) TableName() string {
	return "coupons"
}

// NormalizeCode makes codes case-insensitive: "save10" and "SAVE10" are the same coupon.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
