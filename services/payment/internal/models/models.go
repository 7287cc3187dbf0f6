package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/pkg/money"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusRefunded  = "refunded"
	OrderStatusCancelled = "cancelled"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
)

const (
	SourceWebsite = "website"
	GuestName     = "Guest"
)

func ValidStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusRefunded,
		OrderStatusCancelled, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
}

type Address struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// UnmarshalJSON also accepts a single free-form string, kept in Line1.
func (a *Address) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Address{Line1: s}
		return nil
	}
	type plain Address
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*a = Address(p)
	return nil
}

type Order struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"          json:"id"`
	CustomerName    string          `gorm:"not null"                      json:"customerName"`
	CustomerEmail   string          `gorm:"index"                         json:"customerEmail"`
	CustomerPhone   *string         `                                     json:"customerPhone,omitempty"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null"   json:"totalAmount"`
	Currency        string          `gorm:"size:3;not null"               json:"currency"`
	Status          string          `gorm:"index;not null"                json:"status"`
	PaymentID       *string         `gorm:"uniqueIndex"                   json:"paymentId,omitempty"`
	GatewayOrderID  *string         `gorm:"index"                         json:"gatewayOrderId,omitempty"`
	ShippingAddress Address         `gorm:"serializer:json;type:text"     json:"shippingAddress"`
	Items           []OrderItem     `gorm:"serializer:json;type:text"     json:"items"`
	Source          string          `gorm:"not null"                      json:"source"`
	CreatedAt       time.Time       `                                     json:"createdAt"`
	UpdatedAt       time.Time       `                                     json:"updatedAt"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Source == "" {
		o.Source = SourceWebsite
	}
	if o.Currency == "" {
		o.Currency = money.DefaultCurrency
	}
	if o.Items == nil {
		o.Items = []OrderItem{}
	}
	return nil
}

func (Order) TableName() string {
	return "orders"
}

// Setting is a flat key/value configuration row, e.g. gateway credentials.
type Setting struct {
	Key       string    `gorm:"primaryKey;size:128" json:"key"`
	Value     string    `gorm:"not null"            json:"value"`
	UpdatedAt time.Time `                           json:"updatedAt"`
}

func (Setting) TableName() string {
	return "settings"
}
