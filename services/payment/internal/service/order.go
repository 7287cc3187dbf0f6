package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/money"
	"github.com/Skotchmaster/storefront/services/payment/internal/models"
	"github.com/Skotchmaster/storefront/services/payment/internal/transport"
)

type OrderService struct {
	Repo   OrderRepository
	Events events.Publisher
}

// CreateOrder records a cash-on-delivery or pre-paid order. Such orders start
// as pending; only a verified payment produces a paid order.
func (s *OrderService) CreateOrder(ctx context.Context, req transport.CreateOrderRequest) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.create")

	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return nil, fmt.Errorf("%w: customerName required", ErrValidation)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: items required", ErrValidation)
	}
	if req.TotalAmount.IsNegative() {
		return nil, fmt.Errorf("%w: totalAmount must be >= 0", ErrValidation)
	}
	for i := range req.Items {
		if req.Items[i].Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
		if req.Items[i].Price.IsNegative() {
			return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
		}
	}
	currency, err := money.NormalizeCurrency(req.Currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	order := &models.Order{
		CustomerName:    name,
		CustomerEmail:   strings.TrimSpace(req.CustomerEmail),
		CustomerPhone:   req.CustomerPhone,
		TotalAmount:     req.TotalAmount,
		Currency:        currency,
		Status:          models.OrderStatusPending,
		ShippingAddress: req.ShippingAddress,
		Items:           req.Items,
		Source:          strings.TrimSpace(req.Source),
	}

	created, err := s.Repo.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	if s.Events != nil {
		ev := events.OrderEvent{
			Type:       events.TypeOrderCreated,
			OrderID:    created.ID.String(),
			Amount:     created.TotalAmount.String(),
			Status:     created.Status,
			OccurredAt: time.Now().UTC(),
		}
		if err := s.Events.PublishEvent(ctx, events.TopicPayment, created.ID.String(), ev); err != nil {
			l.Error("publish_error", "topic", events.TopicPayment, "type", ev.Type, "error", err)
		}
	}

	return created, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return order, err
}

func (s *OrderService) ListOrders(ctx context.Context, email string, offset, limit int) (int64, []models.Order, error) {
	return s.Repo.ListOrders(ctx, strings.TrimSpace(email), offset, limit)
}

// UpdateStatus applies an admin status change. An order can only become paid
// when it already carries a verified payment id.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Order, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !models.ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	order, err := s.Repo.UpdateStatus(ctx, id, status, func(o *models.Order) error {
		if status == models.OrderStatusPaid && (o.PaymentID == nil || *o.PaymentID == "") {
			return fmt.Errorf("%w: paid status requires a verified payment", ErrValidation)
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return order, err
}
