package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/money"
	"github.com/Skotchmaster/storefront/services/payment/internal/gateway"
	"github.com/Skotchmaster/storefront/services/payment/internal/models"
	"github.com/Skotchmaster/storefront/services/payment/internal/transport"
)

type Gateway interface {
	CreateOrder(ctx context.Context, req gateway.CreateOrderRequest) (*gateway.Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*gateway.Payment, error)
	Refund(ctx context.Context, paymentID string, amountMinor *int64) (*gateway.Refund, error)
}

// GatewayFactory builds a gateway client for freshly resolved credentials.
type GatewayFactory func(creds gateway.Credentials) Gateway

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreatePaidOrder(ctx context.Context, order *models.Order) (*models.Order, bool, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, email string, offset, limit int) (int64, []models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, check func(*models.Order) error) (*models.Order, error)
	UpdateStatusByPaymentID(ctx context.Context, paymentID, status string) (int64, error)
}

type PaymentService struct {
	Repo        OrderRepository
	Credentials *CredentialResolver
	NewGateway  GatewayFactory
	Events      events.Publisher
}

type CreateIntentInput struct {
	Amount   decimal.Decimal
	Currency string
	Receipt  string
}

type SettleInput struct {
	OrderRef   string
	PaymentRef string
	Signature  string
	Details    json.RawMessage
}

type SettleResult struct {
	Order          *models.Order
	AlreadySettled bool
}

type RefundResult struct {
	Refund  *gateway.Refund
	Updated int64
}

func (s *PaymentService) ResolveCredentials(ctx context.Context) (gateway.Credentials, error) {
	return s.Credentials.Resolve(ctx)
}

// CreatePaymentIntent reserves an auto-captured order at the gateway. Nothing
// is stored locally until the payment is verified.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, in CreateIntentInput) (*gateway.Order, error) {
	l := logging.FromContext(ctx).With("svc", "payment.create_intent")

	minor, err := money.PositiveMinor(in.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}
	currency, err := money.NormalizeCurrency(in.Currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	creds, err := s.Credentials.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	receipt := strings.TrimSpace(in.Receipt)
	if receipt == "" {
		receipt = NewReceipt()
	}

	order, err := s.NewGateway(creds).CreateOrder(ctx, gateway.CreateOrderRequest{
		Amount:         minor,
		Currency:       currency,
		Receipt:        receipt,
		PaymentCapture: 1,
	})
	if err != nil {
		l.Error("create_intent_error", "reason", "gateway rejected order", "receipt", receipt, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrGateway, err)
	}

	l.Info("create_intent_success", "gateway_order_id", order.ID, "amount_minor", minor, "currency", currency)
	return order, nil
}

// VerifyAndSettle checks the checkout signature and stores exactly one paid
// order per payment. Repeated calls return the order stored first.
func (s *PaymentService) VerifyAndSettle(ctx context.Context, in SettleInput) (*SettleResult, error) {
	l := logging.FromContext(ctx).With("svc", "payment.verify_and_settle")

	orderRef := strings.TrimSpace(in.OrderRef)
	paymentRef := strings.TrimSpace(in.PaymentRef)
	signature := strings.TrimSpace(in.Signature)
	if orderRef == "" || paymentRef == "" || signature == "" {
		return nil, fmt.Errorf("%w: razorpay_order_id, razorpay_payment_id and razorpay_signature are required", ErrMissingFields)
	}

	creds, err := s.Credentials.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	if !VerifySignature(creds.KeySecret, orderRef, paymentRef, signature) {
		l.Warn("signature_mismatch",
			"event", "security.signature_mismatch",
			"gateway_order_id", orderRef,
			"payment_id", paymentRef,
		)
		return nil, ErrSignatureMismatch
	}

	details := parseOrderDetails(l, in.Details)
	order := buildPaidOrder(l, orderRef, paymentRef, details)

	stored, created, err := s.Repo.CreatePaidOrder(ctx, order)
	if err != nil {
		// the payment is verified but not recorded; needs reconciliation
		l.Error("settle_persist_error", "payment_id", paymentRef, "gateway_order_id", orderRef, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if !created {
		l.Info("settle_duplicate", "payment_id", paymentRef, "order_id", stored.ID)
		return &SettleResult{Order: stored, AlreadySettled: true}, nil
	}

	s.publish(ctx, l, stored.ID.String(), events.OrderEvent{
		Type:       events.TypeOrderPaid,
		OrderID:    stored.ID.String(),
		PaymentID:  paymentRef,
		Amount:     stored.TotalAmount.String(),
		Status:     stored.Status,
		OccurredAt: time.Now().UTC(),
	})

	l.Info("settle_success", "payment_id", paymentRef, "order_id", stored.ID)
	return &SettleResult{Order: stored}, nil
}

// gateway payment ids look like pay_XXXXXXXXXXXXXX
var paymentRefPattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

func checkPaymentRef(paymentRef string) (string, error) {
	paymentRef = strings.TrimSpace(paymentRef)
	if paymentRef == "" {
		return "", ErrMissingPaymentRef
	}
	if !paymentRefPattern.MatchString(paymentRef) {
		return "", fmt.Errorf("%w: malformed payment id %q", ErrValidation, paymentRef)
	}
	return paymentRef, nil
}

func (s *PaymentService) FetchPayment(ctx context.Context, paymentRef string) (*gateway.Payment, error) {
	paymentRef, err := checkPaymentRef(paymentRef)
	if err != nil {
		return nil, err
	}

	creds, err := s.Credentials.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.NewGateway(creds).FetchPayment(ctx, paymentRef)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGateway, err)
	}
	return p, nil
}

// Refund refunds amount (or the whole payment when nil) and marks every order
// carrying paymentRef as refunded.
func (s *PaymentService) Refund(ctx context.Context, paymentRef string, amount *decimal.Decimal) (*RefundResult, error) {
	l := logging.FromContext(ctx).With("svc", "payment.refund")

	paymentRef, err := checkPaymentRef(paymentRef)
	if err != nil {
		return nil, err
	}

	var amountMinor *int64
	if amount != nil {
		minor, err := money.PositiveMinor(*amount)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidAmount, err)
		}
		amountMinor = &minor
	}

	creds, err := s.Credentials.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	refund, err := s.NewGateway(creds).Refund(ctx, paymentRef, amountMinor)
	if err != nil {
		l.Error("refund_error", "reason", "gateway rejected refund", "payment_id", paymentRef, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrGateway, err)
	}

	updated, err := s.Repo.UpdateStatusByPaymentID(ctx, paymentRef, models.OrderStatusRefunded)
	if err != nil {
		l.Error("refund_persist_error", "payment_id", paymentRef, "refund_id", refund.ID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.publish(ctx, l, paymentRef, events.OrderEvent{
		Type:       events.TypeOrderRefunded,
		PaymentID:  paymentRef,
		Amount:     money.FromMinor(refund.Amount).String(),
		Status:     models.OrderStatusRefunded,
		Affected:   updated,
		OccurredAt: time.Now().UTC(),
	})

	l.Info("refund_success", "payment_id", paymentRef, "refund_id", refund.ID, "updated_orders", updated)
	return &RefundResult{Refund: refund, Updated: updated}, nil
}

func (s *PaymentService) publish(ctx context.Context, l *slog.Logger, key string, ev events.OrderEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishEvent(ctx, events.TopicPayment, key, ev); err != nil {
		l.Error("publish_error", "topic", events.TopicPayment, "type", ev.Type, "error", err)
	}
}

// NewReceipt returns a random receipt id that fits the gateway's 40 char limit.
func NewReceipt() string {
	return "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// parseOrderDetails decodes each field on its own so a malformed field falls
// back to its default without discarding the rest.
func parseOrderDetails(l *slog.Logger, raw json.RawMessage) transport.OrderDetails {
	var d transport.OrderDetails
	if len(raw) == 0 || string(raw) == "null" {
		return d
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		l.Warn("order_details_unparsed", "reason", "orderDetails is not an object, using defaults", "error", err)
		return d
	}

	d.CustomerName = decodeField[string](l, fields, "customerName")
	d.CustomerEmail = decodeField[string](l, fields, "customerEmail")
	d.CustomerPhone = decodeField[string](l, fields, "customerPhone")
	d.TotalAmount = decodeField[decimal.Decimal](l, fields, "totalAmount")
	d.Currency = decodeField[string](l, fields, "currency")
	d.ShippingAddress = decodeField[models.Address](l, fields, "shippingAddress")
	d.Source = decodeField[string](l, fields, "source")
	d.Items = parseItems(l, fields["items"])
	return d
}

// decodeField returns nil when the field is absent, null or of the wrong shape.
func decodeField[T any](l *slog.Logger, fields map[string]json.RawMessage, name string) *T {
	v, ok := fields[name]
	if !ok || string(v) == "null" {
		return nil
	}
	var out T
	if err := json.Unmarshal(v, &out); err != nil {
		l.Warn("order_details_field_unparsed", "field", name, "error", err)
		return nil
	}
	return &out
}

// parseItems keeps every item object. Item fields with the wrong type are left
// at their zero value.
func parseItems(l *slog.Logger, raw json.RawMessage) []models.OrderItem {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		l.Warn("order_details_field_unparsed", "field", "items", "error", err)
		return nil
	}

	items := make([]models.OrderItem, 0, len(elems))
	for i, elem := range elems {
		var item models.OrderItem
		if err := json.Unmarshal(elem, &item); err != nil {
			var typeErr *json.UnmarshalTypeError
			if !errors.As(err, &typeErr) {
				l.Warn("order_details_item_dropped", "index", i, "error", err)
				continue
			}
			l.Warn("order_details_item_field_unparsed", "index", i, "field", typeErr.Field, "error", err)
		}
		items = append(items, item)
	}
	return items
}

func buildPaidOrder(l *slog.Logger, orderRef, paymentRef string, d transport.OrderDetails) *models.Order {
	pid := paymentRef
	gid := orderRef

	order := &models.Order{
		CustomerName:   models.GuestName,
		TotalAmount:    decimal.Zero,
		Currency:       money.DefaultCurrency,
		Status:         models.OrderStatusPaid,
		PaymentID:      &pid,
		GatewayOrderID: &gid,
		Items:          []models.OrderItem{},
		Source:         models.SourceWebsite,
	}

	if d.CustomerName != nil && strings.TrimSpace(*d.CustomerName) != "" {
		order.CustomerName = strings.TrimSpace(*d.CustomerName)
	}
	if d.CustomerEmail != nil {
		order.CustomerEmail = strings.TrimSpace(*d.CustomerEmail)
	}
	if d.CustomerPhone != nil && strings.TrimSpace(*d.CustomerPhone) != "" {
		phone := strings.TrimSpace(*d.CustomerPhone)
		order.CustomerPhone = &phone
	}
	if d.TotalAmount != nil {
		if d.TotalAmount.IsNegative() {
			l.Warn("order_details_amount_negative", "payment_id", paymentRef, "amount", d.TotalAmount.String())
		} else {
			order.TotalAmount = *d.TotalAmount
		}
	}
	if d.Currency != nil {
		if c, err := money.NormalizeCurrency(*d.Currency); err == nil {
			order.Currency = c
		}
	}
	if d.ShippingAddress != nil {
		order.ShippingAddress = *d.ShippingAddress
	}
	if d.Items != nil {
		order.Items = d.Items
	}
	if d.Source != nil && strings.TrimSpace(*d.Source) != "" {
		order.Source = strings.TrimSpace(*d.Source)
	}
	return order
}
