package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/services/coupon/internal/models"
	"github.com/Skotchmaster/storefront/services/coupon/internal/transport"
)

type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) (bool, error)
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	List(ctx context.Context, offset, limit int) (int64, []models.Coupon, error)
	IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error)
}

type CouponService struct {
	Repo   CouponRepository
	Events events.Publisher
	Now    func() time.Time
}

type Result struct {
	CouponID uuid.UUID
	Code     string
	Discount decimal.Decimal
}

func (s *CouponService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Validate evaluates code against orderAmount without consuming it.
func (s *CouponService) Validate(ctx context.Context, code string, orderAmount decimal.Decimal) (*Result, error) {
	if models.NormalizeCode(code) == "" {
		return nil, fmt.Errorf("%w: code required", ErrValidation)
	}
	if orderAmount.IsNegative() {
		return nil, fmt.Errorf("%w: orderAmount must be >= 0", ErrValidation)
	}

	coupon, err := s.Repo.GetByCode(ctx, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	discount, err := Evaluate(coupon, orderAmount, s.now())
	if err != nil {
		return nil, err
	}
	return &Result{CouponID: coupon.ID, Code: coupon.Code, Discount: discount}, nil
}

// Redeem validates code and consumes one use of it.
func (s *CouponService) Redeem(ctx context.Context, code string, orderAmount decimal.Decimal) (*Result, error) {
	l := logging.FromContext(ctx).With("svc", "coupon.redeem")

	res, err := s.Validate(ctx, code, orderAmount)
	if err != nil {
		return nil, err
	}

	ok, err := s.Repo.IncrementUsage(ctx, res.CouponID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// lost a race against the last remaining use
		return nil, ErrUsageLimitReached
	}

	if s.Events != nil {
		ev := events.CouponEvent{
			Type:       events.TypeCouponRedeemed,
			CouponID:   res.CouponID.String(),
			Code:       res.Code,
			Discount:   res.Discount.String(),
			OccurredAt: time.Now().UTC(),
		}
		if err := s.Events.PublishEvent(ctx, events.TopicCoupon, res.Code, ev); err != nil {
			l.Error("publish_error", "topic", events.TopicCoupon, "type", ev.Type, "error", err)
		}
	}

	l.Info("coupon_redeemed", "code", res.Code, "discount", res.Discount.String())
	return res, nil
}

func (s *CouponService) Create(ctx context.Context, req transport.CreateCouponRequest) (*models.Coupon, error) {
	code := models.NormalizeCode(req.Code)
	if code == "" {
		return nil, fmt.Errorf("%w: code required", ErrValidation)
	}

	discountType := strings.ToLower(strings.TrimSpace(req.DiscountType))
	switch discountType {
	case models.DiscountPercentage:
		if req.DiscountValue.GreaterThan(hundred) {
			return nil, fmt.Errorf("%w: percentage must be <= 100", ErrValidation)
		}
	case models.DiscountFlat:
	default:
		return nil, fmt.Errorf("%w: discountType must be percentage or flat", ErrValidation)
	}
	if !req.DiscountValue.IsPositive() {
		return nil, fmt.Errorf("%w: discountValue must be > 0", ErrValidation)
	}
	if req.MinOrderAmount.IsNegative() {
		return nil, fmt.Errorf("%w: minOrderAmount must be >= 0", ErrValidation)
	}
	if req.MaxDiscount != nil && req.MaxDiscount.IsNegative() {
		return nil, fmt.Errorf("%w: maxDiscount must be >= 0", ErrValidation)
	}
	if req.UsageLimit < 0 {
		return nil, fmt.Errorf("%w: usageLimit must be >= 0", ErrValidation)
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	coupon := &models.Coupon{
		Code:           code,
		DiscountType:   discountType,
		DiscountValue:  req.DiscountValue,
		MinOrderAmount: req.MinOrderAmount,
		MaxDiscount:    req.MaxDiscount,
		ExpiryDate:     req.ExpiryDate,
		UsageLimit:     req.UsageLimit,
		Active:         active,
	}

	created, err := s.Repo.Create(ctx, coupon)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, code)
	}
	return coupon, nil
}

func (s *CouponService) List(ctx context.Context, offset, limit int) (int64, []models.Coupon, error) {
	return s.Repo.List(ctx, offset, limit)
}
