package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/services/payment/internal/models"
)

var ErrMissingPaymentID = errors.New("payment id required")

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.DB.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// CreatePaidOrder inserts order unless a row with the same payment_id already
// exists, in which case the stored row is returned and created is false.
// The unique index on payment_id makes this safe under concurrent duplicates.
func (r *GormRepo) CreatePaidOrder(ctx context.Context, order *models.Order) (stored *models.Order, created bool, err error) {
	if order.PaymentID == nil || *order.PaymentID == "" {
		return nil, false, ErrMissingPaymentID
	}

	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_id"}},
			DoNothing: true,
		}).
		Create(order)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return order, true, nil
	}

	existing, err := r.GetOrderByPaymentID(ctx, *order.PaymentID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) GetOrderByPaymentID(ctx context.Context, paymentID string) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Where("payment_id = ?", paymentID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, email string, offset, limit int) (int64, []models.Order, error) {
	byEmail := func(db *gorm.DB) *gorm.DB {
		if email == "" {
			return db
		}
		return db.Where("customer_email = ?", email)
	}

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).Scopes(byEmail).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	orders := make([]models.Order, 0, limit)
	if err := r.DB.WithContext(ctx).Scopes(byEmail).Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// UpdateStatus locks the order row, lets check reject the transition and
// then persists the new status.
func (r *GormRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, check func(*models.Order) error) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&order).Error; err != nil {
			return err
		}
		if check != nil {
			if err := check(&order); err != nil {
				return err
			}
		}
		if err := tx.Model(&order).Update("status", status).Error; err != nil {
			return err
		}
		order.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatusByPaymentID updates every order that shares paymentID.
func (r *GormRepo) UpdateStatusByPaymentID(ctx context.Context, paymentID, status string) (int64, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("payment_id = ?", paymentID).
		Update("status", status)
	return res.RowsAffected, res.Error
}
