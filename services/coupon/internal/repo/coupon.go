package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/services/coupon/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

// Create inserts coupon unless its code is taken; created reports which happened.
func (r *GormRepo) Create(ctx context.Context, coupon *models.Coupon) (created bool, err error) {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).
		Create(coupon)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.DB.WithContext(ctx).Where("code = ?", models.NormalizeCode(code)).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *GormRepo) List(ctx context.Context, offset, limit int) (int64, []models.Coupon, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Coupon{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Coupon
	if err := r.DB.WithContext(ctx).
		Order("created_at DESC").Order("code ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// IncrementUsage consumes one use of the coupon. The limit is checked in the
// same statement, so concurrent redemptions cannot overshoot it. ok is false
// when the coupon is exhausted or was deactivated in the meantime.
func (r *GormRepo) IncrementUsage(ctx context.Context, id uuid.UUID) (ok bool, err error) {
	res := r.DB.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ? AND active = ?", id, true).
		Where("(usage_limit = 0 OR used_count < usage_limit)").
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
