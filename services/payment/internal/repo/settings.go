package repo

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/services/payment/internal/models"
)

type SettingsRepo struct {
	DB *gorm.DB
}

func (r *SettingsRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var s models.Setting
	err := r.DB.WithContext(ctx).Where(map[string]any{"key": key}).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s.Value, true, nil
}

func (r *SettingsRepo) GetMany(ctx context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	var rows []models.Setting
	if err := r.DB.WithContext(ctx).Where(map[string]any{"key": keys}).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, s := range rows {
		out[s.Key] = s.Value
	}
	return out, nil
}

func (r *SettingsRepo) Upsert(ctx context.Context, key, value string) error {
	return upsertSetting(r.DB.WithContext(ctx), key, value)
}

// UpsertMany writes all values in one transaction: either every key is
// stored or none is.
func (r *SettingsRepo) UpsertMany(ctx context.Context, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, k := range keys {
			if err := upsertSetting(tx, k, values[k]); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertSetting(tx *gorm.DB, key, value string) error {
	s := models.Setting{Key: key, Value: value}
	return tx.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&s).Error
}

func (r *SettingsRepo) List(ctx context.Context) ([]models.Setting, error) {
	var rows []models.Setting
	if err := r.DB.WithContext(ctx).Order("key ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
