package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/services/payment/internal/models"
)

type SettingsLister interface {
	List(ctx context.Context) ([]models.Setting, error)
}

type SettingsWriter interface {
	UpsertMany(ctx context.Context, values map[string]string) error
}

type SettingsService struct {
	Store  SettingsWriter
	Lister SettingsLister
}

// List returns all settings with secret values masked.
func (s *SettingsService) List(ctx context.Context) ([]models.Setting, error) {
	rows, err := s.Lister.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Value = logging.Mask(rows[i].Key, rows[i].Value)
	}
	return rows, nil
}

// Update trims and stores values. A failed write leaves every key unchanged.
func (s *SettingsService) Update(ctx context.Context, values map[string]string) error {
	l := logging.FromContext(ctx).With("svc", "settings.update")

	if len(values) == 0 {
		return fmt.Errorf("%w: no settings given", ErrValidation)
	}

	clean := make(map[string]string, len(values))
	keys := make([]string, 0, len(values))
	for k, v := range values {
		k = strings.TrimSpace(k)
		if k == "" {
			return fmt.Errorf("%w: empty setting key", ErrValidation)
		}
		clean[k] = strings.TrimSpace(v)
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if err := s.Store.UpsertMany(ctx, clean); err != nil {
		l.Error("settings_update_error", "keys", keys, "error", err)
		return err
	}
	for _, k := range keys {
		l.Info("setting_updated", logging.Secret(k, clean[k]))
	}
	return nil
}
