package service

import (
	"context"
	"fmt"
	"os"

	"github.com/Skotchmaster/storefront/services/payment/internal/gateway"
)

const (
	KeyGatewayKeyID     = "RAZORPAY_KEY_ID"
	KeyGatewayKeySecret = "RAZORPAY_KEY_SECRET"
)

type SettingsStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	GetMany(ctx context.Context, keys []string) (map[string]string, error)
	Upsert(ctx context.Context, key, value string) error
}

// CredentialResolver looks gateway keys up in the environment first and in
// the settings store second.
type CredentialResolver struct {
	Store     SettingsStore
	LookupEnv func(key string) (string, bool)
}

func NewCredentialResolver(store SettingsStore) *CredentialResolver {
	return &CredentialResolver{Store: store, LookupEnv: os.LookupEnv}
}

func (r *CredentialResolver) Resolve(ctx context.Context) (gateway.Credentials, error) {
	keyID := r.env(KeyGatewayKeyID)
	keySecret := r.env(KeyGatewayKeySecret)

	if keyID == "" || keySecret == "" {
		stored, err := r.Store.GetMany(ctx, []string{KeyGatewayKeyID, KeyGatewayKeySecret})
		if err != nil {
			return gateway.Credentials{}, fmt.Errorf("load gateway settings: %w", err)
		}
		if keyID == "" {
			keyID = stored[KeyGatewayKeyID]
		}
		if keySecret == "" {
			keySecret = stored[KeyGatewayKeySecret]
		}
	}

	if keyID == "" || keySecret == "" {
		return gateway.Credentials{}, fmt.Errorf("%w: set %s and %s in the environment or admin settings",
			ErrConfigurationMissing, KeyGatewayKeyID, KeyGatewayKeySecret)
	}
	return gateway.Credentials{KeyID: keyID, KeySecret: keySecret}, nil
}

func (r *CredentialResolver) env(key string) string {
	if r.LookupEnv == nil {
		return ""
	}
	v, ok := r.LookupEnv(key)
	if !ok {
		return ""
	}
	return v
}
