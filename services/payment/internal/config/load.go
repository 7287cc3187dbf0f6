package config

import (
	"time"

	"github.com/Skotchmaster/storefront/pkg/config"
	"github.com/Skotchmaster/storefront/services/payment/internal/gateway"
)

type ServiceConfig struct {
	config.Config

	GatewayBaseURL string
	GatewayTimeout time.Duration
}

func Load() ServiceConfig {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "payment"
	}

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")

	return ServiceConfig{
		Config:         cfg,
		GatewayBaseURL: config.EnvDefault("GATEWAY_BASE_URL", gateway.DefaultBaseURL),
		GatewayTimeout: config.EnvDurationDefault("GATEWAY_TIMEOUT", gateway.DefaultTimeout),
	}
}
