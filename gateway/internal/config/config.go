package config

import (
	"time"

	"github.com/Skotchmaster/storefront/pkg/config"
)

type Config struct {
	ListenAddr string
	LogLevel   string
	PaymentURL string
	CouponURL  string
	// applied to every upstream
	UpstreamDialTimeout     time.Duration
	UpstreamResponseTimeout time.Duration
	// SecureCookies marks the CSRF cookie Secure; enable behind TLS.
	SecureCookies bool
}

func Load() Config {
	cfg := Config{
		ListenAddr:    config.EnvDefault("GATEWAY_ADDR", ":8080"),
		LogLevel:      config.EnvDefault("LOG_LEVEL", "info"),
		PaymentURL:    config.EnvDefault("PAYMENT_URL", ""),
		CouponURL:     config.EnvDefault("COUPON_URL", ""),
		SecureCookies: config.EnvDefault("SECURE_COOKIES", "false") == "true",

		UpstreamDialTimeout:     config.EnvDurationDefault("UPSTREAM_DIAL_TIMEOUT", 5*time.Second),
		UpstreamResponseTimeout: config.EnvDurationDefault("UPSTREAM_RESPONSE_TIMEOUT", 30*time.Second),
	}

	config.MustNonEmpty(cfg.PaymentURL, "PAYMENT_URL")
	config.MustNonEmpty(cfg.CouponURL, "COUPON_URL")

	return cfg
}
