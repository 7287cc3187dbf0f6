package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

type ctxKey struct{}

const masked = "******"

func New(level string) *slog.Logger {
	lvl := new(slog.LevelVar)
	switch strings.ToLower(level) {
	case "debug":
		lvl.Set(slog.LevelDebug)
	case "warn":
		lvl.Set(slog.LevelWarn)
	case "error":
		lvl.Set(slog.LevelError)
	default:
		lvl.Set(slog.LevelInfo)
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(h)
}

func IntoContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

func FromContext(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}

// IsSecretKey reports whether values stored under key must never appear in plaintext.
func IsSecretKey(key string) bool {
	return strings.Contains(strings.ToUpper(key), "SECRET")
}

// Mask hides value when key names a secret.
func Mask(key, value string) string {
	if IsSecretKey(key) && value != "" {
		return masked
	}
	return value
}

// Secret builds a log attribute for a key/value pair, masking secrets.
func Secret(key, value string) slog.Attr {
	return slog.String(key, Mask(key, value))
}
