package config

import (
	"log/slog"
	"os"
)

func MustNonEmpty(value, envName string) {
	if value == "" {
		fatalMissing(envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		fatalMissing(envName)
	}
}

func fatalMissing(envName string) {
	slog.Error("config_error", "reason", "missing required env", "env", envName)
	os.Exit(1)
}
