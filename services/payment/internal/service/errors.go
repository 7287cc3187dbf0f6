package service

import "errors"

var (
	ErrValidation           = errors.New("validation")              // 400
	ErrNotFound             = errors.New("not found")               // 404
	ErrMissingFields        = errors.New("missing required fields") // 400
	ErrMissingPaymentRef    = errors.New("payment id required")     // 400
	ErrInvalidAmount        = errors.New("invalid amount")          // 400
	ErrSignatureMismatch    = errors.New("signature mismatch")      // 400
	ErrConfigurationMissing = errors.New("configuration missing")   // 500
	ErrGateway              = errors.New("gateway error")           // 502
	ErrPersistence          = errors.New("persistence error")       // 500
)
