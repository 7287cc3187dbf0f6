package service

import "errors"

var (
	ErrValidation        = errors.New("validation")                        // 400
	ErrNotFound          = errors.New("coupon not found")                  // 404
	ErrInactive          = errors.New("coupon is not active")              // 400
	ErrExpired           = errors.New("coupon has expired")                // 400
	ErrUsageLimitReached = errors.New("coupon usage limit reached")        // 400
	ErrBelowMinimum      = errors.New("order amount below coupon minimum") // 400
	ErrDuplicateCode     = errors.New("coupon code already exists")        // 409
)
