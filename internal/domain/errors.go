package domain

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrCouponExclusive      = errors.New("another promotion coupon is already applied")
	ErrCouponNotEligible    = errors.New("coupon conditions not met by cart contents")
	ErrQuantityExceedsCap   = errors.New("quantity exceeds free item cap")
	ErrUnsupportedEventType = errors.New("unsupported event type")
)
