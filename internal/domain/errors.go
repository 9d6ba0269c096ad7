package domain

import "errors"

var (
	ErrSchemaInvalid  = errors.New("inventory schema invalid")
	ErrAuthFailed     = errors.New("airthings authentication failed")
	ErrFetchFailed    = errors.New("device sample fetch failed")
	ErrDeliveryFailed = errors.New("notification delivery failed")
)
