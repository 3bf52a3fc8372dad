package port

import "errors"

// Sentinel errors used across ports.
var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrMerchantNotFound = errors.New("merchant not found")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenInvalid     = errors.New("token invalid")
)
