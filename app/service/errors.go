package service

import "errors"

var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrProviderTimeout     = errors.New("provider document timed out")
	ErrProviderUnsupported = errors.New("provider is not supported")
	ErrEventUnauthorized   = errors.New("event signature rejected")
	ErrEventMalformed      = errors.New("event is malformed")
)
