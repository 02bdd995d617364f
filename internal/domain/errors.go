package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidTopic    = errors.New("invalid topic")
	ErrNoOutline       = errors.New("all outline candidates exhausted")
	ErrQuotaExceeded   = errors.New("quota exceeded")
	ErrProviderFailure = errors.New("provider failure")
	ErrJobNotTerminal  = errors.New("job still in progress")
)
