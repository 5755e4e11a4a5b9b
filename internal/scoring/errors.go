package scoring

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidWeights     = errors.New("invalid weights")
	ErrQueueNotConfigured = errors.New("scoring queue not configured")
)
