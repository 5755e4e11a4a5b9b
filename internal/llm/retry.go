package llm

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
)

const retryBaseDelay = 300 * time.Millisecond

type retryingClient struct {
	base     Client
	attempts int
	delay    time.Duration
	logger   *zap.Logger
}

// WithRetry wraps base so transient failures are retried up to attempts
// extra times. attempts <= 0 returns base unchanged.
func WithRetry(base Client, attempts int, logger *zap.Logger) Client {
	if base == nil || attempts <= 0 {
		return base
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return retryingClient{
		base:     base,
		attempts: attempts,
		delay:    retryBaseDelay,
		logger:   logger,
	}
}

func (r retryingClient) Model() string { return r.base.Model() }

func (r retryingClient) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := r.base.Complete(ctx, req)
	for attempt := 1; attempt <= r.attempts; attempt++ {
		if err == nil || !ShouldRetry(err) {
			return resp, err
		}
		r.logger.Warn("llm retry", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-time.After(r.delay * time.Duration(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		resp, err = r.base.Complete(ctx, req)
	}
	return resp, err
}

// ShouldRetry reports whether err looks transient.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotConfigured) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "http status 429") || strings.Contains(msg, "server_error") {
		return true
	}
	if strings.Contains(msg, "timeout") && (strings.Contains(msg, "openai") || strings.Contains(msg, "llm") || strings.Contains(msg, "client.timeout")) {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "eof") {
		return true
	}

	return false
}
