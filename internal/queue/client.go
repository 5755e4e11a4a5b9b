package queue

import (
	"context"
	"errors"
	"time"
)

// ErrNoMessage is returned by Receive when the wait elapses without a message.
var ErrNoMessage = errors.New("no message available")

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Consumer pulls raw message bodies from a queue backend.
type Consumer interface {
	Receive(ctx context.Context, wait time.Duration) (string, error)
}
