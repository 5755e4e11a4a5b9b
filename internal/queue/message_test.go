package queue

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMessageRoundTrip(t *testing.T) {
	msg := Message{
		OrganizationID:  "org-1",
		JobID:           "job-123",
		Status:          "SUBMITTED",
		DisableSemantic: true,
		RequestID:       "request-456",
		EnqueuedAt:      "2026-01-30T22:00:00Z",
		Version:         MessageVersion,
	}

	payload, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}

	got, err := DecodeMessage(payload)
	if err != nil {
		t.Fatalf("decode message: %v", err)
	}

	if !reflect.DeepEqual(got, msg) {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, msg)
	}
}

func TestRedisClientFIFO(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	q, err := NewRedisClient(rdb, "")
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	ctx := context.Background()
	for _, id := range []string{"job-1", "job-2"} {
		if err := q.Send(ctx, Message{OrganizationID: "org-1", JobID: id, Version: MessageVersion}); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	for _, want := range []string{"job-1", "job-2"} {
		body, err := q.Receive(ctx, time.Second)
		if err != nil {
			t.Fatalf("Receive: %v", err)
		}
		msg, err := DecodeMessage([]byte(body))
		if err != nil {
			t.Fatalf("DecodeMessage: %v", err)
		}
		if msg.JobID != want {
			t.Fatalf("got job %q, want %q", msg.JobID, want)
		}
	}
}

func TestRedisClientReceiveEmpty(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	q, err := NewRedisClient(rdb, "test:queue")
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	if _, err := q.Receive(context.Background(), 50*time.Millisecond); !errors.Is(err, ErrNoMessage) {
		t.Fatalf("expected ErrNoMessage, got %v", err)
	}
}

func TestNewRedisClientRequiresClient(t *testing.T) {
	if _, err := NewRedisClient(nil, "k"); err == nil {
		t.Fatalf("expected error for nil redis client")
	}
}
