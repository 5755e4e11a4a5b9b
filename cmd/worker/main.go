package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"referral-backend/internal/bootstrap"
	"referral-backend/internal/queue"
	"referral-backend/internal/shared/config"
	"referral-backend/internal/shared/metrics"
	"referral-backend/internal/shared/telemetry"
	"referral-backend/internal/shared/util"
	"referral-backend/internal/workerproc"
)

const (
	receiveWait    = 5 * time.Second
	receiveBackoff = time.Second
)

func main() {
	cfg := config.Load()
	logger := telemetry.New(cfg.LogLevel, cfg.LogFormat)
	telemetry.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("bootstrap build", zap.Error(err))
	}
	defer app.Close()
	if app.Queue == nil {
		logger.Fatal("REDIS_URL is required for the worker")
	}

	w := &worker{
		consumer:    app.Queue,
		producer:    app.Queue,
		proc:        app.ScoringService,
		maxAttempts: cfg.WorkerMaxAttempts,
	}
	logger.Info("worker started",
		zap.String("queue", cfg.ScoringQueueKey),
		zap.Int("concurrency", cfg.WorkerConcurrency),
	)
	w.run(ctx, cfg.WorkerConcurrency, cfg.ShutdownTimeout)
}

type worker struct {
	consumer    queue.Consumer
	producer    queue.Client
	proc        workerproc.Processor
	maxAttempts int
}

func (w *worker) run(ctx context.Context, concurrency int, shutdownTimeout time.Duration) {
	sem := make(chan struct{}, max(1, concurrency))
	var wg sync.WaitGroup

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		case sem <- struct{}{}:
		}

		body, err := w.consumer.Receive(ctx, receiveWait)
		if err != nil {
			<-sem
			if ctx.Err() != nil {
				break pollLoop
			}
			if !errors.Is(err, queue.ErrNoMessage) {
				telemetry.Error("worker.scoring.receive_failed", map[string]any{"error": err.Error()})
				select {
				case <-ctx.Done():
					break pollLoop
				case <-time.After(receiveBackoff):
				}
			}
			continue
		}

		wg.Add(1)
		go func(body string) {
			defer wg.Done()
			defer func() { <-sem }()
			w.handleMessage(ctx, body)
		}(body)
	}

	telemetry.Info("worker.shutdown", map[string]any{"timeout": shutdownTimeout.String()})
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		telemetry.Warn("worker.shutdown_timeout", map[string]any{"timeout": shutdownTimeout.String()})
	}
}

// handleMessage processes one payload and reports the outcome label.
func (w *worker) handleMessage(ctx context.Context, body string) string {
	msg, err := workerproc.HandleMessage(ctx, w.proc, body)
	if err == nil {
		telemetry.Info("worker.scoring.completed", baseFields(msg))
		metrics.IncQueueMessage("processed")
		return "processed"
	}

	fields := baseFields(msg)
	fields["error"] = util.SanitizeError(err)
	if workerproc.Unrecoverable(err) {
		meta := workerproc.ComputeMeta(body)
		fields["body_len"] = meta.BodyLen
		fields["body_sha256"] = meta.BodySHA
		telemetry.Error("worker.scoring.decode_failed", fields)
		metrics.IncQueueMessage("decode_error")
		return "decode_error"
	}

	telemetry.Error("worker.scoring.failed", fields)
	metrics.IncQueueMessage("failed")
	if msg.Attempt+1 >= w.maxAttempts {
		return "dropped"
	}
	msg.Attempt++
	if err := w.producer.Send(context.WithoutCancel(ctx), msg); err != nil {
		fields["requeue_error"] = err.Error()
		telemetry.Error("worker.scoring.requeue_failed", fields)
		return "dropped"
	}
	return "requeued"
}

func baseFields(msg queue.Message) map[string]any {
	fields := map[string]any{
		"job_id":          msg.JobID,
		"organization_id": msg.OrganizationID,
		"attempt":         msg.Attempt,
	}
	if msg.RequestID != "" {
		fields["request_id"] = msg.RequestID
	}
	return fields
}
