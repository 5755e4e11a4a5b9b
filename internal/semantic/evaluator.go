package semantic

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"referral-backend/internal/llm"
	"referral-backend/internal/referrals"
	"referral-backend/internal/shared/metrics"
	"referral-backend/internal/shared/util"
)

const (
	// FallbackScore is the neutral score used whenever analysis fails.
	FallbackScore   = 50
	FallbackSummary = "Semantic analysis unavailable."

	temperature    = 0.3
	maxTokens      = 500
	maxLogPreview  = 200
	tracerName     = "referral-backend/semantic"
	defaultTimeout = 30 * time.Second
)

// FailureKind classifies why no assessment was produced.
type FailureKind string

const (
	FailureNone          FailureKind = ""
	FailureNotConfigured FailureKind = "not_configured"
	FailureTransport     FailureKind = "transport"
	FailureMalformed     FailureKind = "malformed"
)

// Assessment is a validated semantic evaluation.
type Assessment struct {
	Score     int      `json:"score"`
	Strengths []string `json:"strengths"`
	Gaps      []string `json:"gaps"`
	Summary   string   `json:"summary"`
}

// Fallback returns the neutral assessment.
func Fallback() Assessment {
	return Assessment{
		Score:     FallbackScore,
		Strengths: []string{},
		Gaps:      []string{},
		Summary:   FallbackSummary,
	}
}

// Result is either an Assessment or a failure kind with its cause.
type Result struct {
	Assessment Assessment
	Failure    FailureKind
	Err        error
	Model      string
}

// OK reports whether the evaluation succeeded.
func (r Result) OK() bool { return r.Failure == FailureNone }

// AssessmentOrFallback returns the assessment, or the neutral fallback on failure.
func (r Result) AssessmentOrFallback() Assessment {
	if r.OK() {
		return r.Assessment
	}
	return Fallback()
}

// Evaluator asks an LLM for a holistic fit assessment. A nil Client means
// no provider is configured.
type Evaluator struct {
	Client  llm.Client
	Logger  *zap.Logger
	Timeout time.Duration
}

// NewEvaluator constructs an Evaluator.
func NewEvaluator(client llm.Client, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{Client: client, Logger: logger, Timeout: defaultTimeout}
}

// Configured reports whether a provider is wired.
func (e *Evaluator) Configured() bool {
	if e == nil || e.Client == nil {
		return false
	}
	_, placeholder := e.Client.(llm.PlaceholderClient)
	return !placeholder
}

// Model returns the provider model name, or "" when unconfigured.
func (e *Evaluator) Model() string {
	if !e.Configured() {
		return ""
	}
	return e.Client.Model()
}

// Evaluate never returns an error. Failures are reported in Result.
func (e *Evaluator) Evaluate(ctx context.Context, b referrals.Bundle) Result {
	if !e.Configured() {
		model := ""
		if e != nil && e.Client != nil {
			model = e.Client.Model()
		}
		return e.fail(b, FailureNotConfigured, llm.ErrNotConfigured, model)
	}
	logger := e.logger()
	model := e.Client.Model()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "semantic.evaluate")
	defer span.End()
	span.SetAttributes(
		attribute.String("referral.id", b.Referral.ID),
		attribute.String("llm.model", model),
	)

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	msgs := BuildMessages(b)
	logger.Debug("semantic request",
		zap.String("referral_id", b.Referral.ID),
		zap.String("model", model),
		zap.Int("prompt_length", utf8.RuneCountInString(msgs[len(msgs)-1].Content)),
	)

	start := time.Now()
	raw, err := e.Client.Complete(ctx, llm.Request{
		Messages:    msgs,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	metrics.ObserveSemanticLatency(time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		kind := FailureTransport
		if errors.Is(err, llm.ErrNotConfigured) {
			kind = FailureNotConfigured
		}
		return e.fail(b, kind, err, model)
	}

	logger.Debug("semantic response",
		zap.String("referral_id", b.Referral.ID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", util.TruncateForLog(raw, maxLogPreview)),
	)

	assessment, err := parseAssessment(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed")
		return e.fail(b, FailureMalformed, err, model)
	}
	span.SetAttributes(attribute.Int("semantic.score", assessment.Score))
	return Result{Assessment: assessment, Model: model}
}

func (e *Evaluator) fail(b referrals.Bundle, kind FailureKind, err error, model string) Result {
	metrics.IncSemanticFailure(string(kind))
	fields := []zap.Field{
		zap.String("referral_id", b.Referral.ID),
		zap.String("kind", string(kind)),
		zap.Error(err),
	}
	if kind == FailureNotConfigured {
		e.logger().Debug("semantic analysis skipped", fields...)
	} else {
		e.logger().Warn("semantic analysis failed", fields...)
	}
	return Result{Assessment: Fallback(), Failure: kind, Err: err, Model: model}
}

func (e *Evaluator) logger() *zap.Logger {
	if e == nil || e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}
