package scoring

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"referral-backend/internal/queue"
	"referral-backend/internal/referrals"
	"referral-backend/internal/semantic"
	"referral-backend/internal/shared/metrics"
	"referral-backend/internal/shared/util"
)

// Options tunes a single scoring call.
type Options struct {
	// DisableSemantic skips the LLM call and uses the rule score in its place.
	DisableSemantic bool
	// Concurrency bounds parallel scoring in ScoreJob. Values below 1 use
	// the service default.
	Concurrency int
}

// Evaluation is a computed, not yet persisted, score.
type Evaluation struct {
	Breakdown      Breakdown      `json:"breakdown"`
	SemanticStatus SemanticStatus `json:"semanticStatus"`
	ModelUsed      string         `json:"modelUsed"`
}

// Service scores referrals and persists the results.
type Service struct {
	Source      referrals.Source
	Repo        Repo
	Rules       *RuleAggregator
	Semantic    *semantic.Evaluator
	Queue       queue.Client
	Logger      *zap.Logger
	Concurrency int
	Now         func() time.Time
}

// NewService wires a Service with the default weights.
func NewService(source referrals.Source, repo Repo, evaluator *semantic.Evaluator, logger *zap.Logger) *Service {
	rules, err := NewRuleAggregator(DefaultWeights())
	if err != nil {
		panic(err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Source:      source,
		Repo:        repo,
		Rules:       rules,
		Semantic:    evaluator,
		Logger:      logger,
		Concurrency: 1,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate computes a score for b without touching storage.
func (s *Service) Evaluate(ctx context.Context, b referrals.Bundle, opts Options) Evaluation {
	bd := s.Rules.Evaluate(b)
	out := Evaluation{}

	if opts.DisableSemantic {
		bd.SemanticScore = bd.RuleScore
		bd.SemanticStrengths = []string{}
		bd.SemanticGaps = []string{}
		out.SemanticStatus = SemanticDisabled
	} else {
		res := s.Semantic.Evaluate(ctx, b)
		a := res.AssessmentOrFallback()
		bd.SemanticScore = a.Score
		bd.SemanticStrengths = a.Strengths
		bd.SemanticGaps = a.Gaps
		bd.SemanticSummary = a.Summary
		out.SemanticStatus = semanticStatusFor(res.Failure)
		out.ModelUsed = res.Model
	}

	bd.FinalScore = Combine(bd.RuleScore, bd.SemanticScore, s.Rules.Weights())
	bd.Grade = GradeFor(bd.FinalScore)
	out.Breakdown = bd
	return out
}

// Score returns the stored score for a referral, computing and persisting
// one only when none exists.
func (s *Service) Score(ctx context.Context, orgID, referralID string, opts Options) (Record, error) {
	if err := requireIDs(orgID, referralID); err != nil {
		return Record{}, err
	}
	start := time.Now()
	defer func() { metrics.ObserveScoring("score", time.Since(start)) }()

	existing, err := s.Repo.Get(ctx, orgID, referralID)
	if err == nil {
		metrics.IncScoreReused()
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Record{}, fmt.Errorf("load score: %w", err)
	}

	b, err := s.loadBundle(ctx, orgID, referralID)
	if err != nil {
		return Record{}, err
	}
	return s.computeAndStore(ctx, b, opts)
}

// Rescore discards any stored score and computes a fresh one. Two concurrent
// rescores of the same referral can interleave their delete and insert; the
// store still keeps a single record, but which computation survives is not
// defined.
func (s *Service) Rescore(ctx context.Context, orgID, referralID string, opts Options) (Record, error) {
	if err := requireIDs(orgID, referralID); err != nil {
		return Record{}, err
	}
	start := time.Now()
	defer func() { metrics.ObserveScoring("rescore", time.Since(start)) }()

	b, err := s.loadBundle(ctx, orgID, referralID)
	if err != nil {
		return Record{}, err
	}
	if err := s.Repo.Delete(ctx, orgID, referralID); err != nil {
		return Record{}, fmt.Errorf("delete score: %w", err)
	}
	s.Logger.Info("score.rescore", zap.String("organization_id", orgID), zap.String("referral_id", referralID))
	return s.computeAndStore(ctx, b, opts)
}

// ScoreJob scores every referral of a job, reusing stored scores. Items that
// fail are logged and left out. The result is ordered by final score, highest
// first, with ties kept in referral order.
func (s *Service) ScoreJob(ctx context.Context, orgID, jobID string, status referrals.Status, opts Options) ([]Scored, error) {
	if err := requireIDs(orgID, jobID); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { metrics.ObserveScoring("score_job", time.Since(start)) }()

	bundles, stored, err := s.loadJob(ctx, orgID, jobID, status)
	if err != nil {
		return nil, err
	}

	slots := make([]*Scored, len(bundles))
	workers := opts.Concurrency
	if workers < 1 {
		workers = s.Concurrency
	}
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, b := range bundles {
		if rec, ok := stored[b.Referral.ID]; ok {
			metrics.IncScoreReused()
			slots[i] = &Scored{Referral: b.Referral, Score: rec, Reused: true}
			continue
		}
		if err := ctx.Err(); err != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, b referrals.Bundle) {
			defer wg.Done()
			defer func() { <-sem }()
			rec, err := s.computeAndStore(ctx, b, opts)
			if err != nil {
				metrics.IncBatchItemFailure()
				s.Logger.Error("score.batch_item_failed",
					zap.String("job_id", jobID),
					zap.String("referral_id", b.Referral.ID),
					zap.String("error", util.SanitizeError(err)),
				)
				return
			}
			slots[i] = &Scored{Referral: b.Referral, Score: rec}
		}(i, b)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]Scored, 0, len(slots))
	for _, slot := range slots {
		if slot != nil {
			out = append(out, *slot)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score.Breakdown.FinalScore > out[j].Score.Breakdown.FinalScore
	})
	s.Logger.Info("score.job_complete",
		zap.String("job_id", jobID),
		zap.Int("referrals", len(bundles)),
		zap.Int("scored", len(out)),
	)
	return out, nil
}

// RankJob orders a job's referrals by stored final score without computing
// anything. Unscored referrals rank as zero.
func (s *Service) RankJob(ctx context.Context, orgID, jobID string, status referrals.Status) ([]Ranked, error) {
	if err := requireIDs(orgID, jobID); err != nil {
		return nil, err
	}
	bundles, stored, err := s.loadJob(ctx, orgID, jobID, status)
	if err != nil {
		return nil, err
	}

	out := make([]Ranked, 0, len(bundles))
	for _, b := range bundles {
		r := Ranked{Referral: b.Referral}
		if rec, ok := stored[b.Referral.ID]; ok {
			r.Score = &rec
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FinalOrZero() > out[j].FinalOrZero()
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

// EnqueueJob asks a worker to run ScoreJob asynchronously.
func (s *Service) EnqueueJob(ctx context.Context, orgID, jobID string, status referrals.Status, opts Options, requestID string) error {
	if err := requireIDs(orgID, jobID); err != nil {
		return err
	}
	if s.Queue == nil {
		return ErrQueueNotConfigured
	}
	msg := queue.Message{
		OrganizationID:  orgID,
		JobID:           jobID,
		Status:          string(status),
		DisableSemantic: opts.DisableSemantic,
		RequestID:       requestID,
		EnqueuedAt:      s.now().Format(time.RFC3339),
		Version:         queue.MessageVersion,
	}
	if err := s.Queue.Send(ctx, msg); err != nil {
		metrics.IncQueueMessage("enqueue_failed")
		return fmt.Errorf("enqueue scoring job: %w", err)
	}
	metrics.IncQueueMessage("enqueued")
	s.Logger.Info("score.job_enqueued", zap.String("job_id", jobID), zap.String("request_id", requestID))
	return nil
}

// ProcessJobMessage runs a queued job-scoring request.
func (s *Service) ProcessJobMessage(ctx context.Context, msg queue.Message) error {
	status, ok := referrals.ParseStatus(msg.Status)
	if !ok {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, msg.Status)
	}
	_, err := s.ScoreJob(ctx, msg.OrganizationID, msg.JobID, status, Options{DisableSemantic: msg.DisableSemantic})
	return err
}

func (s *Service) computeAndStore(ctx context.Context, b referrals.Bundle, opts Options) (Record, error) {
	eval := s.Evaluate(ctx, b, opts)
	now := s.now()
	rec := Record{
		ID:             uuid.NewString(),
		OrganizationID: b.Referral.OrganizationID,
		ReferralID:     b.Referral.ID,
		JobID:          b.Referral.JobID,
		CandidateID:    b.Referral.CandidateID,
		Breakdown:      eval.Breakdown,
		ModelUsed:      eval.ModelUsed,
		SemanticStatus: eval.SemanticStatus,
		ScoredAt:       now,
		UpdatedAt:      now,
	}
	stored, created, err := s.Repo.CreateIfAbsent(ctx, rec)
	if err != nil {
		return Record{}, fmt.Errorf("store score: %w", err)
	}
	if created {
		metrics.IncScoreComputed(string(rec.SemanticStatus))
		s.Logger.Info("score.computed",
			zap.String("referral_id", rec.ReferralID),
			zap.Int("final_score", rec.Breakdown.FinalScore),
			zap.String("grade", string(rec.Breakdown.Grade)),
			zap.String("semantic_status", string(rec.SemanticStatus)),
		)
	} else {
		metrics.IncScoreReused()
	}
	return stored, nil
}

func (s *Service) loadBundle(ctx context.Context, orgID, referralID string) (referrals.Bundle, error) {
	b, err := s.Source.GetBundle(ctx, orgID, referralID)
	if err != nil {
		return referrals.Bundle{}, mapSourceError(err, "referral", referralID)
	}
	return b, nil
}

func (s *Service) loadJob(ctx context.Context, orgID, jobID string, status referrals.Status) ([]referrals.Bundle, map[string]Record, error) {
	bundles, err := s.Source.ListBundlesForJob(ctx, orgID, jobID, status)
	if err != nil {
		return nil, nil, mapSourceError(err, "job", jobID)
	}
	stored, err := s.Repo.ListByJob(ctx, orgID, jobID)
	if err != nil {
		return nil, nil, fmt.Errorf("load scores: %w", err)
	}
	return bundles, stored, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func mapSourceError(err error, kind, id string) error {
	if errors.Is(err, referrals.ErrNotFound) || errors.Is(err, referrals.ErrJobNotFound) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	return fmt.Errorf("load %s: %w", kind, err)
}

func requireIDs(ids ...string) error {
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: missing identifier", ErrInvalidInput)
		}
	}
	return nil
}

func semanticStatusFor(kind semantic.FailureKind) SemanticStatus {
	switch kind {
	case semantic.FailureNone:
		return SemanticOK
	case semantic.FailureNotConfigured:
		return SemanticNotConfigured
	case semantic.FailureMalformed:
		return SemanticMalformed
	default:
		return SemanticTransport
	}
}
