package referrals

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"referral-backend/internal/shared/telemetry"
)

// MemoryRepo stores referral snapshots in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu         sync.RWMutex
	jobs       map[string]JobProfile
	candidates map[string]CandidateProfile
	referrals  map[string]Referral
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		jobs:       make(map[string]JobProfile),
		candidates: make(map[string]CandidateProfile),
		referrals:  make(map[string]Referral),
	}
}

// PutJob stores or replaces a job.
func (r *MemoryRepo) PutJob(job JobProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
}

// PutCandidate stores or replaces a candidate.
func (r *MemoryRepo) PutCandidate(c CandidateProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.candidates[c.ID] = c
}

// PutReferral stores or replaces a referral.
func (r *MemoryRepo) PutReferral(ref Referral) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.referrals[ref.ID] = ref
}

// PutBundle stores all three parts of a bundle.
func (r *MemoryRepo) PutBundle(b Bundle) {
	r.PutJob(b.Job)
	r.PutCandidate(b.Candidate)
	r.PutReferral(b.Referral)
}

// GetBundle returns the referral with its candidate and job.
func (r *MemoryRepo) GetBundle(ctx context.Context, orgID, referralID string) (Bundle, error) {
	if err := ctx.Err(); err != nil {
		return Bundle{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ref, ok := r.referrals[referralID]
	if !ok || ref.OrganizationID != orgID {
		return Bundle{}, ErrNotFound
	}
	return r.bundleLocked(ref)
}

// ListBundlesForJob returns the job's referrals ordered by creation time.
// Referrals whose candidate is missing are logged and left out, matching the
// inner join of the Postgres source.
func (r *MemoryRepo) ListBundlesForJob(ctx context.Context, orgID, jobID string, status Status) ([]Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[jobID]
	if !ok || job.OrganizationID != orgID {
		return nil, ErrJobNotFound
	}

	refs := make([]Referral, 0)
	for _, ref := range r.referrals {
		if ref.OrganizationID != orgID || ref.JobID != jobID {
			continue
		}
		if status != "" && ref.Status != status {
			continue
		}
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].CreatedAt.Equal(refs[j].CreatedAt) {
			return refs[i].ID < refs[j].ID
		}
		return refs[i].CreatedAt.Before(refs[j].CreatedAt)
	})

	out := make([]Bundle, 0, len(refs))
	for _, ref := range refs {
		cand, ok := r.candidates[ref.CandidateID]
		if !ok {
			telemetry.L().Warn("referral skipped: candidate missing",
				zap.String("referral_id", ref.ID),
				zap.String("candidate_id", ref.CandidateID),
				zap.String("job_id", jobID),
			)
			continue
		}
		out = append(out, Bundle{Referral: ref, Candidate: cand, Job: job})
	}
	return out, nil
}

func (r *MemoryRepo) bundleLocked(ref Referral) (Bundle, error) {
	job, ok := r.jobs[ref.JobID]
	if !ok {
		return Bundle{}, ErrJobNotFound
	}
	cand, ok := r.candidates[ref.CandidateID]
	if !ok {
		return Bundle{}, ErrNotFound
	}
	return Bundle{Referral: ref, Candidate: cand, Job: job}, nil
}

var _ Source = (*MemoryRepo)(nil)
