package scoring

import (
	"context"
	"sync"
)

// MemoryRepo stores score records in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu         sync.RWMutex
	byReferral map[string]Record
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byReferral: make(map[string]Record)}
}

func memoryKey(orgID, referralID string) string {
	return orgID + "/" + referralID
}

// Get returns the record for a referral.
func (r *MemoryRepo) Get(ctx context.Context, orgID, referralID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byReferral[memoryKey(orgID, referralID)]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// CreateIfAbsent stores rec unless the referral already has a record.
func (r *MemoryRepo) CreateIfAbsent(ctx context.Context, rec Record) (Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := memoryKey(rec.OrganizationID, rec.ReferralID)
	if existing, ok := r.byReferral[key]; ok {
		return existing, false, nil
	}
	r.byReferral[key] = rec
	return rec, true, nil
}

// Delete removes the record for a referral, if any.
func (r *MemoryRepo) Delete(ctx context.Context, orgID, referralID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byReferral, memoryKey(orgID, referralID))
	return nil
}

// ListByJob returns the job's records keyed by referral ID.
func (r *MemoryRepo) ListByJob(ctx context.Context, orgID, jobID string) (map[string]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Record)
	for _, rec := range r.byReferral {
		if rec.OrganizationID == orgID && rec.JobID == jobID {
			out[rec.ReferralID] = rec
		}
	}
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
