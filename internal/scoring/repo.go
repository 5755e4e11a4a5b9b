package scoring

import "context"

// Repo persists score records. There is at most one record per referral.
type Repo interface {
	Get(ctx context.Context, orgID, referralID string) (Record, error)
	// CreateIfAbsent stores rec unless a record already exists for the
	// referral. It returns the stored record and whether rec was inserted.
	CreateIfAbsent(ctx context.Context, rec Record) (Record, bool, error)
	Delete(ctx context.Context, orgID, referralID string) error
	ListByJob(ctx context.Context, orgID, jobID string) (map[string]Record, error)
}
