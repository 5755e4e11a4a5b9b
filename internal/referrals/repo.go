package referrals

import "context"

// Source loads referral snapshots for scoring. Implementations scope every
// lookup to the organization.
type Source interface {
	GetBundle(ctx context.Context, orgID, referralID string) (Bundle, error)
	ListBundlesForJob(ctx context.Context, orgID, jobID string, status Status) ([]Bundle, error)
}
