package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	cacheKeyPrefix  = "referral:score:"
	genKeyPrefix    = "referral:score-gen:"
	defaultCacheTTL = 10 * time.Minute
	minGenTTL       = time.Hour
)

// errStaleFill aborts a cache fill that raced with an eviction.
var errStaleFill = errors.New("score cache fill raced with eviction")

// CachedRepo is a read-through Redis cache in front of a Repo. Redis
// failures are logged and the underlying store answers instead.
type CachedRepo struct {
	Repo   Repo
	Redis  *redis.Client
	TTL    time.Duration
	Logger *zap.Logger
}

// NewCachedRepo wraps repo with a Redis cache. A nil client returns repo unchanged.
func NewCachedRepo(repo Repo, client *redis.Client, ttl time.Duration, logger *zap.Logger) Repo {
	if client == nil {
		return repo
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedRepo{Repo: repo, Redis: client, TTL: ttl, Logger: logger}
}

func cacheKey(orgID, referralID string) string {
	return cacheKeyPrefix + orgID + ":" + referralID
}

// genKey counts evictions of a referral's score. A miss fill only lands
// when the count is unchanged since the backing read started.
func genKey(orgID, referralID string) string {
	return genKeyPrefix + orgID + ":" + referralID
}

// Get serves from Redis when possible and fills the cache on a miss. A fill
// that overlaps a Delete is dropped so a rescore cannot be shadowed by the
// record it replaced.
func (c *CachedRepo) Get(ctx context.Context, orgID, referralID string) (Record, error) {
	key := cacheKey(orgID, referralID)
	if val, err := c.Redis.Get(ctx, key).Result(); err == nil {
		var rec Record
		if err := json.Unmarshal([]byte(val), &rec); err == nil {
			return rec, nil
		}
		c.Logger.Warn("score cache decode failed", zap.String("key", key))
	} else if !errors.Is(err, redis.Nil) {
		c.Logger.Warn("score cache read failed", zap.String("key", key), zap.Error(err))
	}

	gen, genErr := c.generation(ctx, orgID, referralID)
	rec, err := c.Repo.Get(ctx, orgID, referralID)
	if err != nil {
		return Record{}, err
	}
	if genErr == nil {
		c.fill(ctx, rec, gen)
	}
	return rec, nil
}

// CreateIfAbsent writes through and caches whichever record won.
func (c *CachedRepo) CreateIfAbsent(ctx context.Context, rec Record) (Record, bool, error) {
	stored, created, err := c.Repo.CreateIfAbsent(ctx, rec)
	if err != nil {
		return Record{}, false, err
	}
	c.store(ctx, stored)
	return stored, created, nil
}

// Delete removes the record and evicts it from the cache.
func (c *CachedRepo) Delete(ctx context.Context, orgID, referralID string) error {
	if err := c.Repo.Delete(ctx, orgID, referralID); err != nil {
		return err
	}
	gk := genKey(orgID, referralID)
	_, err := c.Redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, gk)
		p.Expire(ctx, gk, max(c.TTL, minGenTTL))
		p.Del(ctx, cacheKey(orgID, referralID))
		return nil
	})
	if err != nil {
		c.Logger.Warn("score cache evict failed", zap.String("referral_id", referralID), zap.Error(err))
	}
	return nil
}

// ListByJob always reads the underlying store.
func (c *CachedRepo) ListByJob(ctx context.Context, orgID, jobID string) (map[string]Record, error) {
	return c.Repo.ListByJob(ctx, orgID, jobID)
}

func (c *CachedRepo) generation(ctx context.Context, orgID, referralID string) (int64, error) {
	gen, err := c.Redis.Get(ctx, genKey(orgID, referralID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		c.Logger.Warn("score cache generation read failed", zap.String("referral_id", referralID), zap.Error(err))
	}
	return gen, err
}

// fill caches rec only if no eviction happened since gen was read.
func (c *CachedRepo) fill(ctx context.Context, rec Record, gen int64) {
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	gk := genKey(rec.OrganizationID, rec.ReferralID)
	err = c.Redis.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, gk).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, cacheKey(rec.OrganizationID, rec.ReferralID), data, c.TTL)
			return nil
		})
		return err
	}, gk)
	switch {
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		c.Logger.Debug("score cache fill skipped", zap.String("referral_id", rec.ReferralID))
	case err != nil:
		c.Logger.Warn("score cache write failed", zap.String("referral_id", rec.ReferralID), zap.Error(err))
	}
}

func (c *CachedRepo) store(ctx context.Context, rec Record) {
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := c.Redis.Set(ctx, cacheKey(rec.OrganizationID, rec.ReferralID), data, c.TTL).Err(); err != nil {
		c.Logger.Warn("score cache write failed", zap.String("referral_id", rec.ReferralID), zap.Error(err))
	}
}

var _ Repo = (*CachedRepo)(nil)
