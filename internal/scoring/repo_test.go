package scoring

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(refID string, final int) Record {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	return Record{
		ID:             "score-" + refID,
		OrganizationID: "org-1",
		ReferralID:     refID,
		JobID:          "job-1",
		CandidateID:    "cand-" + refID,
		Breakdown: Breakdown{
			ExpertiseMatch:     30,
			ExperienceMatch:    20,
			InterpersonalMatch: 10,
			TechnicalMatch:     5,
			ReferralQuality:    12,
			RuleScore:          77,
			SemanticScore:      final,
			SemanticStrengths:  []string{"domain depth"},
			SemanticGaps:       []string{},
			SemanticSummary:    "Solid.",
			FinalScore:         final,
			Grade:              GradeFor(final),
		},
		ModelUsed:      "gpt-4o-mini",
		SemanticStatus: SemanticOK,
		ScoredAt:       now,
		UpdatedAt:      now,
	}
}

func TestMemoryRepoFirstWriteWins(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	first, created, err := repo.CreateIfAbsent(ctx, sampleRecord("ref-1", 70))
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := repo.CreateIfAbsent(ctx, sampleRecord("ref-1", 10))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, second)

	require.NoError(t, repo.Delete(ctx, "org-1", "ref-1"))
	_, err = repo.Get(ctx, "org-1", "ref-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

var scoreColumnNames = []string{
	"id", "organization_id", "referral_id", "job_opening_id", "candidate_id",
	"final_score", "rule_score", "llm_score", "grade",
	"expertise_match", "experience_match", "interpersonal_skills_match", "technical_skills_match", "referral_quality",
	"llm_strengths", "llm_gaps", "llm_summary", "llm_model_used", "semantic_status", "scored_at", "updated_at",
}

func recordRow(rec Record) []driver.Value {
	b := rec.Breakdown
	return []driver.Value{
		rec.ID, rec.OrganizationID, rec.ReferralID, rec.JobID, rec.CandidateID,
		int64(b.FinalScore), int64(b.RuleScore), int64(b.SemanticScore), string(b.Grade),
		int64(b.ExpertiseMatch), int64(b.ExperienceMatch), int64(b.InterpersonalMatch), int64(b.TechnicalMatch), int64(b.ReferralQuality),
		[]byte(`["domain depth"]`), []byte(`[]`), b.SemanticSummary, rec.ModelUsed, string(rec.SemanticStatus), rec.ScoredAt, rec.UpdatedAt,
	}
}

func TestPGRepoCreateIfAbsentInserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rec := sampleRecord("ref-1", 80)
	mock.ExpectExec("INSERT INTO candidate_scores").
		WithArgs(
			rec.ID, rec.OrganizationID, rec.ReferralID, rec.JobID, rec.CandidateID,
			80, 77, 80, "A",
			30, 20, 10, 5, 12,
			[]byte(`["domain depth"]`), []byte(`[]`), "Solid.", "gpt-4o-mini", "ok",
			sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := &PGRepo{DB: db}
	stored, created, err := repo.CreateIfAbsent(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, rec, stored)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoCreateIfAbsentReturnsExistingOnConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	existing := sampleRecord("ref-1", 64)
	mock.ExpectExec("ON CONFLICT \\(referral_id\\) DO NOTHING").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM candidate_scores").
		WithArgs("org-1", "ref-1").
		WillReturnRows(sqlmock.NewRows(scoreColumnNames).AddRow(recordRow(existing)...))

	repo := &PGRepo{DB: db}
	stored, created, err := repo.CreateIfAbsent(context.Background(), sampleRecord("ref-1", 90))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 64, stored.Breakdown.FinalScore)
	assert.Equal(t, GradeB, stored.Breakdown.Grade)
	assert.Equal(t, []string{"domain depth"}, stored.Breakdown.SemanticStrengths)
	assert.Equal(t, []string{}, stored.Breakdown.SemanticGaps)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("FROM candidate_scores").
		WithArgs("org-1", "missing").
		WillReturnError(sql.ErrNoRows)

	repo := &PGRepo{DB: db}
	_, err = repo.Get(context.Background(), "org-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPGRepoListByJob(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("FROM candidate_scores").
		WithArgs("org-1", "job-1").
		WillReturnRows(sqlmock.NewRows(scoreColumnNames).
			AddRow(recordRow(sampleRecord("ref-1", 72))...).
			AddRow(recordRow(sampleRecord("ref-2", 91))...))

	repo := &PGRepo{DB: db}
	out, err := repo.ListByJob(context.Background(), "org-1", "job-1")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 91, out["ref-2"].Breakdown.FinalScore)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("DELETE FROM candidate_scores").
		WithArgs("org-1", "ref-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &PGRepo{DB: db}
	require.NoError(t, repo.Delete(context.Background(), "org-1", "ref-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCachedRepoReadThrough(t *testing.T) {
	mr, client := setupRedis(t)
	base := NewMemoryRepo()
	repo := NewCachedRepo(base, client, time.Minute, nil)
	ctx := context.Background()

	_, err := repo.Get(ctx, "org-1", "ref-1")
	assert.ErrorIs(t, err, ErrNotFound)

	rec := sampleRecord("ref-1", 70)
	_, created, err := repo.CreateIfAbsent(ctx, rec)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, mr.Exists(cacheKey("org-1", "ref-1")))

	// Remove from the backing store only; the cache still answers.
	require.NoError(t, base.Delete(ctx, "org-1", "ref-1"))
	got, err := repo.Get(ctx, "org-1", "ref-1")
	require.NoError(t, err)
	assert.Equal(t, 70, got.Breakdown.FinalScore)

	require.NoError(t, repo.Delete(ctx, "org-1", "ref-1"))
	assert.False(t, mr.Exists(cacheKey("org-1", "ref-1")))
	_, err = repo.Get(ctx, "org-1", "ref-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

// evictingRepo runs onGet after reading the backing record, standing in for
// a rescore that lands between the read and the cache fill.
type evictingRepo struct {
	*MemoryRepo
	onGet func()
}

func (e *evictingRepo) Get(ctx context.Context, orgID, referralID string) (Record, error) {
	rec, err := e.MemoryRepo.Get(ctx, orgID, referralID)
	if e.onGet != nil {
		hook := e.onGet
		e.onGet = nil
		hook()
	}
	return rec, err
}

func TestCachedRepoDropsFillThatRacedWithDelete(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()
	base := &evictingRepo{MemoryRepo: NewMemoryRepo()}
	_, _, err := base.CreateIfAbsent(ctx, sampleRecord("ref-1", 40))
	require.NoError(t, err)
	repo := NewCachedRepo(base, client, time.Minute, nil)

	base.onGet = func() {
		require.NoError(t, repo.Delete(ctx, "org-1", "ref-1"))
	}
	stale, err := repo.Get(ctx, "org-1", "ref-1")
	require.NoError(t, err)
	assert.Equal(t, 40, stale.Breakdown.FinalScore)
	assert.False(t, mr.Exists(cacheKey("org-1", "ref-1")), "stale record must not be cached")

	_, _, err = repo.CreateIfAbsent(ctx, sampleRecord("ref-1", 88))
	require.NoError(t, err)
	got, err := repo.Get(ctx, "org-1", "ref-1")
	require.NoError(t, err)
	assert.Equal(t, 88, got.Breakdown.FinalScore)
}

func TestCachedRepoFillsOnMiss(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()
	base := NewMemoryRepo()
	_, _, err := base.CreateIfAbsent(ctx, sampleRecord("ref-1", 63))
	require.NoError(t, err)
	repo := NewCachedRepo(base, client, time.Minute, nil)

	_, err = repo.Get(ctx, "org-1", "ref-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(cacheKey("org-1", "ref-1")))
}

func TestCachedRepoFallsBackWhenRedisDown(t *testing.T) {
	mr, client := setupRedis(t)
	base := NewMemoryRepo()
	_, _, err := base.CreateIfAbsent(context.Background(), sampleRecord("ref-1", 55))
	require.NoError(t, err)

	repo := NewCachedRepo(base, client, time.Minute, nil)
	mr.Close()

	got, err := repo.Get(context.Background(), "org-1", "ref-1")
	require.NoError(t, err)
	assert.Equal(t, 55, got.Breakdown.FinalScore)
}

func TestNewCachedRepoWithoutClient(t *testing.T) {
	base := NewMemoryRepo()
	assert.Same(t, base, NewCachedRepo(base, nil, 0, nil))
}
