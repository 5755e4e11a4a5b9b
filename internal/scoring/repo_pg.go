package scoring

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres. The unique index on
// candidate_scores.referral_id enforces one record per referral.
type PGRepo struct {
	DB *sql.DB
}

const scoreColumns = `id, organization_id, referral_id, job_opening_id, candidate_id,
       final_score, rule_score, llm_score, grade,
       expertise_match, experience_match, interpersonal_skills_match, technical_skills_match, referral_quality,
       llm_strengths, llm_gaps, llm_summary, llm_model_used, semantic_status, scored_at, updated_at`

// Get returns the record for a referral.
func (r *PGRepo) Get(ctx context.Context, orgID, referralID string) (Record, error) {
	const query = `
SELECT ` + scoreColumns + `
FROM candidate_scores
WHERE organization_id = $1 AND referral_id = $2
LIMIT 1`
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, orgID, referralID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

// CreateIfAbsent inserts rec; on conflict the existing row wins and is returned.
func (r *PGRepo) CreateIfAbsent(ctx context.Context, rec Record) (Record, bool, error) {
	const query = `
INSERT INTO candidate_scores (
	id, organization_id, referral_id, job_opening_id, candidate_id,
	final_score, rule_score, llm_score, grade,
	expertise_match, experience_match, interpersonal_skills_match, technical_skills_match, referral_quality,
	llm_strengths, llm_gaps, llm_summary, llm_model_used, semantic_status, scored_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
ON CONFLICT (referral_id) DO NOTHING`
	strengths, err := marshalList(rec.Breakdown.SemanticStrengths)
	if err != nil {
		return Record{}, false, err
	}
	gaps, err := marshalList(rec.Breakdown.SemanticGaps)
	if err != nil {
		return Record{}, false, err
	}
	b := rec.Breakdown
	res, err := r.DB.ExecContext(ctx, query,
		rec.ID,
		rec.OrganizationID,
		rec.ReferralID,
		rec.JobID,
		rec.CandidateID,
		b.FinalScore,
		b.RuleScore,
		b.SemanticScore,
		string(b.Grade),
		b.ExpertiseMatch,
		b.ExperienceMatch,
		b.InterpersonalMatch,
		b.TechnicalMatch,
		b.ReferralQuality,
		strengths,
		gaps,
		b.SemanticSummary,
		rec.ModelUsed,
		string(rec.SemanticStatus),
		rec.ScoredAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return Record{}, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Record{}, false, err
	}
	if n == 1 {
		return rec, true, nil
	}
	existing, err := r.Get(ctx, rec.OrganizationID, rec.ReferralID)
	if err != nil {
		return Record{}, false, fmt.Errorf("load existing score: %w", err)
	}
	return existing, false, nil
}

// Delete removes the record for a referral, if any.
func (r *PGRepo) Delete(ctx context.Context, orgID, referralID string) error {
	const query = `DELETE FROM candidate_scores WHERE organization_id = $1 AND referral_id = $2`
	_, err := r.DB.ExecContext(ctx, query, orgID, referralID)
	return err
}

// ListByJob returns the job's records keyed by referral ID.
func (r *PGRepo) ListByJob(ctx context.Context, orgID, jobID string) (map[string]Record, error) {
	const query = `
SELECT ` + scoreColumns + `
FROM candidate_scores
WHERE organization_id = $1 AND job_opening_id = $2`
	rows, err := r.DB.QueryContext(ctx, query, orgID, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]Record)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out[rec.ReferralID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var grade, status string
	var strengths, gaps []byte
	var summary, model sql.NullString
	b := &rec.Breakdown
	err := row.Scan(
		&rec.ID,
		&rec.OrganizationID,
		&rec.ReferralID,
		&rec.JobID,
		&rec.CandidateID,
		&b.FinalScore,
		&b.RuleScore,
		&b.SemanticScore,
		&grade,
		&b.ExpertiseMatch,
		&b.ExperienceMatch,
		&b.InterpersonalMatch,
		&b.TechnicalMatch,
		&b.ReferralQuality,
		&strengths,
		&gaps,
		&summary,
		&model,
		&status,
		&rec.ScoredAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return Record{}, err
	}
	b.Grade = Grade(grade)
	b.SemanticSummary = summary.String
	rec.ModelUsed = model.String
	rec.SemanticStatus = SemanticStatus(status)
	if b.SemanticStrengths, err = unmarshalList(strengths); err != nil {
		return Record{}, fmt.Errorf("decode llm_strengths: %w", err)
	}
	if b.SemanticGaps, err = unmarshalList(gaps); err != nil {
		return Record{}, fmt.Errorf("decode llm_gaps: %w", err)
	}
	return rec, nil
}

func marshalList(values []string) ([]byte, error) {
	if values == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(values)
}

func unmarshalList(raw []byte) ([]string, error) {
	out := []string{}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

var _ Repo = (*PGRepo)(nil)
