package referrals

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Source using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const bundleColumns = `
SELECT r.id, r.organization_id, r.job_opening_id, r.candidate_id, r.referrer_id,
       r.relationship_type, r.relationship_context, r.profile_motivation, r.supporting_materials,
       r.status, r.created_at,
       c.id, c.full_name, c.years_experience, c.expertise_domain, c.technical_skills, c.interpersonal_skills,
       c.linkedin_headline, c.linkedin_summary, c.linkedin_experience, c.linkedin_education, c.linkedin_skills,
       j.id, j.organization_id, j.title, j.description, j.activity_sector, j.company_context, j.key_challenges,
       j.expertise_domain, j.experience_level, j.interpersonal_skills, j.technical_skills
FROM referrals r
JOIN candidates c ON c.id = r.candidate_id
JOIN job_openings j ON j.id = r.job_opening_id`

// GetBundle returns the referral with its candidate and job.
func (r *PGRepo) GetBundle(ctx context.Context, orgID, referralID string) (Bundle, error) {
	const query = bundleColumns + `
WHERE r.organization_id = $1 AND r.id = $2
LIMIT 1`
	b, err := scanBundle(r.DB.QueryRowContext(ctx, query, orgID, referralID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Bundle{}, ErrNotFound
		}
		return Bundle{}, err
	}
	return b, nil
}

// ListBundlesForJob returns the job's referrals ordered by creation time.
// An empty status matches every referral.
func (r *PGRepo) ListBundlesForJob(ctx context.Context, orgID, jobID string, status Status) ([]Bundle, error) {
	const jobQuery = `SELECT id FROM job_openings WHERE organization_id = $1 AND id = $2`
	var id string
	if err := r.DB.QueryRowContext(ctx, jobQuery, orgID, jobID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	const query = bundleColumns + `
WHERE r.organization_id = $1 AND r.job_opening_id = $2 AND ($3 = '' OR r.status = $3)
ORDER BY r.created_at ASC, r.id ASC`
	rows, err := r.DB.QueryContext(ctx, query, orgID, jobID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Bundle
	for rows.Next() {
		b, err := scanBundle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBundle(row rowScanner) (Bundle, error) {
	var b Bundle
	var referrerID, motivation sql.NullString
	var materials []byte
	var candDomain sql.NullString
	var candTech, candInter []byte
	var headline, summary sql.NullString
	var liExperience, liEducation, liSkills []byte
	var description, sector, companyContext sql.NullString
	var challenges []byte
	var jobDomain, level sql.NullString
	var jobInter, jobTech []byte

	err := row.Scan(
		&b.Referral.ID,
		&b.Referral.OrganizationID,
		&b.Referral.JobID,
		&b.Referral.CandidateID,
		&referrerID,
		&b.Referral.RelationshipType,
		&b.Referral.RelationshipContext,
		&motivation,
		&materials,
		&b.Referral.Status,
		&b.Referral.CreatedAt,
		&b.Candidate.ID,
		&b.Candidate.FullName,
		&b.Candidate.YearsExperience,
		&candDomain,
		&candTech,
		&candInter,
		&headline,
		&summary,
		&liExperience,
		&liEducation,
		&liSkills,
		&b.Job.ID,
		&b.Job.OrganizationID,
		&b.Job.Title,
		&description,
		&sector,
		&companyContext,
		&challenges,
		&jobDomain,
		&level,
		&jobInter,
		&jobTech,
	)
	if err != nil {
		return Bundle{}, err
	}

	b.Referral.ReferrerID = referrerID.String
	b.Referral.ProfileMotivation = motivation.String
	b.Candidate.ExpertiseDomain = ExpertiseDomain(candDomain.String)
	b.Job.Description = description.String
	b.Job.ActivitySector = sector.String
	b.Job.CompanyContext = companyContext.String
	b.Job.ExpertiseDomain = ExpertiseDomain(jobDomain.String)
	b.Job.ExperienceLevel = ExperienceLevel(level.String)

	jsonFields := []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"supporting_materials", materials, &b.Referral.SupportingMaterials},
		{"candidate technical_skills", candTech, &b.Candidate.TechnicalSkills},
		{"candidate interpersonal_skills", candInter, &b.Candidate.InterpersonalSkills},
		{"key_challenges", challenges, &b.Job.KeyChallenges},
		{"job interpersonal_skills", jobInter, &b.Job.InterpersonalSkills},
		{"job technical_skills", jobTech, &b.Job.TechnicalSkills},
	}
	for _, f := range jsonFields {
		if err := unmarshalJSONB(f.raw, f.dst); err != nil {
			return Bundle{}, fmt.Errorf("decode %s: %w", f.name, err)
		}
	}

	if headline.Valid || summary.Valid || len(liExperience) > 0 || len(liEducation) > 0 || len(liSkills) > 0 {
		enriched := &EnrichedProfile{Headline: headline.String, Summary: summary.String}
		if err := unmarshalJSONB(liExperience, &enriched.Experience); err != nil {
			return Bundle{}, fmt.Errorf("decode linkedin_experience: %w", err)
		}
		if err := unmarshalJSONB(liEducation, &enriched.Education); err != nil {
			return Bundle{}, fmt.Errorf("decode linkedin_education: %w", err)
		}
		if err := unmarshalJSONB(liSkills, &enriched.Skills); err != nil {
			return Bundle{}, fmt.Errorf("decode linkedin_skills: %w", err)
		}
		b.Candidate.Enriched = enriched
	}
	return b, nil
}

func unmarshalJSONB(raw []byte, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

var _ Source = (*PGRepo)(nil)
