package semantic

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"referral-backend/internal/llm"
	"referral-backend/internal/referrals"
)

//go:embed prompt.md
var promptTemplate string

const (
	systemPrompt = "You are an executive recruitment expert. You answer only with valid JSON."

	notSpecified = "Not specified"
	notAvailable = "Not available"

	maxPromptExperience = 3
	maxPromptSkills     = 10
)

// BuildMessages renders the system and user turns for a referral.
func BuildMessages(b referrals.Bundle) []llm.Message {
	return []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildPrompt(b)},
	}
}

func buildPrompt(b referrals.Bundle) string {
	job, cand, ref := b.Job, b.Candidate, b.Referral

	var enriched referrals.EnrichedProfile
	if cand.Enriched != nil {
		enriched = *cand.Enriched
	}

	replacements := []string{
		"{{JOB_TITLE}}", orDefault(job.Title, notSpecified),
		"{{JOB_DESCRIPTION}}", orDefault(job.Description, notSpecified),
		"{{JOB_SECTOR}}", orDefault(job.ActivitySector, notSpecified),
		"{{JOB_COMPANY_CONTEXT}}", orDefault(job.CompanyContext, notSpecified),
		"{{JOB_CHALLENGES}}", joinOr(job.KeyChallenges, notSpecified),
		"{{JOB_INTERPERSONAL}}", joinOr(job.InterpersonalSkills, notSpecified),
		"{{JOB_LEVEL}}", labelOr(string(job.ExperienceLevel), job.ExperienceLevel.Label(), notSpecified),
		"{{JOB_DOMAIN}}", labelOr(string(job.ExpertiseDomain), job.ExpertiseDomain.Label(), notSpecified),
		"{{CANDIDATE_YEARS}}", strconv.Itoa(cand.YearsExperience),
		"{{CANDIDATE_DOMAIN}}", labelOr(string(cand.ExpertiseDomain), cand.ExpertiseDomain.Label(), notSpecified),
		"{{CANDIDATE_TECHNICAL}}", joinOr(cand.TechnicalSkills, notSpecified),
		"{{CANDIDATE_INTERPERSONAL}}", joinOr(cand.InterpersonalSkills, notSpecified),
		"{{PROFILE_HEADLINE}}", orDefault(enriched.Headline, notAvailable),
		"{{PROFILE_SUMMARY}}", orDefault(enriched.Summary, notAvailable),
		"{{PROFILE_EXPERIENCE}}", formatExperience(enriched.Experience),
		"{{PROFILE_SKILLS}}", joinOr(head(enriched.Skills, maxPromptSkills), notAvailable),
		"{{REFERRAL_RELATIONSHIP}}", ref.RelationshipType.Label(),
		"{{REFERRAL_CONTEXT}}", orDefault(ref.RelationshipContext, notSpecified),
		"{{REFERRAL_MOTIVATION}}", orDefault(ref.ProfileMotivation, notSpecified),
		"{{REFERRAL_MATERIALS}}", strconv.Itoa(len(ref.SupportingMaterials)),
	}
	return strings.NewReplacer(replacements...).Replace(promptTemplate)
}

func formatExperience(entries []referrals.ExperienceEntry) string {
	entries = head(entries, maxPromptExperience)
	if len(entries) == 0 {
		return notAvailable
	}
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s at %s", orDefault(e.Title, "N/A"), orDefault(e.Company, "N/A"))
	}
	return b.String()
}

func head[T any](values []T, n int) []T {
	if len(values) > n {
		return values[:n]
	}
	return values
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func joinOr(values []string, def string) string {
	if len(values) == 0 {
		return def
	}
	return strings.Join(values, ", ")
}

func labelOr(raw, label, def string) string {
	if raw == "" {
		return def
	}
	return label
}
