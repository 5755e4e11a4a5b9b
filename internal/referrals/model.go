package referrals

import (
	"sort"
	"strings"
	"time"
)

// ExpertiseDomain is a business expertise category shared by jobs and candidates.
type ExpertiseDomain string

const (
	DomainAuditConsulting ExpertiseDomain = "AUDIT_CONSULTING"
	DomainFinance         ExpertiseDomain = "FINANCE"
	DomainInsurance       ExpertiseDomain = "INSURANCE"
	DomainLegalTax        ExpertiseDomain = "LEGAL_TAX"
	DomainSales           ExpertiseDomain = "SALES"
	DomainRetail          ExpertiseDomain = "RETAIL"
	DomainMarcom          ExpertiseDomain = "MARCOM"
	DomainMedia           ExpertiseDomain = "MEDIA"
	DomainProcurement     ExpertiseDomain = "PROCUREMENT"
	DomainLogisticsSupply ExpertiseDomain = "LOGISTICS_SUPPLY"
	DomainQuality         ExpertiseDomain = "QUALITY"
	DomainTechIT          ExpertiseDomain = "TECH_IT"
	DomainDataAI          ExpertiseDomain = "DATA_AI"
	DomainDesignCreation  ExpertiseDomain = "DESIGN_CREATION"
	DomainHealth          ExpertiseDomain = "HEALTH"
	DomainHR              ExpertiseDomain = "HR"
	DomainRD              ExpertiseDomain = "RD"
	DomainTech            ExpertiseDomain = "TECH"
)

var domainLabels = map[ExpertiseDomain]string{
	DomainAuditConsulting: "Audit and consulting",
	DomainFinance:         "Finance",
	DomainInsurance:       "Insurance",
	DomainLegalTax:        "Legal and tax",
	DomainSales:           "Sales",
	DomainRetail:          "Retail",
	DomainMarcom:          "Marcom",
	DomainMedia:           "Media",
	DomainProcurement:     "Procurement",
	DomainLogisticsSupply: "Logistics and supply chain",
	DomainQuality:         "Quality",
	DomainTechIT:          "Tech / IT",
	DomainDataAI:          "Data and AI",
	DomainDesignCreation:  "Design / Creation",
	DomainHealth:          "Health",
	DomainHR:              "HR",
	DomainRD:              "R&D",
	DomainTech:            "Engineering",
}

// Label returns a human readable name, falling back to the raw value.
func (d ExpertiseDomain) Label() string {
	if label, ok := domainLabels[d]; ok {
		return label
	}
	return string(d)
}

// ExperienceLevel is the seniority tier required by a job.
type ExperienceLevel string

const (
	LevelTopManagement ExperienceLevel = "TOP_MANAGEMENT"
	LevelCLevel        ExperienceLevel = "C_LEVEL"
	LevelBoard         ExperienceLevel = "BOARD"
)

var levelLabels = map[ExperienceLevel]string{
	LevelTopManagement: "Top management: 12-18 years",
	LevelCLevel:        "C-level (executive committee): 18-25+ years",
	LevelBoard:         "Board: 25+ years",
}

// Label returns a human readable name, falling back to the raw value.
func (l ExperienceLevel) Label() string {
	if label, ok := levelLabels[l]; ok {
		return label
	}
	return string(l)
}

// RelationshipType describes how the referrer knows the candidate.
type RelationshipType string

const (
	RelationshipCompany      RelationshipType = "COMPANY"
	RelationshipHierarchical RelationshipType = "HIERARCHICAL"
	RelationshipAlumni       RelationshipType = "ALUMNI"
	RelationshipOther        RelationshipType = "OTHER"
)

var relationshipLabels = map[RelationshipType]string{
	RelationshipCompany:      "Former colleague (same company)",
	RelationshipHierarchical: "Reporting line",
	RelationshipAlumni:       "Alumni (same school)",
	RelationshipOther:        "Other",
}

// Label returns a human readable name, falling back to the raw value.
func (r RelationshipType) Label() string {
	if label, ok := relationshipLabels[r]; ok {
		return label
	}
	return string(r)
}

// Status is the review pipeline state of a referral.
type Status string

const (
	StatusSubmitted Status = "SUBMITTED"
	StatusReviewed  Status = "REVIEWED"
	StatusAccepted  Status = "ACCEPTED"
	StatusHired     Status = "HIRED"
	StatusRejected  Status = "REJECTED"
)

// ParseStatus normalizes raw and reports whether it names a known status.
// An empty input yields an empty status and true, meaning "any".
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case "", StatusSubmitted, StatusReviewed, StatusAccepted, StatusHired, StatusRejected:
		return s, true
	default:
		return "", false
	}
}

// JobProfile is the scoring view of a job opening.
type JobProfile struct {
	ID                  string          `json:"id"`
	OrganizationID      string          `json:"organizationId"`
	Title               string          `json:"title"`
	Description         string          `json:"description,omitempty"`
	ActivitySector      string          `json:"activitySector,omitempty"`
	CompanyContext      string          `json:"companyContext,omitempty"`
	KeyChallenges       []string        `json:"keyChallenges,omitempty"`
	ExpertiseDomain     ExpertiseDomain `json:"expertiseDomain,omitempty"`
	ExperienceLevel     ExperienceLevel `json:"experienceLevel,omitempty"`
	InterpersonalSkills []string        `json:"interpersonalSkills,omitempty"`
	TechnicalSkills     []string        `json:"technicalSkills,omitempty"`
}

// ExperienceEntry is one position from an enriched profile.
type ExperienceEntry struct {
	Title   string `json:"title"`
	Company string `json:"company"`
}

// EnrichedProfile holds externally scraped profile data.
type EnrichedProfile struct {
	Headline   string            `json:"headline,omitempty"`
	Summary    string            `json:"summary,omitempty"`
	Experience []ExperienceEntry `json:"experience,omitempty"`
	Education  []string          `json:"education,omitempty"`
	Skills     []string          `json:"skills,omitempty"`
}

// CandidateProfile is the scoring view of a candidate.
type CandidateProfile struct {
	ID                  string           `json:"id"`
	FullName            string           `json:"fullName"`
	YearsExperience     int              `json:"yearsExperience"`
	ExpertiseDomain     ExpertiseDomain  `json:"expertiseDomain,omitempty"`
	TechnicalSkills     []string         `json:"technicalSkills,omitempty"`
	InterpersonalSkills []string         `json:"interpersonalSkills,omitempty"`
	Enriched            *EnrichedProfile `json:"enriched,omitempty"`
}

// AllTechnicalSkills returns the self-reported and enriched skills, lowercased
// and deduplicated, sorted for stable output.
func (c CandidateProfile) AllTechnicalSkills() []string {
	set := lowerSet(c.TechnicalSkills)
	if c.Enriched != nil {
		for k := range lowerSet(c.Enriched.Skills) {
			set[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Referral is a recommendation of a candidate for a job.
type Referral struct {
	ID                  string           `json:"id"`
	OrganizationID      string           `json:"organizationId"`
	JobID               string           `json:"jobId"`
	CandidateID         string           `json:"candidateId"`
	ReferrerID          string           `json:"referrerId,omitempty"`
	RelationshipType    RelationshipType `json:"relationshipType"`
	RelationshipContext string           `json:"relationshipContext"`
	ProfileMotivation   string           `json:"profileMotivation,omitempty"`
	SupportingMaterials []string         `json:"supportingMaterials,omitempty"`
	Status              Status           `json:"status"`
	CreatedAt           time.Time        `json:"createdAt"`
}

// Bundle is a referral together with the candidate and job it links.
type Bundle struct {
	Referral  Referral         `json:"referral"`
	Candidate CandidateProfile `json:"candidate"`
	Job       JobProfile       `json:"job"`
}

// LowerSet builds a case-insensitive set of trimmed, non-empty values.
func LowerSet(values []string) map[string]struct{} {
	return lowerSet(values)
}

func lowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}
