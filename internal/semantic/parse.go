package semantic

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/xeipuuv/gojsonschema"
)

const (
	maxListItems   = 5
	maxSummaryRune = 500
)

var assessmentSchema = gojsonschema.NewStringLoader(`{
  "type": "object",
  "required": ["score"],
  "properties": {
    "score": {"type": "number"},
    "strengths": {"type": "array", "items": {"type": "string"}},
    "gaps": {"type": "array", "items": {"type": "string"}},
    "summary": {"type": "string"}
  }
}`)

type payload struct {
	Score     float64  `json:"score"`
	Strengths []string `json:"strengths"`
	Gaps      []string `json:"gaps"`
	Summary   string   `json:"summary"`
}

// parseAssessment strips code fences, validates the payload shape and
// normalizes it into range.
func parseAssessment(raw string) (Assessment, error) {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return Assessment{}, fmt.Errorf("empty response")
	}
	if !json.Valid([]byte(cleaned)) {
		return Assessment{}, fmt.Errorf("response is not valid JSON")
	}

	result, err := gojsonschema.Validate(assessmentSchema, gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return Assessment{}, fmt.Errorf("validate response: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, e := range result.Errors() {
			errs[i] = e.String()
		}
		return Assessment{}, fmt.Errorf("response schema mismatch: %s", strings.Join(errs, "; "))
	}

	var p payload
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		return Assessment{}, fmt.Errorf("decode response: %w", err)
	}
	return normalize(p), nil
}

func normalize(p payload) Assessment {
	score := p.Score
	if math.IsNaN(score) {
		score = FallbackScore
	}
	return Assessment{
		Score:     int(math.Max(0, math.Min(100, math.Trunc(score)))),
		Strengths: truncateList(p.Strengths),
		Gaps:      truncateList(p.Gaps),
		Summary:   truncateRunes(strings.TrimSpace(p.Summary), maxSummaryRune),
	}
}

// extractJSON removes a surrounding markdown fence and an optional json tag.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimPrefix(raw, "json")
		raw = strings.TrimPrefix(raw, "JSON")
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}

func truncateList(items []string) []string {
	out := make([]string, 0, min(len(items), maxListItems))
	for _, item := range items {
		if len(out) == maxListItems {
			break
		}
		out = append(out, item)
	}
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
