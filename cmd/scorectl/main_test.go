package main

import (
	"bytes"
	"encoding/json"
	"testing"
)

func runCLI(t *testing.T, args ...string) []byte {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v\n%s", args, err, out.String())
	}
	return out.Bytes()
}

func TestRankFixtureWithoutSemantic(t *testing.T) {
	raw := runCLI(t, "rank", "--fixture", "testdata/job.json", "--no-semantic", "--provider", "none")

	var rows []rankRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		t.Fatalf("decode output: %v\n%s", err, raw)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ReferralID != "ref-strong" || rows[0].FinalScore != 100 || rows[0].Grade != "A" {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].ReferralID != "ref-weak" || rows[1].Rank != 2 {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}
	if rows[1].Status != "disabled" {
		t.Fatalf("expected disabled semantic status, got %q", rows[1].Status)
	}
}

func TestScoreFixtureFallsBackWithoutProvider(t *testing.T) {
	raw := runCLI(t, "score", "--fixture", "testdata/job.json", "--no-semantic=false", "--provider", "none")

	var rows []scoredReferral
	if err := json.Unmarshal(raw, &rows); err != nil {
		t.Fatalf("decode output: %v\n%s", err, raw)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	first := rows[0]
	if first.Breakdown.SemanticScore != 50 || first.Breakdown.FinalScore != 75 {
		t.Fatalf("expected neutral fallback blend, got %+v", first.Breakdown)
	}
	if first.SemanticStatus != "not_configured" {
		t.Fatalf("expected not_configured, got %q", first.SemanticStatus)
	}
}

func TestLoadFixtureRequiresPath(t *testing.T) {
	if _, err := loadFixture(" "); err == nil {
		t.Fatalf("expected error without fixture path")
	}
}
