package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/epl-pipeline/internal/usecase"
)

func TestResolveSeasons(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	configured := []string{"2023", "2024"}

	cases := []struct {
		name string
		opts runOptions
		want []string
	}{
		{name: "default is current year", want: []string{"2025"}},
		{name: "explicit seasons", opts: runOptions{seasons: []string{"2024"}}, want: []string{"2024"}},
		{name: "all seasons wins", opts: runOptions{seasons: []string{"2024"}, allSeasons: true}, want: configured},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := resolveSeasons(&tc.opts, configured, now)
			if strings.Join(got, ",") != strings.Join(tc.want, ",") {
				t.Fatalf("unexpected seasons: got=%v want=%v", got, tc.want)
			}
		})
	}
}

func TestResolveSeasons_AllSeasonsWithoutConfigFallsBack(t *testing.T) {
	t.Parallel()

	got := resolveSeasons(&runOptions{allSeasons: true}, nil, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC))
	if len(got) != 1 || got[0] != "2024" {
		t.Fatalf("unexpected seasons: %v", got)
	}
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printSummary(&buf, usecase.Summary{
		RunID:            "run-1",
		SeasonsRequested: 2,
		SeasonsProcessed: 1,
		Processed:        10,
		Inserted:         8,
		Updated:          2,
		Interrupted:      true,
	}, 1500*time.Millisecond)

	out := buf.String()
	for _, want := range []string{"run-1", "1/2", "inserted:           8", "interrupted:        true", "1.5s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestPrintTeamStatistics_DefaultsSeasonLabel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printTeamStatistics(&buf, "Arsenal", "", usecase.TeamStatistics{TotalMatches: 3, Wins: 2, Draws: 1})
	if !strings.Contains(buf.String(), "Arsenal (all seasons)") {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}

func TestPrintDiagnostics(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printDiagnostics(&buf, usecase.DiagnosticsReport{Checks: []usecase.Check{
		{Name: "results season 2023", Status: usecase.CheckOK, Detail: "380 matches"},
		{Name: "odds window", Status: usecase.CheckWarn, Detail: "inside window"},
	}})

	out := buf.String()
	if !strings.Contains(out, "[ok  ] results season 2023") || !strings.Contains(out, "[warn] odds window") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "ready:") {
		t.Fatalf("healthy report should print the next step:\n%s", out)
	}

	buf.Reset()
	printDiagnostics(&buf, usecase.DiagnosticsReport{Checks: []usecase.Check{{Name: "match store", Status: usecase.CheckFail, Detail: "read failed"}}})
	if strings.Contains(buf.String(), "ready:") {
		t.Fatalf("failing report must not print the next step:\n%s", buf.String())
	}
}
