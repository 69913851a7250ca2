package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/epl-pipeline/internal/domain/match"
	"github.com/riskibarqy/epl-pipeline/internal/infrastructure/repository/memory"
)

func checksByName(report DiagnosticsReport) map[string]Check {
	out := make(map[string]Check, len(report.Checks))
	for _, check := range report.Checks {
		out[check.Name] = check
	}
	return out
}

func TestDiagnosticsService_Run_HealthyAccount(t *testing.T) {
	t.Parallel()

	results := &fakeResultsSource{bySeason: map[string][]ExternalMatch{"2023": {cityWestHam()}}}
	odds := &fakeOddsSource{byDate: map[string][]ExternalOddsEvent{"2023-08-12": {cityWestHamOdds()}}}
	extractor := newTestOddsExtractor(odds, 3)
	repo := memory.NewMatchRepository(skeleton("2023-08-12", "Arsenal", "Chelsea"))

	service := NewDiagnosticsService(results, extractor, repo, DiagnosticsConfig{
		MinSeason:            2023,
		ResultsKeyConfigured: true,
		OddsKeyConfigured:    true,
		Now:                  fixedClock(2023, time.August, 13),
	})

	report := service.Run(context.Background())
	if !report.Healthy() {
		t.Fatalf("expected healthy report, got %+v", report.Checks)
	}

	checks := checksByName(report)
	if got := checks["results season 2023"]; got.Status != CheckOK {
		t.Fatalf("unexpected allowed season check: %+v", got)
	}
	if got := checks["results season 2021"]; got.Status != CheckOK || got.Detail != "not served by the current tier" {
		t.Fatalf("unexpected restricted season check: %+v", got)
	}
	if got := checks["odds 2023-08-12"]; got.Status != CheckOK || got.Detail != "1 events, 1 with complete 1X2 prices" {
		t.Fatalf("unexpected recent odds check: %+v", got)
	}
	if got := checks["odds window"]; got.Status != CheckOK {
		t.Fatalf("unexpected window check: %+v", got)
	}
	if got := checks["match store"]; got.Status != CheckOK || got.Detail != "reachable, 1 matches without odds" {
		t.Fatalf("unexpected store check: %+v", got)
	}

	if len(results.calls) != 2 || results.calls[0] != "2023" || results.calls[1] != "2021" {
		t.Fatalf("unexpected results calls: %v", results.calls)
	}
	if len(odds.queried) != 1 || odds.queried[0] != "2023-08-12" {
		t.Fatalf("out-of-window date must not be requested: %v", odds.queried)
	}
}

type failingRepository struct {
	match.Repository
}

func (failingRepository) Select(context.Context, match.Filter) ([]match.Match, error) {
	return nil, errors.New("connection refused")
}

func TestDiagnosticsService_Run_ReportsFailuresAndContinues(t *testing.T) {
	t.Parallel()

	results := &fakeResultsSource{errs: map[string]error{"2023": errors.New("401 unauthorized")}}
	odds := &fakeOddsSource{}

	service := NewDiagnosticsService(results, newTestOddsExtractor(odds, 3), failingRepository{}, DiagnosticsConfig{
		MinSeason:         2023,
		OddsKeyConfigured: true,
		Now:               fixedClock(2023, time.August, 13),
	})

	report := service.Run(context.Background())
	if report.Healthy() {
		t.Fatalf("expected unhealthy report")
	}

	checks := checksByName(report)
	if checks["results api key"].Status != CheckFail {
		t.Fatalf("missing key must fail: %+v", checks["results api key"])
	}
	if checks["results season 2023"].Status != CheckFail {
		t.Fatalf("source error must fail: %+v", checks["results season 2023"])
	}
	if checks["odds 2023-08-12"].Status != CheckWarn {
		t.Fatalf("empty odds must warn: %+v", checks["odds 2023-08-12"])
	}
	if checks["match store"].Status != CheckFail {
		t.Fatalf("store error must fail: %+v", checks["match store"])
	}
	if len(report.Checks) != 7 {
		t.Fatalf("expected every check to run, got %d", len(report.Checks))
	}
}
