package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/riskibarqy/epl-pipeline/internal/domain/match"
	"github.com/riskibarqy/epl-pipeline/internal/platform/logging"
)

type CheckStatus string

const (
	CheckOK   CheckStatus = "ok"
	CheckWarn CheckStatus = "warn"
	CheckFail CheckStatus = "fail"
)

// Check is one line of a diagnostics report.
type Check struct {
	Name   string
	Status CheckStatus
	Detail string
}

type DiagnosticsReport struct {
	Checks []Check
}

// Healthy reports whether no check failed. Warnings do not count.
func (r DiagnosticsReport) Healthy() bool {
	for _, check := range r.Checks {
		if check.Status == CheckFail {
			return false
		}
	}
	return true
}

func (r *DiagnosticsReport) add(name string, status CheckStatus, format string, args ...any) {
	r.Checks = append(r.Checks, Check{Name: name, Status: status, Detail: fmt.Sprintf(format, args...)})
}

type DiagnosticsConfig struct {
	// MinSeason is the first season the results account is expected to serve.
	MinSeason int
	// RestrictedSeason is a season expected to be outside the account tier.
	// Defaults to two seasons before MinSeason.
	RestrictedSeason     int
	ResultsKeyConfigured bool
	OddsKeyConfigured    bool
	Now                  func() time.Time
	Logger               *logging.Logger
}

// DiagnosticsService reports what the configured sources and store will
// actually serve before a full run is attempted.
type DiagnosticsService struct {
	results ResultsSource
	odds    *OddsExtractor
	repo    match.Repository
	cfg     DiagnosticsConfig
	now     func() time.Time
	logger  *logging.Logger
}

func NewDiagnosticsService(results ResultsSource, odds *OddsExtractor, repo match.Repository, cfg DiagnosticsConfig) *DiagnosticsService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.RestrictedSeason == 0 {
		cfg.RestrictedSeason = cfg.MinSeason - 2
	}
	return &DiagnosticsService{
		results: results,
		odds:    odds,
		repo:    repo,
		cfg:     cfg,
		now:     now,
		logger:  logger,
	}
}

// Run executes every check in order. Individual failures are recorded in the
// report and never stop the remaining checks.
func (s *DiagnosticsService) Run(ctx context.Context) DiagnosticsReport {
	ctx, span := startUsecaseSpan(ctx, "usecase.DiagnosticsService.Run")
	defer span.End()

	var report DiagnosticsReport
	s.checkKeys(&report)
	s.checkAllowedSeason(ctx, &report)
	s.checkRestrictedSeason(ctx, &report)
	s.checkRecentOdds(ctx, &report)
	s.checkOddsWindow(&report)
	s.checkStore(ctx, &report)

	for _, check := range report.Checks {
		s.logger.InfoContext(ctx, "diagnostic check", "check", check.Name, "status", string(check.Status), "detail", check.Detail)
	}
	return report
}

func (s *DiagnosticsService) checkKeys(report *DiagnosticsReport) {
	if s.cfg.ResultsKeyConfigured {
		report.add("results api key", CheckOK, "configured")
	} else {
		report.add("results api key", CheckFail, "FOOTBALL_DATA_API_KEY is empty")
	}
	if s.cfg.OddsKeyConfigured {
		report.add("odds api key", CheckOK, "configured")
	} else {
		report.add("odds api key", CheckFail, "ODDS_API_KEY is empty")
	}
}

func (s *DiagnosticsService) checkAllowedSeason(ctx context.Context, report *DiagnosticsReport) {
	season := strconv.Itoa(s.cfg.MinSeason)
	name := "results season " + season

	raws, err := s.results.FetchSeasonMatches(ctx, season)
	switch {
	case err != nil:
		report.add(name, CheckFail, "fetch failed: %v", err)
	case len(raws) == 0:
		report.add(name, CheckWarn, "no finished matches returned")
	default:
		sample := raws[0]
		report.add(name, CheckOK, "%d matches, e.g. %s vs %s on %s", len(raws), sample.HomeTeamName, sample.AwayTeamName, sample.UTCDate)
	}
}

func (s *DiagnosticsService) checkRestrictedSeason(ctx context.Context, report *DiagnosticsReport) {
	season := strconv.Itoa(s.cfg.RestrictedSeason)
	name := "results season " + season

	raws, err := s.results.FetchSeasonMatches(ctx, season)
	switch {
	case err != nil:
		report.add(name, CheckFail, "fetch failed: %v", err)
	case len(raws) == 0:
		report.add(name, CheckOK, "not served by the current tier")
	default:
		report.add(name, CheckOK, "served, %d matches; FOOTBALL_DATA_MIN_SEASON can be lowered", len(raws))
	}
}

func (s *DiagnosticsService) checkRecentOdds(ctx context.Context, report *DiagnosticsReport) {
	date := truncateToDay(s.now().UTC()).AddDate(0, 0, -1)
	name := "odds " + date.Format(match.DateLayout)

	fragments, err := s.odds.FetchFragments(ctx, date)
	switch {
	case err != nil:
		report.add(name, CheckFail, "fetch failed: %v", err)
	case len(fragments) == 0:
		report.add(name, CheckWarn, "no events returned")
	default:
		priced := 0
		for _, fragment := range fragments {
			if fragment.Prices != nil {
				priced++
			}
		}
		report.add(name, CheckOK, "%d events, %d with complete 1X2 prices", len(fragments), priced)
	}
}

func (s *DiagnosticsService) checkOddsWindow(report *DiagnosticsReport) {
	date := truncateToDay(s.now().UTC()).AddDate(0, 0, -(s.odds.windowDays + 10))
	name := "odds window"

	if s.odds.InWindow(date) {
		report.add(name, CheckWarn, "%s is inside the %d day window", date.Format(match.DateLayout), s.odds.windowDays)
		return
	}
	report.add(name, CheckOK, "%s is skipped without a request (window %d days)", date.Format(match.DateLayout), s.odds.windowDays)
}

func (s *DiagnosticsService) checkStore(ctx context.Context, report *DiagnosticsReport) {
	if _, err := s.repo.Select(ctx, match.Filter{Season: "diagnostics"}); err != nil {
		report.add("match store", CheckFail, "read failed: %v", err)
		return
	}
	pending, err := s.repo.Select(ctx, match.Filter{WithoutOdds: true})
	if err != nil {
		report.add("match store", CheckFail, "read failed: %v", err)
		return
	}
	report.add("match store", CheckOK, "reachable, %d matches without odds", len(pending))
}
