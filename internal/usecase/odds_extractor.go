package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/epl-pipeline/internal/domain/match"
	"github.com/riskibarqy/epl-pipeline/internal/domain/team"
	"github.com/riskibarqy/epl-pipeline/internal/platform/logging"
)

const (
	headToHeadMarket = "h2h"
	drawOutcomeLabel = "draw"
)

// OddsExtractor turns odds-source events into per-fixture odds fragments.
type OddsExtractor struct {
	source     OddsSource
	normalizer *team.Normalizer
	windowDays int
	now        func() time.Time
	logger     *logging.Logger
}

type OddsExtractorConfig struct {
	// WindowDays is how many days back from today the source serves history.
	WindowDays int
	// Now is the clock used for the window check. Defaults to time.Now.
	Now    func() time.Time
	Logger *logging.Logger
}

func NewOddsExtractor(source OddsSource, normalizer *team.Normalizer, cfg OddsExtractorConfig) *OddsExtractor {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &OddsExtractor{
		source:     source,
		normalizer: normalizer,
		windowDays: cfg.WindowDays,
		now:        now,
		logger:     logger,
	}
}

// InWindow reports whether the source can serve odds for date.
func (e *OddsExtractor) InWindow(date time.Time) bool {
	today := truncateToDay(e.now().UTC())
	daysAgo := int(today.Sub(truncateToDay(date.UTC())).Hours() / 24)
	return daysAgo <= e.windowDays
}

// FetchFragments queries the source for one date and extracts a fragment per
// event. Dates outside the access window return nothing and issue no request.
func (e *OddsExtractor) FetchFragments(ctx context.Context, date time.Time) ([]match.OddsFragment, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OddsExtractor.FetchFragments")
	defer span.End()

	if !e.InWindow(date) {
		e.logger.InfoContext(ctx, "skip odds fetch outside odds source access window",
			"date", date.Format(match.DateLayout),
			"window_days", e.windowDays,
		)
		return nil, nil
	}

	events, err := e.source.FetchOddsForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch odds for %s: %v", ErrDependencyUnavailable, date.Format(match.DateLayout), err)
	}

	out := make([]match.OddsFragment, 0, len(events))
	for _, event := range events {
		out = append(out, e.Extract(ctx, event, date))
	}
	return out, nil
}

// Extract builds one fragment. queried is used as the fragment date when the
// event carries no parseable commence time.
func (e *OddsExtractor) Extract(ctx context.Context, event ExternalOddsEvent, queried time.Time) match.OddsFragment {
	fragment := match.OddsFragment{
		Date:     fragmentDate(event.CommenceTime, queried),
		HomeTeam: e.normalizer.Normalize(strings.TrimSpace(event.HomeTeam)),
		AwayTeam: e.normalizer.Normalize(strings.TrimSpace(event.AwayTeam)),
	}

	if len(event.Bookmakers) == 0 {
		return fragment
	}
	bookmaker := event.Bookmakers[0]

	var market *ExternalMarket
	for idx := range bookmaker.Markets {
		if bookmaker.Markets[idx].Key == headToHeadMarket {
			market = &bookmaker.Markets[idx]
			break
		}
	}
	if market == nil || len(market.Outcomes) == 0 {
		return fragment
	}

	prices := make(map[string]float64, 3)
	for _, outcome := range market.Outcomes {
		code, byElimination := classifyOutcome(outcome.Name, event.HomeTeam, event.AwayTeam)
		if byElimination {
			e.logger.WarnContext(ctx, "odds outcome classified as draw by elimination",
				"outcome", outcome.Name,
				"home_team", event.HomeTeam,
				"away_team", event.AwayTeam,
				"bookmaker", bookmaker.Key,
			)
		}
		prices[code] = outcome.Price
	}

	home, okHome := prices[match.OutcomeHome]
	draw, okDraw := prices[match.OutcomeDraw]
	away, okAway := prices[match.OutcomeAway]
	if !okHome || !okDraw || !okAway {
		e.logger.WarnContext(ctx, "drop partial odds set",
			"home_team", fragment.HomeTeam,
			"away_team", fragment.AwayTeam,
			"date", fragment.Date,
			"outcomes", len(prices),
		)
		return fragment
	}

	fragment.Prices = &match.OddsSet{Home: home, Draw: draw, Away: away}
	return fragment
}

// classifyOutcome maps an outcome name to 1, X or 2 by comparing it with the
// event's own raw team names. The second value is true when the draw was
// inferred only because the name matched neither team.
func classifyOutcome(name, homeTeam, awayTeam string) (string, bool) {
	switch {
	case name == homeTeam:
		return match.OutcomeHome, false
	case name == awayTeam:
		return match.OutcomeAway, false
	case strings.EqualFold(strings.TrimSpace(name), drawOutcomeLabel):
		return match.OutcomeDraw, false
	default:
		return match.OutcomeDraw, true
	}
}

func fragmentDate(commenceTime string, queried time.Time) string {
	if parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(commenceTime)); err == nil {
		return parsed.UTC().Format(match.DateLayout)
	}
	return queried.UTC().Format(match.DateLayout)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
