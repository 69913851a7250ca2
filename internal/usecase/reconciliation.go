package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/riskibarqy/epl-pipeline/internal/domain/match"
	"github.com/riskibarqy/epl-pipeline/internal/platform/logging"
)

// Join copies prices from fragments onto skeletons sharing the same
// (date, home_team, away_team). The first priced fragment per key wins;
// fragments without prices are ignored. Unmatched skeletons are returned as is.
func Join(skeletons []match.Match, fragments []match.OddsFragment) []match.Match {
	byKey := make(map[match.Key]match.OddsSet, len(fragments))
	for _, fragment := range fragments {
		if fragment.Prices == nil {
			continue
		}
		if _, exists := byKey[fragment.Key()]; exists {
			continue
		}
		byKey[fragment.Key()] = *fragment.Prices
	}

	out := make([]match.Match, len(skeletons))
	for idx, skeleton := range skeletons {
		out[idx] = skeleton.Clone()
		prices, ok := byKey[skeleton.Key()]
		if !ok {
			continue
		}
		opening, closing := prices, prices
		out[idx].OddsOpening = &opening
		out[idx].OddsClosing = &closing
	}
	return out
}

// EnrichStats summarizes one enrichment pass.
type EnrichStats struct {
	DistinctDates int
	DatesQueried  int
	DatesSkipped  int
	DatesFailed   int
	Enriched      int
}

// ReconciliationService fetches odds once per distinct match date and joins
// them onto the skeletons.
type ReconciliationService struct {
	odds   *OddsExtractor
	logger *logging.Logger
}

func NewReconciliationService(odds *OddsExtractor, logger *logging.Logger) *ReconciliationService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ReconciliationService{odds: odds, logger: logger}
}

// Enrich never fails on upstream errors: a date whose odds cannot be fetched
// contributes no fragments. It returns early only when ctx is done, in which
// case the skeletons are returned without odds.
func (s *ReconciliationService) Enrich(ctx context.Context, skeletons []match.Match) ([]match.Match, EnrichStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconciliationService.Enrich")
	defer span.End()

	var stats EnrichStats
	dates := distinctDates(skeletons)
	stats.DistinctDates = len(dates)

	fragments := make([]match.OddsFragment, 0, len(skeletons))
	for _, raw := range dates {
		if err := ctx.Err(); err != nil {
			return skeletons, stats, err
		}

		date, err := time.Parse(match.DateLayout, raw)
		if err != nil {
			stats.DatesSkipped++
			s.logger.WarnContext(ctx, "skip odds fetch for unparseable match date", "date", raw, "error", err)
			continue
		}
		if !s.odds.InWindow(date) {
			stats.DatesSkipped++
			s.logger.InfoContext(ctx, "skip odds fetch outside odds source access window", "date", raw)
			continue
		}

		stats.DatesQueried++
		items, err := s.odds.FetchFragments(ctx, date)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return skeletons, stats, ctxErr
			}
			stats.DatesFailed++
			s.logger.WarnContext(ctx, "odds unavailable for date, continuing without odds", "date", raw, "error", err)
			continue
		}
		fragments = append(fragments, items...)
	}

	out := Join(skeletons, fragments)
	for idx, m := range out {
		if m.OddsComplete() && !skeletons[idx].OddsComplete() {
			stats.Enriched++
		}
	}

	s.logger.InfoContext(ctx, "odds enrichment finished",
		"matches", len(skeletons),
		"distinct_dates", stats.DistinctDates,
		"dates_queried", stats.DatesQueried,
		"dates_skipped", stats.DatesSkipped,
		"dates_failed", stats.DatesFailed,
		"enriched", stats.Enriched,
	)
	return out, stats, nil
}

func distinctDates(skeletons []match.Match) []string {
	seen := make(map[string]struct{}, len(skeletons))
	out := make([]string, 0, len(skeletons))
	for _, m := range skeletons {
		if _, ok := seen[m.Date]; ok {
			continue
		}
		seen[m.Date] = struct{}{}
		out = append(out, m.Date)
	}
	sort.Strings(out)
	return out
}
