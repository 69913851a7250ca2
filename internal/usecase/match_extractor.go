package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/epl-pipeline/internal/domain/match"
	"github.com/riskibarqy/epl-pipeline/internal/domain/team"
	"github.com/riskibarqy/epl-pipeline/internal/platform/logging"
)

// MatchExtractor turns results-source records into canonical match skeletons.
type MatchExtractor struct {
	source     ResultsSource
	normalizer *team.Normalizer
	minSeason  int
	logger     *logging.Logger
}

// SeasonExtraction is the outcome of extracting one season.
type SeasonExtraction struct {
	Season    string
	Matches   []match.Match
	Discarded int
	// Skipped is set when the season lies before the source's first accessible season.
	Skipped bool
}

func NewMatchExtractor(source ResultsSource, normalizer *team.Normalizer, minSeason int, logger *logging.Logger) *MatchExtractor {
	if logger == nil {
		logger = logging.Default()
	}
	return &MatchExtractor{
		source:     source,
		normalizer: normalizer,
		minSeason:  minSeason,
		logger:     logger,
	}
}

// ExtractSeason fetches and converts one season. A season older than the
// minimum accessible season is skipped without calling the source.
func (e *MatchExtractor) ExtractSeason(ctx context.Context, season string) (SeasonExtraction, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchExtractor.ExtractSeason")
	defer span.End()

	season = strings.TrimSpace(season)
	out := SeasonExtraction{Season: season}
	year, err := strconv.Atoi(season)
	if err != nil {
		return out, fmt.Errorf("%w: season must be a start year, got %q", ErrInvalidInput, season)
	}
	if year < e.minSeason {
		e.logger.InfoContext(ctx, "skip season outside results source access window",
			"season", season,
			"min_season", e.minSeason,
		)
		out.Skipped = true
		return out, nil
	}

	raws, err := e.source.FetchSeasonMatches(ctx, season)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out, ctxErr
		}
		return out, fmt.Errorf("%w: fetch season %s: %v", ErrDependencyUnavailable, season, err)
	}

	out.Matches, out.Discarded = e.ExtractAll(ctx, raws)
	return out, nil
}

// ExtractAll converts a batch, skipping and logging malformed records.
func (e *MatchExtractor) ExtractAll(ctx context.Context, raws []ExternalMatch) ([]match.Match, int) {
	out := make([]match.Match, 0, len(raws))
	discarded := 0
	for idx, raw := range raws {
		m, err := e.Extract(raw)
		if err != nil {
			discarded++
			e.logger.WarnContext(ctx, "discard malformed match record",
				"index", idx,
				"home_team", raw.HomeTeamName,
				"away_team", raw.AwayTeamName,
				"utc_date", raw.UTCDate,
				"error", err,
			)
			continue
		}
		out = append(out, m)
	}
	return out, discarded
}

// Extract converts one record. Errors are marked with ErrMalformedRecord.
func (e *MatchExtractor) Extract(raw ExternalMatch) (match.Match, error) {
	kickoff, err := time.Parse(time.RFC3339, strings.TrimSpace(raw.UTCDate))
	if err != nil {
		return match.Match{}, crerr.Mark(crerr.Wrapf(err, "parse utcDate %q", raw.UTCDate), ErrMalformedRecord)
	}
	seasonStart, err := time.Parse(match.DateLayout, strings.TrimSpace(raw.SeasonStartDate))
	if err != nil {
		return match.Match{}, crerr.Mark(crerr.Wrapf(err, "parse season startDate %q", raw.SeasonStartDate), ErrMalformedRecord)
	}

	home := e.normalizer.Normalize(strings.TrimSpace(raw.HomeTeamName))
	away := e.normalizer.Normalize(strings.TrimSpace(raw.AwayTeamName))
	if home == "" || away == "" {
		return match.Match{}, crerr.Mark(crerr.New("home and away team names are required"), ErrMalformedRecord)
	}

	day := kickoff.UTC()
	m := match.Match{
		ID:       match.ID(day, home, away),
		Date:     day.Format(match.DateLayout),
		HomeTeam: home,
		AwayTeam: away,
		Season:   match.SeasonLabel(seasonStart.Year()),
		League:   match.League,
		Market:   match.Market1X2,
	}
	if raw.FullTimeHome != nil && raw.FullTimeAway != nil {
		homeGoals, awayGoals := *raw.FullTimeHome, *raw.FullTimeAway
		m.ResultHome = &homeGoals
		m.ResultAway = &awayGoals
	}
	return m, nil
}
