package usecase

import (
	"context"
	"strings"

	"github.com/riskibarqy/epl-pipeline/internal/domain/match"
)

// ImportOdds joins externally supplied odds (for example a bookmaker CSV
// export) onto stored matches that have none yet, and writes back the ones
// that gained prices. Team names in fragments are normalized first.
func (s *PipelineService) ImportOdds(ctx context.Context, fragments []match.OddsFragment) (UpsertResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PipelineService.ImportOdds")
	defer span.End()

	normalized := make([]match.OddsFragment, 0, len(fragments))
	for _, fragment := range fragments {
		fragment.HomeTeam = s.normalizer.Normalize(strings.TrimSpace(fragment.HomeTeam))
		fragment.AwayTeam = s.normalizer.Normalize(strings.TrimSpace(fragment.AwayTeam))
		fragment.Date = strings.TrimSpace(fragment.Date)
		normalized = append(normalized, fragment)
	}

	pending, err := s.repo.Select(ctx, match.Filter{WithoutOdds: true})
	if err != nil {
		return UpsertResult{}, err
	}
	s.logger.InfoContext(ctx, "importing odds", "fragments", len(normalized), "matches_without_odds", len(pending))

	return s.upsertNewlyPriced(ctx, Join(pending, normalized)), nil
}

// LoadMatches validates and upserts matches read back from a CSV file.
func (s *PipelineService) LoadMatches(ctx context.Context, matches []match.Match) UpsertResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.PipelineService.LoadMatches")
	defer span.End()

	valid := s.ValidateAll(ctx, matches)
	result := s.upserter.Upsert(ctx, valid)
	result.Errors += len(matches) - len(valid)
	return result
}
