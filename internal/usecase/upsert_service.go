package usecase

import (
	"context"

	"github.com/riskibarqy/epl-pipeline/internal/domain/match"
	"github.com/riskibarqy/epl-pipeline/internal/platform/logging"
)

// UpsertResult counts the outcome of one upsert batch.
type UpsertResult struct {
	Inserted int
	Updated  int
	Errors   int
}

func (r UpsertResult) Add(other UpsertResult) UpsertResult {
	return UpsertResult{
		Inserted: r.Inserted + other.Inserted,
		Updated:  r.Updated + other.Updated,
		Errors:   r.Errors + other.Errors,
	}
}

// UpsertService writes matches one by one, keyed by match id.
type UpsertService struct {
	repo   match.Repository
	logger *logging.Logger
}

func NewUpsertService(repo match.Repository, logger *logging.Logger) *UpsertService {
	if logger == nil {
		logger = logging.Default()
	}
	return &UpsertService{repo: repo, logger: logger}
}

// Upsert updates matches whose id already exists and inserts the rest. A store
// failure on one record is counted and never stops the batch. There is no
// transaction across records.
func (s *UpsertService) Upsert(ctx context.Context, matches []match.Match) UpsertResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.UpsertService.Upsert")
	defer span.End()

	var result UpsertResult
	for _, m := range matches {
		exists, err := s.repo.Exists(ctx, m.ID)
		if err != nil {
			result.Errors++
			s.logger.ErrorContext(ctx, "check match existence failed", "match_id", m.ID, "error", err)
			continue
		}

		if exists {
			if err := s.repo.Update(ctx, m.ID, m); err != nil {
				result.Errors++
				s.logger.ErrorContext(ctx, "update match failed", "match_id", m.ID, "error", err)
				continue
			}
			result.Updated++
			continue
		}

		if err := s.repo.Insert(ctx, m); err != nil {
			result.Errors++
			s.logger.ErrorContext(ctx, "insert match failed", "match_id", m.ID, "error", err)
			continue
		}
		result.Inserted++
	}

	s.logger.InfoContext(ctx, "upsert batch finished",
		"records", len(matches),
		"inserted", result.Inserted,
		"updated", result.Updated,
		"errors", result.Errors,
	)
	return result
}
