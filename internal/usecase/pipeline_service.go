package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/riskibarqy/epl-pipeline/internal/domain/match"
	"github.com/riskibarqy/epl-pipeline/internal/domain/team"
	"github.com/riskibarqy/epl-pipeline/internal/platform/id"
	"github.com/riskibarqy/epl-pipeline/internal/platform/logging"
)

// SeasonFileWriter persists the validated matches of one season to a flat file.
type SeasonFileWriter interface {
	WriteSeason(ctx context.Context, season string, matches []match.Match) (string, error)
}

type RunOptions struct {
	IncludeOdds bool
	SaveCSV     bool
}

// Summary is reported at the end of every run, even a partial one.
type Summary struct {
	RunID            string
	SeasonsRequested int
	SeasonsProcessed int
	Processed        int
	Discarded        int
	Inserted         int
	Updated          int
	Errors           int
	Interrupted      bool
	FinishedAt       time.Time
}

type PipelineService struct {
	normalizer *team.Normalizer
	extractor  *MatchExtractor
	reconciler *ReconciliationService
	validator  *Validator
	upserter   *UpsertService
	repo       match.Repository
	files      SeasonFileWriter
	ids        id.Generator
	now        func() time.Time
	logger     *logging.Logger
}

type PipelineDeps struct {
	Normalizer *team.Normalizer
	Extractor  *MatchExtractor
	Reconciler *ReconciliationService
	Validator  *Validator
	Upserter   *UpsertService
	Repository match.Repository
	Files      SeasonFileWriter
	IDs        id.Generator
	Now        func() time.Time
	Logger     *logging.Logger
}

func NewPipelineService(deps PipelineDeps) *PipelineService {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	ids := deps.IDs
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	validator := deps.Validator
	if validator == nil {
		validator = NewValidator()
	}
	return &PipelineService{
		normalizer: deps.Normalizer,
		extractor:  deps.Extractor,
		reconciler: deps.Reconciler,
		validator:  validator,
		upserter:   deps.Upserter,
		repo:       deps.Repository,
		files:      deps.Files,
		ids:        ids,
		now:        now,
		logger:     logger,
	}
}

// RunSeasons processes seasons in order: extract, optionally enrich with odds,
// validate, optionally write CSV, then upsert. A failing season is logged and
// skipped. Cancellation is honoured between seasons; the summary reflects
// whatever completed.
func (s *PipelineService) RunSeasons(ctx context.Context, seasons []string, opts RunOptions) (Summary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PipelineService.RunSeasons")
	defer span.End()

	runID, err := s.ids.NewID()
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{RunID: runID, SeasonsRequested: len(seasons)}
	logger := s.logger.With("run_id", runID)
	logger.InfoContext(ctx, "pipeline started", "seasons", seasons, "include_odds", opts.IncludeOdds, "save_csv", opts.SaveCSV)

	for _, season := range seasons {
		if ctx.Err() != nil {
			summary.Interrupted = true
			logger.WarnContext(ctx, "pipeline interrupted", "next_season", season)
			break
		}

		processed, err := s.runSeason(ctx, logger, season, opts, &summary)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				summary.Interrupted = true
				logger.WarnContext(ctx, "pipeline interrupted", "season", season, "error", err)
				break
			}
			logger.ErrorContext(ctx, "season failed, continuing with next season", "season", season, "error", err)
			continue
		}
		if processed {
			summary.SeasonsProcessed++
		}
	}

	summary.FinishedAt = s.now().UTC()
	logger.InfoContext(ctx, "pipeline completed",
		"seasons_requested", summary.SeasonsRequested,
		"seasons_processed", summary.SeasonsProcessed,
		"processed", summary.Processed,
		"discarded", summary.Discarded,
		"inserted", summary.Inserted,
		"updated", summary.Updated,
		"errors", summary.Errors,
		"interrupted", summary.Interrupted,
	)
	return summary, nil
}

func (s *PipelineService) runSeason(ctx context.Context, logger *logging.Logger, season string, opts RunOptions, summary *Summary) (bool, error) {
	extraction, err := s.extractor.ExtractSeason(ctx, season)
	if err != nil {
		return false, err
	}
	summary.Discarded += extraction.Discarded
	if extraction.Skipped {
		return false, nil
	}
	if len(extraction.Matches) == 0 {
		logger.WarnContext(ctx, "no matches found for season", "season", season)
		return false, nil
	}
	logger.InfoContext(ctx, "season extracted", "season", season, "matches", len(extraction.Matches), "discarded", extraction.Discarded)

	matches := extraction.Matches
	if opts.IncludeOdds && s.reconciler != nil {
		matches, _, err = s.reconciler.Enrich(ctx, matches)
		if err != nil {
			return false, err
		}
	}

	valid := s.ValidateAll(ctx, matches)
	summary.Discarded += len(matches) - len(valid)

	if opts.SaveCSV && s.files != nil {
		path, err := s.files.WriteSeason(ctx, season, valid)
		if err != nil {
			logger.ErrorContext(ctx, "write season csv failed", "season", season, "error", err)
		} else {
			logger.InfoContext(ctx, "season csv written", "season", season, "path", path, "records", len(valid))
		}
	}

	result := s.upserter.Upsert(ctx, valid)
	summary.Processed += len(valid)
	summary.Inserted += result.Inserted
	summary.Updated += result.Updated
	summary.Errors += result.Errors
	logger.InfoContext(ctx, "season completed", "season", season, "processed", len(valid))
	return true, nil
}

// ValidateAll drops invalid records, logging every reason per record.
func (s *PipelineService) ValidateAll(ctx context.Context, matches []match.Match) []match.Match {
	out := make([]match.Match, 0, len(matches))
	for _, m := range matches {
		if reasons := s.validator.Validate(m); len(reasons) > 0 {
			s.logger.WarnContext(ctx, "discard invalid match", "match_id", m.ID, "reasons", reasons)
			continue
		}
		out = append(out, m)
	}
	return out
}

// UpdateOddsOnly enriches stored matches that lack odds and writes back the
// ones that gained them.
func (s *PipelineService) UpdateOddsOnly(ctx context.Context) (UpsertResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PipelineService.UpdateOddsOnly")
	defer span.End()

	pending, err := s.repo.Select(ctx, match.Filter{WithoutOdds: true})
	if err != nil {
		return UpsertResult{}, err
	}
	if len(pending) == 0 {
		s.logger.InfoContext(ctx, "no matches without odds")
		return UpsertResult{}, nil
	}
	s.logger.InfoContext(ctx, "matches without odds found", "count", len(pending))

	enriched, _, err := s.reconciler.Enrich(ctx, pending)
	if err != nil {
		return UpsertResult{}, err
	}
	return s.upsertNewlyPriced(ctx, enriched), nil
}

func (s *PipelineService) upsertNewlyPriced(ctx context.Context, matches []match.Match) UpsertResult {
	priced := make([]match.Match, 0, len(matches))
	for _, m := range matches {
		if m.OddsComplete() {
			priced = append(priced, m)
		}
	}
	if len(priced) == 0 {
		s.logger.InfoContext(ctx, "no new odds obtained")
		return UpsertResult{}
	}
	return s.upserter.Upsert(ctx, s.ValidateAll(ctx, priced))
}
