package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/epl-pipeline/internal/domain/match"
	"github.com/riskibarqy/epl-pipeline/internal/infrastructure/repository/memory"
)

type recordingFiles struct {
	seasons map[string][]match.Match
	err     error
}

func (r *recordingFiles) WriteSeason(_ context.Context, season string, matches []match.Match) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	if r.seasons == nil {
		r.seasons = map[string][]match.Match{}
	}
	r.seasons[season] = matches
	return "epl_matches_" + season + ".csv", nil
}

type pipelineFixture struct {
	results *fakeResultsSource
	odds    *fakeOddsSource
	repo    *memory.MatchRepository
	files   *recordingFiles
	service *PipelineService
}

func newPipelineFixture() *pipelineFixture {
	normalizer := defaultNormalizer()
	f := &pipelineFixture{
		results: &fakeResultsSource{bySeason: map[string][]ExternalMatch{}, errs: map[string]error{}},
		odds:    &fakeOddsSource{byDate: map[string][]ExternalOddsEvent{}},
		repo:    memory.NewMatchRepository(),
		files:   &recordingFiles{},
	}

	oddsExtractor := NewOddsExtractor(f.odds, normalizer, OddsExtractorConfig{
		WindowDays: 3,
		Now:        fixedClock(2023, time.August, 13),
	})
	f.service = NewPipelineService(PipelineDeps{
		Normalizer: normalizer,
		Extractor:  NewMatchExtractor(f.results, normalizer, 2023, nil),
		Reconciler: NewReconciliationService(oddsExtractor, nil),
		Upserter:   NewUpsertService(f.repo, nil),
		Repository: f.repo,
		Files:      f.files,
		IDs:        staticIDs("run-1"),
		Now:        fixedClock(2023, time.August, 13),
	})
	return f
}

func TestPipelineService_RunSeasons_CityWestHam(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture()
	f.results.bySeason["2023"] = []ExternalMatch{cityWestHam()}
	f.odds.byDate["2023-08-12"] = []ExternalOddsEvent{cityWestHamOdds()}

	summary, err := f.service.RunSeasons(context.Background(), []string{"2023"}, RunOptions{IncludeOdds: true, SaveCSV: true})
	if err != nil {
		t.Fatalf("run seasons: %v", err)
	}
	if summary.RunID != "run-1" || summary.SeasonsProcessed != 1 || summary.Processed != 1 || summary.Inserted != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	stored, err := f.repo.Select(context.Background(), match.Filter{})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected one stored match, got=%d", len(stored))
	}
	got := stored[0]
	if got.ID != "EPL_2023_08_12_Manchester_City_West_Ham_United" || got.Season != "2023/24" {
		t.Fatalf("unexpected stored match: %+v", got)
	}
	want := match.OddsSet{Home: 1.25, Draw: 6.5, Away: 11.5}
	if got.OddsOpening == nil || *got.OddsOpening != want || got.OddsClosing == nil || *got.OddsClosing != want {
		t.Fatalf("unexpected odds: %+v %+v", got.OddsOpening, got.OddsClosing)
	}
	if len(f.files.seasons["2023"]) != 1 {
		t.Fatalf("expected csv write for season 2023")
	}
}

func TestPipelineService_RunSeasons_RerunUpdates(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture()
	f.results.bySeason["2023"] = []ExternalMatch{cityWestHam()}

	if _, err := f.service.RunSeasons(context.Background(), []string{"2023"}, RunOptions{}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	summary, err := f.service.RunSeasons(context.Background(), []string{"2023"}, RunOptions{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.Inserted != 0 || summary.Updated != 1 {
		t.Fatalf("expected update on rerun, got %+v", summary)
	}
	if len(f.odds.queried) != 0 {
		t.Fatalf("odds must not be fetched when disabled")
	}
}

func TestPipelineService_RunSeasons_FailingSeasonIsSkipped(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture()
	f.results.errs["2023"] = errors.New("boom")
	later := cityWestHam()
	later.UTCDate = "2024-08-17T14:00:00Z"
	later.SeasonStartDate = "2024-08-16"
	f.results.bySeason["2024"] = []ExternalMatch{later}

	summary, err := f.service.RunSeasons(context.Background(), []string{"2021", "2023", "2024"}, RunOptions{})
	if err != nil {
		t.Fatalf("run seasons: %v", err)
	}
	if summary.SeasonsRequested != 3 || summary.SeasonsProcessed != 1 || summary.Inserted != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(f.results.calls) != 2 {
		t.Fatalf("season before access window must not be fetched: %v", f.results.calls)
	}
}

func TestPipelineService_RunSeasons_DiscardsInvalidAndCountsThem(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture()
	broken := cityWestHam()
	broken.UTCDate = "garbage"
	f.results.bySeason["2023"] = []ExternalMatch{cityWestHam(), broken}

	summary, err := f.service.RunSeasons(context.Background(), []string{"2023"}, RunOptions{})
	if err != nil {
		t.Fatalf("run seasons: %v", err)
	}
	if summary.Processed != 1 || summary.Discarded != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestPipelineService_RunSeasons_InterruptedReportsPartialSummary(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := f.service.RunSeasons(ctx, []string{"2023", "2024"}, RunOptions{})
	if err != nil {
		t.Fatalf("run seasons: %v", err)
	}
	if !summary.Interrupted || summary.SeasonsProcessed != 0 || summary.FinishedAt.IsZero() {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestPipelineService_RunSeasons_CSVFailureDoesNotStopUpsert(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture()
	f.files.err = errors.New("read-only filesystem")
	f.results.bySeason["2023"] = []ExternalMatch{cityWestHam()}

	summary, err := f.service.RunSeasons(context.Background(), []string{"2023"}, RunOptions{SaveCSV: true})
	if err != nil {
		t.Fatalf("run seasons: %v", err)
	}
	if summary.Inserted != 1 {
		t.Fatalf("expected upsert despite csv failure, got %+v", summary)
	}
}

func TestPipelineService_UpdateOddsOnly(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture()
	ctx := context.Background()
	city := validMatch()
	other := skeleton("2023-08-12", "Arsenal", "Chelsea")
	if err := f.repo.Insert(ctx, city); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := f.repo.Insert(ctx, other); err != nil {
		t.Fatalf("seed: %v", err)
	}
	f.odds.byDate["2023-08-12"] = []ExternalOddsEvent{cityWestHamOdds()}

	result, err := f.service.UpdateOddsOnly(ctx)
	if err != nil {
		t.Fatalf("update odds only: %v", err)
	}
	if result != (UpsertResult{Updated: 1}) {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(f.odds.queried) != 1 {
		t.Fatalf("expected a single odds request per date, got %v", f.odds.queried)
	}

	pending, _ := f.repo.Select(ctx, match.Filter{WithoutOdds: true})
	if len(pending) != 1 || pending[0].ID != other.ID {
		t.Fatalf("unexpected matches still without odds: %+v", pending)
	}

	again, err := f.service.UpdateOddsOnly(ctx)
	if err != nil {
		t.Fatalf("second update odds only: %v", err)
	}
	if again != (UpsertResult{}) {
		t.Fatalf("expected nothing new, got %+v", again)
	}
}

func TestPipelineService_ImportOdds(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture()
	ctx := context.Background()
	if err := f.repo.Insert(ctx, validMatch()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	result, err := f.service.ImportOdds(ctx, []match.OddsFragment{
		{Date: "2023-08-12", HomeTeam: "Manchester City FC", AwayTeam: "West Ham United FC", Prices: &match.OddsSet{Home: 1.3, Draw: 5.75, Away: 9.5}},
		{Date: "2023-08-19", HomeTeam: "Newcastle United FC", AwayTeam: "Manchester City FC", Prices: &match.OddsSet{Home: 4, Draw: 3.8, Away: 1.8}},
	})
	if err != nil {
		t.Fatalf("import odds: %v", err)
	}
	if result != (UpsertResult{Updated: 1}) {
		t.Fatalf("unexpected result: %+v", result)
	}

	stored, _ := f.repo.Select(ctx, match.Filter{})
	if stored[0].OddsOpening == nil || stored[0].OddsOpening.Draw != 5.75 {
		t.Fatalf("expected imported odds, got %+v", stored[0].OddsOpening)
	}
}

func TestPipelineService_LoadMatches(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture()
	invalid := validMatch()
	invalid.ID = "EPL_invalid"
	invalid.Date = "2023-13-45"

	result := f.service.LoadMatches(context.Background(), []match.Match{validMatch(), invalid})
	if result != (UpsertResult{Inserted: 1, Errors: 1}) {
		t.Fatalf("unexpected result: %+v", result)
	}
}
