package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/riskibarqy/epl-pipeline/internal/domain/match"
)

func skeleton(date, home, away string) match.Match {
	return match.Match{
		ID:       "EPL_" + date + "_" + home + "_" + away,
		Date:     date,
		HomeTeam: home,
		AwayTeam: away,
		Season:   "2023/24",
		League:   match.League,
		Market:   match.Market1X2,
	}
}

func TestJoin_CopiesPricesOntoMatchingSkeleton(t *testing.T) {
	t.Parallel()

	skeletons := []match.Match{
		skeleton("2023-08-12", "Manchester City", "West Ham United"),
		skeleton("2023-08-12", "Arsenal", "Chelsea"),
	}
	fragments := []match.OddsFragment{
		{Date: "2023-08-12", HomeTeam: "Arsenal", AwayTeam: "Chelsea"},
		{Date: "2023-08-12", HomeTeam: "Manchester City", AwayTeam: "West Ham United", Prices: &match.OddsSet{Home: 1.25, Draw: 6.5, Away: 11.5}},
		{Date: "2023-08-12", HomeTeam: "Manchester City", AwayTeam: "West Ham United", Prices: &match.OddsSet{Home: 9, Draw: 9, Away: 9}},
		{Date: "2023-08-13", HomeTeam: "Arsenal", AwayTeam: "Chelsea", Prices: &match.OddsSet{Home: 2, Draw: 3, Away: 4}},
	}

	got := Join(skeletons, fragments)
	if len(got) != 2 {
		t.Fatalf("expected skeleton count preserved, got=%d", len(got))
	}

	city := got[0]
	if city.OddsOpening == nil || city.OddsOpening.Home != 1.25 {
		t.Fatalf("expected first priced fragment to win, got %+v", city.OddsOpening)
	}
	if *city.OddsOpening != *city.OddsClosing {
		t.Fatalf("opening and closing must be equal")
	}
	if city.OddsOpening == city.OddsClosing {
		t.Fatalf("opening and closing must not alias")
	}
	if got[1].OddsOpening != nil {
		t.Fatalf("unpriced and other-date fragments must not attach")
	}
	if !reflect.DeepEqual(got[1], skeletons[1]) {
		t.Fatalf("unmatched skeleton changed:\n got=%+v\nwant=%+v", got[1], skeletons[1])
	}
	if skeletons[0].OddsOpening != nil {
		t.Fatalf("input skeletons must not be mutated")
	}
}

func TestJoin_ReturnsIndependentCopies(t *testing.T) {
	t.Parallel()

	xg := 1.7
	in := skeleton("2023-08-12", "Arsenal", "Chelsea")
	in.ResultHome = intPtr(2)
	in.ResultAway = intPtr(0)
	in.XG = &xg
	skeletons := []match.Match{in}

	got := Join(skeletons, nil)
	if got[0].ResultHome == skeletons[0].ResultHome || got[0].ResultAway == skeletons[0].ResultAway || got[0].XG == skeletons[0].XG {
		t.Fatalf("joined match shares pointers with its skeleton")
	}

	*got[0].ResultHome = 5
	if *skeletons[0].ResultHome != 2 {
		t.Fatalf("mutating the result changed the input: %d", *skeletons[0].ResultHome)
	}
}

func TestReconciliationService_Enrich_QueriesEachDateOnce(t *testing.T) {
	t.Parallel()

	source := &fakeOddsSource{
		byDate: map[string][]ExternalOddsEvent{"2023-08-12": {cityWestHamOdds()}},
		errs:   map[string]error{"2023-08-13": errors.New("provider down")},
	}
	extractor := newTestOddsExtractor(source, 3)
	service := NewReconciliationService(extractor, nil)

	skeletons := []match.Match{
		skeleton("2023-08-13", "Arsenal", "Chelsea"),
		skeleton("2023-08-12", "Manchester City", "West Ham United"),
		skeleton("2023-08-12", "Everton", "Fulham"),
		skeleton("2023-08-01", "Burnley", "Luton Town"),
		skeleton("bad", "Brentford", "Wolves"),
	}

	got, stats, err := service.Enrich(context.Background(), skeletons)
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if len(got) != len(skeletons) {
		t.Fatalf("expected every skeleton back, got=%d", len(got))
	}
	if len(source.queried) != 2 || source.queried[0] != "2023-08-12" || source.queried[1] != "2023-08-13" {
		t.Fatalf("unexpected queried dates: %v", source.queried)
	}
	if stats.DistinctDates != 4 || stats.DatesQueried != 2 || stats.DatesSkipped != 2 || stats.DatesFailed != 1 || stats.Enriched != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if got[1].OddsOpening == nil || got[2].OddsOpening != nil || got[0].OddsOpening != nil {
		t.Fatalf("unexpected enrichment: %+v", got)
	}
}

func TestReconciliationService_Enrich_StopsOnCancel(t *testing.T) {
	t.Parallel()

	source := &fakeOddsSource{}
	service := NewReconciliationService(NewOddsExtractor(source, defaultNormalizer(), OddsExtractorConfig{
		WindowDays: 3,
		Now:        func() time.Time { return time.Date(2023, 8, 13, 0, 0, 0, 0, time.UTC) },
	}), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	skeletons := []match.Match{skeleton("2023-08-12", "Arsenal", "Chelsea")}
	got, _, err := service.Enrich(ctx, skeletons)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if len(got) != 1 || len(source.queried) != 0 {
		t.Fatalf("expected skeletons back without requests")
	}
}
