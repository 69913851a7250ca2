package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/epl-pipeline/internal/domain/match"
	"github.com/riskibarqy/epl-pipeline/internal/domain/team"
)

type fakeResultsSource struct {
	bySeason map[string][]ExternalMatch
	errs     map[string]error
	calls    []string
}

func (f *fakeResultsSource) FetchSeasonMatches(_ context.Context, season string) ([]ExternalMatch, error) {
	f.calls = append(f.calls, season)
	if err := f.errs[season]; err != nil {
		return nil, err
	}
	return f.bySeason[season], nil
}

type fakeOddsSource struct {
	byDate  map[string][]ExternalOddsEvent
	errs    map[string]error
	queried []string
}

func (f *fakeOddsSource) FetchOddsForDate(_ context.Context, date time.Time) ([]ExternalOddsEvent, error) {
	key := date.Format(match.DateLayout)
	f.queried = append(f.queried, key)
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	return f.byDate[key], nil
}

type staticIDs string

func (s staticIDs) NewID() (string, error) { return string(s), nil }

func fixedClock(year int, month time.Month, day int) func() time.Time {
	return func() time.Time { return time.Date(year, month, day, 18, 0, 0, 0, time.UTC) }
}

func intPtr(v int) *int { return &v }

func defaultNormalizer() *team.Normalizer {
	return team.NewNormalizer(team.DefaultAliases())
}

func h2hEvent(commence, home, away string, outcomes ...ExternalOutcome) ExternalOddsEvent {
	return ExternalOddsEvent{
		SportKey:     "soccer_epl",
		CommenceTime: commence,
		HomeTeam:     home,
		AwayTeam:     away,
		Bookmakers: []ExternalBookmaker{{
			Key:     "bet365",
			Title:   "Bet365",
			Markets: []ExternalMarket{{Key: "h2h", Outcomes: outcomes}},
		}},
	}
}

// cityWestHam is the 2023/24 opener as reported by the results source.
func cityWestHam() ExternalMatch {
	return ExternalMatch{
		UTCDate:         "2023-08-12T14:00:00Z",
		SeasonStartDate: "2023-08-11",
		HomeTeamName:    "Manchester City FC",
		AwayTeamName:    "West Ham United FC",
		FullTimeHome:    intPtr(3),
		FullTimeAway:    intPtr(1),
	}
}

func cityWestHamOdds() ExternalOddsEvent {
	return h2hEvent("2023-08-12T14:00:00Z", "Manchester City", "West Ham United",
		ExternalOutcome{Name: "Manchester City", Price: 1.25},
		ExternalOutcome{Name: "West Ham United", Price: 11.5},
		ExternalOutcome{Name: "Draw", Price: 6.5},
	)
}
