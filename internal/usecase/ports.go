package usecase

import (
	"context"
	"time"
)

// ResultsSource returns the raw finished matches of one season, identified by
// its start year ("2023"). Seasons outside the provider's access window yield
// an empty slice, not an error.
type ResultsSource interface {
	FetchSeasonMatches(ctx context.Context, season string) ([]ExternalMatch, error)
}

// OddsSource returns raw odds events quoted on date. Dates without market data
// yield an empty slice, not an error.
type OddsSource interface {
	FetchOddsForDate(ctx context.Context, date time.Time) ([]ExternalOddsEvent, error)
}

// ExternalMatch is one results-source match as reported upstream, before normalization.
type ExternalMatch struct {
	UTCDate         string
	SeasonStartDate string
	HomeTeamName    string
	AwayTeamName    string
	FullTimeHome    *int
	FullTimeAway    *int
}

// ExternalOddsEvent is one odds-source event as reported upstream, before normalization.
type ExternalOddsEvent struct {
	SportKey     string
	CommenceTime string
	HomeTeam     string
	AwayTeam     string
	Bookmakers   []ExternalBookmaker
}

type ExternalBookmaker struct {
	Key     string
	Title   string
	Markets []ExternalMarket
}

type ExternalMarket struct {
	Key      string
	Outcomes []ExternalOutcome
}

type ExternalOutcome struct {
	Name  string
	Price float64
}
