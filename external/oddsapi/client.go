package oddsapi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/epl-pipeline/external/providerhttp"
	"github.com/riskibarqy/epl-pipeline/internal/platform/logging"
	"github.com/riskibarqy/epl-pipeline/internal/platform/resilience"
	"github.com/riskibarqy/epl-pipeline/internal/usecase"
)

const (
	defaultBaseURL  = "https://api.the-odds-api.com/v4"
	defaultSportKey = "soccer_epl"
	defaultRegions  = "uk,eu"
	h2hMarket       = "h2h"
)

type ClientConfig struct {
	HTTPClient           *http.Client
	BaseURL              string
	APIKey               string
	SportKey             string
	Regions              string
	Timeout              time.Duration
	MaxRetries           int
	MaxRequestsPerMinute int
	Logger               *logging.Logger
	CircuitBreaker       resilience.CircuitBreakerConfig
}

// Client reads historical head-to-head odds snapshots from the-odds-api.com.
type Client struct {
	http     *providerhttp.Client
	apiKey   string
	sportKey string
	regions  string
	logger   *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	sportKey := strings.TrimSpace(cfg.SportKey)
	if sportKey == "" {
		sportKey = defaultSportKey
	}
	regions := strings.TrimSpace(cfg.Regions)
	if regions == "" {
		regions = defaultRegions
	}
	apiKey := strings.TrimSpace(cfg.APIKey)

	return &Client{
		http: providerhttp.New(providerhttp.Config{
			Name:                 "odds-api",
			HTTPClient:           cfg.HTTPClient,
			BaseURL:              baseURL,
			Timeout:              cfg.Timeout,
			Retry:                resilience.RetryConfig{MaxRetries: max(cfg.MaxRetries, 0)},
			MaxRequestsPerMinute: cfg.MaxRequestsPerMinute,
			CircuitBreaker:       cfg.CircuitBreaker,
			SecretParams:         []string{"apiKey"},
			Secrets:              []string{apiKey},
			QuietStatuses:        []int{http.StatusUnprocessableEntity},
			Logger:               logger,
		}),
		apiKey:   apiKey,
		sportKey: sportKey,
		regions:  regions,
		logger:   logger,
	}
}

// FetchOddsForDate returns the odds snapshot taken at the start of date (UTC).
// The provider answers 422 for dates it holds no snapshot for; that is an
// empty result.
func (c *Client) FetchOddsForDate(ctx context.Context, date time.Time) ([]usecase.ExternalOddsEvent, error) {
	day := date.UTC().Truncate(24 * time.Hour)

	query := url.Values{}
	query.Set("apiKey", c.apiKey)
	query.Set("regions", c.regions)
	query.Set("markets", h2hMarket)
	query.Set("dateFormat", "iso")
	query.Set("date", day.Format(time.RFC3339))

	path := "/sports/" + url.PathEscape(c.sportKey) + "/odds-history"
	raw, err := c.http.Get(ctx, path, query)
	if err != nil {
		if providerhttp.IsStatus(err, http.StatusUnprocessableEntity) {
			c.logger.InfoContext(ctx, "odds-api has no snapshot for date", "date", day.Format(time.DateOnly))
			return nil, nil
		}
		return nil, fmt.Errorf("fetch odds date=%s: %w", day.Format(time.DateOnly), err)
	}

	events, err := decodeEvents(raw)
	if err != nil {
		return nil, fmt.Errorf("decode odds date=%s: %w", day.Format(time.DateOnly), err)
	}

	out := make([]usecase.ExternalOddsEvent, 0, len(events))
	for _, event := range events {
		out = append(out, event.toExternal())
	}
	return out, nil
}

// decodeEvents accepts the historical envelope ({"data": [...]}) as well as a
// bare event array.
func decodeEvents(raw []byte) ([]oddsEvent, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var events []oddsEvent
		if err := sonic.Unmarshal(trimmed, &events); err != nil {
			return nil, err
		}
		return events, nil
	}

	var envelope historyEnvelope
	if err := sonic.Unmarshal(trimmed, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

type historyEnvelope struct {
	Timestamp string      `json:"timestamp"`
	Data      []oddsEvent `json:"data"`
}

type oddsEvent struct {
	ID           string          `json:"id"`
	SportKey     string          `json:"sport_key"`
	CommenceTime string          `json:"commence_time"`
	HomeTeam     string          `json:"home_team"`
	AwayTeam     string          `json:"away_team"`
	Bookmakers   []bookmakerItem `json:"bookmakers"`
}

type bookmakerItem struct {
	Key     string       `json:"key"`
	Title   string       `json:"title"`
	Markets []marketItem `json:"markets"`
}

type marketItem struct {
	Key      string        `json:"key"`
	Outcomes []outcomeItem `json:"outcomes"`
}

type outcomeItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func (e oddsEvent) toExternal() usecase.ExternalOddsEvent {
	bookmakers := make([]usecase.ExternalBookmaker, 0, len(e.Bookmakers))
	for _, bookmaker := range e.Bookmakers {
		markets := make([]usecase.ExternalMarket, 0, len(bookmaker.Markets))
		for _, market := range bookmaker.Markets {
			outcomes := make([]usecase.ExternalOutcome, 0, len(market.Outcomes))
			for _, outcome := range market.Outcomes {
				outcomes = append(outcomes, usecase.ExternalOutcome{Name: outcome.Name, Price: outcome.Price})
			}
			markets = append(markets, usecase.ExternalMarket{Key: market.Key, Outcomes: outcomes})
		}
		bookmakers = append(bookmakers, usecase.ExternalBookmaker{
			Key:     bookmaker.Key,
			Title:   bookmaker.Title,
			Markets: markets,
		})
	}

	return usecase.ExternalOddsEvent{
		SportKey:     e.SportKey,
		CommenceTime: e.CommenceTime,
		HomeTeam:     e.HomeTeam,
		AwayTeam:     e.AwayTeam,
		Bookmakers:   bookmakers,
	}
}
