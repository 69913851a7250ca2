package footballdata

import (
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
	defaultBaseURL     = "https://api.football-data.org/v4"
	defaultCompetition = "PL"
	finishedStatus     = "FINISHED"
)

type ClientConfig struct {
	HTTPClient           *http.Client
	BaseURL              string
	APIKey               string
	Competition          string
	Timeout              time.Duration
	MaxRetries           int
	MaxRequestsPerMinute int
	Logger               *logging.Logger
	CircuitBreaker       resilience.CircuitBreakerConfig
}

// Client reads finished competition matches from football-data.org.
type Client struct {
	http        *providerhttp.Client
	competition string
	logger      *logging.Logger
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
	competition := strings.TrimSpace(cfg.Competition)
	if competition == "" {
		competition = defaultCompetition
	}
	apiKey := strings.TrimSpace(cfg.APIKey)

	return &Client{
		http: providerhttp.New(providerhttp.Config{
			Name:                 "football-data",
			HTTPClient:           cfg.HTTPClient,
			BaseURL:              baseURL,
			Timeout:              cfg.Timeout,
			Retry:                resilience.RetryConfig{MaxRetries: max(cfg.MaxRetries, 0)},
			MaxRequestsPerMinute: cfg.MaxRequestsPerMinute,
			CircuitBreaker:       cfg.CircuitBreaker,
			Headers:              map[string]string{"X-Auth-Token": apiKey},
			Secrets:              []string{apiKey},
			QuietStatuses:        []int{http.StatusForbidden},
			Logger:               logger,
		}),
		competition: competition,
		logger:      logger,
	}
}

// FetchSeasonMatches returns the finished matches of the season starting in
// the given year. A season the account cannot access yields no matches.
func (c *Client) FetchSeasonMatches(ctx context.Context, season string) ([]usecase.ExternalMatch, error) {
	season = strings.TrimSpace(season)
	if season == "" {
		return nil, fmt.Errorf("%w: season is required", usecase.ErrInvalidInput)
	}

	query := url.Values{}
	query.Set("season", season)
	query.Set("status", finishedStatus)

	path := "/competitions/" + url.PathEscape(c.competition) + "/matches"
	raw, err := c.http.Get(ctx, path, query)
	if err != nil {
		if providerhttp.IsStatus(err, http.StatusForbidden) {
			c.logger.InfoContext(ctx, "football-data season is outside the account access window", "season", season)
			return nil, nil
		}
		return nil, fmt.Errorf("fetch matches season=%s: %w", season, err)
	}

	var payload matchesEnvelope
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode matches season=%s: %w", season, err)
	}

	out := make([]usecase.ExternalMatch, 0, len(payload.Matches))
	for _, item := range payload.Matches {
		out = append(out, item.toExternal())
	}
	return out, nil
}

type matchesEnvelope struct {
	Matches []matchItem `json:"matches"`
}

type matchItem struct {
	UTCDate string `json:"utcDate"`
	Status  string `json:"status"`
	Season  struct {
		StartDate string `json:"startDate"`
	} `json:"season"`
	HomeTeam teamRef `json:"homeTeam"`
	AwayTeam teamRef `json:"awayTeam"`
	Score    struct {
		FullTime struct {
			Home *int `json:"home"`
			Away *int `json:"away"`
		} `json:"fullTime"`
	} `json:"score"`
}

type teamRef struct {
	Name string `json:"name"`
}

func (m matchItem) toExternal() usecase.ExternalMatch {
	return usecase.ExternalMatch{
		UTCDate:         m.UTCDate,
		SeasonStartDate: m.Season.StartDate,
		HomeTeamName:    m.HomeTeam.Name,
		AwayTeamName:    m.AwayTeam.Name,
		FullTimeHome:    m.Score.FullTime.Home,
		FullTimeAway:    m.Score.FullTime.Away,
	}
}
