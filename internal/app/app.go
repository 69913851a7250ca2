package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/epl-pipeline/external/footballdata"
	"github.com/riskibarqy/epl-pipeline/external/oddsapi"
	"github.com/riskibarqy/epl-pipeline/internal/config"
	"github.com/riskibarqy/epl-pipeline/internal/domain/match"
	"github.com/riskibarqy/epl-pipeline/internal/domain/team"
	"github.com/riskibarqy/epl-pipeline/internal/infrastructure/csvstore"
	"github.com/riskibarqy/epl-pipeline/internal/infrastructure/oddscache"
	"github.com/riskibarqy/epl-pipeline/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/epl-pipeline/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/epl-pipeline/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/epl-pipeline/internal/infrastructure/repository/sqlite"
	basecache "github.com/riskibarqy/epl-pipeline/internal/platform/cache"
	idgen "github.com/riskibarqy/epl-pipeline/internal/platform/id"
	"github.com/riskibarqy/epl-pipeline/internal/platform/logging"
	"github.com/riskibarqy/epl-pipeline/internal/platform/resilience"
	"github.com/riskibarqy/epl-pipeline/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

// Pipeline holds the wired services of one process.
type Pipeline struct {
	Pipeline    *usecase.PipelineService
	Stats       *usecase.StatsService
	Diagnostics *usecase.DiagnosticsService
	Repository  match.Repository
	Normalizer  *team.Normalizer

	closers []func() error
}

// New wires stores, sources and services from cfg.
func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = logging.Default()
	}
	p := &Pipeline{}

	normalizer, err := newNormalizer(cfg)
	if err != nil {
		return nil, err
	}
	p.Normalizer = normalizer

	repo, err := p.openRepository(ctx, cfg, logger)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	p.Repository = repo

	oddsSource, err := p.newOddsSource(ctx, cfg, logger)
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	breaker := resilience.CircuitBreakerConfig{
		Enabled:          cfg.SourceCircuitEnabled,
		FailureThreshold: cfg.SourceCircuitFailureCount,
		OpenTimeout:      cfg.SourceCircuitOpenTimeout,
		HalfOpenMaxReq:   cfg.SourceCircuitHalfOpenMaxReq,
	}
	results := footballdata.NewClient(footballdata.ClientConfig{
		BaseURL:              cfg.FootballDataBaseURL,
		APIKey:               cfg.FootballDataAPIKey,
		Competition:          cfg.FootballDataCompetition,
		Timeout:              cfg.SourceTimeout,
		MaxRetries:           cfg.SourceMaxRetries,
		MaxRequestsPerMinute: cfg.SourceMaxRequestsPerMinute,
		Logger:               logger,
		CircuitBreaker:       breaker,
	})

	oddsExtractor := usecase.NewOddsExtractor(oddsSource, normalizer, usecase.OddsExtractorConfig{
		WindowDays: cfg.OddsAPIHistoricalLimitDays,
		Logger:     logger,
	})

	p.Pipeline = usecase.NewPipelineService(usecase.PipelineDeps{
		Normalizer: normalizer,
		Extractor:  usecase.NewMatchExtractor(results, normalizer, cfg.FootballDataMinSeason, logger),
		Reconciler: usecase.NewReconciliationService(oddsExtractor, logger),
		Validator:  usecase.NewValidator(),
		Upserter:   usecase.NewUpsertService(repo, logger),
		Repository: repo,
		Files:      csvstore.NewFileStore(cfg.CSVDir),
		IDs:        idgen.NewUUIDGenerator(),
		Logger:     logger,
	})
	p.Stats = usecase.NewStatsService(repo, normalizer)
	p.Diagnostics = usecase.NewDiagnosticsService(results, oddsExtractor, repo, usecase.DiagnosticsConfig{
		MinSeason:            cfg.FootballDataMinSeason,
		ResultsKeyConfigured: strings.TrimSpace(cfg.FootballDataAPIKey) != "",
		OddsKeyConfigured:    strings.TrimSpace(cfg.OddsAPIKey) != "",
		Logger:               logger,
	})
	return p, nil
}

// Close releases every store and cache connection opened by New.
func (p *Pipeline) Close() error {
	var firstErr error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.closers = nil
	return firstErr
}

func newNormalizer(cfg config.Config) (*team.Normalizer, error) {
	aliases := team.DefaultAliases()
	overrides, err := config.LoadTeamAliases(cfg.TeamAliasesFile)
	if err != nil {
		return nil, err
	}
	return team.NewNormalizer(aliases.Merge(overrides)), nil
}

func (p *Pipeline) openRepository(ctx context.Context, cfg config.Config, logger *logging.Logger) (match.Repository, error) {
	var repo match.Repository
	switch cfg.StoreDriver {
	case config.StoreMemory:
		repo = memory.NewMatchRepository()
	case config.StoreSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, db.Close)
		repo = sqlite.NewMatchRepository(db)
	default:
		db, err := openPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, db.Close)
		repo = postgres.NewMatchRepository(db)
	}
	logger.Info("match store ready", "driver", cfg.StoreDriver, "cache_enabled", cfg.CacheEnabled)

	if !cfg.CacheEnabled {
		return repo, nil
	}
	return cache.NewMatchRepository(repo, basecache.NewStore[[]match.Match](cfg.CacheTTL)), nil
}

func openPostgres(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	dsn := DatabaseURL(cfg)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(traceStatement),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func (p *Pipeline) newOddsSource(ctx context.Context, cfg config.Config, logger *logging.Logger) (usecase.OddsSource, error) {
	client := oddsapi.NewClient(oddsapi.ClientConfig{
		BaseURL:              cfg.OddsAPIBaseURL,
		APIKey:               cfg.OddsAPIKey,
		SportKey:             cfg.OddsAPISportKey,
		Regions:              cfg.OddsAPIRegions,
		Timeout:              cfg.SourceTimeout,
		MaxRetries:           cfg.SourceMaxRetries,
		MaxRequestsPerMinute: cfg.SourceMaxRequestsPerMinute,
		Logger:               logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.SourceCircuitEnabled,
			FailureThreshold: cfg.SourceCircuitFailureCount,
			OpenTimeout:      cfg.SourceCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.SourceCircuitHalfOpenMaxReq,
		},
	})

	var remote oddscache.Remote
	if cfg.OddsCacheRedisURL != "" {
		redisRemote, err := oddscache.NewRedisRemote(ctx, cfg.OddsCacheRedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect odds cache: %w", err)
		}
		p.closers = append(p.closers, redisRemote.Close)
		remote = redisRemote
	}
	return oddscache.NewSource(client, remote, cfg.OddsCacheTTL, logger), nil
}
