package main

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/epl-pipeline/internal/app"
	"github.com/riskibarqy/epl-pipeline/internal/config"
	"github.com/riskibarqy/epl-pipeline/internal/observability"
	"github.com/riskibarqy/epl-pipeline/internal/platform/logging"
	"github.com/spf13/cobra"
)

// session is the process state shared by every subcommand.
type session struct {
	cfg      config.Config
	logger   *logging.Logger
	pipeline *app.Pipeline
	started  time.Time

	shutdown []func(context.Context) error
}

func newRootCommand() (*cobra.Command, *session) {
	rt := &session{}

	cmd := &cobra.Command{
		Use:           "epl-pipeline",
		Short:         "EPL match results and odds ingestion",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			return rt.start(cmd.Context())
		},
	}

	cmd.AddCommand(newRunCommand(rt))
	cmd.AddCommand(newUpdateOddsCommand(rt))
	cmd.AddCommand(newImportOddsCommand(rt))
	cmd.AddCommand(newLoadCSVCommand(rt))
	cmd.AddCommand(newTeamStatsCommand(rt))
	cmd.AddCommand(newDiagnoseCommand(rt))
	return cmd, rt
}

func (rt *session) start(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	rt.cfg = cfg
	rt.started = time.Now()

	logger, logPath, err := logging.NewRunLogger(cfg.LogLevel, cfg.LogDir, rt.started)
	if err != nil {
		return err
	}
	logging.SetDefault(logger)
	rt.logger = logger
	if logPath != "" {
		logger.Info("run log file opened", "path", logPath)
	}

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return fmt.Errorf("init uptrace: %w", err)
	}
	rt.shutdown = append(rt.shutdown, shutdownTracing)

	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return fmt.Errorf("init pyroscope: %w", err)
	}
	rt.shutdown = append(rt.shutdown, func(context.Context) error { return stopProfiler() })

	pipeline, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	rt.pipeline = pipeline
	return nil
}

// stop releases whatever start managed to acquire. It runs after failed
// commands too.
func (rt *session) stop(ctx context.Context) {
	if rt.logger == nil {
		return
	}
	if rt.pipeline != nil {
		if err := rt.pipeline.Close(); err != nil {
			rt.logger.Warn("close pipeline failed", "error", err)
		}
	}

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	for i := len(rt.shutdown) - 1; i >= 0; i-- {
		if err := rt.shutdown[i](flushCtx); err != nil {
			rt.logger.Warn("observability shutdown failed", "error", err)
		}
	}

	_ = rt.logger.Sync()
}
