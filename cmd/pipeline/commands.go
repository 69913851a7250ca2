package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/riskibarqy/epl-pipeline/internal/infrastructure/csvstore"
	"github.com/riskibarqy/epl-pipeline/internal/usecase"
	"github.com/spf13/cobra"
)

type runOptions struct {
	seasons        []string
	allSeasons     bool
	saveCSV        bool
	noOdds         bool
	updateOddsOnly bool
}

func newRunCommand(rt *session) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Extract seasons, attach odds, validate and upsert",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.updateOddsOnly {
				result, err := rt.pipeline.Pipeline.UpdateOddsOnly(cmd.Context())
				if err != nil {
					return err
				}
				printUpsertResult(cmd.OutOrStdout(), "odds update", result)
				return nil
			}

			seasons := resolveSeasons(opts, rt.cfg.Seasons, time.Now())
			summary, err := rt.pipeline.Pipeline.RunSeasons(cmd.Context(), seasons, usecase.RunOptions{
				IncludeOdds: !opts.noOdds,
				SaveCSV:     opts.saveCSV,
			})
			printSummary(cmd.OutOrStdout(), summary, time.Since(rt.started))
			return err
		},
	}

	cmd.Flags().StringSliceVar(&opts.seasons, "season", nil, "season start year, repeatable (default: current year)")
	cmd.Flags().BoolVar(&opts.allSeasons, "all-seasons", false, "process every season listed in SEASONS")
	cmd.Flags().BoolVar(&opts.saveCSV, "save-csv", false, "write epl_matches_<season>.csv for each season")
	cmd.Flags().BoolVar(&opts.noOdds, "no-odds", false, "skip odds enrichment")
	cmd.Flags().BoolVar(&opts.updateOddsOnly, "update-odds-only", false, "only backfill odds for stored matches")
	return cmd
}

func newUpdateOddsCommand(rt *session) *cobra.Command {
	return &cobra.Command{
		Use:   "update-odds",
		Short: "Backfill odds for stored matches that have none",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := rt.pipeline.Pipeline.UpdateOddsOnly(cmd.Context())
			if err != nil {
				return err
			}
			printUpsertResult(cmd.OutOrStdout(), "odds update", result)
			return nil
		},
	}
}

func newImportOddsCommand(rt *session) *cobra.Command {
	return &cobra.Command{
		Use:   "import-odds <file>",
		Short: "Join odds rows from a CSV file onto stored matches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fragments, err := csvstore.LoadOddsFile(args[0])
			if err != nil {
				return err
			}
			result, err := rt.pipeline.Pipeline.ImportOdds(cmd.Context(), fragments)
			if err != nil {
				return err
			}
			printUpsertResult(cmd.OutOrStdout(), "odds import", result)
			return nil
		},
	}
}

func newLoadCSVCommand(rt *session) *cobra.Command {
	return &cobra.Command{
		Use:   "load-csv <file>",
		Short: "Validate and upsert matches from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			matches, err := csvstore.LoadFile(args[0])
			if err != nil {
				return err
			}
			result := rt.pipeline.Pipeline.LoadMatches(cmd.Context(), matches)
			printUpsertResult(cmd.OutOrStdout(), "csv load", result)
			return nil
		},
	}
}

func newTeamStatsCommand(rt *session) *cobra.Command {
	var teamName, season string

	cmd := &cobra.Command{
		Use:   "team-stats",
		Short: "Print aggregate results for one team",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := rt.pipeline.Stats.TeamStatistics(cmd.Context(), teamName, season)
			if err != nil {
				return err
			}
			printTeamStatistics(cmd.OutOrStdout(), teamName, season, stats)
			return nil
		},
	}

	cmd.Flags().StringVar(&teamName, "team", "", "team name, any known alias")
	cmd.Flags().StringVar(&season, "season", "", "season label such as 2023/24 (default: all)")
	_ = cmd.MarkFlagRequired("team")
	return cmd
}

func newDiagnoseCommand(rt *session) *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose",
		Short: "Check provider access tiers and store connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report := rt.pipeline.Diagnostics.Run(cmd.Context())
			printDiagnostics(cmd.OutOrStdout(), report)
			if !report.Healthy() {
				return errors.New("diagnostics found failing checks")
			}
			return nil
		},
	}
}

func resolveSeasons(opts *runOptions, configured []string, now time.Time) []string {
	if opts.allSeasons && len(configured) > 0 {
		return configured
	}
	if len(opts.seasons) > 0 {
		return opts.seasons
	}
	return []string{strconv.Itoa(now.Year())}
}

func printSummary(w io.Writer, summary usecase.Summary, elapsed time.Duration) {
	fmt.Fprintln(w, "pipeline summary")
	fmt.Fprintf(w, "  run id:             %s\n", summary.RunID)
	fmt.Fprintf(w, "  seasons processed:  %d/%d\n", summary.SeasonsProcessed, summary.SeasonsRequested)
	fmt.Fprintf(w, "  matches processed:  %d\n", summary.Processed)
	fmt.Fprintf(w, "  discarded:          %d\n", summary.Discarded)
	fmt.Fprintf(w, "  inserted:           %d\n", summary.Inserted)
	fmt.Fprintf(w, "  updated:            %d\n", summary.Updated)
	fmt.Fprintf(w, "  errors:             %d\n", summary.Errors)
	if summary.Interrupted {
		fmt.Fprintln(w, "  interrupted:        true")
	}
	fmt.Fprintf(w, "  elapsed:            %s\n", elapsed.Round(time.Millisecond))
}

func printDiagnostics(w io.Writer, report usecase.DiagnosticsReport) {
	for _, check := range report.Checks {
		fmt.Fprintf(w, "[%-4s] %-22s %s\n", check.Status, check.Name, check.Detail)
	}
	if report.Healthy() {
		fmt.Fprintln(w, "ready: epl-pipeline run --season <year> or run --all-seasons")
	}
}

func printUpsertResult(w io.Writer, label string, result usecase.UpsertResult) {
	fmt.Fprintf(w, "%s: inserted=%d updated=%d errors=%d\n", label, result.Inserted, result.Updated, result.Errors)
}

func printTeamStatistics(w io.Writer, teamName, season string, stats usecase.TeamStatistics) {
	if stats.Team != "" {
		teamName = stats.Team
	}
	if season == "" {
		season = "all seasons"
	}
	fmt.Fprintf(w, "%s (%s)\n", teamName, season)
	fmt.Fprintf(w, "  matches: %d (home %d, away %d)\n", stats.TotalMatches, stats.HomeMatches, stats.AwayMatches)
	fmt.Fprintf(w, "  record:  W%d D%d L%d\n", stats.Wins, stats.Draws, stats.Losses)
	fmt.Fprintf(w, "  goals:   %d for, %d against\n", stats.GoalsFor, stats.GoalsAgainst)
}
