// Command fbref-scraper lists fixtures and builds match reports from the
// command line, using the same pipeline as the API.
//
// Usage:
//
//	fbref-scraper install
//	fbref-scraper leagues
//	fbref-scraper fixtures --date 2025-09-27 --league 9 --json
//	fbref-scraper report --match-url /en/matches/822bd0ba/Crystal-Palace-Liverpool --players=false
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/riskibarqy/fbref-report/internal/app"
	"github.com/riskibarqy/fbref-report/internal/config"
	"github.com/riskibarqy/fbref-report/internal/domain/fixture"
	"github.com/riskibarqy/fbref-report/internal/domain/task"
	"github.com/riskibarqy/fbref-report/internal/infrastructure/browser"
	"github.com/riskibarqy/fbref-report/internal/platform/logging"
	"github.com/riskibarqy/fbref-report/internal/usecase"
)

func main() {
	_ = godotenv.Load(".env")

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "fbref-scraper",
		Short:        "Scrape fbref fixtures and build match reports",
		SilenceUsage: true,
	}

	root.AddCommand(installCmd())
	root.AddCommand(leaguesCmd())
	root.AddCommand(fixturesCmd())
	root.AddCommand(reportCmd())
	return root
}

func installCmd() *cobra.Command {
	var driverOnly bool
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the Playwright driver and Chromium",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := browser.Install(driverOnly); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "browser installed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&driverOnly, "driver-only", false, "Skip the Chromium download")
	return cmd
}

func leaguesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leagues",
		Short: "List supported league codes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			leagues, err := usecase.NewLeagueService().ListLeagues(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tNAME\tCOUNTRY")
			for _, l := range leagues {
				fmt.Fprintf(w, "%s\t%s\t%s\n", l.Code, l.Name, l.CountryCode)
			}
			return w.Flush()
		},
	}
}

func fixturesCmd() *cobra.Command {
	var (
		date       string
		leagueCode string
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "List fixtures for a date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPipeline(cmd, nil, func(ctx context.Context, pipeline *app.Pipeline, _ *logging.Logger) error {
				fixtures, err := pipeline.Fixtures.ListByDate(ctx, date, leagueCode)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), fixtures)
				}
				return writeFixtureTable(cmd.OutOrStdout(), fixtures)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", time.Now().Format(fixture.DateLayout), "Listing date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&leagueCode, "league", "", "Restrict to one league code")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func reportCmd() *cobra.Command {
	var (
		matchURL string
		matchID  string
		players  bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Scrape one match and write its workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tune := func(cfg *config.Config) {
				if cmd.Flags().Changed("players") {
					cfg.ReportIncludePlayers = players
				}
			}
			return withPipeline(cmd, tune, func(ctx context.Context, pipeline *app.Pipeline, logger *logging.Logger) error {
				created, err := pipeline.Reports.Create(ctx, usecase.CreateReportInput{
					MatchURL: matchURL,
					MatchID:  matchID,
				})
				if err != nil {
					return err
				}
				logger.Info("report started", "task_id", created.ID, "match_url", matchURL)

				done := make(chan struct{})
				go func() {
					pipeline.Reports.Wait()
					close(done)
				}()
				watchProgress(ctx, pipeline, created.ID, done, logger)

				final, err := pipeline.Reports.Get(context.Background(), created.ID)
				if err != nil {
					return err
				}
				if final.Status != task.StatusCompleted {
					return fmt.Errorf("%s", final.Message)
				}
				fmt.Fprintln(cmd.OutOrStdout(), final.ResultFilePath)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&matchURL, "match-url", "", "Match page path or URL")
	cmd.Flags().StringVar(&matchID, "match-id", "", "Match id (derived from the URL when empty)")
	cmd.Flags().BoolVar(&players, "players", true, "Scrape player pages")
	_ = cmd.MarkFlagRequired("match-url")
	return cmd
}

// withPipeline loads config, applies tune and runs fn against a fresh
// pipeline that is shut down afterwards.
func withPipeline(
	cmd *cobra.Command,
	tune func(*config.Config),
	run func(ctx context.Context, pipeline *app.Pipeline, logger *logging.Logger) error,
) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if tune != nil {
		tune(&cfg)
	}

	logger := logging.NewJSON(cfg.LogLevel).Named("cli")
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	pipeline, err := app.NewPipeline(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = pipeline.Reports.Shutdown(ctx)
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return run(ctx, pipeline, logger)
}

// watchProgress logs phase changes until done closes or ctx is cancelled.
func watchProgress(ctx context.Context, pipeline *app.Pipeline, taskID string, done <-chan struct{}, logger *logging.Logger) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	last := ""
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			current, err := pipeline.Reports.Get(ctx, taskID)
			if err != nil || current.Message == last {
				continue
			}
			last = current.Message
			logger.Info("report progress", "task_id", taskID, "status", current.Status, "progress", current.Progress, "message", current.Message)
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func writeFixtureTable(w io.Writer, fixtures []fixture.Fixture) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LEAGUE\tTIME\tHOME\tSCORE\tAWAY\tMATCH ID")
	for _, f := range fixtures {
		score := f.Score
		if score == "" {
			score = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", f.LeagueName, f.Time, f.HomeTeam, score, f.AwayTeam, f.MatchID)
	}
	return tw.Flush()
}
