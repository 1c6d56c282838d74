// Command worker runs sync and maintenance jobs outside the API process.
//
// Usage:
//
//	worker sync once
//	worker sync run --interval 5m
//	worker recalibrate
//	worker roles
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riskibarqy/valorant-fantasy/internal/app"
	"github.com/riskibarqy/valorant-fantasy/internal/config"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/syncrun"
	"github.com/riskibarqy/valorant-fantasy/internal/observability"
	"github.com/riskibarqy/valorant-fantasy/internal/platform/logging"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "worker",
		Short:         "Valorant fantasy sync and maintenance jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(syncCmd())
	root.AddCommand(recalibrateCmd())
	root.AddCommand(rolesCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull tournaments, matches and stats from VLR",
	}
	cmd.AddCommand(syncOnceCmd())
	cmd.AddCommand(syncRunCmd())
	return cmd
}

func syncOnceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single sync pass and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(func(ctx context.Context, _ config.Config, c *app.Container, logger *logging.Logger) error {
				start := time.Now()
				report, err := c.Sync.Run(ctx, syncrun.TriggerCLI)
				if err != nil {
					return fmt.Errorf("sync pass %s: %w", report.RunID, err)
				}
				logger.Info("sync pass finished",
					"run_id", report.RunID,
					"status", report.Status,
					"duration", time.Since(start).Round(time.Millisecond).String(),
					"tournaments_seen", report.TournamentsSeen,
					"matches_processed", report.MatchesProcessed,
					"matches_failed", report.MatchesFailed,
				)
				return nil
			})
		},
	}
}

func syncRunCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run sync passes on a schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(func(ctx context.Context, cfg config.Config, c *app.Container, logger *logging.Logger) error {
				every := cfg.SyncInterval
				if interval > 0 {
					every = interval
				}
				scheduler, err := app.NewScheduler(c.Sync, every, cfg.SyncRunTimeout, logger)
				if err != nil {
					return err
				}
				scheduler.Start(true)
				<-ctx.Done()

				stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				scheduler.Stop(stopCtx)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "Pass interval, defaults to SYNC_INTERVAL")
	return cmd
}

func recalibrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recalibrate",
		Short: "Reprice every player from stored match history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(func(ctx context.Context, _ config.Config, c *app.Container, logger *logging.Logger) error {
				result, err := c.Recalibration.RecalibratePrices(ctx)
				if err != nil {
					return fmt.Errorf("recalibrate prices: %w", err)
				}
				logger.Info("recalibration finished",
					"players_repriced", result.PlayersRepriced,
					"price_changes", result.PriceChanges,
					"leagues_recomputed", result.LeaguesRecomputed,
				)
				return nil
			})
		},
	}
}

func rolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "Re-derive player roles from agent picks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(func(ctx context.Context, _ config.Config, c *app.Container, logger *logging.Logger) error {
				updated, err := c.Sync.UpdatePlayerRoles(ctx)
				if err != nil {
					return fmt.Errorf("update player roles: %w", err)
				}
				logger.Info("player roles updated", "players_updated", updated)
				return nil
			})
		},
	}
}

func runJob(fn func(ctx context.Context, cfg config.Config, c *app.Container, logger *logging.Logger) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewJSON(cfg.LogLevel).With("service", cfg.ServiceName+"-worker", "env", cfg.AppEnv)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	// PPROF_ADDR belongs to the api process.
	cfg.PprofEnabled = false
	telemetry, err := observability.Start(cfg, "worker", logger)
	if err != nil {
		return fmt.Errorf("start telemetry: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := telemetry.Shutdown(flushCtx); err != nil {
			logger.Warn("shutdown telemetry", "error", err)
		}
	}()

	container, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	defer func() {
		if err := container.Close(); err != nil {
			logger.Warn("close store", "error", err)
		}
	}()

	return fn(ctx, cfg, container, logger)
}
