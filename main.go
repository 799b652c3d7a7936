package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fazecat/demandpulse/Internal/database"
	"github.com/fazecat/demandpulse/Internal/handlers"
	settingshandler "github.com/fazecat/demandpulse/Internal/handlers/settings"
	"github.com/fazecat/demandpulse/Internal/publish"
	"github.com/fazecat/demandpulse/Internal/utils/config"
	"github.com/fazecat/demandpulse/Internal/utils/scanner"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	provider    string
	skipRemote  bool
	interactive bool
	historySize int
)

var rootCmd = &cobra.Command{
	Use:   "demandpulse",
	Short: "Collect tourism search demand for Brazilian destinations",
	Long: `DEMAND PULSE collects search-interest signals for the configured destinations,
enriches them with weather, news sentiment and trending flags, scores them and
publishes a snapshot to the local backup file and the configured remote sinks.`,
	SilenceUsage: true,
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run one collection and publish the snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, store, cleanup, err := setup(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		_, err = handlers.HandleCollect(ctx, cfg, handlers.CollectOptions{
			SkipRemote: skipRemote,
			Store:      store,
		})
		return err
	},
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Collect repeatedly every collector.daemon_interval_minutes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, store, cleanup, err := setup(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		interval := cfg.DaemonInterval()
		var lastScan time.Time
		if store != nil {
			if lastScan, err = store.LastScan(ctx); err != nil {
				log.Printf("Warning: %v", err)
			}
		}

		log.Printf("🕒 Daemon started, interval %s", interval)
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			if scanner.ShouldScan(time.Now(), lastScan, interval) {
				res, err := handlers.HandleCollect(ctx, cfg, handlers.CollectOptions{
					SkipRemote: skipRemote,
					Store:      store,
				})
				if ctx.Err() != nil {
					log.Println("👋 Daemon stopped")
					return nil
				}
				if err != nil {
					log.Printf("❌ Collection failed: %v", err)
				}
				if res != nil {
					lastScan = res.FinishedAt
				} else {
					lastScan = time.Now()
				}
				log.Printf("⏰ Next collection due at %s", scanner.GetNextScanDue(lastScan, interval).Format("2006-01-02 15:04"))
			}

			select {
			case <-ctx.Done():
				log.Println("👋 Daemon stopped")
				return nil
			case <-ticker.C:
			}
		}
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the configuration, or edit it with --interactive",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if interactive {
			return config.ConfigureInteractive(cfg, os.Stdin, cmd.OutOrStdout())
		}
		config.DisplayConfiguration(cfg, cmd.OutOrStdout())
		return nil
	},
}

var rankingCmd = &cobra.Command{
	Use:   "ranking",
	Short: "Print the latest snapshot ordered by growth",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if database.ConfigFromEnv().Enabled() {
			if err := database.InitDatabase(); err == nil {
				defer database.CloseDatabase()
				snap, err := database.NewStore(database.DB).GetLatestSnapshot(ctx)
				if err == nil {
					handlers.HandleRanking(cmd.OutOrStdout(), snap)
					return nil
				}
				log.Printf("Warning: %v, falling back to %s", err, cfg.Output.BackupPath)
			}
		}

		snap, err := publish.NewBackupWriter(cfg.Output.BackupPath).LatestSnapshot()
		if err != nil {
			return fmt.Errorf("no snapshot available: %w", err)
		}
		handlers.HandleRanking(cmd.OutOrStdout(), snap)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the most recent snapshots stored in Postgres",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !database.ConfigFromEnv().Enabled() {
			return fmt.Errorf("history: %w", database.ErrNotConfigured)
		}
		if err := database.InitDatabase(); err != nil {
			return err
		}
		defer database.CloseDatabase()
		return handlers.HandleHistory(cmd.Context(), cmd.OutOrStdout(), database.NewStore(database.DB), historySize)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default: search the usual locations)")

	for _, c := range []*cobra.Command{collectCmd, daemonCmd} {
		c.Flags().StringVar(&provider, "provider", "", "override trends.provider (google, serpapi, mock)")
		c.Flags().BoolVar(&skipRemote, "skip-remote", false, "only write the local backup file")
	}
	configCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "edit and save the configuration")
	historyCmd.Flags().IntVar(&historySize, "limit", 10, "number of snapshots to list")

	rootCmd.AddCommand(collectCmd, daemonCmd, configCmd, rankingCmd, historyCmd)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadConfigFrom(configPath)
	}
	return config.LoadConfig()
}

// setup loads the config and, when Postgres is configured, connects to it and
// applies the stored settings. cleanup must always be called.
func setup(ctx context.Context) (*config.Config, *database.Store, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, func() {}, fmt.Errorf("failed to load config: %w", err)
	}

	var store *database.Store
	cleanup := func() {}
	if database.ConfigFromEnv().Enabled() {
		if err := database.InitDatabase(); err != nil {
			log.Printf("Warning: database unavailable, continuing without it: %v", err)
		} else {
			cleanup = func() { database.CloseDatabase() }
			store = database.NewStore(database.DB)
			settingsStore := settingshandler.SQLStore{DB: database.DB}
			settingshandler.LoadSettingsFromDatabase(ctx, settingsStore)
			settingshandler.ApplyCollectionOverrides(ctx, settingsStore, cfg)
		}
	}

	if provider != "" {
		cfg.Trends.Provider = strings.ToLower(provider)
	}
	if err := cfg.Validate(); err != nil {
		cleanup()
		return nil, nil, func() {}, err
	}
	return cfg, store, cleanup, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using the environment")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
