package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ari/focustrack/internal/category"
	"github.com/ari/focustrack/internal/config"
	"github.com/ari/focustrack/internal/source"
	"github.com/ari/focustrack/internal/tracker"
	"github.com/ari/focustrack/internal/ui"
)

var (
	cfgPath string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "focustrack",
	Short: "Track foreground activity and focus",
	Long:  `A CLI tool that turns a stream of foreground-activity observations into focus sessions, streaks, a daily focus score and gentle nudges.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for help command
		if cmd.Name() == "help" {
			return nil
		}
		var err error
		cfg, err = config.LoadConfig(cfgPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the tracking daemon",
	Long:  "Follow the observation log, segment sessions, maintain streaks and the focus score, and print nudges as they fire.",
	Run: func(cmd *cobra.Command, args []string) {
		dbPath := cfg.GetDatabasePath()
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			ui.Error(fmt.Sprintf("Error creating database directory: %v", err))
			os.Exit(1)
		}

		db, err := tracker.Open(dbPath)
		if err != nil {
			ui.Error(fmt.Sprintf("Error opening database: %v", err))
			os.Exit(1)
		}
		defer db.Close()

		pipeline, err := tracker.New(cfg, tracker.Options{
			DB: db,
			OnDayEnd: func(arch tracker.DayArchive) {
				score := tracker.ScoreFromTotals(arch.ProductiveTime, arch.NeutralTime, arch.TimeWastingTime)
				ui.DisplayDayReport(arch, score)
			},
		})
		if err != nil {
			ui.Error(fmt.Sprintf("Error building pipeline: %v", err))
			os.Exit(1)
		}
		defer pipeline.Close()

		logPath := cfg.GetObservationLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
			ui.Error(fmt.Sprintf("Error creating observation log directory: %v", err))
			os.Exit(1)
		}
		follower, err := source.NewFollower(logPath)
		if err != nil {
			ui.Error(fmt.Sprintf("Error watching observation log: %v", err))
			os.Exit(1)
		}
		follower.Start()
		defer follower.Stop()

		ticker := time.NewTicker(cfg.Tracking.TickInterval)
		defer ticker.Stop()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		log.Printf("focustrack: watching %s", logPath)
		for {
			select {
			case obs := <-follower.Observations():
				if err := pipeline.Ingest(obs); err != nil {
					log.Printf("focustrack: dropped observation: %v", err)
				}
			case err := <-follower.Errors():
				log.Printf("focustrack: observation log: %v", err)
			case <-ticker.C:
				if n := pipeline.Tick(time.Now()); n != nil {
					ui.DisplayNudge(n)
				}
			case <-sigCh:
				log.Printf("focustrack: shutting down")
				return
			}
		}
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show today's focus statistics",
	Run: func(cmd *cobra.Command, args []string) {
		pipeline, cleanup := openReadPipeline()
		defer cleanup()

		stats := pipeline.TodayStats()
		var current *tracker.Session
		if cur, ok := pipeline.CurrentSession(); ok {
			current = &cur
		}
		ui.DisplayTodayStats(stats, current)
	},
}

var trendCmd = &cobra.Command{
	Use:   "trend [days]",
	Short: "Show the focus score trend",
	Long:  "Show one focus score per day for the last N days (default: 7).",
	Args:  cobra.RangeArgs(0, 1),
	Run: func(cmd *cobra.Command, args []string) {
		days := 7
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				fmt.Printf("Invalid day count: %s\n", args[0])
				os.Exit(1)
			}
			days = n
		}

		pipeline, cleanup := openReadPipeline()
		defer cleanup()

		ctx := context.Background()
		points, err := pipeline.ScoreTrend(ctx, days)
		if err != nil {
			ui.Error(fmt.Sprintf("Error getting score trend: %v", err))
			os.Exit(1)
		}
		cmp, err := pipeline.Comparison(ctx)
		if err != nil {
			ui.Error(fmt.Sprintf("Error comparing scores: %v", err))
			os.Exit(1)
		}
		ui.DisplayTrend(points, cmp)
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions [count]",
	Short: "Show recently recorded sessions",
	Args:  cobra.RangeArgs(0, 1),
	Run: func(cmd *cobra.Command, args []string) {
		limit := 10
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				fmt.Printf("Invalid session count: %s\n", args[0])
				os.Exit(1)
			}
			limit = n
		}

		dbPath := cfg.GetDatabasePath()
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			ui.DisplaySessions(nil)
			return
		}

		db, err := tracker.Open(dbPath)
		if err != nil {
			ui.Error(fmt.Sprintf("Error opening database: %v", err))
			os.Exit(1)
		}
		defer db.Close()

		sessions, err := db.GetRecentSessions(context.Background(), limit)
		if err != nil {
			ui.Error(fmt.Sprintf("Error getting sessions: %v", err))
			os.Exit(1)
		}
		ui.DisplaySessions(sessions)
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show loaded configuration",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Config loaded:\n")
		fmt.Printf("  Database:           %s\n", cfg.GetDatabasePath())
		fmt.Printf("  Observation log:    %s\n", cfg.GetObservationLogPath())
		fmt.Printf("  Tick interval:      %s\n", cfg.Tracking.TickInterval)
		fmt.Printf("  Inactivity timeout: %s\n", cfg.Tracking.InactivityTimeout)
		fmt.Printf("  Min session:        %s\n", cfg.Tracking.MinSession)
		fmt.Printf("  Distraction at:     %s\n", cfg.Thresholds.Distraction)
		fmt.Printf("  Decay half-life:    %s\n", cfg.Thresholds.DecayHalfLife)
		rules := cfg.CategoryRules()
		fmt.Printf("  Rules:              %d productive, %d neutral, %d time-wasting patterns\n",
			rulePatternCount(rules.Productive), rulePatternCount(rules.Neutral), rulePatternCount(rules.TimeWasting))
	},
}

// openReadPipeline builds a pipeline seeded from the database for the
// read-only reporting commands. When no database exists yet the pipeline
// runs on empty state.
func openReadPipeline() (*tracker.Pipeline, func()) {
	var db *tracker.DB
	dbPath := cfg.GetDatabasePath()
	if _, err := os.Stat(dbPath); err == nil {
		db, err = tracker.Open(dbPath)
		if err != nil {
			ui.Error(fmt.Sprintf("Error opening database: %v", err))
			os.Exit(1)
		}
	}

	pipeline, err := tracker.New(cfg, tracker.Options{DB: db})
	if err != nil {
		if db != nil {
			db.Close()
		}
		ui.Error(fmt.Sprintf("Error building pipeline: %v", err))
		os.Exit(1)
	}

	return pipeline, func() {
		pipeline.Close()
		if db != nil {
			db.Close()
		}
	}
}

func rulePatternCount(r category.RuleSet) int {
	return len(r.Sites) + len(r.Apps) + len(r.Titles)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Path to config file (default: ~/.focustrack/config.toml)")
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(infoCmd)
}
