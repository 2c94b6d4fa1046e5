package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/existflow/irontrack/internal/config"
	"github.com/existflow/irontrack/internal/db"
	"github.com/existflow/irontrack/internal/display"
	"github.com/existflow/irontrack/internal/logger"
	"github.com/existflow/irontrack/internal/timing"
)

var (
	logLevel   string
	logFile    string
	logConsole bool
	dbDriver   string
	dbDSN      string
	localeTag  string

	// cfg is loaded before every command runs
	cfg = config.DefaultConfig()

	// now is the clock used for records and date labels
	now = time.Now
)

var rootCmd = &cobra.Command{
	Use:   "irontrack",
	Short: "IronTrack - task tree time tracker",
	Long: `IronTrack tracks time spent on tasks. Tasks nest into trees and the time
recorded on a task includes the time of all of its subtasks.

Examples:
  irontrack add "Write report"
  irontrack start 3
  irontrack list`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config from file (or defaults if not exists)
		loaded, err := config.Load()
		if err != nil {
			logger.Warn("Failed to load config, using defaults", logger.F("error", err))
			loaded = config.DefaultConfig()
		}
		cfg = loaded

		// Override with CLI flags if provided
		configChanged := false
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
			configChanged = true
		}
		if cmd.Flags().Changed("log-file") {
			cfg.LogFile = logFile
			configChanged = true
		}
		if cmd.Flags().Changed("log-console") {
			cfg.LogConsole = logConsole
			configChanged = true
		}
		if cmd.Flags().Changed("db-driver") {
			cfg.DBDriver = dbDriver
			configChanged = true
		}
		if cmd.Flags().Changed("db-dsn") {
			cfg.DBDSN = dbDSN
			configChanged = true
		}
		if cmd.Flags().Changed("locale") {
			cfg.Locale = localeTag
			configChanged = true
		}

		// Save config if changed via CLI flags
		if configChanged {
			if err := cfg.Save(); err != nil {
				logger.Warn("Failed to save config", logger.F("error", err))
			}
		}

		logConfig := logger.Config{
			Level:      logger.ParseLevel(cfg.LogLevel),
			FilePath:   cfg.LogFile,
			MaxSize:    10 * 1024 * 1024, // 10MB
			MaxAge:     7,
			MaxBackups: 5,
			Console:    cfg.LogConsole,
		}

		if err := logger.Init(logConfig); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		logger.Info("IronTrack started", logger.F("command", cmd.Name()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Info("IronTrack exiting", logger.F("command", cmd.Name()))
	},
}

// Execute runs the root command
func Execute() error {
	defer logger.Close()
	return rootCmd.Execute()
}

func init() {
	// Logging flags
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Enable console logging")

	// Storage and display flags
	rootCmd.PersistentFlags().StringVar(&dbDriver, "db-driver", "", "Database driver (sqlite, postgres)")
	rootCmd.PersistentFlags().StringVar(&dbDSN, "db-dsn", "", "Database file or connection URL")
	rootCmd.PersistentFlags().StringVar(&localeTag, "locale", "", "Locale for date labels (e.g. en, de, fa)")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(sectionCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(diffCmd)
}

// openStore opens the configured database
func openStore() (*db.DB, error) {
	var store *db.DB
	var err error
	if cfg.DBDSN == "" && cfg.DBDriver == db.DriverSQLite {
		store, err = db.OpenDefault()
	} else {
		store, err = db.Open(cfg.DBDriver, cfg.DBDSN)
	}
	if err != nil {
		logger.Error("Failed to open database", logger.F("error", err), logger.F("driver", cfg.DBDriver))
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

// newAggregator builds a duration aggregator over store using the CLI clock
func newAggregator(store *db.DB) *timing.Aggregator {
	return timing.New(store, timing.WithClock(now))
}

// currentLocale returns the configured locale, falling back to English
func currentLocale() display.Locale {
	locale, err := display.ParseLocale(cfg.Locale, time.Local)
	if err != nil {
		logger.Warn("Invalid locale, using default", logger.F("locale", cfg.Locale))
		return display.DefaultLocale()
	}
	return locale
}
