package main

import (
	"log"
	"os"

	"github.com/existflow/irontrack/internal/config"
	"github.com/existflow/irontrack/internal/db"
	"github.com/existflow/irontrack/internal/display"
	"github.com/existflow/irontrack/internal/logger"
	"github.com/existflow/irontrack/server"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.ParseLevel(cfg.LogLevel)
	logCfg.FilePath = cfg.LogFile
	logCfg.Console = true
	if err := logger.Init(logCfg); err != nil {
		log.Printf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	port := getEnv("PORT", "8080")
	driver := cfg.DBDriver
	dsn := cfg.DBDSN
	if url := os.Getenv("DATABASE_URL"); url != "" {
		driver, dsn = db.DriverPostgres, url
	}

	store, err := db.Open(driver, dsn)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	locale, err := display.ParseLocale(cfg.Locale, nil)
	if err != nil {
		log.Printf("Unknown locale %q, using default: %v", cfg.Locale, err)
		locale = display.DefaultLocale()
	}

	srv := server.New(store, server.Options{
		Token:  getEnv("IRONTRACK_SERVER_TOKEN", cfg.ServerToken),
		Locale: locale,
	})
	defer func() {
		if err := srv.Close(); err != nil {
			log.Printf("Error closing server: %v", err)
		}
	}()

	logger.Info("Server starting", logger.F("port", port), logger.F("driver", driver))
	log.Printf("IronTrack server starting on :%s", port)
	if err := srv.Start(":" + port); err != nil {
		log.Printf("Server failed: %v", err)
	}
}
