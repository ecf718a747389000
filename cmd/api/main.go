// Package main starts the slim-postgres back office: a session-authenticated
// administration interface over a PostgreSQL database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/it-all/slim-postgres/internal/config"
	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/database"
	"github.com/it-all/slim-postgres/internal/server"
	"github.com/it-all/slim-postgres/internal/utils"
)

// Version information is set during build time through linker flags.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func init() {
	// Configuration may come from the real environment instead
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found or couldn't be loaded")
	}
}

func main() {
	var (
		configPath  string
		showVersion bool
		migrateOnly bool
	)

	flag.StringVar(&configPath, "config", constants.DefaultConfigPath, "Path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&migrateOnly, "migrate-only", false, "Run migrations and seeds, then exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("slim-postgres\nVersion: %s\nCommit: %s\nBuild Date: %s\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Bootstrap logger until the configured one is in place
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if version != "dev" {
		cfg.App.Version = version
	}

	utils.InitLogger(cfg)
	utils.InitValidator()

	ctx := context.Background()

	if migrateOnly {
		if err := migrate(ctx, cfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to prepare database")
		}
		log.Info().Msg("Database prepared")
		return
	}

	log.Info().
		Str("version", cfg.App.Version).
		Str("environment", cfg.App.Environment).
		Msg("Starting slim-postgres")

	srv, err := server.NewServer(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}
}

func migrate(ctx context.Context, cfg *config.AppConfig) error {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	return server.PrepareDatabase(ctx, db, cfg)
}
