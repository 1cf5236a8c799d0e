package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/khazandria-api/internal/config"
	"github.com/noah-isme/khazandria-api/internal/database"
	"github.com/noah-isme/khazandria-api/internal/repository"
	"github.com/noah-isme/khazandria-api/internal/service"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "khazandria-seed").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	path := flag.String("file", cfg.SeedFile, "path to the seed document")
	flag.Parse()

	raw, err := os.ReadFile(*path)
	if err != nil {
		logger.Fatal().Err(err).Str("file", *path).Msg("failed to read seed file")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	opts := service.Options{EventsChannel: cfg.EventsChannel, ReportCacheTTL: cfg.ReportCacheTTL}
	if cfg.RedisURL != "" {
		client, err := database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		opts.Redis = client
	}

	services := service.NewServices(repository.NewRepositories(db), opts, logger)
	seeder := service.NewSeedService(services, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := seeder.Seed(ctx, raw)
	if err != nil {
		logger.Fatal().Err(err).Str("file", *path).Msg("seed failed")
	}

	logger.Info().
		Str("activity_id", report.ActivityID.String()).
		Int("students", report.Students).
		Int("attendance", report.Attendance).
		Int("global_grades", report.GlobalGrades).
		Msg("seed complete")
}
