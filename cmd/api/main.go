package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/khazandria-api/internal/config"
	"github.com/noah-isme/khazandria-api/internal/database"
	"github.com/noah-isme/khazandria-api/internal/handler"
	"github.com/noah-isme/khazandria-api/internal/middleware"
	"github.com/noah-isme/khazandria-api/internal/repository"
	"github.com/noah-isme/khazandria-api/internal/router"
	"github.com/noah-isme/khazandria-api/internal/service"
	"github.com/noah-isme/khazandria-api/internal/utils"
	"github.com/noah-isme/khazandria-api/pkg/apperror"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "khazandria-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if !cfg.IsProduction() {
		logger = logger.Level(zerolog.DebugLevel)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not configured, report cache and pubsub events disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Drain()
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, service.Options{
		Redis:          redisClient,
		NATS:           natsConn,
		EventsChannel:  cfg.EventsChannel,
		ReportCacheTTL: cfg.ReportCacheTTL,
	}, logger)

	probes := []handler.HealthProbe{{
		Name: "database",
		Check: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}
	if redisClient != nil {
		probes = append(probes, handler.HealthProbe{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fiberErr, ok := err.(*fiber.Error); ok {
				return utils.SendError(c, fiberErr.Code, fiberErr.Message)
			}
			logger.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
			return utils.SendAppError(c, apperror.Internal(err, "unhandled error"))
		},
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSOrigins,
		AccessLog:    !cfg.IsProduction(),
	})
	router.Register(app, cfg, router.Dependencies{
		ActivityHandler:    handler.NewActivityHandler(services.Activities, services.Access, logger),
		GroupHandler:       handler.NewGroupHandler(services.Groups, services.Enrollments, services.Access, logger),
		StudentHandler:     handler.NewStudentHandler(services.Students, logger),
		SessionHandler:     handler.NewSessionHandler(services.Sessions, services.Access, logger),
		GlobalGradeHandler: handler.NewGlobalGradeHandler(services.GlobalGrades, services.Access, logger),
		ReportHandler:      handler.NewReportHandler(services.Reports, services.Access, logger),
		AuditHandler:       handler.NewAuditHandler(services.Audit, logger),
		SeedHandler:        handler.NewSeedHandler(service.NewSeedService(services, logger), logger),
		HealthProbes:       probes,
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Msg("http server listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
