package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	database "github.com/sebuszqo/FinanceManager/db"
	"github.com/sebuszqo/FinanceManager/internal/auth"
	"github.com/sebuszqo/FinanceManager/internal/config"
	"github.com/sebuszqo/FinanceManager/internal/finance/application"
	"github.com/sebuszqo/FinanceManager/internal/finance/domain"
	"github.com/sebuszqo/FinanceManager/internal/finance/infrastructure"
	"github.com/sebuszqo/FinanceManager/internal/finance/interfaces"
)

func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     cfg.SlogLevel(),
		AddSource: cfg.IsDevelopment(),
	}

	var h slog.Handler
	if cfg.LogFormat == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("missing configuration, update to start server", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := initLogger(cfg)

	if cfg.AutoMigrate {
		if err := database.Migrate(cfg.DBConnectionString, logger); err != nil {
			logger.Error("could not apply migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	dbService, err := database.NewDBService(ctx, cfg.DBConnectionString, database.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		logger.Error("could not initialize database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbService.Close()

	var categoryRepo domain.CategoryRepository = infrastructure.NewCategoryRepository(dbService.DB)
	if cfg.CacheEnabled() {
		redisClient, err := newRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("could not connect to redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
		categoryRepo = infrastructure.NewCachedCategoryRepository(categoryRepo, redisClient, cfg.CacheTTL, logger)
		logger.Info("category list cache enabled", slog.Duration("ttl", cfg.CacheTTL))
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWTSecret)
	if err != nil {
		logger.Error("could not create jwt manager", slog.String("error", err.Error()))
		os.Exit(1)
	}

	categoryService := application.NewCategoryService(categoryRepo)
	categoryHandler := interfaces.NewCategoryHandler(
		categoryService,
		interfaces.RespondJSON,
		interfaces.RespondError,
		logger,
	)

	server := NewServer(categoryHandler, jwtManager, dbService, logger)
	server.RegisterRoutes()

	logger.Info("starting server", slog.Int("port", cfg.AppPort), slog.String("env", cfg.AppEnv))
	if err := server.Run(cfg.AppPort, cfg.ReadTimeout, cfg.WriteTimeout, cfg.ShutdownTimeout); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
