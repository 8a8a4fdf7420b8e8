package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/aiox-platform/recall/internal/api"
	"github.com/aiox-platform/recall/internal/auth"
	"github.com/aiox-platform/recall/internal/config"
	"github.com/aiox-platform/recall/internal/database"
	"github.com/aiox-platform/recall/internal/embedding"
	"github.com/aiox-platform/recall/internal/engine"
	"github.com/aiox-platform/recall/internal/graph"
	"github.com/aiox-platform/recall/internal/memory"
	mw "github.com/aiox-platform/recall/internal/middleware"
	inats "github.com/aiox-platform/recall/internal/nats"
	iredis "github.com/aiox-platform/recall/internal/redis"
	"github.com/aiox-platform/recall/internal/server"
)

func newServeCmd() *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if migrateFirst {
				if err := database.RunMigrations(cfg.DB.DSN(), cfg.Migrations.Path); err != nil {
					return err
				}
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "Apply migrations before serving")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	checks := map[string]api.HealthCheck{}

	// PostgreSQL (vectors and, by default, history)
	pool, err := database.NewPostgresPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer pool.Close()
	vectors := engine.NewPostgresVectorStore(pool)
	checks["database"] = vectors.HealthCheck

	// Neo4j
	driver, err := graph.NewDriver(ctx, cfg.Neo4j)
	if err != nil {
		return fmt.Errorf("connecting to neo4j: %w", err)
	}
	defer driver.Close(context.Background())
	graphStore := graph.NewStore(driver)
	checks["graph"] = graphStore.HealthCheck

	// Redis, only when something uses it
	var redisClient *redis.Client
	if cfg.NeedsRedis() {
		redisClient, err = iredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer redisClient.Close()
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	opts := []engine.Option{
		engine.WithGraph(graphStore),
		engine.WithSearchLimit(cfg.Engine.SearchLimit),
	}

	var history engine.HistoryStore
	if cfg.Engine.HistoryBackend == "redis" {
		history = engine.NewRedisHistoryStore(redisClient)
	} else {
		history = engine.NewPostgresHistoryStore(pool)
		opts = append(opts, engine.WithTransactor(engine.NewPostgresTransactor(pool)))
	}

	// NATS, optional
	if cfg.NATS.URL != "" {
		natsClient, err := inats.NewClient(ctx, cfg.NATS)
		if err != nil {
			return fmt.Errorf("connecting to nats: %w", err)
		}
		defer natsClient.Close()
		opts = append(opts, engine.WithEvents(inats.NewPublisher(natsClient.JetStream())))
		checks["nats"] = natsClient.HealthCheck
	}

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		return err
	}
	slog.Info("embedding provider", "provider", cfg.Embedding.Provider, "dims", cfg.Embedding.Dims)

	eng := engine.New(vectors, history, embedder, opts...)
	memHandler := memory.NewHandler(memory.NewService(memory.Instrument(eng)))

	handlers := api.HandlerSet{
		GetMemories:    memHandler.GetMemories,
		AddMemory:      memHandler.AddMemory,
		DeleteMemories: memHandler.DeleteMemories,
		GetMemory:      memHandler.GetMemory,
		UpdateMemory:   memHandler.UpdateMemory,
		DeleteMemory:   memHandler.DeleteMemory,
		SearchMemories: memHandler.SearchMemories,
		MemoryHistory:  memHandler.MemoryHistory,

		AuthMiddleware: auth.Middleware(cfg.Auth.SecretKey, auth.ProtectedPrefixes),
	}
	if cfg.RateLimit.Enabled() {
		limiter := mw.NewRateLimiter(redisClient, "memory", cfg.RateLimit.Requests, cfg.RateLimit.WindowSec)
		handlers.RateLimiter = limiter.Middleware
		slog.Info("rate limiting memory routes", "requests", cfg.RateLimit.Requests, "window_sec", cfg.RateLimit.WindowSec)
	}

	router := api.NewRouter(api.RouterConfig{
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
		HealthChecks:       checks,
	}, handlers)

	return server.New(cfg.Server, router).Start(ctx)
}
