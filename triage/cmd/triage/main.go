package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/telhawk-systems/telhawk-soc/common/database"
	"github.com/telhawk-systems/telhawk-soc/common/logging"
	"github.com/telhawk-systems/telhawk-soc/common/messaging"
	natsclient "github.com/telhawk-systems/telhawk-soc/common/messaging/nats"

	"github.com/telhawk-systems/telhawk-soc/triage/internal/broadcast"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/config"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/dashboard"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/events"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/feed"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/handlers"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/ratelimit"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/repository"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/scheduler"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/seed"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/server"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/service"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	seedDemo := flag.Bool("seed", false, "load the demo client, employees and rules before serving")
	seedOnly := flag.Bool("seed-only", false, "load the demo data and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("triage"))
	logging.SetDefault(logger)

	slog.Info("Starting Triage service",
		slog.Int("port", cfg.Server.Port),
		slog.String("database", cfg.Database.Type),
		slog.String("log_level", cfg.Logging.Level),
		slog.String("log_format", cfg.Logging.Format),
	)
	if *configPath != "" {
		slog.Info("Loaded configuration", slog.String("config_path", *configPath))
	}

	loc, err := cfg.Dashboard.Location()
	if err != nil {
		slog.Error("Invalid dashboard timezone", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	// Initialize repository based on config
	repo, err := openRepository(rootCtx, cfg)
	if err != nil {
		slog.Error("Failed to initialize repository", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer repo.Close()

	if *seedDemo || *seedOnly {
		seedCtx, cancelSeed := database.BulkContext(rootCtx)
		_, err := seed.Run(seedCtx, repo, logger.Logger)
		cancelSeed()
		if err != nil {
			slog.Error("Failed to seed demo data", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if *seedOnly {
			return
		}
	}

	// Local monitor group, optionally shared across replicas through NATS
	hub := broadcast.NewHub(broadcast.GroupMonitor, logger.Logger)
	var (
		notifier  broadcast.Publisher = hub
		publisher events.Publisher    = events.Nop{}
		broker    messaging.Client
	)
	if cfg.NATS.Enabled {
		client, err := natsclient.NewClient(natsclient.Config{
			URL:           cfg.NATS.URL,
			Name:          cfg.NATS.Name,
			MaxReconnects: cfg.NATS.MaxReconnects,
			ReconnectWait: cfg.NATS.ReconnectWait,
			Timeout:       cfg.NATS.Timeout,
		}, logger.Logger)
		if err != nil {
			slog.Error("Failed to connect to NATS", slog.String("url", cfg.NATS.URL), slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer client.Drain()
		broker = client

		relay := broadcast.NewRelay(client, messaging.SubjectMonitorNotify, hub, logger.Logger)
		if err := relay.Start(); err != nil {
			slog.Error("Failed to start monitor relay", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer relay.Close()
		notifier = relay
		publisher = events.NewBrokerPublisher(client)
		slog.Info("Connected to NATS", slog.String("url", cfg.NATS.URL))
	} else {
		slog.Info("Messaging disabled, monitor notifications stay in-process")
	}

	// Initialize service layer
	triageService := service.NewTriageService(repo, service.Options{
		Broadcast: notifier,
		Events:    publisher,
		Logger:    logger.Logger,
		Location:  loc,
	})
	aggregator := dashboard.NewAggregator(repo, loc)

	var limiter ratelimit.RateLimiter = ratelimit.NoOpRateLimiter{}
	if cfg.RateLimit.Enabled {
		redisLimiter, err := ratelimit.NewRedisRateLimiter(cfg.Redis.URL, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		if err != nil {
			slog.Error("Failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		limiter = redisLimiter
		slog.Info("Ingest rate limiting enabled",
			slog.Int("requests", cfg.RateLimit.Requests),
			slog.Duration("window", cfg.RateLimit.Window),
		)
	}
	defer limiter.Close()

	// Live monitor stream with periodic heartbeat
	stream := broadcast.NewStreamServer(hub, broadcast.StreamConfig{
		IdleTimeout:    cfg.WebSocket.IdleTimeout,
		WriteTimeout:   cfg.WebSocket.WriteTimeout,
		Buffer:         cfg.WebSocket.Buffer,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, logger.Logger)
	defer stream.Close()

	jobs := scheduler.New(loc, logger.Logger)
	if err := jobs.Heartbeat(cfg.WebSocket.HeartbeatInterval, stream.HeartbeatCheck); err != nil {
		slog.Error("Failed to schedule heartbeat", slog.String("error", err.Error()))
		os.Exit(1)
	}
	jobs.Start()
	defer jobs.Stop()

	// Synthetic event feed
	if cfg.Feed.Enabled {
		feedCfg := feed.DefaultConfig()
		feedCfg.Mode = feed.Mode(cfg.Feed.Mode)
		feedCfg.Backoff = cfg.Feed.Backoff
		feedCfg.CaseChance = cfg.Feed.CaseChance
		supervisor := feed.NewSupervisor(feedCfg, repo, notifier, triageService, logger.Logger)
		supervisor.Start(rootCtx)
		slog.Info("Synthetic feed started", slog.String("mode", cfg.Feed.Mode))
	}

	// Initialize HTTP handlers
	handler := handlers.NewTriageHandler(triageService, aggregator, handlers.Options{
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Messaging:    broker,
		Logger:       logger.Logger,
	})
	router := server.NewRouter(handler, stream, server.RouterConfig{
		Limiter: limiter,
		CORS:    server.DefaultCORS(cfg.Server.AllowedOrigins),
		Logger:  logger.Logger,
	})

	// Create server with config values
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BaseContext:  func(_ net.Listener) context.Context { return rootCtx },
	}

	// Start server in goroutine
	go func() {
		slog.Info("Triage service listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")
	cancelRoot()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("Server stopped gracefully")
}

func openRepository(ctx context.Context, cfg *config.Config) (repository.Repository, error) {
	if cfg.Database.Type != "postgres" {
		slog.Warn("Using in-memory repository (development only)")
		return repository.NewInMemoryRepository(), nil
	}

	pg := cfg.Database.Postgres
	slog.Info("Connecting to PostgreSQL",
		slog.String("host", pg.Host),
		slog.Int("port", pg.Port),
		slog.String("database", pg.Database),
	)

	opts := database.DefaultPoolOptions()
	if pg.MaxConns > 0 {
		opts.MaxConns = pg.MaxConns
	}
	repo, err := repository.NewPostgresRepositoryWithOptions(ctx, pg.ConnString(), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	slog.Info("Connected to PostgreSQL")

	// Run database migrations
	slog.Info("Running database migrations", slog.String("source", cfg.Database.Migrations))
	version, err := database.Migrate(cfg.Database.Migrations, pg.ConnString())
	if err != nil {
		repo.Close()
		return nil, err
	}
	slog.Info("Database migration complete", slog.Uint64("version", uint64(version)))
	return repo, nil
}
