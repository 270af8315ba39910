// Package main runs the activity gateway service:
// - History API: signature listing, transaction fetch, normalization
// - Metadata resolution: directory, persistent store, REST provider
// - Watcher (optional): live log subscriptions prewarming the cache
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"solana-activity-gateway/internal/activity"
	"solana-activity-gateway/internal/config"
	"solana-activity-gateway/internal/history"
	"solana-activity-gateway/internal/metadata"
	"solana-activity-gateway/internal/normalize"
	"solana-activity-gateway/internal/observability"
	"solana-activity-gateway/internal/solana"
	"solana-activity-gateway/internal/storage"
	"solana-activity-gateway/internal/storage/memory"
	"solana-activity-gateway/internal/storage/migrations"
	pgstore "solana-activity-gateway/internal/storage/postgres"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Path to YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory metadata storage instead of PostgreSQL")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, cleanup, err := buildServer(ctx, cfg, *useMemory, logger)
	if err != nil {
		logger.Fatalf("Failed to build server: %v", err)
	}
	defer cleanup()

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		done := make(chan struct{})
		go func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				logger.Printf("HTTP shutdown error: %v", err)
			}
			close(done)
		}()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	logger.Printf("Listening on %s", cfg.Server.Addr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("HTTP server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// buildServer wires every component from configuration.
func buildServer(ctx context.Context, cfg *config.Config, useMemory bool, logger *log.Logger) (*Server, func(), error) {
	// Endpoint pool and failover RPC client
	endpoints := make([]solana.Endpoint, 0, len(cfg.RPC.Endpoints))
	for _, url := range cfg.RPC.Endpoints {
		endpoints = append(endpoints, solana.Endpoint{URL: url})
	}
	pool, err := solana.NewPool(endpoints)
	if err != nil {
		return nil, nil, err
	}

	rpc := solana.NewFailoverClient(pool,
		solana.WithRetryPolicy(solana.NewRetryPolicy(cfg.RPC.MaxAttempts, cfg.RPC.RetryDelay)),
		solana.WithCallTimeout(cfg.RPC.CallTimeout),
		solana.WithLogger(log.New(os.Stdout, "[rpc] ", log.LstdFlags)),
		solana.WithAttemptObserver(func(endpoint string, err error) {
			observability.RecordFailoverAttempt(endpoint)
		}),
	)

	health := solana.NewHealthChecker(solana.HealthCheckerOptions{
		Pool:     pool,
		Interval: cfg.RPC.HealthInterval,
		Logger:   log.New(os.Stdout, "[health] ", log.LstdFlags),
		OnResult: observability.SetEndpointHealthy,
	})
	go health.Run(ctx)

	// Metadata store
	store, cleanup, err := createMetadataStore(ctx, cfg.Metadata.PostgresDSN, useMemory, logger)
	if err != nil {
		return nil, nil, err
	}

	// Resolution tiers: directory, persistent store, REST provider
	var sources []metadata.Source
	directory := metadata.NewDirectory(metadata.DirectoryOptions{
		URL:    cfg.Metadata.DirectoryURL,
		Logger: log.New(os.Stdout, "[directory] ", log.LstdFlags),
	})
	if cfg.Metadata.DirectoryURL != "" {
		go func() {
			directory.Run(ctx, cfg.Metadata.DirectoryRefresh)
		}()
		sources = append(sources, directory)
	}
	sources = append(sources, metadata.NewStoreSource(store))
	if cfg.Metadata.ProviderURL != "" {
		sources = append(sources, metadata.NewRESTSource(metadata.RESTSourceOptions{
			BaseURL: cfg.Metadata.ProviderURL,
		}))
	}

	cache, err := metadata.NewCache(cfg.Metadata.CacheSize)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	resolver, err := metadata.NewResolver(metadata.ResolverOptions{
		Cache:       cache,
		Sources:     sources,
		Store:       store,
		Logger:      log.New(os.Stdout, "[metadata] ", log.LstdFlags),
		Concurrency: cfg.Metadata.Concurrency,
		OnResolve: func(tier string) {
			observability.RecordMetadataResolution(tier)
			observability.UpdateMetadataCacheSize(cache.Len())
		},
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	engine := normalize.NewEngine(normalize.EngineOptions{
		Resolver:     resolver,
		Logger:       log.New(os.Stdout, "[normalize] ", log.LstdFlags),
		OnNormalized: observability.RecordNormalized,
		OnDropped:    observability.RecordDropped,
	})

	activityClient := activity.NewClient(activity.ClientOptions{
		BaseURL:   cfg.Activity.BaseURL,
		AuthToken: cfg.Activity.AuthToken,
		Network:   cfg.Activity.Network,
		Client:    &http.Client{Timeout: cfg.Activity.Timeout},
		RPS:       cfg.Activity.RPS,
		Burst:     cfg.Activity.Burst,
		Logger:    log.New(os.Stdout, "[activity] ", log.LstdFlags),
	})

	orch := history.New(history.Options{
		Activity: activityClient,
		RPC:      rpc,
		Engine:   engine,
		Logger:   log.New(os.Stdout, "[history] ", log.LstdFlags),
	})

	// Optional live watcher
	if len(cfg.Watch.Addresses) > 0 {
		ws, err := solana.NewWSClient(ctx, cfg.RPC.WSEndpoint, nil)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("create websocket client: %w", err)
		}
		watcher := history.NewWatcher(history.WatcherOptions{
			Subscriber: ws,
			RPC:        rpc,
			Engine:     engine,
			Addresses:  cfg.Watch.Addresses,
			Logger:     log.New(os.Stdout, "[watcher] ", log.LstdFlags),
			OnPrewarm: func(string) {
				observability.RecordPrewarmed()
			},
		})
		go func() {
			if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Printf("Watcher error: %v", err)
			}
		}()
		logger.Printf("Watching %d addresses", len(cfg.Watch.Addresses))
	}

	srv := &Server{
		orchestrator: orch,
		pool:         pool,
		directory:    directory,
		cache:        cache,
		logger:       logger,
		started:      time.Now(),
	}
	return srv, cleanup, nil
}

// createMetadataStore selects the persistence backend.
func createMetadataStore(ctx context.Context, dsn string, useMemory bool, logger *log.Logger) (storage.TokenMetadataStore, func(), error) {
	if useMemory || dsn == "" {
		logger.Println("Using in-memory metadata store")
		return memory.NewTokenMetadataStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	return pgstore.NewTokenMetadataStore(pool), pool.Close, nil
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
