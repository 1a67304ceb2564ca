package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fortuna/dynasty/internal/analytics"
	"github.com/fortuna/dynasty/internal/api/rest"
	"github.com/fortuna/dynasty/internal/api/websocket"
	"github.com/fortuna/dynasty/internal/cache"
	"github.com/fortuna/dynasty/internal/config"
	"github.com/fortuna/dynasty/internal/publisher"
	"github.com/fortuna/dynasty/internal/scheduler"
	"github.com/fortuna/dynasty/internal/store"
	syncer "github.com/fortuna/dynasty/internal/sync"
	"github.com/fortuna/dynasty/internal/yahoo"
)

const serviceName = "dynasty"

func main() {
	log.Printf("Starting %s - League History Service", serviceName)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	registry, err := config.LoadRegistry(cfg.FranchisesPath)
	if err != nil {
		log.Fatalf("Failed to load franchises from %s: %v", cfg.FranchisesPath, err)
	}
	log.Printf("✓ Loaded %d franchises from %s", len(registry.Slugs()), cfg.FranchisesPath)

	// Initialize Redis with retry logic
	var redisCache *cache.RedisCache
	maxRetries := 30
	retryDelay := 2 * time.Second

	log.Println("Connecting to Redis...")
	for i := 0; i < maxRetries; i++ {
		redisCache, err = cache.NewRedisCache(cfg.RedisURL, cfg.CacheTTL)
		if err == nil {
			break
		}

		if i < maxRetries-1 {
			log.Printf("Redis connection attempt %d/%d failed: %v (retrying in %v)", i+1, maxRetries, err, retryDelay)
			time.Sleep(retryDelay)
		} else {
			log.Fatalf("Failed to connect to Redis after %d attempts: %v", maxRetries, err)
		}
	}
	defer redisCache.Close()
	log.Println("✓ Connected to Redis")

	hub := websocket.NewHub()
	go hub.Run()

	streamPublisher := publisher.NewRedisStreamPublisher(redisCache.Client())
	events := syncer.MultiSink{streamPublisher, hub}

	source := newSource(cfg)

	// One database per franchise
	franchises := make(map[string]*scheduler.Franchise)
	for _, slug := range registry.Slugs() {
		fc, err := registry.Get(slug)
		if err != nil {
			log.Fatalf("Failed to resolve franchise %s: %v", slug, err)
		}

		dsn, err := store.DSNForSlug(cfg.DatabaseURL, slug)
		if err != nil {
			log.Fatalf("Failed to build DSN for %s: %v", slug, err)
		}
		db, err := store.NewDatabase(dsn, slug)
		if err != nil {
			log.Fatalf("Failed to connect to database for %s: %v", slug, err)
		}
		defer db.Close()

		if err := db.RunMigrations(); err != nil {
			log.Fatalf("Failed to run migrations for %s: %v", slug, err)
		}

		franchises[slug] = &scheduler.Franchise{
			Slug:     slug,
			Config:   fc,
			DB:       db,
			Pipeline: syncer.NewPipeline(db, source, fc, cfg.SyncDelay, events),
			Service:  analytics.NewService(db, fc),
		}
		log.Printf("✓ Franchise %s ready (%d seasons configured)", slug, len(fc.SeasonList()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orch := scheduler.NewOrchestrator(franchises, redisCache, cfg.SyncSchedule)
	if err := orch.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	log.Println("✓ Scheduler started")

	port := strconv.Itoa(cfg.Port)
	restServer := rest.NewServer(port, registry, orch, redisCache, hub)
	go func() {
		log.Printf("Starting REST API server on port %s", port)
		if err := restServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Printf("REST server error: %v", err)
		}
	}()

	log.Printf("✓ %s started successfully", serviceName)
	log.Printf("  REST API: http://0.0.0.0:%s", port)
	log.Printf("  Sync stream: ws://0.0.0.0:%s/ws/sync", port)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")

	cancel()
	orch.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("REST API server shutdown error: %v", err)
	}

	log.Printf("%s stopped", serviceName)
}

func newSource(cfg *config.Config) yahoo.Source {
	if cfg.YahooClientID == "" || cfg.YahooClientSecret == "" || cfg.YahooRefreshToken == "" {
		log.Println("⚠️  Yahoo credentials missing; sync runs will fail until they are set")
	}
	return yahoo.NewClient(cfg.YahooClientID, cfg.YahooClientSecret, cfg.YahooRefreshToken)
}
