package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DZ-Ramzy/ICP-ramzy/internal/config"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/engine"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/feed"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/ledger"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/observability"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/persistence"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/query"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/server"
)

// channelRecorder bridges engine records onto the persistence and feed
// channels. Persistence sends block so audit data is never lost; feed sends
// drop when the buffer is full.
type channelRecorder struct {
	persist chan<- persistence.WriteSet
	publish chan<- feed.Event
	metrics *observability.Metrics
}

func (r *channelRecorder) Record(rec engine.Record) {
	var set persistence.WriteSet
	if rec.Batch != nil {
		set.Entries = persistence.EntryRows(rec.Batch)
	}
	if rec.Claim != nil {
		set.Claims = []persistence.ClaimRow{persistence.ClaimRowFrom(*rec.Claim)}
	}
	if len(set.Entries) > 0 || len(set.Claims) > 0 {
		r.persist <- set
	}

	if r.publish == nil {
		return
	}
	select {
	case r.publish <- rec.Event:
		r.metrics.FeedPublished.Inc()
	default:
		r.metrics.FeedDropped.Inc()
	}
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("INFO: marketd starting...")

	configPath := flag.String("config", "configs/config.yaml", "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("FATAL: load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("FATAL: invalid config: %v", err)
	}

	// --- Context with graceful shutdown ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// --- Postgres ---
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatalf("FATAL: postgres open: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxOpenConns / 2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("FATAL: postgres ping: %v", err)
	}
	log.Println("INFO: Postgres connected")

	if cfg.Database.RunMigration {
		if err := persistence.NewMigrator(db, "migrations").Up(ctx); err != nil {
			log.Fatalf("FATAL: run migrations: %v", err)
		}
		log.Println("INFO: migrations applied")
	}

	// --- Observability ---
	metrics := observability.NewMetrics()
	healthChecker := observability.NewHealthChecker()

	// --- Channels ---
	persistChan := make(chan persistence.WriteSet, cfg.Persistence.QueueSize)
	var publishChan chan feed.Event

	errChan := make(chan error, 8)

	// --- NATS (optional) ---
	if cfg.NATS.Enabled {
		nc, js, err := feed.Connect(cfg.NATS.URL)
		if err != nil {
			log.Fatalf("FATAL: nats connect: %v", err)
		}
		defer nc.Close()
		log.Println("INFO: NATS connected")

		if err := feed.EnsureStream(ctx, js); err != nil {
			log.Fatalf("FATAL: ensure outbound stream: %v", err)
		}

		publishChan = make(chan feed.Event, cfg.Feed.QueueSize)
		publisher := feed.NewPublisher(js, publishChan)
		go func() {
			errChan <- publisher.Run(ctx)
		}()
	} else {
		log.Println("INFO: NATS disabled, running without an event feed")
	}

	// --- Engine ---
	store := ledger.NewStore()
	recorder := &channelRecorder{
		persist: persistChan,
		metrics: metrics,
	}
	if publishChan != nil {
		recorder.publish = publishChan
	}

	ex, err := engine.New(engine.Config{
		FeeBps:              cfg.Exchange.FeeBps,
		SeedReserve:         cfg.Exchange.SeedReserve,
		MinInitialLiquidity: cfg.Exchange.MinInitialLiquidity,
		MinDeposit:          cfg.Exchange.MinDeposit,
		PlatformFeeBps:      cfg.Exchange.PlatformFeeBps,
		Admin:               cfg.AdminID(),
	}, store, recorder, metrics)
	if err != nil {
		log.Fatalf("FATAL: build engine: %v", err)
	}

	// --- Persistence worker ---
	persistWorker := persistence.NewWorker(
		db, persistChan, cfg.Persistence.BatchSize, cfg.Persistence.FlushInterval, metrics)
	go func() {
		errChan <- persistWorker.Run(ctx)
	}()

	// --- HTTP API server ---
	apiServer := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      server.NewServer(ex, query.NewService(db), metrics, healthChecker).Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("INFO: API server listening on %s", cfg.Server.ListenAddr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("api server: %w", err)
		}
	}()

	// --- Prometheus metrics server ---
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    cfg.Server.MetricsAddr,
		Handler: metricsMux,
	}
	go func() {
		log.Printf("INFO: metrics server listening on %s/metrics", cfg.Server.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	healthChecker.SetReady(true)
	log.Printf("INFO: marketd ready (api=%s, metrics=%s, admin=%s)",
		cfg.Server.ListenAddr, cfg.Server.MetricsAddr, cfg.AdminID())

	// --- Wait for shutdown signal ---
	select {
	case sig := <-sigChan:
		log.Printf("INFO: received signal %s, shutting down...", sig)
	case err := <-errChan:
		log.Printf("ERROR: goroutine failed: %v, shutting down...", err)
	}

	// --- Graceful shutdown: stop accepting requests, then drain workers ---
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	apiServer.Shutdown(shutdownCtx)
	metricsServer.Shutdown(shutdownCtx)

	// No new records arrive once the API is down; closing the channels lets
	// the workers drain their buffers, flush, and exit.
	close(persistChan)
	if publishChan != nil {
		close(publishChan)
	}

	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Println("INFO: marketd shutdown complete")
}
