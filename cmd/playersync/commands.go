package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"fbasketball/ingestion/internal/cache"
	"fbasketball/ingestion/internal/client"
	"fbasketball/ingestion/internal/config"
	"fbasketball/ingestion/internal/metrics"
	"fbasketball/ingestion/internal/pipeline"
	"fbasketball/ingestion/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// errUpsertFailed is returned in strict mode when a batch was not written
var errUpsertFailed = errors.New("upsert failed")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one sync and exit",
	RunE:  runSyncCmd,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the sync on SYNC_CRON and serve metrics until interrupted",
	RunE:  runScheduleCmd,
}

func runSyncCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(os.Stdout)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("env", cfg.AppEnv).
		Str("season", cfg.Season).
		Int("batch_size", cfg.BatchSize).
		Msg("Configuration loaded")

	return syncOnce(ctx, cfg, strict || cfg.StrictUpsert)
}

func runScheduleCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(os.Stdout)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	go startMetricsServer(ctx, cfg.MetricsPort, svc.store)

	// Update system uptime metric
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
			case <-ctx.Done():
				return
			}
		}
	}()

	sched := scheduler.NewScheduler(cfg.SyncCron, svc.pipeline)
	if err := sched.Start(ctx); err != nil {
		return err
	}

	if runNow {
		log.Info().Msg("Running initial sync...")
		sched.RunOnce(ctx)
	}

	// Keep running until a signal arrives
	<-ctx.Done()
	log.Info().Msg("Received shutdown signal, gracefully shutting down...")

	sched.Stop()
	log.Info().Msg("Scheduler shutdown complete")
	return nil
}

// service holds the wired pipeline and everything it must release on exit
type service struct {
	pipeline *pipeline.Pipeline
	store    playerStore
	cache    *cache.RedisCache
}

func newService(ctx context.Context, cfg *config.Config) (*service, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc := &service{store: store}

	var responseCache client.ResponseCache
	if cfg.CacheEnabled {
		redisCache, err := cache.NewRedisCache(cache.Config{
			Host:     cfg.RedisHost,
			Port:     strconv.Itoa(cfg.RedisPort),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr()).Msg("Failed to connect to Redis - continuing without cache")
		} else {
			svc.cache = redisCache
			responseCache = redisCache
			log.Info().Msg("Redis cache connected")
		}
	}

	statsClient := client.NewClient(client.Config{
		BaseURL:    cfg.StatsBaseURL,
		Timeout:    cfg.StatsTimeout,
		Delay:      cfg.RequestDelay,
		Season:     cfg.Season,
		SeasonType: cfg.SeasonType,
		PerMode:    cfg.PerMode,
		Cache:      responseCache,
		CacheTTL:   cfg.CacheTTL,
	})

	svc.pipeline = pipeline.New(statsClient, pipeline.NewUpserter(store, cfg.BatchSize))
	return svc, nil
}

func (s *service) Close() {
	if s.cache != nil {
		s.cache.Close()
	}
	s.store.Close()
}

// syncOnce runs the pipeline a single time.
// Upsert failures are only returned in strict mode.
func syncOnce(ctx context.Context, cfg *config.Config, strict bool) error {
	svc, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	result, err := svc.pipeline.Run(ctx)
	if err != nil {
		return err
	}

	if strict && !result.Upsert.OK() {
		return fmt.Errorf("%w: %v", errUpsertFailed, result.Upsert.Err)
	}
	return nil
}

// reportError prints the user-facing message for err and returns the process exit code
func reportError(w io.Writer, err error) int {
	if err == nil {
		return 0
	}

	var missing *config.MissingCredentialsError
	switch {
	case errors.As(err, &missing):
		fmt.Fprintf(w, "✗ Error: %s\n", missing)
	case errors.Is(err, pipeline.ErrNoData):
		fmt.Fprintln(w, "✗ No data fetched. Exiting.")
	case errors.Is(err, errUpsertFailed):
		fmt.Fprintf(w, "✗ Upsert incomplete: %v\n", err)
	default:
		fmt.Fprintf(w, "✗ Error: %v\n", err)
	}
	return 1
}

// healthHandler reports unhealthy while the store's database cannot be reached
func healthHandler(store any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if hc, ok := store.(healthChecker); ok {
			if err := hc.Health(r.Context()); err != nil {
				log.Warn().Err(err).Msg("Health check failed")
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": err.Error()})
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}
}

func startMetricsServer(ctx context.Context, port int, store any) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler(store))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Int("port", port).Msg("Starting metrics server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
