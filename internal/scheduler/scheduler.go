package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"fbasketball/ingestion/internal/metrics"
	"fbasketball/ingestion/internal/pipeline"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Runner executes one sync
type Runner interface {
	Run(ctx context.Context) (pipeline.Result, error)
}

// Scheduler runs the player sync on a cron schedule.
// Overlapping runs are skipped rather than queued.
type Scheduler struct {
	spec   string
	runner Runner
	cron   *cron.Cron
	runs   atomic.Int64
}

// NewScheduler creates a new scheduler instance
func NewScheduler(spec string, runner Runner) *Scheduler {
	logger := cronLogger{}
	return &Scheduler{
		spec:   spec,
		runner: runner,
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// Start registers the sync job and starts the cron loop
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	if _, err := s.cron.AddFunc(s.spec, func() {
		s.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule player sync: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.spec).
		Msg("Player sync scheduled")

	return nil
}

// Stop stops the scheduler and waits for a running sync to finish
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")
	<-s.cron.Stop().Done()
	log.Info().Msg("Scheduler stopped")
}

// RunOnce runs a single sync and logs the outcome. Failures never stop the schedule.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.runs.Add(1)

	result, err := s.runner.Run(ctx)
	switch {
	case errors.Is(err, pipeline.ErrNoData):
		log.Warn().Str("run_id", result.RunID).Msg("✗ No data fetched, will retry on next schedule")
		return
	case err != nil:
		metrics.RecordError("scheduler", "run")
		log.Error().Err(err).Str("run_id", result.RunID).Msg("Scheduled sync failed")
		return
	}

	if !result.Upsert.OK() {
		log.Warn().
			Str("run_id", result.RunID).
			Int("upserted", result.Upsert.Upserted).
			Int("fetched", result.Fetched).
			Msg("Scheduled sync finished with upsert errors")
	}
}

// Runs returns how many syncs have been started
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// cronLogger routes cron's internal logging through zerolog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
