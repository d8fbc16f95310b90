package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fbasketball/ingestion/internal/metrics"
	"fbasketball/ingestion/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrNoData is returned when the fetch produced an empty table
var ErrNoData = errors.New("no data fetched")

// Fetcher produces the season-averages table
type Fetcher interface {
	FetchSeasonAverages(ctx context.Context) (*models.Table, error)
}

// Result describes one pipeline run
type Result struct {
	RunID   string
	Fetched int
	Upsert  UpsertResult
}

// Pipeline runs fetch then upsert once per call
type Pipeline struct {
	fetcher  Fetcher
	upserter *Upserter
}

// New creates a pipeline
func New(fetcher Fetcher, upserter *Upserter) *Pipeline {
	return &Pipeline{fetcher: fetcher, upserter: upserter}
}

// Run fetches the table and upserts it.
// Fetch errors and an empty table are returned as errors and no upsert is attempted.
// Upsert failures are reported only through Result.Upsert.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	result := Result{RunID: uuid.NewString()}
	logger := log.With().Str("run_id", result.RunID).Logger()

	logger.Info().Msg("Starting player sync")

	table, err := p.fetcher.FetchSeasonAverages(ctx)
	if err != nil {
		metrics.RecordSync("error", 0, time.Since(start).Seconds())
		return result, fmt.Errorf("fetching season averages: %w", err)
	}
	result.Fetched = table.Len()

	if table.Empty() {
		metrics.RecordSync("empty", 0, time.Since(start).Seconds())
		return result, ErrNoData
	}

	result.Upsert = p.upserter.WithLogger(logger).Upsert(ctx, table)

	status := "success"
	if !result.Upsert.OK() {
		status = "upsert_failed"
	}
	metrics.RecordSync(status, result.Fetched, time.Since(start).Seconds())

	logger.Info().
		Int("fetched", result.Fetched).
		Int("upserted", result.Upsert.Upserted).
		Int("batches", result.Upsert.Batches).
		Dur("duration", time.Since(start)).
		Msg("Player sync completed")

	return result, nil
}
