package pipeline

import (
	"context"
	"fmt"

	"fbasketball/ingestion/internal/metrics"
	"fbasketball/ingestion/internal/models"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultBatchSize is the per-request record limit of the storage backend
const DefaultBatchSize = 1000

// PlayerStore writes player records, replacing any stored row with the same player_id
type PlayerStore interface {
	UpsertPlayers(ctx context.Context, players []models.PlayerSeasonRecord) error
	Close()
}

// UpsertResult summarizes one Upsert call
type UpsertResult struct {
	Batches  int
	Upserted int
	Err      error
}

// OK reports whether every batch was written
func (r UpsertResult) OK() bool {
	return r.Err == nil
}

// Upserter writes a fetched table to a PlayerStore in fixed-size batches
type Upserter struct {
	store     PlayerStore
	batchSize int
	logger    zerolog.Logger
}

// NewUpserter creates an upserter. A non-positive batch size falls back to DefaultBatchSize.
func NewUpserter(store PlayerStore, batchSize int) *Upserter {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Upserter{
		store:     store,
		batchSize: batchSize,
		logger:    log.Logger,
	}
}

// WithLogger returns a copy of the upserter that logs through logger
func (u *Upserter) WithLogger(logger zerolog.Logger) *Upserter {
	cp := *u
	cp.logger = logger
	return &cp
}

// Upsert converts the table to player records and writes them batch by batch, in table order.
// The first failure stops the loop; it is logged and reported in the result, never returned or raised.
func (u *Upserter) Upsert(ctx context.Context, table *models.Table) (result UpsertResult) {
	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("upsert panicked: %v", r)
		}
		if result.Err != nil {
			metrics.RecordError("upserter", "upsert")
			u.logger.Error().
				Err(result.Err).
				Int("batches", result.Batches).
				Int("upserted", result.Upserted).
				Msgf("✗ Error upserting data: %v", result.Err)
		}
	}()

	records := table.Records()
	players := make([]models.PlayerSeasonRecord, 0, len(records))
	for i, rec := range records {
		p, err := models.FromRecord(rec)
		if err != nil {
			result.Err = fmt.Errorf("failed to convert row %d: %w", i, err)
			return result
		}
		players = append(players, *p)
	}

	u.logger.Info().Int("players", len(players)).Msgf("Upserting %d players...", len(players))

	for i, batch := range Batches(players, u.batchSize) {
		if err := u.store.UpsertPlayers(ctx, batch); err != nil {
			metrics.RecordUpsertBatch("error", len(batch))
			result.Err = fmt.Errorf("batch %d: %w", i+1, err)
			return result
		}
		metrics.RecordUpsertBatch("success", len(batch))
		result.Batches++
		result.Upserted += len(batch)

		u.logger.Info().
			Int("batch", i+1).
			Int("size", len(batch)).
			Msgf("✓ Batch %d: Upserted %d players", i+1, len(batch))
	}

	u.logger.Info().Int("upserted", result.Upserted).Msgf("✓ Successfully upserted all %d players", result.Upserted)
	return result
}

// Batches splits items into contiguous chunks of at most size elements.
func Batches[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = DefaultBatchSize
	}
	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end])
	}
	return batches
}
