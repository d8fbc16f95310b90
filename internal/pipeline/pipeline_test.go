package pipeline

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fbasketball/ingestion/internal/client"
	"fbasketball/ingestion/internal/models"
	"fbasketball/ingestion/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	batches [][]models.PlayerSeasonRecord
	failOn  int // 1-based batch number that fails; 0 never fails
	closed  bool
}

func (s *recordingStore) UpsertPlayers(_ context.Context, players []models.PlayerSeasonRecord) error {
	s.batches = append(s.batches, players)
	if s.failOn == len(s.batches) {
		return errors.New("connection reset")
	}
	return nil
}

func (s *recordingStore) Close() { s.closed = true }

func (s *recordingStore) sizes() []int {
	out := make([]int, len(s.batches))
	for i, b := range s.batches {
		out[i] = len(b)
	}
	return out
}

type staticFetcher struct {
	table *models.Table
	err   error
	calls int
}

func (f *staticFetcher) FetchSeasonAverages(context.Context) (*models.Table, error) {
	f.calls++
	return f.table, f.err
}

func playerTable(t *testing.T, n int) *models.Table {
	t.Helper()
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{float64(i + 1), "Player", 20.5}
	}
	table, err := models.NewTable([]string{"player_id", "player_name", "pts"}, rows)
	require.NoError(t, err)
	return table
}

func TestUpsert_BatchSizes(t *testing.T) {
	store := &recordingStore{}

	result := NewUpserter(store, 1000).Upsert(context.Background(), playerTable(t, 2500))

	require.True(t, result.OK())
	assert.Equal(t, []int{1000, 1000, 500}, store.sizes(), "Should send batches of 1000 in order")
	assert.Equal(t, 3, result.Batches)
	assert.Equal(t, 2500, result.Upserted)
	assert.Equal(t, int64(1), store.batches[0][0].PlayerID, "Should preserve table order")
	assert.Equal(t, int64(2500), store.batches[2][499].PlayerID)
}

func TestUpsert_StopsOnFirstFailure(t *testing.T) {
	store := &recordingStore{failOn: 2}

	result := NewUpserter(store, 1000).Upsert(context.Background(), playerTable(t, 2500))

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "connection reset")
	assert.Len(t, store.batches, 2, "Remaining batches should not be sent")
	assert.Equal(t, 1, result.Batches)
	assert.Equal(t, 1000, result.Upserted)
}

func TestUpsert_ConversionFailure(t *testing.T) {
	table, err := models.NewTable([]string{"player_name"}, [][]any{{"No ID"}})
	require.NoError(t, err)
	store := &recordingStore{}

	result := NewUpserter(store, 1000).Upsert(context.Background(), table)

	var fieldErr *models.FieldError
	assert.True(t, errors.As(result.Err, &fieldErr), "Should report the offending field")
	assert.Empty(t, store.batches)
}

func TestUpsert_NaNBecomesNull(t *testing.T) {
	table, err := models.NewTable(
		[]string{"player_id", "fg3_pct", "pts"},
		[][]any{{1.0, math.NaN(), "nan"}},
	)
	require.NoError(t, err)
	store := &recordingStore{}

	result := NewUpserter(store, 1000).Upsert(context.Background(), table)

	require.True(t, result.OK())
	require.Len(t, store.batches, 1)
	assert.Nil(t, store.batches[0][0].FG3Pct)
	assert.Nil(t, store.batches[0][0].PTS)
}

func TestBatches(t *testing.T) {
	assert.Empty(t, Batches([]int{}, 3))
	assert.Equal(t, [][]int{{1, 2, 3}, {4}}, Batches([]int{1, 2, 3, 4}, 3))
	assert.Equal(t, [][]int{{1, 2}}, Batches([]int{1, 2}, 0), "Non-positive size should use the default")
}

func TestRun_EmptyTableSkipsStore(t *testing.T) {
	store := &recordingStore{}
	p := New(&staticFetcher{table: models.EmptyTable()}, NewUpserter(store, 1000))

	result, err := p.Run(context.Background())

	assert.ErrorIs(t, err, ErrNoData)
	assert.Empty(t, store.batches, "Store should not be called without data")
	assert.NotEmpty(t, result.RunID)
}

func TestRun_FetchErrorIsReturned(t *testing.T) {
	store := &recordingStore{}
	p := New(&staticFetcher{err: client.ErrMalformedResponse}, NewUpserter(store, 1000))

	_, err := p.Run(context.Background())

	assert.ErrorIs(t, err, client.ErrMalformedResponse)
	assert.Empty(t, store.batches)
}

func TestRun_UpsertFailureIsNotReturned(t *testing.T) {
	store := &recordingStore{failOn: 1}
	p := New(&staticFetcher{table: playerTable(t, 10)}, NewUpserter(store, 1000))

	result, err := p.Run(context.Background())

	require.NoError(t, err, "Upsert failures should be reported only in the result")
	assert.Equal(t, 10, result.Fetched)
	assert.False(t, result.Upsert.OK())
}

func TestRun_HTTP500EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := &recordingStore{}
	c := client.NewClient(client.Config{BaseURL: srv.URL, Timeout: time.Second, Season: "2025-26"})

	_, err := New(c, NewUpserter(store, 1000)).Run(context.Background())

	assert.ErrorIs(t, err, ErrNoData)
	assert.Empty(t, store.batches)
}

func TestRun_NoAllowListedColumnsEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"resultSets":[{"headers":["FOO","BAR"],"rowSet":[[1,2],[3,4]]}]}`))
	}))
	defer srv.Close()

	store := &recordingStore{}
	c := client.NewClient(client.Config{BaseURL: srv.URL, Timeout: time.Second, Season: "2025-26"})

	_, err := New(c, NewUpserter(store, 1000)).Run(context.Background())

	assert.ErrorIs(t, err, ErrNoData, "Rows with no kept columns should count as no data")
	assert.Empty(t, store.batches)
}

func TestRun_IdempotentAgainstSQLite(t *testing.T) {
	ctx := context.Background()
	store, err := repository.NewSQLiteStore(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	first, err := models.NewTable(
		[]string{"player_id", "player_name", "pts"},
		[][]any{{2544.0, "LeBron James", 24.4}, {201939.0, "Stephen Curry", 26.1}},
	)
	require.NoError(t, err)
	second, err := models.NewTable(
		[]string{"player_id", "player_name", "pts"},
		[][]any{{2544.0, "LeBron James", 25.0}},
	)
	require.NoError(t, err)

	upserter := NewUpserter(store, 1000)
	for _, table := range []*models.Table{first, first, second} {
		_, err := New(&staticFetcher{table: table}, upserter).Run(ctx)
		require.NoError(t, err)
	}

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "Re-running should not duplicate rows")

	lebron, err := store.Get(ctx, 2544)
	require.NoError(t, err)
	require.NotNil(t, lebron.PTS)
	assert.InDelta(t, 25.0, *lebron.PTS, 0.0001, "Last write should win")
}
