package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"fbasketball/ingestion/internal/models"
	"fbasketball/ingestion/internal/repository"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "players.db")

	store, err := repository.NewSQLiteStore(context.Background(), path)
	require.NoError(t, err)
	defer store.Close()

	record := func(id int64, name string, fantasy float64) models.PlayerSeasonRecord {
		return models.PlayerSeasonRecord{PlayerID: id, PlayerName: &name, NBAFantasyPts: &fantasy}
	}
	require.NoError(t, store.UpsertPlayers(context.Background(), []models.PlayerSeasonRecord{
		record(2544, "LeBron James", 49.7),
		record(201939, "Stephen Curry", 45.2),
		record(1629029, "Luka Doncic", 58.1),
	}))
	return path
}

func runPlayers(t *testing.T, path string, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{"SUPABASE_URL", "SUPABASE_KEY"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	t.Setenv("STORAGE_URL", "sqlite://"+path)
	t.Setenv("STORAGE_KEY", "unused")

	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"players"}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPlayersGet(t *testing.T) {
	path := seededStore(t)

	out, err := runPlayers(t, path, "get", "2544")
	require.NoError(t, err)

	var p models.PlayerSeasonRecord
	require.NoError(t, json.Unmarshal([]byte(out), &p), "Stdout should hold only the JSON result")
	assert.Equal(t, int64(2544), p.PlayerID)
	assert.Equal(t, "LeBron James", *p.PlayerName)

	_, err = runPlayers(t, path, "get", "42")
	assert.ErrorIs(t, err, models.ErrPlayerNotFound)

	_, err = runPlayers(t, path, "get", "lebron")
	assert.Error(t, err)
}

func TestPlayersSearch(t *testing.T) {
	path := seededStore(t)

	out, err := runPlayers(t, path, "search", "CURRY")
	require.NoError(t, err)

	var found []models.PlayerSeasonRecord
	require.NoError(t, json.Unmarshal([]byte(out), &found))
	require.Len(t, found, 1)
	assert.Equal(t, int64(201939), found[0].PlayerID)

	out, err = runPlayers(t, path, "search", "nobody")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestPlayersTop(t *testing.T) {
	path := seededStore(t)

	out, err := runPlayers(t, path, "top", "--limit", "2")
	require.NoError(t, err)

	var top []models.PlayerSeasonRecord
	require.NoError(t, json.Unmarshal([]byte(out), &top))
	require.Len(t, top, 2)
	assert.Equal(t, int64(1629029), top[0].PlayerID)
	assert.Equal(t, int64(2544), top[1].PlayerID)

	_, err = runPlayers(t, path, "top", "--limit", "0")
	assert.Error(t, err)
}
