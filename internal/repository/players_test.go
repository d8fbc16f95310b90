package repository

import (
	"strings"
	"testing"

	"fbasketball/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
)

func testPlayer(id int64, name string, pts float64) models.PlayerSeasonRecord {
	team := "TST"
	teamID := int64(1610612700)
	gp := int64(10)
	fg3 := 0.375
	return models.PlayerSeasonRecord{
		PlayerID:         id,
		PlayerName:       &name,
		TeamID:           &teamID,
		TeamAbbreviation: &team,
		GP:               &gp,
		FG3Pct:           &fg3,
		PTS:              &pts,
	}
}

func TestUpsertSQL(t *testing.T) {
	assert.True(t, strings.HasPrefix(upsertPlayerSQL, "INSERT INTO players (player_id, player_name,"))
	assert.Contains(t, upsertPlayerSQL, "$30)")
	assert.NotContains(t, upsertPlayerSQL, "$31")
	assert.Contains(t, upsertPlayerSQL, "ON CONFLICT (player_id) DO UPDATE SET player_name = EXCLUDED.player_name")
	assert.Contains(t, upsertPlayerSQL, "nba_fantasy_pts = EXCLUDED.nba_fantasy_pts")
	assert.NotContains(t, upsertPlayerSQL, "player_id = EXCLUDED.player_id", "Conflict key should not be updated")
}

func TestPlayerArgsMatchColumns(t *testing.T) {
	p := testPlayer(1, "x", 1)
	assert.Len(t, playerArgs(&p), len(models.Columns))
	assert.Len(t, playerDest(&p), len(models.Columns))
	assert.Equal(t, int64(1), playerArgs(&p)[0], "player_id should be the first argument")
}
