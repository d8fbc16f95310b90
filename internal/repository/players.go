package repository

import (
	"context"
	"fmt"
	"strings"

	"fbasketball/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// ErrPlayerNotFound is returned when no row matches the requested player_id
var ErrPlayerNotFound = models.ErrPlayerNotFound

var (
	upsertPlayerSQL = buildUpsertSQL()
	selectPlayerSQL = fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1",
		strings.Join(models.StorageColumns(), ", "), models.PlayersTable, models.ConflictKey,
	)
	searchPlayersSQL = fmt.Sprintf(
		"SELECT %s FROM %s WHERE player_name ILIKE '%%' || $1 || '%%' ORDER BY player_name",
		strings.Join(models.StorageColumns(), ", "), models.PlayersTable,
	)
	topFantasySQL = fmt.Sprintf(
		"SELECT %s FROM %s WHERE nba_fantasy_pts IS NOT NULL ORDER BY nba_fantasy_pts DESC LIMIT $1",
		strings.Join(models.StorageColumns(), ", "), models.PlayersTable,
	)
)

// buildUpsertSQL replaces every non-key column on conflict so a row always mirrors the latest fetch
func buildUpsertSQL() string {
	cols := models.StorageColumns()
	placeholders := make([]string, len(cols))
	var updates []string
	for i, c := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if c != models.ConflictKey {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
		}
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		models.PlayersTable,
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
		models.ConflictKey,
		strings.Join(updates, ", "),
	)
}

// PlayerRepository handles players table operations
type PlayerRepository struct {
	db *Database
}

// UpsertBatch inserts or replaces players in one transaction
func (r *PlayerRepository) UpsertBatch(ctx context.Context, players []models.PlayerSeasonRecord) error {
	if len(players) == 0 {
		return nil
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for i := range players {
		batch.Queue(upsertPlayerSQL, playerArgs(&players[i])...)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range players {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to upsert player %d: %w", players[i].PlayerID, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Debug().Int("count", len(players)).Msg("Players upserted")

	return nil
}

// GetByPlayerID retrieves a player by its NBA player ID
func (r *PlayerRepository) GetByPlayerID(ctx context.Context, playerID int64) (*models.PlayerSeasonRecord, error) {
	var p models.PlayerSeasonRecord
	err := r.db.Pool.QueryRow(ctx, selectPlayerSQL, playerID).Scan(playerDest(&p)...)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("%w: player_id=%d", ErrPlayerNotFound, playerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return &p, nil
}

// SearchByName returns players whose name contains name, ignoring case
func (r *PlayerRepository) SearchByName(ctx context.Context, name string) ([]models.PlayerSeasonRecord, error) {
	players, err := r.queryPlayers(ctx, searchPlayersSQL, name)
	if err != nil {
		return nil, fmt.Errorf("failed to search players: %w", err)
	}
	return players, nil
}

// TopFantasy returns the limit players with the most fantasy points per game
func (r *PlayerRepository) TopFantasy(ctx context.Context, limit int) ([]models.PlayerSeasonRecord, error) {
	players, err := r.queryPlayers(ctx, topFantasySQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top fantasy players: %w", err)
	}
	return players, nil
}

func (r *PlayerRepository) queryPlayers(ctx context.Context, sql string, args ...any) ([]models.PlayerSeasonRecord, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := []models.PlayerSeasonRecord{}
	for rows.Next() {
		var p models.PlayerSeasonRecord
		if err := rows.Scan(playerDest(&p)...); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// Count returns the number of stored players
func (r *PlayerRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+models.PlayersTable).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count players: %w", err)
	}
	return n, nil
}

// playerArgs returns the record's values in StorageColumns order
func playerArgs(p *models.PlayerSeasonRecord) []any {
	return []any{
		p.PlayerID, p.PlayerName, p.TeamID, p.TeamAbbreviation, p.Age,
		p.GP, p.W, p.L, p.WPct, p.Min,
		p.FGM, p.FGA, p.FGPct, p.FG3M, p.FG3A, p.FG3Pct,
		p.FTM, p.FTA, p.FTPct,
		p.OREB, p.DREB, p.REB,
		p.AST, p.TOV, p.STL, p.BLK, p.PF, p.PTS, p.PlusMinus,
		p.NBAFantasyPts,
	}
}

// playerDest returns scan targets in StorageColumns order
func playerDest(p *models.PlayerSeasonRecord) []any {
	return []any{
		&p.PlayerID, &p.PlayerName, &p.TeamID, &p.TeamAbbreviation, &p.Age,
		&p.GP, &p.W, &p.L, &p.WPct, &p.Min,
		&p.FGM, &p.FGA, &p.FGPct, &p.FG3M, &p.FG3A, &p.FG3Pct,
		&p.FTM, &p.FTA, &p.FTPct,
		&p.OREB, &p.DREB, &p.REB,
		&p.AST, &p.TOV, &p.STL, &p.BLK, &p.PF, &p.PTS, &p.PlusMinus,
		&p.NBAFantasyPts,
	}
}
