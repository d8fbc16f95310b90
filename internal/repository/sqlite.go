package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fbasketball/ingestion/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

func init() {
	sqlx.BindDriver("libsql", sqlx.QUESTION)
}

const createPlayersSQLite = `
	CREATE TABLE IF NOT EXISTS players (
		player_id         INTEGER PRIMARY KEY,
		player_name       TEXT,
		team_id           INTEGER,
		team_abbreviation TEXT,
		age               REAL,
		gp                INTEGER,
		w                 INTEGER,
		l                 INTEGER,
		w_pct             REAL,
		min               REAL,
		fgm               REAL,
		fga               REAL,
		fg_pct            REAL,
		fg3m              REAL,
		fg3a              REAL,
		fg3_pct           REAL,
		ftm               REAL,
		fta               REAL,
		ft_pct            REAL,
		oreb              REAL,
		dreb              REAL,
		reb               REAL,
		ast               REAL,
		tov               REAL,
		stl               REAL,
		blk               REAL,
		pf                REAL,
		pts               REAL,
		plus_minus        REAL,
		nba_fantasy_pts   REAL
	)
`

var replacePlayerSQLite = buildReplaceSQL()

func buildReplaceSQL() string {
	cols := models.StorageColumns()
	named := make([]string, len(cols))
	for i, c := range cols {
		named[i] = ":" + c
	}
	return fmt.Sprintf(
		"REPLACE INTO %s (%s) VALUES (%s)",
		models.PlayersTable, strings.Join(cols, ", "), strings.Join(named, ", "),
	)
}

// SQLiteStore is a players store on SQLite: a local file via go-sqlite3 or a remote libsql (Turso) database
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and ensures the players table exists.
// Use ":memory:" for a throwaway store.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	return openSQLiteStore(ctx, "sqlite3", path, path)
}

// NewLibSQLStore connects to a remote libsql database such as Turso
func NewLibSQLStore(ctx context.Context, url, authToken string) (*SQLiteStore, error) {
	return openSQLiteStore(ctx, "libsql", libSQLDSN(url, authToken), url)
}

func libSQLDSN(url, authToken string) string {
	if authToken == "" || strings.Contains(url, "authToken=") {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "authToken=" + authToken
}

func openSQLiteStore(ctx context.Context, driver, dsn, name string) (*SQLiteStore, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	// sqlite allows one writer; a single connection also keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createPlayersSQLite); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create players table: %w", err)
	}

	log.Info().Str("driver", driver).Str("database", name).Msg("Opened player store")

	return &SQLiteStore{db: db}, nil
}

// UpsertPlayers replaces players in one transaction
func (s *SQLiteStore) UpsertPlayers(ctx context.Context, players []models.PlayerSeasonRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range players {
		if _, err := tx.NamedExecContext(ctx, replacePlayerSQLite, p); err != nil {
			return fmt.Errorf("failed to upsert player %d: %w", p.PlayerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Get retrieves a player by its NBA player ID
func (s *SQLiteStore) Get(ctx context.Context, playerID int64) (*models.PlayerSeasonRecord, error) {
	var p models.PlayerSeasonRecord
	err := s.db.GetContext(ctx, &p, "SELECT * FROM players WHERE player_id = ?", playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: player_id=%d", ErrPlayerNotFound, playerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return &p, nil
}

// SearchByName returns players whose name contains name, ignoring case
func (s *SQLiteStore) SearchByName(ctx context.Context, name string) ([]models.PlayerSeasonRecord, error) {
	players := []models.PlayerSeasonRecord{}
	err := s.db.SelectContext(ctx, &players,
		"SELECT * FROM players WHERE player_name LIKE '%' || ? || '%' ORDER BY player_name", name)
	if err != nil {
		return nil, fmt.Errorf("failed to search players: %w", err)
	}
	return players, nil
}

// TopFantasy returns the limit players with the most fantasy points per game
func (s *SQLiteStore) TopFantasy(ctx context.Context, limit int) ([]models.PlayerSeasonRecord, error) {
	players := []models.PlayerSeasonRecord{}
	err := s.db.SelectContext(ctx, &players,
		"SELECT * FROM players WHERE nba_fantasy_pts IS NOT NULL ORDER BY nba_fantasy_pts DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top fantasy players: %w", err)
	}
	return players, nil
}

// Health pings the database
func (s *SQLiteStore) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Count returns the number of stored players
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM players"); err != nil {
		return 0, fmt.Errorf("failed to count players: %w", err)
	}
	return n, nil
}

// Close closes the database
func (s *SQLiteStore) Close() {
	if err := s.db.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close sqlite database")
	}
}
