package repository

import (
	"context"
	"fmt"
	"time"

	"fbasketball/ingestion/internal/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Database holds the database connection pool and provides access to repositories
type Database struct {
	Pool *pgxpool.Pool

	// Repositories
	Players *PlayerRepository
}

// Config holds database configuration
type Config struct {
	// URL is a postgres:// or postgresql:// connection string
	URL string
	// Password is used when URL carries none
	Password string
	MaxConns int32
	// ConnectTimeout bounds how long the initial ping is retried; zero tries once
	ConnectTimeout time.Duration
}

// NewDatabase creates a new database connection pool and initializes repositories
func NewDatabase(ctx context.Context, cfg Config) (*Database, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	if poolConfig.ConnConfig.Password == "" {
		poolConfig.ConnConfig.Password = cfg.Password
	}

	// Set pool configuration
	poolConfig.MaxConns = 4
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	// Create connection pool
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection, retrying while the database comes up
	if err := pingWithRetry(ctx, pool, cfg.ConnectTimeout); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Str("host", poolConfig.ConnConfig.Host).
		Uint16("port", poolConfig.ConnConfig.Port).
		Str("database", poolConfig.ConnConfig.Database).
		Msg("Successfully connected to database")

	db := &Database{
		Pool: pool,
	}
	db.Players = &PlayerRepository{db: db}

	return db, nil
}

func pingWithRetry(ctx context.Context, pool *pgxpool.Pool, maxElapsed time.Duration) error {
	if maxElapsed <= 0 {
		return pool.Ping(ctx)
	}

	bOff := backoff.NewExponentialBackOff()
	bOff.MaxElapsedTime = maxElapsed

	return backoff.RetryNotify(
		func() error { return pool.Ping(ctx) },
		backoff.WithContext(bOff, ctx),
		func(err error, d time.Duration) {
			log.Warn().Err(err).Dur("retry_in", d).Msg("Database not reachable, retrying")
		},
	)
}

// UpsertPlayers writes one batch of players in a single transaction
func (db *Database) UpsertPlayers(ctx context.Context, players []models.PlayerSeasonRecord) error {
	return db.Players.UpsertBatch(ctx, players)
}

// Get retrieves a player by its NBA player ID
func (db *Database) Get(ctx context.Context, playerID int64) (*models.PlayerSeasonRecord, error) {
	return db.Players.GetByPlayerID(ctx, playerID)
}

// SearchByName returns players whose name contains name, ignoring case
func (db *Database) SearchByName(ctx context.Context, name string) ([]models.PlayerSeasonRecord, error) {
	return db.Players.SearchByName(ctx, name)
}

// TopFantasy returns the limit players with the most fantasy points per game
func (db *Database) TopFantasy(ctx context.Context, limit int) ([]models.PlayerSeasonRecord, error) {
	return db.Players.TopFantasy(ctx, limit)
}

// Close closes the database connection pool
func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		log.Info().Msg("Database connection pool closed")
	}
}

// Health checks if the database is healthy
func (db *Database) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}
