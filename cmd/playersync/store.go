package main

import (
	"context"
	"fmt"
	"strings"

	"fbasketball/ingestion/internal/config"
	"fbasketball/ingestion/internal/models"
	"fbasketball/ingestion/internal/pipeline"
	"fbasketball/ingestion/internal/repository"
	"fbasketball/ingestion/internal/supabase"
)

// playerStore is a sync target that can also answer player queries
type playerStore interface {
	pipeline.PlayerStore
	Get(ctx context.Context, playerID int64) (*models.PlayerSeasonRecord, error)
	SearchByName(ctx context.Context, name string) ([]models.PlayerSeasonRecord, error)
	TopFantasy(ctx context.Context, limit int) ([]models.PlayerSeasonRecord, error)
}

// healthChecker is implemented by stores that hold a live database connection
type healthChecker interface {
	Health(ctx context.Context) error
}

// openStore picks the storage backend from the STORAGE_URL scheme
func openStore(ctx context.Context, cfg *config.Config) (playerStore, error) {
	u := cfg.StorageURL

	switch {
	case strings.HasPrefix(u, "https://"), strings.HasPrefix(u, "http://"):
		c, err := supabase.NewClient(supabase.Config{URL: u, Key: cfg.StorageKey, Timeout: cfg.StorageTimeout})
		if err != nil {
			return nil, fmt.Errorf("failed to create supabase client: %w", err)
		}
		return c, nil

	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		db, err := repository.NewDatabase(ctx, repository.Config{
			URL:            u,
			Password:       cfg.StorageKey,
			ConnectTimeout: cfg.StorageConnectTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return db, nil

	case strings.HasPrefix(u, "libsql://"):
		store, err := repository.NewLibSQLStore(ctx, u, cfg.StorageKey)
		if err != nil {
			return nil, err
		}
		return store, nil

	case strings.HasPrefix(u, "sqlite://"), strings.HasPrefix(u, "file:"):
		// go-sqlite3 understands file: URIs directly
		store, err := repository.NewSQLiteStore(ctx, strings.TrimPrefix(u, "sqlite://"))
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	return nil, fmt.Errorf("unsupported STORAGE_URL scheme: %q", u)
}
