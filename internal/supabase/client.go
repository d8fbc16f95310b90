package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fbasketball/ingestion/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/supabase-community/postgrest-go"
)

// Config holds PostgREST connection settings
type Config struct {
	URL     string
	Key     string
	Timeout time.Duration
}

// Client reads and writes players through the Supabase REST API
type Client struct {
	rest      *postgrest.Client
	transport *http.Transport
}

// NewClient creates a new Supabase REST client
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse supabase url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported supabase url scheme %q", base.Scheme)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	rest := postgrest.NewClient(strings.TrimSuffix(cfg.URL, "/")+"/rest/v1", "", map[string]string{
		"apikey":        cfg.Key,
		"Authorization": "Bearer " + cfg.Key,
	})
	if rest.ClientError != nil {
		return nil, fmt.Errorf("failed to create postgrest client: %w", rest.ClientError)
	}

	// postgrest-go requests carry no deadline of their own
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	rest.Transport.Parent = transport

	return &Client{rest: rest, transport: transport}, nil
}

// UpsertPlayers posts one batch, merging rows that share a player_id
func (c *Client) UpsertPlayers(ctx context.Context, players []models.PlayerSeasonRecord) error {
	start := time.Now()

	_, err := c.execute(ctx, c.rest.From(models.PlayersTable).
		Upsert(players, models.ConflictKey, "minimal", ""))
	if err != nil {
		return fmt.Errorf("upsert request failed: %w", err)
	}

	log.Debug().
		Int("count", len(players)).
		Dur("duration", time.Since(start)).
		Msg("Players posted")

	return nil
}

// Get retrieves a player by its NBA player ID
func (c *Client) Get(ctx context.Context, playerID int64) (*models.PlayerSeasonRecord, error) {
	players, err := c.query(ctx, c.rest.From(models.PlayersTable).
		Select("*", "", false).
		Eq(models.ConflictKey, strconv.FormatInt(playerID, 10)))
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	if len(players) == 0 {
		return nil, fmt.Errorf("%w: player_id=%d", models.ErrPlayerNotFound, playerID)
	}
	return &players[0], nil
}

// SearchByName returns players whose name contains name, ignoring case
func (c *Client) SearchByName(ctx context.Context, name string) ([]models.PlayerSeasonRecord, error) {
	players, err := c.query(ctx, c.rest.From(models.PlayersTable).
		Select("*", "", false).
		Ilike("player_name", "*"+name+"*").
		Order("player_name", &postgrest.OrderOpts{Ascending: true}))
	if err != nil {
		return nil, fmt.Errorf("failed to search players: %w", err)
	}
	return players, nil
}

// TopFantasy returns the limit players with the most fantasy points per game
func (c *Client) TopFantasy(ctx context.Context, limit int) ([]models.PlayerSeasonRecord, error) {
	players, err := c.query(ctx, c.rest.From(models.PlayersTable).
		Select("*", "", false).
		Not("nba_fantasy_pts", "is", "null").
		Order("nba_fantasy_pts", &postgrest.OrderOpts{Ascending: false}).
		Limit(limit, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to list top fantasy players: %w", err)
	}
	return players, nil
}

// Close releases idle connections
func (c *Client) Close() {
	c.transport.CloseIdleConnections()
}

func (c *Client) query(ctx context.Context, fb *postgrest.FilterBuilder) ([]models.PlayerSeasonRecord, error) {
	body, err := c.execute(ctx, fb)
	if err != nil {
		return nil, err
	}
	var players []models.PlayerSeasonRecord
	if err := json.Unmarshal(body, &players); err != nil {
		return nil, fmt.Errorf("failed to decode players: %w", err)
	}
	return players, nil
}

// execute runs fb, returning early when ctx ends; the request itself is bounded by the transport timeout
func (c *Client) execute(ctx context.Context, fb *postgrest.FilterBuilder) ([]byte, error) {
	type result struct {
		body []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		body, _, err := fb.Execute()
		done <- result{body, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.body, r.err
	}
}
