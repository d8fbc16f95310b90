package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fbasketball/ingestion/internal/metrics"
	"fbasketball/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL = "https://stats.nba.com/stats"

	leagueDashPlayerStats = "leaguedashplayerstats"
)

// ErrMalformedResponse is returned when a 200 response does not carry the expected result set shape
var ErrMalformedResponse = errors.New("malformed stats response")

// ResponseCache stores raw 200 response bodies between runs
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Config controls how the client reaches stats.nba.com
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Delay      time.Duration
	Season     string
	SeasonType string
	PerMode    string
	HTTPClient *http.Client
	Cache      ResponseCache
	CacheTTL   time.Duration
}

// Client is the NBA stats API client
type Client struct {
	baseURL    string
	httpClient *http.Client
	delay      time.Duration
	season     string
	seasonType string
	perMode    string
	cache      ResponseCache
	cacheTTL   time.Duration
}

// NewClient creates a new NBA stats API client
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		delay:      cfg.Delay,
		season:     cfg.Season,
		seasonType: cfg.SeasonType,
		perMode:    cfg.PerMode,
		cache:      cfg.Cache,
		cacheTTL:   cfg.CacheTTL,
	}
}

type resultSet struct {
	Name    string   `json:"name"`
	Headers []string `json:"headers"`
	RowSet  [][]any  `json:"rowSet"`
}

type leagueDashResponse struct {
	ResultSets []resultSet `json:"resultSets"`
}

// FetchSeasonAverages fetches per-player season aggregates and returns them
// projected to the storage columns with lowercase names.
// A non-200 response is logged and yields an empty table with a nil error.
func (c *Client) FetchSeasonAverages(ctx context.Context) (*models.Table, error) {
	key := c.cacheKey(leagueDashPlayerStats)

	body, cached := c.lookup(ctx, key)
	if !cached {
		var ok bool
		var err error
		body, ok, err = c.get(ctx, leagueDashPlayerStats, c.leagueDashParams())
		if err != nil {
			return nil, err
		}
		if !ok {
			return models.EmptyTable(), nil
		}
	}

	table, err := parseResultSet(body)
	if err != nil {
		metrics.RecordError("client", "malformed_response")
		return nil, err
	}

	if !cached {
		c.store(ctx, key, body)
	}

	table = table.Project(models.Columns).LowercaseColumns()

	log.Info().
		Int("players", table.Len()).
		Int("columns", len(table.Columns)).
		Str("season", c.season).
		Bool("cached", cached).
		Msgf("✓ Fetched %d players", table.Len())

	return table, nil
}

func parseResultSet(body []byte) (*models.Table, error) {
	var payload leagueDashResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal body: %v", ErrMalformedResponse, err)
	}

	if len(payload.ResultSets) == 0 {
		return nil, fmt.Errorf("%w: missing resultSets", ErrMalformedResponse)
	}

	rs := payload.ResultSets[0]
	if rs.Headers == nil {
		return nil, fmt.Errorf("%w: resultSets[0] has no headers", ErrMalformedResponse)
	}
	if rs.RowSet == nil {
		return nil, fmt.Errorf("%w: resultSets[0] has no rowSet", ErrMalformedResponse)
	}

	table, err := models.NewTable(rs.Headers, rs.RowSet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return table, nil
}

// get performs a GET request against the stats API.
// The boolean is false when the API answered with a non-200 status.
func (c *Client) get(ctx context.Context, path string, params map[string]string) ([]byte, bool, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, path)

	// stats.nba.com throttles bursts; wait before every live request
	if c.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(c.delay):
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	setBrowserHeaders(req)

	q := req.URL.Query()
	for key, value := range params {
		q.Set(key, value)
	}
	req.URL.RawQuery = q.Encode()

	log.Info().Str("url", url).Msg("Fetching data...")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAPICall(path, "error", time.Since(start).Seconds())
		metrics.RecordError("client", "request")
		return nil, false, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	metrics.RecordAPICall(path, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())
	if err != nil {
		metrics.RecordError("client", "read_body")
		return nil, false, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.RecordError("client", "status")
		log.Error().
			Str("url", url).
			Int("status", resp.StatusCode).
			Msgf("✗ Failed to fetch data: %d", resp.StatusCode)
		return nil, false, nil
	}

	log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Int("size", len(body)).
		Dur("duration", time.Since(start)).
		Msg("API request successful")

	return body, true, nil
}

func (c *Client) lookup(ctx context.Context, key string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	cached, hit, err := c.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache lookup failed, fetching from API")
		return nil, false
	}
	if !hit {
		metrics.RecordCacheMiss()
		return nil, false
	}
	metrics.RecordCacheHit()
	log.Debug().Str("key", key).Int("size", len(cached)).Msg("Serving response from cache")
	return cached, true
}

func (c *Client) store(ctx context.Context, key string, body []byte) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, key, body, c.cacheTTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to cache response")
	}
}

func (c *Client) cacheKey(path string) string {
	return strings.Join([]string{path, c.season, c.seasonType, c.perMode}, ":")
}

// leagueDashParams returns the full filter set the endpoint expects; unused filters stay empty or zero
func (c *Client) leagueDashParams() map[string]string {
	return map[string]string{
		"College":          "",
		"Conference":       "",
		"Country":          "",
		"DateFrom":         "",
		"DateTo":           "",
		"Division":         "",
		"DraftPick":        "",
		"DraftYear":        "",
		"GameScope":        "",
		"GameSegment":      "",
		"Height":           "",
		"ISTRound":         "",
		"LastNGames":       "0",
		"LeagueID":         "00",
		"Location":         "",
		"MeasureType":      "Base",
		"Month":            "0",
		"OpponentTeamID":   "0",
		"Outcome":          "",
		"PORound":          "0",
		"PaceAdjust":       "N",
		"PerMode":          c.perMode,
		"Period":           "0",
		"PlayerExperience": "",
		"PlayerPosition":   "",
		"PlusMinus":        "N",
		"Rank":             "N",
		"Season":           c.season,
		"SeasonSegment":    "",
		"SeasonType":       c.seasonType,
		"ShotClockRange":   "",
		"StarterBench":     "",
		"TeamID":           "0",
		"VsConference":     "",
		"VsDivision":       "",
		"Weight":           "",
	}
}

// setBrowserHeaders makes the request look like it came from nba.com in a browser.
// Accept-Encoding is left to the transport so gzip bodies are decoded transparently.
func setBrowserHeaders(req *http.Request) {
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Origin", "https://www.nba.com")
	req.Header.Set("Referer", "https://www.nba.com/")
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "same-site")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36")
	req.Header.Set("sec-ch-ua", `"Chromium";v="142", "Google Chrome";v="142", "Not_A Brand";v="99"`)
	req.Header.Set("sec-ch-ua-mobile", "?0")
	req.Header.Set("sec-ch-ua-platform", `"macOS"`)
}
