// Command playersync fetches NBA per-player season averages and upserts them into the players table.
package main

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"fbasketball/ingestion/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	strict bool
	runNow bool
)

var rootCmd = &cobra.Command{
	Use:   "playersync",
	Short: "Sync NBA season averages into the players table",
	Long: `playersync fetches per-player season averages from stats.nba.com,
keeps the storage columns and upserts them in batches keyed on player_id.
Without a subcommand it runs one sync and exits.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSyncCmd,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "Exit with status 1 when any upsert batch fails")
	scheduleCmd.Flags().BoolVar(&runNow, "run-now", false, "Run one sync immediately before waiting for the schedule")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(playersCmd)
}

func main() {
	err := rootCmd.ExecuteContext(context.Background())
	os.Exit(reportError(os.Stdout, err))
}

// loadConfig reads the configuration (including .env) and applies its logging settings
func loadConfig(logOut io.Writer) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	setupLogger(logOut, cfg.AppEnv, cfg.LogLevel)
	return cfg, nil
}

// setupLogger configures the zerolog logger
func setupLogger(w io.Writer, env, level string) {
	log.Logger = newLogger(w, env)

	lvl := parseLevel(level)
	zerolog.SetGlobalLevel(lvl)

	log.Debug().
		Str("env", env).
		Str("level", lvl.String()).
		Msg("Logger initialized")
}

// newLogger writes pretty console output in development and JSON lines elsewhere
func newLogger(w io.Writer, env string) zerolog.Logger {
	if env == "" || strings.EqualFold(env, "development") {
		return zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// parseLevel falls back to info for empty or unknown levels
func parseLevel(level string) zerolog.Level {
	if level == "" {
		return zerolog.InfoLevel
	}
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return parsed
}
