package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
)

const defaultTopLimit = 10

var topLimit int

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "Query stored players",
}

var playersGetCmd = &cobra.Command{
	Use:   "get <player_id>",
	Short: "Print one player by NBA player ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid player_id %q: %w", args[0], err)
		}
		return withStore(cmd, func(store playerStore) (any, error) {
			return store.Get(cmd.Context(), id)
		})
	},
}

var playersSearchCmd = &cobra.Command{
	Use:   "search <name>",
	Short: "Print players whose name contains the given text, ignoring case",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store playerStore) (any, error) {
			return store.SearchByName(cmd.Context(), args[0])
		})
	},
}

var playersTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Print the players with the most fantasy points per game",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if topLimit < 1 {
			return fmt.Errorf("--limit must be positive, got %d", topLimit)
		}
		return withStore(cmd, func(store playerStore) (any, error) {
			return store.TopFantasy(cmd.Context(), topLimit)
		})
	},
}

func init() {
	playersTopCmd.Flags().IntVar(&topLimit, "limit", defaultTopLimit, "Number of players to print")

	playersCmd.AddCommand(playersGetCmd)
	playersCmd.AddCommand(playersSearchCmd)
	playersCmd.AddCommand(playersTopCmd)
}

// withStore opens the configured store, runs query and prints its result as JSON.
// Logs go to stderr so stdout stays parseable.
func withStore(cmd *cobra.Command, query func(playerStore) (any, error)) error {
	cfg, err := loadConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := query(store)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), result)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}
