package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/scanbridge/internal/history"
)

// historyCmd inspects and clears the scan history.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded scans",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		hist := history.NewStore(cfg.Storage.HistoryPath)

		entries, err := hist.Entries()
		if err != nil {
			return fmt.Errorf("reading history: %w", err)
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all recorded scans",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		hist := history.NewStore(cfg.Storage.HistoryPath)

		if err := hist.Clear(); err != nil {
			return fmt.Errorf("clearing history: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyClearCmd)
}
