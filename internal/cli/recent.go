package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	recentLimit int
	recentJSON  bool
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recent analyses",
	Args:  cobra.NoArgs,
	RunE:  runRecent,
}

func init() {
	recentCmd.Flags().IntVarP(&recentLimit, "limit", "n", 10, "number of analyses")
	recentCmd.Flags().BoolVar(&recentJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(recentCmd)
}

func runRecent(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.GetDuration("timeout"))
	defer cancel()

	records, err := newConsumer().Recent(ctx, recentLimit)
	if err != nil {
		return err
	}

	if recentJSON {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal analyses: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No analyses yet.")
		return nil
	}
	for _, r := range records {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %-9s %-24s %s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.ID, r.Status, r.Mode, r.Provider)
		fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", preview(r.Content, 100))
	}
	return nil
}
