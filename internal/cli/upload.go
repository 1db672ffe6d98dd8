package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lk2023060901/zhi-text-evaluator/internal/document/processor"
	"github.com/spf13/cobra"
)

var uploadJSON bool

var uploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Upload a document and show its chunks",
	Long: `Uploads a .txt, .pdf, .doc or .docx file, prints the word count and, for
long documents, the chunks that can be selected with "analyze --chunk".`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadJSON, "json", false, "print the full response as JSON")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.GetDuration("timeout"))
	defer cancel()

	file, err := newConsumer().Upload(ctx, args[0])
	if err != nil {
		return err
	}

	if uploadJSON {
		data, err := json.MarshalIndent(file, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal upload: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	printUpload(cmd, file)
	return nil
}

func printUpload(cmd *cobra.Command, file *processor.ProcessedFile) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d words\n", file.Filename, file.WordCount)
	if len(file.Chunks) == 0 {
		return
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d chunks (select with --chunk):\n", len(file.Chunks))
	for i, ch := range file.Chunks {
		fmt.Fprintf(cmd.OutOrStdout(), "  [%d] %s  words %d-%d (%d)  %s\n",
			i+1, ch.ID, ch.StartIndex, ch.EndIndex, ch.WordCount, preview(ch.Content, 60))
	}
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
