package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/types"
	"github.com/spf13/cobra"
)

var (
	chatAnalysis string
	chatInput    string
	chatMode     string
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Ask a question about an analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatAnalysis, "analysis", "", "file with the analysis to discuss")
	chatCmd.Flags().StringVar(&chatInput, "input", "", "file with the analyzed text")
	chatCmd.Flags().StringVarP(&chatMode, "mode", "m", "", "mode of the analysis")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.GetDuration("timeout"))
	defer cancel()

	req := &types.ChatRequest{Message: args[0]}
	if chatAnalysis != "" || chatInput != "" || chatMode != "" {
		chatCtx := &types.ChatContext{AnalysisMode: chatMode}
		var err error
		if chatCtx.AnalysisOutput, err = readOptional(chatAnalysis); err != nil {
			return err
		}
		if chatCtx.InputText, err = readOptional(chatInput); err != nil {
			return err
		}
		req.Context = chatCtx
	}
	if err := req.Validate(); err != nil {
		return err
	}

	tr, err := newConsumer().Chat(ctx, req, printUpdate(cmd))
	if err != nil {
		return err
	}
	if tr.Failed() {
		return fmt.Errorf("%s", tr.Error)
	}
	return nil
}

func readOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
