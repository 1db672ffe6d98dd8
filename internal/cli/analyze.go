package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/types"
	"github.com/lk2023060901/zhi-text-evaluator/internal/document/chunker"
	"github.com/lk2023060901/zhi-text-evaluator/internal/streamclient"
	"github.com/spf13/cobra"
)

var (
	analyzeMode     string
	analyzeProvider string
	analyzeFile     string
	analyzeChunks   []string
	analyzeContext  string
	analyzePrevious string
	analyzeCritique string
	analyzeOutput   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [text]",
	Short: "Stream an analysis of text or an uploaded document",
	Long: `Streams an analysis and prints it as it arrives.

The input is the text argument, or --file. A document longer than one chunk
must be narrowed with --chunk, given as 1-based indices or chunk ids, e.g.
--chunk 1,3 or --chunk 2 --chunk 4.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeMode, "mode", "m", string(types.ModeCognitiveShort), "analysis mode")
	analyzeCmd.Flags().StringVarP(&analyzeProvider, "provider", "p", string(types.Zhi1), "provider (zhi1..zhi4)")
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "document to upload and analyze")
	analyzeCmd.Flags().StringSliceVarP(&analyzeChunks, "chunk", "c", nil, "chunks to analyze (indices or ids)")
	analyzeCmd.Flags().StringVar(&analyzeContext, "context", "", "additional context for the analysis")
	analyzeCmd.Flags().StringVar(&analyzePrevious, "previous", "", "file with a previous analysis to revise")
	analyzeCmd.Flags().StringVar(&analyzeCritique, "critique", "", "feedback on the previous analysis")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "also save the result to this file")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if (analyzePrevious == "") != (analyzeCritique == "") {
		return errors.New("--previous and --critique must be used together")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.GetDuration("timeout"))
	defer cancel()

	c := newConsumer()
	req := &types.AnalysisRequest{
		Mode:     types.Mode(analyzeMode),
		Provider: types.ProviderID(analyzeProvider),
		Context:  analyzeContext,
		Critique: analyzeCritique,
	}

	switch {
	case analyzeFile != "":
		file, err := c.Upload(ctx, analyzeFile)
		if err != nil {
			return err
		}
		req.Text = file.Content
		chunks, err := selectChunks(file.WordCount, file.Chunks, analyzeChunks)
		if err != nil {
			return err
		}
		req.Chunks = chunks
	case len(args) == 1:
		req.Text = args[0]
	default:
		return errors.New("nothing to analyze: pass text or --file")
	}

	if analyzePrevious != "" {
		data, err := os.ReadFile(analyzePrevious)
		if err != nil {
			return fmt.Errorf("read previous analysis: %w", err)
		}
		req.PreviousAnalysis = strings.TrimSpace(string(data))
		if !req.IsRevision() {
			return fmt.Errorf("previous analysis %s is empty", analyzePrevious)
		}
	}

	if err := req.Validate(); err != nil {
		return err
	}

	tr, err := c.Analyze(ctx, req, printUpdate(cmd))
	if err != nil {
		return err
	}
	if tr.Failed() {
		return fmt.Errorf("%s", tr.Error)
	}

	if analyzeOutput != "" {
		if err := os.WriteFile(analyzeOutput, []byte(tr.Content), 0o644); err != nil {
			return fmt.Errorf("save result: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved to %s\n", analyzeOutput)
	}
	return nil
}

// selectChunks 短文档直接分析；长文档必须显式选择分块
func selectChunks(wordCount int, chunks []*chunker.TextChunk, selection []string) ([]string, error) {
	if len(chunks) == 0 {
		if len(selection) > 0 {
			return nil, fmt.Errorf("document has %d words and was not chunked; drop --chunk", wordCount)
		}
		return nil, nil
	}
	if len(selection) == 0 {
		return nil, fmt.Errorf("document has %d words in %d chunks; select chunks with --chunk (see zhictl upload)", wordCount, len(chunks))
	}

	byID := make(map[string]*chunker.TextChunk, len(chunks))
	for _, ch := range chunks {
		byID[ch.ID] = ch
	}

	var out []string
	seen := make(map[*chunker.TextChunk]bool)
	for _, sel := range selection {
		sel = strings.TrimSpace(sel)
		ch, ok := byID[sel]
		if !ok {
			i, err := strconv.Atoi(sel)
			if err != nil || i < 1 || i > len(chunks) {
				return nil, fmt.Errorf("unknown chunk %q: use 1-%d or a chunk id", sel, len(chunks))
			}
			ch = chunks[i-1]
		}
		if seen[ch] {
			continue
		}
		seen[ch] = true
		out = append(out, ch.Content)
	}
	return out, nil
}

// printUpdate 实时输出片段
func printUpdate(cmd *cobra.Command) streamclient.UpdateFunc {
	return func(ev streamclient.Event, t *streamclient.Transcript) {
		switch ev.Status {
		case types.StatusStreaming:
			fmt.Fprint(cmd.OutOrStdout(), ev.Content)
		case types.StatusCompleted, types.StatusError:
			// 错误消息由命令返回的 error 输出
			fmt.Fprintln(cmd.OutOrStdout())
		}
	}
}
