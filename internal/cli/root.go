package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lk2023060901/zhi-text-evaluator/internal/pkg/logger"
	"github.com/lk2023060901/zhi-text-evaluator/internal/streamclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// DefaultServer 默认服务地址
const DefaultServer = "http://localhost:5000"

var (
	cfg = viper.New()

	// newConsumer 创建客户端（测试中替换）
	newConsumer = func() *streamclient.Consumer {
		return streamclient.New(cfg.GetString("server"), streamclient.WithLogger(logger.NewNop()))
	}
)

var rootCmd = &cobra.Command{
	Use:   "zhictl",
	Short: "Command line client for the text evaluator",
	Long: `zhictl uploads documents, runs streaming analyses and chats about the
results against a running evaluator server.

The server address comes from --server or the ZHICTL_SERVER environment variable.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("server", DefaultServer, "evaluator server base URL")
	rootCmd.PersistentFlags().Duration("timeout", 30*time.Minute, "overall request timeout")

	_ = cfg.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = cfg.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	cfg.SetEnvPrefix("ZHICTL")
	cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cfg.AutomaticEnv()
}

// Execute 运行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
