package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hongjun500/bili-danmu/internal/config"
	"github.com/hongjun500/bili-danmu/pkg/logger"
)

// 构建时注入
var (
	version = "dev"
	commit  = "none"
)

func main() {
	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:           "danmu",
		Short:         "Bilibili live danmaku listener",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().Int64Var(&cfg.RoomID, "room", cfg.RoomID, "live room id")
	rootCmd.PersistentFlags().StringVar(&cfg.WSURL, "url", cfg.WSURL, "danmaku websocket url")
	rootCmd.PersistentFlags().DurationVar(&cfg.Heartbeat, "heartbeat", cfg.Heartbeat, "heartbeat interval")
	rootCmd.PersistentFlags().IntVar(&cfg.MaxBuffered, "buffer-max", cfg.MaxBuffered, "max buffered messages, 0 for unbounded")
	logLevel := rootCmd.PersistentFlags().String("log-level", "", "log level: debug|info|warn|error")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *logLevel != "" {
			logger.SetLevel(*logLevel)
		}
	}

	rootCmd.AddCommand(
		serveCmd(cfg),
		relayCmd(cfg),
		peekCmd(cfg),
		tailCmd(cfg),
		versionCmd(),
	)

	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("danmu %s (%s)\n", version, commit)
		},
	}
}
