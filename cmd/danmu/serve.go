package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hongjun500/bili-danmu/internal/api"
	"github.com/hongjun500/bili-danmu/internal/config"
	"github.com/hongjun500/bili-danmu/pkg/logger"
)

func serveCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Listen to a live room and expose buffered danmaku over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "http listen address")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := newChannel(cfg)
	log := logger.Named("api")
	errc := make(chan error, 2)
	go func() { errc <- api.Serve(ctx, cfg.HTTPAddr, api.NewRouter(ch, log), log) }()
	go func() { errc <- runLive(ctx, cfg, ch) }()

	// 任一方结束即退出
	err := <-errc
	cancel()
	<-errc
	return err
}
