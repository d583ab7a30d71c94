package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hongjun500/bili-danmu/internal/bus/redisstream"
	"github.com/hongjun500/bili-danmu/internal/config"
	"github.com/hongjun500/bili-danmu/internal/relay"
	"github.com/hongjun500/bili-danmu/pkg/logger"
)

func relayCmd(cfg *config.Config) *cobra.Command {
	var (
		maxLen    int64
		skipNoise bool
	)
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Listen to a live room and publish events to a Redis stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			bus := redisstream.New(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, maxLen,
				redisstream.WithLogger(logger.Named("bus")))
			defer bus.Close()
			if err := bus.Ping(ctx); err != nil {
				return fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
			}

			ch := newChannel(cfg)
			r := relay.New(ch, bus, cfg.RoomID, cfg.RelayInterval,
				relay.WithSkipNoise(skipNoise),
				relay.WithLogger(logger.Named("relay")))

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			errc := make(chan error, 2)
			go func() { errc <- r.Run(ctx) }()
			go func() { errc <- runLive(ctx, cfg, ch) }()

			err := <-errc
			cancel()
			<-errc
			return err
		},
	}
	cmd.Flags().StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "redis address")
	cmd.Flags().StringVar(&cfg.RedisStream, "stream", cfg.RedisStream, "redis stream key")
	cmd.Flags().DurationVar(&cfg.RelayInterval, "interval", cfg.RelayInterval, "drain interval")
	cmd.Flags().Int64Var(&maxLen, "maxlen", 100000, "approximate stream length cap, 0 to disable")
	cmd.Flags().BoolVar(&skipNoise, "skip-noise", true, "do not publish page-refresh events")
	return cmd
}
