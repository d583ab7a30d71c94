package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hongjun500/bili-danmu/internal/bus/redisstream"
	"github.com/hongjun500/bili-danmu/internal/config"
	"github.com/hongjun500/bili-danmu/internal/event"
	"github.com/hongjun500/bili-danmu/pkg/logger"
)

func tailCmd(cfg *config.Config) *cobra.Command {
	var group, consumer string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print events published by relay from a Redis stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			bus := redisstream.New(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, 0,
				redisstream.WithLogger(logger.Named("tail")))
			defer bus.Close()
			err := bus.Consume(ctx, group, consumer, func(_ context.Context, m *redisstream.Message) error {
				ev, err := event.Parse(string(m.Body), m.When)
				if err != nil {
					return err
				}
				if line := event.Format(ev); line != "" {
					fmt.Printf("[%d] %s\n", m.Room, line)
				}
				return nil
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "redis address")
	cmd.Flags().StringVar(&cfg.RedisStream, "stream", cfg.RedisStream, "redis stream key")
	cmd.Flags().StringVar(&group, "group", "danmu-tail", "consumer group")
	cmd.Flags().StringVar(&consumer, "consumer", "tail-1", "consumer name")
	return cmd
}
