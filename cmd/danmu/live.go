package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hongjun500/bili-danmu/internal/config"
	"github.com/hongjun500/bili-danmu/internal/danmu"
	"github.com/hongjun500/bili-danmu/internal/transport"
	"github.com/hongjun500/bili-danmu/pkg/logger"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newChannel(cfg *config.Config) *danmu.Channel {
	return danmu.NewChannel(
		danmu.WithHeartbeatInterval(cfg.Heartbeat),
		danmu.WithMaxBuffered(cfg.MaxBuffered),
		danmu.WithLogger(logger.Named("channel")),
	)
}

// runLive 连接直播间并阻塞到连接结束。断线不自动重连，由进程管理器拉起。
func runLive(ctx context.Context, cfg *config.Config, ch *danmu.Channel) error {
	conn, err := transport.Dial(ctx, cfg.WSURL, ch, transport.Options{
		RoomID:       cfg.RoomID,
		WriteTimeout: cfg.WriteTimeout,
		Logger:       logger.Named("ws"),
	})
	if err != nil {
		return err
	}
	return conn.Run(ctx)
}
