package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hongjun500/bili-danmu/internal/config"
	"github.com/hongjun500/bili-danmu/internal/danmu"
	"github.com/hongjun500/bili-danmu/internal/event"
)

func peekCmd(cfg *config.Config) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "peek",
		Short: "Listen to a live room and print danmaku to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			ch := newChannel(cfg)
			errc := make(chan error, 1)
			go func() { errc <- runLive(ctx, cfg, ch) }()

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case err := <-errc:
					printMessages(os.Stdout, ch.DrainAll())
					return err
				case <-ticker.C:
					printMessages(os.Stdout, ch.DrainAll())
				}
			}
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "print interval")
	return cmd
}

func printMessages(w io.Writer, msgs []danmu.Message) {
	for _, m := range msgs {
		ev, err := event.Parse(m.Body, m.ReceivedAt)
		if err != nil {
			continue
		}
		if line := event.Format(ev); line != "" {
			_, _ = fmt.Fprintln(w, line)
		}
	}
}
