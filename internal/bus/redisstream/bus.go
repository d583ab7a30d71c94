package redisstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 连续读取失败的重试间隔与上限
var (
	readRetryDelay = time.Second
	maxReadErrors  = 5
)

type Bus struct {
	cli    *redis.Client
	stream string
	maxLen int64
	log    *zap.Logger
}

// Message 写入 stream 的一条直播间事件
type Message struct {
	Cmd  string          `json:"cmd"`
	Room int64           `json:"room"`
	When time.Time       `json:"when"`
	Seq  uint32          `json:"seq,omitempty"`
	Body json.RawMessage `json:"body"`
}

type Option func(*Bus)

func WithLogger(l *zap.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.log = l
		}
	}
}

// New maxLen 为 stream 的近似长度上限，0 表示不裁剪
func New(addr string, db int, stream string, maxLen int64, opts ...Option) *Bus {
	cli := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	b := &Bus{cli: cli, stream: stream, maxLen: maxLen, log: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bus) Ping(ctx context.Context) error {
	return b.cli.Ping(ctx).Err()
}

// Publish 以 cmd/data 两个字段写入一条事件，data 为 Message 的 JSON
func (b *Bus) Publish(ctx context.Context, m *Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{Stream: b.stream, Values: map[string]any{"cmd": m.Cmd, "data": payload}}
	if b.maxLen > 0 {
		args.MaxLen = b.maxLen
		args.Approx = true
	}
	return b.cli.XAdd(ctx, args).Err()
}

type Handler func(ctx context.Context, m *Message) error

// Consume 以消费组方式读取事件并逐条回调。
// ctx 结束时返回 ctx.Err()；建组失败或连续读取失败 maxReadErrors 次时返回该错误。
// 回调返回的错误只记录日志，消息仍会被确认。
func (b *Bus) Consume(ctx context.Context, group, consumer string, handler Handler) error {
	sugar := b.log.Sugar()
	if err := b.cli.XGroupCreateMkStream(ctx, b.stream, group, "$").Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// 组已存在
		if !strings.Contains(err.Error(), "BUSYGROUP") {
			return fmt.Errorf("redisstream: create group %s on %s: %w", group, b.stream, err)
		}
	}

	failures := 0
	for {
		res, err := b.cli.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{b.stream, ">"},
			Count:    100,
			Block:    5 * time.Second,
		}).Result()
		if errors.Is(err, redis.Nil) {
			failures = 0
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures++
			if failures >= maxReadErrors {
				return fmt.Errorf("redisstream: read %s: %w", b.stream, err)
			}
			sugar.Warnw("redisstream_read_error", "stream", b.stream, "group", group, "attempt", failures, "err", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(readRetryDelay):
			}
			continue
		}
		failures = 0

		for _, str := range res {
			for _, xmsg := range str.Messages {
				b.handle(ctx, group, xmsg, handler)
			}
		}
	}
}

func (b *Bus) handle(ctx context.Context, group string, xmsg redis.XMessage, handler Handler) {
	sugar := b.log.Sugar()
	raw, _ := xmsg.Values["data"].(string)
	var m Message
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		sugar.Warnw("redisstream_decode_error", "id", xmsg.ID, "err", err)
	} else if err := handler(ctx, &m); err != nil {
		sugar.Warnw("redisstream_handler_error", "id", xmsg.ID, "cmd", m.Cmd, "err", err)
	}
	if err := b.cli.XAck(ctx, b.stream, group, xmsg.ID).Err(); err != nil && ctx.Err() == nil {
		sugar.Warnw("redisstream_ack_error", "id", xmsg.ID, "err", err)
	}
}

func (b *Bus) Close() error { return b.cli.Close() }
