package relay

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/hongjun500/bili-danmu/internal/bus/redisstream"
	"github.com/hongjun500/bili-danmu/internal/danmu"
	"github.com/hongjun500/bili-danmu/internal/event"
	"github.com/hongjun500/bili-danmu/internal/observe"
)

// Publisher 事件总线的写入端
type Publisher interface {
	Publish(ctx context.Context, m *redisstream.Message) error
}

// Drainer 缓冲区的读取端
type Drainer interface {
	DrainAll() []danmu.Message
}

// DefaultMaxPending 发布失败后暂存待重试的消息上限
const DefaultMaxPending = 10000

// Relay 周期性取走缓冲区中的消息并写入总线。
// 发布失败的消息按原顺序暂存，下一次 Flush 时优先重试；暂存超过上限时丢弃最旧的。
type Relay struct {
	src        Drainer
	pub        Publisher
	room       int64
	interval   time.Duration
	skipNoise  bool
	maxPending int
	pending    []*redisstream.Message
	log        *zap.Logger
}

type Option func(*Relay)

// WithSkipNoise 不转发仅用于刷新页面状态的消息
func WithSkipNoise(skip bool) Option {
	return func(r *Relay) { r.skipNoise = skip }
}

// WithMaxPending n <= 0 时使用 DefaultMaxPending
func WithMaxPending(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.maxPending = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Relay) {
		if l != nil {
			r.log = l
		}
	}
}

func New(src Drainer, pub Publisher, room int64, interval time.Duration, opts ...Option) *Relay {
	if interval <= 0 {
		interval = time.Second
	}
	r := &Relay{src: src, pub: pub, room: room, interval: interval, maxPending: DefaultMaxPending, log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run 阻塞直到 ctx 结束，结束前再转发一次剩余消息
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			r.Flush(flushCtx)
			cancel()
			return nil
		case <-ticker.C:
			r.Flush(ctx)
		}
	}
}

// Flush 转发暂存与新取出的消息，返回成功写入的条数。
// 遇到发布失败即停止，剩余消息留待下一次。非并发安全，由 Run 串行调用。
func (r *Relay) Flush(ctx context.Context) int {
	for _, m := range r.src.DrainAll() {
		if msg, ok := r.convert(m); ok {
			r.pending = append(r.pending, msg)
		}
	}

	published := 0
	for len(r.pending) > 0 {
		msg := r.pending[0]
		if err := r.pub.Publish(ctx, msg); err != nil {
			r.log.Sugar().Warnw("relay_publish_error", "cmd", msg.Cmd, "pending", len(r.pending), "err", err)
			break
		}
		r.pending[0] = nil
		r.pending = r.pending[1:]
		observe.IncPublished(msg.Cmd)
		published++
	}

	if over := len(r.pending) - r.maxPending; over > 0 {
		r.log.Sugar().Warnw("relay_pending_dropped", "count", over)
		r.pending = append([]*redisstream.Message(nil), r.pending[over:]...)
	}
	return published
}

// Pending 待重试的消息条数
func (r *Relay) Pending() int { return len(r.pending) }

func (r *Relay) convert(m danmu.Message) (*redisstream.Message, bool) {
	cmd := "UNKNOWN"
	if ev, err := event.Parse(m.Body, m.ReceivedAt); err == nil {
		cmd = string(ev.Type())
	}
	if r.skipNoise && event.IsNoise(cmd) {
		return nil, false
	}
	return &redisstream.Message{
		Cmd:  cmd,
		Room: r.room,
		When: m.ReceivedAt,
		Seq:  m.Sequence,
		Body: rawBody(m.Body),
	}, true
}

// rawBody 非 JSON 的消息体按字符串写入
func rawBody(s string) json.RawMessage {
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	b, _ := json.Marshal(s)
	return b
}
