package danmu

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
	"go.uber.org/zap"

	"github.com/hongjun500/bili-danmu/internal/observe"
	"github.com/hongjun500/bili-danmu/internal/packet"
)

// DefaultHeartbeatInterval 服务端约 30 秒无心跳即断开
const DefaultHeartbeatInterval = 10 * time.Second

// Sender 连接层提供的发送能力
type Sender interface {
	Send(data []byte) error
}

// Message 一条已解码的业务消息，Body 是 UTF-8 文本（通常为 JSON）
type Message struct {
	Body       string
	Sequence   uint32
	ReceivedAt time.Time
}

// JoinPayload 进房包
type JoinPayload struct {
	RoomID   int64  `json:"roomid"`
	ProtoVer int    `json:"protover"`
	Platform string `json:"platform"`
	Type     int    `json:"type"`
}

// Channel 把连接层的推送桥接给按自己节奏拉取的消费者。
// Deliver 与 DrainAll 可并发调用。
type Channel struct {
	mu          sync.Mutex
	buf         *queue.Queue // of Message
	maxBuffered int

	interval time.Duration
	state    atomic.Int32
	log      *zap.Logger
	now      func() time.Time
}

// Option 配置 Channel
type Option func(*Channel)

// WithMaxBuffered 限制缓冲条数，满时丢弃最旧的消息；0 表示不限
func WithMaxBuffered(n int) Option {
	return func(c *Channel) { c.maxBuffered = n }
}

// WithHeartbeatInterval 设置心跳周期
func WithHeartbeatInterval(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.interval = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Channel) {
		if l != nil {
			c.log = l
		}
	}
}

func NewChannel(opts ...Option) *Channel {
	c := &Channel{
		buf:      queue.New(),
		interval: DefaultHeartbeatInterval,
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Deliver 解码一次推送并缓存其中的业务消息。
// 解码失败时整次推送被丢弃，缓冲区保持不变。
func (c *Channel) Deliver(raw []byte) error {
	frames, err := packet.Decode(raw)
	if err != nil {
		kind := "framing"
		if errors.Is(err, packet.ErrCompression) {
			kind = "compression"
		}
		observe.IncDecodeError(kind)
		return err
	}

	now := c.now()
	msgs := make([]Message, 0, len(frames))
	for _, f := range frames {
		observe.IncFrame(f.Operation.String())
		if f.Operation != packet.OpMessage {
			continue
		}
		msgs = append(msgs, Message{
			Body:       strings.ToValidUTF8(string(f.Body), "\uFFFD"),
			Sequence:   f.Sequence,
			ReceivedAt: now,
		})
	}
	if len(msgs) == 0 {
		return nil
	}

	dropped := 0
	c.mu.Lock()
	for _, m := range msgs {
		c.buf.Add(m)
		if c.maxBuffered > 0 && c.buf.Length() > c.maxBuffered {
			c.buf.Remove()
			dropped++
		}
	}
	observe.SetBuffered(c.buf.Length())
	c.mu.Unlock()

	for i := 0; i < dropped; i++ {
		observe.IncDropped()
	}
	return nil
}

// DrainAll 原子地取走全部缓存消息，按到达顺序返回；缓冲为空时返回空切片
func (c *Channel) DrainAll() []Message {
	c.mu.Lock()
	old := c.buf
	c.buf = queue.New()
	observe.SetBuffered(0)
	c.mu.Unlock()

	out := make([]Message, old.Length())
	for i := range out {
		out[i] = old.Remove().(Message)
	}
	observe.AddDrained(len(out))
	return out
}

// Len 当前缓存条数
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Length()
}

func (c *Channel) State() State { return State(c.state.Load()) }

func (c *Channel) SetState(s State) {
	prev := State(c.state.Swap(int32(s)))
	if prev != s {
		c.log.Sugar().Infow("danmu_state", "from", prev.String(), "to", s.String())
	}
}

// SendJoin 连接建立后发送进房包
func (c *Channel) SendJoin(s Sender, roomID int64) error {
	body, err := json.Marshal(JoinPayload{
		RoomID:   roomID,
		ProtoVer: int(packet.VersionBrotli),
		Platform: "web",
		Type:     2,
	})
	if err != nil {
		return err
	}
	if err := c.send(s, body, packet.OpJoinRoom); err != nil {
		return err
	}
	c.SetState(StateOpen)
	c.log.Sugar().Infow("danmu_join_sent", "room", roomID)
	return nil
}

// KeepAlive 立即发送一次心跳，之后按周期发送，直到 ctx 结束或发送失败。
// ctx 结束返回 nil；发送失败返回 *SendError，交给连接层处理。
func (c *Channel) KeepAlive(ctx context.Context, s Sender) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := c.send(s, []byte("{}"), packet.OpHeartbeat); err != nil {
			return err
		}
		observe.IncHeartbeat()
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (c *Channel) send(s Sender, body []byte, op packet.Operation) error {
	data, err := packet.Encode(body, op)
	if err != nil {
		return err
	}
	if err := s.Send(data); err != nil {
		observe.IncSendError(op.String())
		c.log.Sugar().Warnw("danmu_send_error", "op", op.String(), "err", err)
		return &SendError{Op: op, Err: err}
	}
	return nil
}
