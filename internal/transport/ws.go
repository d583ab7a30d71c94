package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hongjun500/bili-danmu/internal/danmu"
)

var ErrConnClosed = errors.New("transport: connection closed")

// Conn 直播间弹幕长连接，实现 danmu.Sender
type Conn struct {
	id   string
	conn *websocket.Conn
	ch   *danmu.Channel
	opt  Options
	log  *zap.Logger

	writeMu   sync.Mutex // gorilla 同一时间只允许一个写者
	closeOnce sync.Once
	closed    chan struct{}
}

// Dial 建立到弹幕服务器的 websocket 连接
func Dial(ctx context.Context, url string, ch *danmu.Channel, opt Options) (*Conn, error) {
	o := opt.withDefaults()
	ch.SetState(danmu.StateConnecting)

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: o.DialTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, url, o.Header)
	if err != nil {
		ch.SetState(danmu.StateFailed)
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	id := uuid.New().String()
	c := &Conn{
		id:     id,
		conn:   conn,
		ch:     ch,
		opt:    o,
		log:    o.Logger.With(zap.String("conn", id), zap.Int64("room", o.RoomID)),
		closed: make(chan struct{}),
	}
	c.log.Sugar().Infow("ws_connected", "url", url, "remote", conn.RemoteAddr().String())
	return c, nil
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) Send(data []byte) error {
	select {
	case <-c.closed:
		return ErrConnClosed
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.opt.WriteTimeout))
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = c.conn.Close()
	})
	return err
}

// Run 发送进房包，启动心跳与读循环，阻塞到连接结束。
// ctx 结束视为正常关闭并返回 nil；读失败或心跳发送失败返回对应错误，是否重连由调用方决定。
func (c *Conn) Run(ctx context.Context) error {
	defer c.Close()

	if err := c.ch.SendJoin(c, c.opt.RoomID); err != nil {
		c.ch.SetState(danmu.StateFailed)
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errc := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := c.ch.KeepAlive(loopCtx, c); err != nil {
			errc <- err
		}
	}()
	go func() {
		defer wg.Done()
		errc <- c.readLoop()
	}()
	c.ch.SetState(danmu.StateStreaming)

	var err error
	select {
	case <-ctx.Done():
	case err = <-errc:
	}
	cancel()
	_ = c.Close()
	wg.Wait()

	if ctx.Err() != nil {
		c.ch.SetState(danmu.StateClosed)
		c.log.Sugar().Infow("ws_closed")
		return nil
	}
	c.ch.SetState(danmu.StateFailed)
	c.log.Sugar().Warnw("ws_failed", "err", err)
	return err
}

func (c *Conn) readLoop() error {
	_ = c.conn.SetReadDeadline(time.Now().Add(c.opt.ReadTimeout))
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(c.opt.ReadTimeout))
		if mt != websocket.BinaryMessage && mt != websocket.TextMessage {
			continue
		}
		// 解码失败只影响本次推送
		if err := c.ch.Deliver(data); err != nil {
			c.log.Sugar().Warnw("ws_decode_error", "size", len(data), "err", err)
		}
	}
}
