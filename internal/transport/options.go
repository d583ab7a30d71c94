package transport

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Options 直播间长连接的配置
type Options struct {
	RoomID       int64
	WriteTimeout time.Duration // 单次写超时，0 表示使用默认 5s
	ReadTimeout  time.Duration // 读超时，0 表示使用默认 60s；服务端每 30s 回一次心跳
	DialTimeout  time.Duration
	Header       http.Header // 握手时附带的请求头
	Logger       *zap.Logger
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = 5 * time.Second
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = 60 * time.Second
	}
	if out.DialTimeout <= 0 {
		out.DialTimeout = 10 * time.Second
	}
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}
	return out
}
