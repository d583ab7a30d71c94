package packet

import (
	"encoding/binary"
	"fmt"
)

// HeaderLen 固定头部长度：totalLength(4) headerLength(2) version(2) operation(4) sequence(4)，大端序
const HeaderLen = 16

// MaxBodySize 出站包体上限
const MaxBodySize = 16 * 1024 * 1024

// Operation 头部中的操作码
type Operation uint32

const (
	OpHeartbeat      Operation = 2 // 客户端心跳
	OpHeartbeatReply Operation = 3 // 心跳回应（人气值）
	OpMessage        Operation = 5 // 业务消息，唯一需要缓存的类型
	OpJoinRoom       Operation = 7 // 进房认证
	OpJoinRoomReply  Operation = 8 // 进房回应
)

func (o Operation) String() string {
	switch o {
	case OpHeartbeat:
		return "heartbeat"
	case OpHeartbeatReply:
		return "heartbeat_reply"
	case OpMessage:
		return "message"
	case OpJoinRoom:
		return "join_room"
	case OpJoinRoomReply:
		return "join_room_reply"
	default:
		return fmt.Sprintf("op(%d)", uint32(o))
	}
}

// Version 头部中的协议版本
type Version uint16

const (
	VersionPlain     Version = 0
	VersionPlainAlt  Version = 1
	VersionPlainAlt2 Version = 2
	VersionBrotli    Version = 3 // 包体为 brotli 压缩后的若干完整包
)

// Header 包头
type Header struct {
	TotalLength  uint32
	HeaderLength uint16
	Version      Version
	Operation    Operation
	Sequence     uint32
}

// Frame 一个解码后的包，Body 可能引用原始缓冲区
type Frame struct {
	Header
	Body []byte
}

func (f Frame) String() string {
	return fmt.Sprintf("%d %d %d %d %d %q", f.TotalLength, f.HeaderLength, f.Version, f.Operation, f.Sequence, f.Body)
}

type encodeOptions struct {
	version  Version
	sequence uint32
}

// EncodeOption 编码选项
type EncodeOption func(*encodeOptions)

// WithVersion 指定协议版本，默认 0
func WithVersion(v Version) EncodeOption {
	return func(o *encodeOptions) { o.version = v }
}

// WithSequence 指定序列号，默认 1
func WithSequence(seq uint32) EncodeOption {
	return func(o *encodeOptions) { o.sequence = seq }
}

// Encode 为 body 加上包头，出站包不做压缩
func Encode(body []byte, op Operation, opts ...EncodeOption) ([]byte, error) {
	o := encodeOptions{version: VersionPlain, sequence: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.version == VersionBrotli {
		return nil, ErrFraming.WithContext("outbound frame cannot use version %d", o.version)
	}
	if len(body) > MaxBodySize {
		return nil, ErrFraming.WithContext("frame too large: %d", len(body))
	}
	buf := make([]byte, HeaderLen+len(body))
	putHeader(buf, Header{
		TotalLength:  uint32(len(buf)),
		HeaderLength: HeaderLen,
		Version:      o.version,
		Operation:    op,
		Sequence:     o.sequence,
	})
	copy(buf[HeaderLen:], body)
	return buf, nil
}

func putHeader(b []byte, h Header) {
	binary.BigEndian.PutUint32(b[0:4], h.TotalLength)
	binary.BigEndian.PutUint16(b[4:6], h.HeaderLength)
	binary.BigEndian.PutUint16(b[6:8], uint16(h.Version))
	binary.BigEndian.PutUint32(b[8:12], uint32(h.Operation))
	binary.BigEndian.PutUint32(b[12:16], h.Sequence)
}

// parseHeader 解析并校验 b 开头的包头，返回的 TotalLength 保证不超过 len(b)
func parseHeader(b []byte) (Header, error) {
	if len(b) < HeaderLen {
		return Header{}, ErrFraming.WithContext("need %d header bytes, have %d", HeaderLen, len(b))
	}
	h := Header{
		TotalLength:  binary.BigEndian.Uint32(b[0:4]),
		HeaderLength: binary.BigEndian.Uint16(b[4:6]),
		Version:      Version(binary.BigEndian.Uint16(b[6:8])),
		Operation:    Operation(binary.BigEndian.Uint32(b[8:12])),
		Sequence:     binary.BigEndian.Uint32(b[12:16]),
	}
	switch {
	case h.HeaderLength < HeaderLen:
		return Header{}, ErrFraming.WithContext("header length %d below %d", h.HeaderLength, HeaderLen)
	case h.TotalLength < uint32(h.HeaderLength):
		return Header{}, ErrFraming.WithContext("total length %d below header length %d", h.TotalLength, h.HeaderLength)
	case uint64(h.TotalLength) > uint64(len(b)):
		return Header{}, ErrFraming.WithContext("total length %d exceeds %d available bytes", h.TotalLength, len(b))
	}
	return h, nil
}
