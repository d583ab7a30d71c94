package danmu

import (
	"errors"
	"fmt"

	"github.com/hongjun500/bili-danmu/internal/packet"
)

// ErrConnectionSend 进房包或心跳包发送失败，由连接层决定是否重连
var ErrConnectionSend = packet.NewError(3001, "Connection send failed", "")

// SendError 记录发送失败时的操作码与底层错误
type SendError struct {
	Op  packet.Operation
	Err error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("%s: send %s: %v", ErrConnectionSend.Error(), e.Op, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

func (e *SendError) Is(target error) bool {
	return errors.Is(ErrConnectionSend, target)
}
