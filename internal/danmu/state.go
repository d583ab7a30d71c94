package danmu

// State 连接生命周期状态
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen      // 已发送进房包
	StateStreaming // 读循环与心跳均已启动
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
