package packet

import (
	"fmt"
)

// 协议层错误定义
var (
	ErrFraming     = NewError(2001, "Malformed frame", "")
	ErrCompression = NewError(2002, "Decompression failed", "")
)

// Error 带错误码的协议错误，errors.Is 按错误码匹配
type Error struct {
	code    int
	msg     string
	context string
}

func (e *Error) Error() string {
	if e.context != "" {
		return fmt.Sprintf("Error %d: %s (context: %s)", e.code, e.msg, e.context)
	}
	return fmt.Sprintf("Error %d: %s", e.code, e.msg)
}

// Code 错误码
func (e *Error) Code() int { return e.code }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.code == e.code
}

// WithContext 复制一份错误并附加上下文
func (e *Error) WithContext(format string, args ...any) *Error {
	return &Error{code: e.code, msg: e.msg, context: fmt.Sprintf(format, args...)}
}

func NewError(code int, message string, context string) *Error {
	return &Error{
		code:    code,
		msg:     message,
		context: context,
	}
}
