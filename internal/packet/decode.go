package packet

import (
	"bytes"
	"io"
	"iter"

	"github.com/andybalholm/brotli"
)

// MaxInflatedSize 单个压缩包解压后的上限
const MaxInflatedSize = 16 * 1024 * 1024

// 压缩包内最多再嵌套的层数，解压结果里不应再出现压缩包
const maxNesting = 1

// Frames 按线上顺序逐个产出 raw 中的包。
// 一次推送可能包含多个首尾相接的包；version 3 的包体是 brotli 压缩后的若干完整包，会被展开。
// 遇到错误时产出该错误并停止，之前已切分出的包照常产出。
// Frame.Body 引用 raw 或解压缓冲区，调用方需要长期持有时应自行拷贝。
func Frames(raw []byte) iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		if len(raw) == 0 {
			yield(Frame{}, ErrFraming.WithContext("empty buffer"))
			return
		}
		walk(raw, 0, yield)
	}
}

// Decode 收集 Frames 的全部结果。出错时返回出错位置之前的包以及该错误。
func Decode(raw []byte) ([]Frame, error) {
	var frames []Frame
	for f, err := range Frames(raw) {
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// walk 循环切分 buf，返回 false 表示已停止（出错或调用方中断）
func walk(buf []byte, depth int, yield func(Frame, error) bool) bool {
	for len(buf) > 0 {
		h, err := parseHeader(buf)
		if err != nil {
			yield(Frame{}, err)
			return false
		}
		body := buf[h.HeaderLength:h.TotalLength]
		buf = buf[h.TotalLength:]

		if h.Version != VersionBrotli {
			if !yield(Frame{Header: h, Body: body}, nil) {
				return false
			}
			continue
		}
		if depth >= maxNesting {
			yield(Frame{}, ErrFraming.WithContext("compressed frame nested %d levels deep", depth+1))
			return false
		}
		inner, err := inflate(body)
		if err != nil {
			yield(Frame{}, err)
			return false
		}
		if !walk(inner, depth+1, yield) {
			return false
		}
	}
	return true
}

func inflate(b []byte) ([]byte, error) {
	r := io.LimitReader(brotli.NewReader(bytes.NewReader(b)), MaxInflatedSize+1)
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, ErrCompression.WithContext("brotli: %v", err)
	}
	if len(out) > MaxInflatedSize {
		return nil, ErrCompression.WithContext("inflated size exceeds %d", MaxInflatedSize)
	}
	return out, nil
}
