package packet

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/andybalholm/brotli"
)

func mustEncode(t *testing.T, body string, op Operation, opts ...EncodeOption) []byte {
	t.Helper()
	b, err := Encode([]byte(body), op, opts...)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	return b
}

func compress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("brotli write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("brotli close: %v", err)
	}
	return buf.Bytes()
}

// wrap 构造一个 version 3 的包，包体为 inner 压缩后的结果
func wrap(t *testing.T, inner []byte) []byte {
	t.Helper()
	return wrapBody(compress(t, inner))
}

func wrapBody(z []byte) []byte {
	out := make([]byte, HeaderLen+len(z))
	putHeader(out, Header{
		TotalLength:  uint32(len(out)),
		HeaderLength: HeaderLen,
		Version:      VersionBrotli,
		Operation:    OpMessage,
	})
	copy(out[HeaderLen:], z)
	return out
}

// truncated 返回一段被截断的 brotli 数据
func truncated(t *testing.T) []byte {
	t.Helper()
	var inner []byte
	for i := 0; i < 64; i++ {
		inner = append(inner, mustEncode(t, fmt.Sprintf(`{"cmd":"DANMU_MSG","n":%d}`, i*7919), OpMessage)...)
	}
	z := compress(t, inner)
	return z[:len(z)/2]
}

func TestEncode_HeartbeatHeader(t *testing.T) {
	b := mustEncode(t, "{}", OpHeartbeat)
	if len(b) != HeaderLen+2 {
		t.Fatalf("length: got %d, want %d", len(b), HeaderLen+2)
	}
	h, err := parseHeader(b)
	if err != nil {
		t.Fatalf("parse header: %v", err)
	}
	want := Header{TotalLength: 18, HeaderLength: 16, Version: VersionPlain, Operation: OpHeartbeat, Sequence: 1}
	if h != want {
		t.Fatalf("header mismatch: got %+v, want %+v", h, want)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	cases := []struct {
		name string
		body string
		op   Operation
		ver  Version
		seq  uint32
	}{
		{"empty_plain", "", OpHeartbeat, VersionPlain, 1},
		{"join", `{"roomid":572418,"protover":3,"platform":"web","type":2}`, OpJoinRoom, VersionPlain, 1},
		{"alt_version", "hello", OpMessage, VersionPlainAlt, 7},
		{"alt_version_2", "\x00\x01\x02binary", Operation(42), VersionPlainAlt2, 0xffffffff},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := mustEncode(t, tc.body, tc.op, WithVersion(tc.ver), WithSequence(tc.seq))
			frames, err := Decode(raw)
			if err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if len(frames) != 1 {
				t.Fatalf("expected 1 frame, got %d", len(frames))
			}
			f := frames[0]
			want := Header{
				TotalLength:  uint32(HeaderLen + len(tc.body)),
				HeaderLength: HeaderLen,
				Version:      tc.ver,
				Operation:    tc.op,
				Sequence:     tc.seq,
			}
			if f.Header != want {
				t.Errorf("header mismatch: got %+v, want %+v", f.Header, want)
			}
			if string(f.Body) != tc.body {
				t.Errorf("body mismatch: got %q, want %q", f.Body, tc.body)
			}
		})
	}
}

func TestEncode_RejectsCompressedVersion(t *testing.T) {
	_, err := Encode([]byte("{}"), OpHeartbeat, WithVersion(VersionBrotli))
	if !errors.Is(err, ErrFraming) {
		t.Fatalf("expected ErrFraming, got %v", err)
	}
}

func TestDecode_MultiFrameSplit(t *testing.T) {
	f1 := mustEncode(t, `{"cmd":"A"}`, OpMessage)
	f2 := mustEncode(t, "", OpHeartbeatReply, WithSequence(9))
	f3 := mustEncode(t, `{"cmd":"C"}`, OpMessage, WithSequence(3))
	raw := append(append(append([]byte{}, f1...), f2...), f3...)

	frames, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}
	if string(frames[0].Body) != `{"cmd":"A"}` || frames[1].Operation != OpHeartbeatReply || string(frames[2].Body) != `{"cmd":"C"}` {
		t.Fatalf("frames out of order: %v", frames)
	}
	if frames[1].Sequence != 9 || frames[2].Sequence != 3 {
		t.Fatalf("sequence mismatch: %v", frames)
	}
}

func TestDecode_CompressedWrapper(t *testing.T) {
	var inner []byte
	bodies := []string{`{"cmd":"DANMU_MSG"}`, `{"cmd":"SEND_GIFT"}`, `{"cmd":"INTERACT_WORD"}`}
	for _, b := range bodies {
		inner = append(inner, mustEncode(t, b, OpMessage)...)
	}

	frames, err := Decode(wrap(t, inner))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(frames) != len(bodies) {
		t.Fatalf("expected %d frames, got %d", len(bodies), len(frames))
	}
	for i, f := range frames {
		if f.Version == VersionBrotli {
			t.Errorf("frame %d still has version 3", i)
		}
		if string(f.Body) != bodies[i] {
			t.Errorf("frame %d body: got %q, want %q", i, f.Body, bodies[i])
		}
	}
}

func TestDecode_CompressedFollowedByPlain(t *testing.T) {
	inner := mustEncode(t, "a", OpMessage)
	raw := append(wrap(t, inner), mustEncode(t, "b", OpHeartbeatReply)...)

	frames, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(frames) != 2 || string(frames[0].Body) != "a" || frames[1].Operation != OpHeartbeatReply {
		t.Fatalf("unexpected frames: %v", frames)
	}
}

func TestDecode_Malformed(t *testing.T) {
	valid := mustEncode(t, "ok", OpMessage)

	badTotal := mustEncode(t, "x", OpMessage)
	badTotal[3] = 200 // totalLength 远大于实际长度

	zeroTotal := mustEncode(t, "x", OpMessage)
	copy(zeroTotal[0:4], []byte{0, 0, 0, 0})

	shortHeader := mustEncode(t, "x", OpMessage)
	shortHeader[5] = 4 // headerLength = 4

	cases := []struct {
		name      string
		raw       []byte
		wantErr   error
		wantCount int
	}{
		{"empty", nil, ErrFraming, 0},
		{"shorter_than_header", valid[:HeaderLen-1], ErrFraming, 0},
		{"total_exceeds_buffer", badTotal, ErrFraming, 0},
		{"zero_total", zeroTotal, ErrFraming, 0},
		{"header_length_too_small", shortHeader, ErrFraming, 0},
		{"valid_then_truncated", append(append([]byte{}, valid...), valid[:5]...), ErrFraming, 1},
		{"truncated_brotli", wrapBody(truncated(t)), ErrCompression, 0},
		{"valid_then_truncated_brotli", append(append([]byte{}, valid...), wrapBody(truncated(t))...), ErrCompression, 1},
		{"nested_compression", wrap(t, wrap(t, valid)), ErrFraming, 0},
		{"compressed_then_trailing_garbage", append(wrap(t, valid), 0xde, 0xad, 0xbe, 0xef, 0x00), ErrFraming, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			frames, err := Decode(tc.raw)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if len(frames) != tc.wantCount {
				t.Fatalf("expected %d frames before error, got %d", tc.wantCount, len(frames))
			}
		})
	}
}

func TestFrames_StopsWhenConsumerBreaks(t *testing.T) {
	var raw []byte
	for i := 0; i < 5; i++ {
		raw = append(raw, mustEncode(t, "m", OpMessage, WithSequence(uint32(i)))...)
	}
	n := 0
	for f, err := range Frames(raw) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.Sequence != uint32(n) {
			t.Fatalf("sequence: got %d, want %d", f.Sequence, n)
		}
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Fatalf("expected to stop after 2 frames, got %d", n)
	}
}

func TestError_Is(t *testing.T) {
	err := ErrCompression.WithContext("brotli: boom")
	if !errors.Is(err, ErrCompression) {
		t.Fatalf("expected errors.Is to match by code")
	}
	if errors.Is(err, ErrFraming) {
		t.Fatalf("framing and compression errors must not match")
	}
	if err.Code() != 2002 {
		t.Fatalf("code: got %d", err.Code())
	}
}
