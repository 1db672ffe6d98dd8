package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

const (
	// KeepAliveComment 首个字节之前发送的注释帧，用于冲破中间代理的缓冲
	KeepAliveComment = ": keep-alive\n\n"
	// HeartbeatComment 等待期间的心跳注释帧
	HeartbeatComment = ": heartbeat\n\n"
	// DataPrefix data 行前缀
	DataPrefix = "data: "
)

var (
	ErrStreamingUnsupported = errors.New("response writer does not support flushing")
	ErrStreamClosed         = errors.New("stream closed")
)

// Stream 单个 HTTP 响应上的 SSE 输出（并发安全，每次写入后立即 Flush）
type Stream struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	opened  bool
	closed  bool
}

// NewStream 包装 ResponseWriter，不支持 Flush 的 writer 直接拒绝
func NewStream(w http.ResponseWriter) (*Stream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	return &Stream{w: w, flusher: flusher}, nil
}

// SetHeaders 写入 SSE 响应头（必须在第一个字节之前）
func SetHeaders(h http.Header) {
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// Open 设置响应头、写出 200 并发送 keep-alive 注释（幂等）
func (s *Stream) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStreamClosed
	}
	if s.opened {
		return nil
	}

	SetHeaders(s.w.Header())
	s.w.WriteHeader(http.StatusOK)
	s.opened = true

	return s.writeLocked(KeepAliveComment)
}

// Send 将 v 编码为 JSON 并作为一个 data 帧写出
func (s *Stream) Send(v interface{}) error {
	frame, err := FormatData(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}
	if !s.opened {
		return fmt.Errorf("sse: send before open")
	}
	return s.writeLocked(frame)
}

// Heartbeat 写出心跳注释
func (s *Stream) Heartbeat() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.opened {
		return ErrStreamClosed
	}
	return s.writeLocked(HeartbeatComment)
}

// Close 标记流结束，之后的写入全部失败（幂等）
func (s *Stream) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// IsClosed 检查是否已关闭
func (s *Stream) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Stream) writeLocked(frame string) error {
	if _, err := fmt.Fprint(s.w, frame); err != nil {
		s.closed = true
		return err
	}
	s.flusher.Flush()
	return nil
}

// FormatData 生成 "data: <json>\n\n" 帧
func FormatData(v interface{}) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("sse: marshal event: %w", err)
	}
	return DataPrefix + string(payload) + "\n\n", nil
}
