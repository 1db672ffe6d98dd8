package sse

import (
	"context"
	"time"
)

// Terminal 由事件类型实现，标识流的最后一个事件
type Terminal interface {
	IsTerminal() bool
}

// Relay 依次写出 events 中的事件，直到终止事件、channel 关闭或客户端断开。
// heartbeat > 0 时在空闲期间发送心跳注释。写入失败时返回错误，调用方应取消上游。
func Relay[E Terminal](ctx context.Context, s *Stream, events <-chan E, heartbeat time.Duration) error {
	if err := s.Open(); err != nil {
		return err
	}
	defer s.Close()

	var tick <-chan time.Time
	if heartbeat > 0 {
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.Send(event); err != nil {
				return err
			}
			if event.IsTerminal() {
				return nil
			}

		case <-tick:
			if err := s.Heartbeat(); err != nil {
				return err
			}
		}
	}
}
