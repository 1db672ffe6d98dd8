package types

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// maxSSELine 单行 SSE 数据上限
const maxSSELine = 1 << 20

// Send 向流通道发送块，ctx 取消时放弃并返回 false
func Send(ctx context.Context, ch chan<- StreamChunk, chunk StreamChunk) bool {
	select {
	case ch <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

// ScanSSEData 逐行读取 SSE 响应体，对每个 "data:" 行回调去掉前缀后的内容。
// event:、注释与空行被忽略；fn 返回 false 时停止读取。
func ScanSSEData(r io.Reader, fn func(data string) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELine)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if !fn(data) {
			return nil
		}
	}
	return scanner.Err()
}
