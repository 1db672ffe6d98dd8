package streamclient

import (
	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/types"
)

// Event 流中的一个事件；对话事件没有 mode/provider
type Event struct {
	ID       string           `json:"id"`
	Status   types.Status     `json:"status"`
	Content  string           `json:"content"`
	Mode     types.Mode       `json:"mode,omitempty"`
	Provider types.ProviderID `json:"provider,omitempty"`
}

// Transcript 客户端展示的状态
type Transcript struct {
	ID      string
	Status  types.Status
	Content string // 已显示的分析内容
	Error   string // error 事件的消息
}

// Apply 应用一个事件，返回是否应停止读取。
// starting 清空内容，streaming 追加片段，completed 以完整内容替换，error 记录消息。
func (t *Transcript) Apply(ev Event) (done bool) {
	if ev.ID != "" {
		t.ID = ev.ID
	}
	t.Status = ev.Status

	switch ev.Status {
	case types.StatusStarting:
		t.Content = ""
		t.Error = ""
	case types.StatusStreaming:
		t.Content += ev.Content
	case types.StatusCompleted:
		t.Content = ev.Content
		return true
	case types.StatusError:
		t.Error = ev.Content
		return true
	}
	return false
}

// Done 是否已收到终止事件
func (t *Transcript) Done() bool {
	return t.Status.IsTerminal()
}

// Failed 是否以 error 结束
func (t *Transcript) Failed() bool {
	return t.Status == types.StatusError
}

// Display 展示文本；出错时错误消息附加在已显示内容之后
func (t *Transcript) Display() string {
	if t.Error == "" {
		return t.Content
	}
	if t.Content == "" {
		return "Error: " + t.Error
	}
	return t.Content + "\n\nError: " + t.Error
}
