package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Mode 分析模式
type Mode string

const (
	ModeCognitiveShort          Mode = "cognitive-short"
	ModeCognitiveLong           Mode = "cognitive-long"
	ModePsychologicalShort      Mode = "psychological-short"
	ModePsychologicalLong       Mode = "psychological-long"
	ModePsychopathologicalShort Mode = "psychopathological-short"
	ModePsychopathologicalLong  Mode = "psychopathological-long"
)

// Modes 所有受支持的分析模式
var Modes = []Mode{
	ModeCognitiveShort,
	ModeCognitiveLong,
	ModePsychologicalShort,
	ModePsychologicalLong,
	ModePsychopathologicalShort,
	ModePsychopathologicalLong,
}

// Valid 是否为受支持的模式
func (m Mode) Valid() bool {
	for _, mode := range Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// ProviderID 分析服务标识
type ProviderID string

const (
	Zhi1 ProviderID = "zhi1"
	Zhi2 ProviderID = "zhi2"
	Zhi3 ProviderID = "zhi3"
	Zhi4 ProviderID = "zhi4"
)

// Providers 所有分析服务
var Providers = []ProviderID{Zhi1, Zhi2, Zhi3, Zhi4}

// Valid 是否为已知服务
func (p ProviderID) Valid() bool {
	switch p {
	case Zhi1, Zhi2, Zhi3, Zhi4:
		return true
	}
	return false
}

// Label 面向用户的名称，例如 "ZHI 2"
func (p ProviderID) Label() string {
	return "ZHI " + strings.TrimPrefix(string(p), "zhi")
}

// Status 事件状态
type Status string

const (
	StatusStarting  Status = "starting"
	StatusStreaming Status = "streaming"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// IsTerminal completed 与 error 为终止状态
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// ChunkSeparator 合并处理时分块之间的分隔符
const ChunkSeparator = "\n\n"

var (
	ErrTextRequired    = errors.New("text is required")
	ErrBlankChunk      = errors.New("chunk must not be blank")
	ErrInvalidMode     = errors.New("invalid analysis mode")
	ErrInvalidProvider = errors.New("invalid provider")
	ErrMessageRequired = errors.New("message is required")
)

// AnalysisRequest 分析请求
type AnalysisRequest struct {
	Text             string     `json:"text" binding:"required"`
	Mode             Mode       `json:"mode" binding:"required,oneof=cognitive-short cognitive-long psychological-short psychological-long psychopathological-short psychopathological-long"`
	Provider         ProviderID `json:"provider" binding:"required,oneof=zhi1 zhi2 zhi3 zhi4"`
	Chunks           []string   `json:"chunks,omitempty"`
	Context          string     `json:"context,omitempty"`
	PreviousAnalysis string     `json:"previousAnalysis,omitempty"`
	Critique         string     `json:"critique,omitempty"`
}

// Validate 校验请求（与 binding 标签规则一致，供非 HTTP 调用方使用）
func (r *AnalysisRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return ErrTextRequired
	}
	for i, chunk := range r.Chunks {
		if strings.TrimSpace(chunk) == "" {
			return fmt.Errorf("%w: chunks[%d]", ErrBlankChunk, i)
		}
	}
	if !r.Mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, r.Mode)
	}
	if !r.Provider.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidProvider, r.Provider)
	}
	return nil
}

// Units 分析单元：非空 chunks 优先于 text
func (r *AnalysisRequest) Units() []string {
	if len(r.Chunks) > 0 {
		return r.Chunks
	}
	return []string{r.Text}
}

// IsRevision previousAnalysis 与 critique 同时存在时为修订请求
func (r *AnalysisRequest) IsRevision() bool {
	return r.PreviousAnalysis != "" && r.Critique != ""
}

// AnalysisEvent 流式事件
type AnalysisEvent struct {
	ID       string     `json:"id"`
	Status   Status     `json:"status"`
	Content  string     `json:"content"`
	Mode     Mode       `json:"mode"`
	Provider ProviderID `json:"provider"`
}

// IsTerminal 是否为终止事件
func (e AnalysisEvent) IsTerminal() bool {
	return e.Status.IsTerminal()
}

// ChatContext 对话上下文
type ChatContext struct {
	InputText      string `json:"inputText,omitempty"`
	AnalysisOutput string `json:"analysisOutput,omitempty"`
	AnalysisMode   string `json:"analysisMode,omitempty"`
}

// ChatRequest 对话请求
type ChatRequest struct {
	Message string       `json:"message" binding:"required"`
	Context *ChatContext `json:"context,omitempty"`
}

// Validate 校验对话请求
func (r *ChatRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return ErrMessageRequired
	}
	return nil
}

// ChatEvent 对话流式事件（不含 mode/provider）
type ChatEvent struct {
	ID      string `json:"id"`
	Status  Status `json:"status"`
	Content string `json:"content"`
}

// IsTerminal 是否为终止事件
func (e ChatEvent) IsTerminal() bool {
	return e.Status.IsTerminal()
}

// AnalysisRecord 结果存储中的一次分析
type AnalysisRecord struct {
	ID        string     `json:"id"`
	Mode      Mode       `json:"mode"`
	Provider  ProviderID `json:"provider"`
	Input     string     `json:"input"`
	Content   string     `json:"content"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
}

// AnalysisResult 同步分析结果
type AnalysisResult = AnalysisEvent
