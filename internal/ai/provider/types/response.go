package types

// ChatCompletionResponse 聊天补全响应
type ChatCompletionResponse struct {
	ID           string `json:"id"`
	Model        string `json:"model"`
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason"`
	Usage        Usage  `json:"usage"`
}

// Usage Token 使用统计
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// StreamChunk 流式响应块
type StreamChunk struct {
	Content string `json:"content,omitempty"` // 文本增量
	Done    bool   `json:"done"`              // 是否结束
	Error   error  `json:"-"`                 // 错误（不序列化）
}
