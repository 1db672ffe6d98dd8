package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lk2023060901/zhi-text-evaluator/internal/ai/provider/types"
)

const (
	apiVersion       = "2023-06-01"
	defaultMaxTokens = 1024
)

// Provider Anthropic Messages API 实现（OpenAI 格式与 Anthropic 格式互转）
type Provider struct {
	config *types.Config
	client *http.Client
}

// New 创建 Anthropic Provider
func New(config *types.Config) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Provider{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// Name 返回 Provider 名称
func (p *Provider) Name() string {
	return "anthropic"
}

// setHeaders 设置请求 headers（包括默认 headers 和自定义 headers）
func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.config.APIKey)
	req.Header.Set("anthropic-version", apiVersion)

	for key, value := range p.config.Headers {
		req.Header.Set(key, value)
	}
}

type messagesRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	System      string    `json:"system,omitempty"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float32   `json:"temperature,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	ID         string         `json:"id"`
	Content    []contentBlock `json:"content"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
	Usage      usage          `json:"usage"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// streamEvent 流式事件（content_block_delta / message_stop / error 等）
type streamEvent struct {
	Type  string `json:"type"`
	Delta *struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"delta,omitempty"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateChatCompletion 创建聊天补全（同步）
func (p *Provider) CreateChatCompletion(ctx context.Context, req types.ChatCompletionRequest) (*types.ChatCompletionResponse, error) {
	resp, err := p.do(ctx, p.convertRequest(req, false))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewProviderError(p.Name(), "read response failed", err)
	}

	var msgResp messagesResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return nil, types.NewProviderError(p.Name(), "unmarshal response failed", err)
	}

	var text strings.Builder
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &types.ChatCompletionResponse{
		ID:           msgResp.ID,
		Model:        msgResp.Model,
		Content:      text.String(),
		FinishReason: msgResp.StopReason,
		Usage: types.Usage{
			PromptTokens:     msgResp.Usage.InputTokens,
			CompletionTokens: msgResp.Usage.OutputTokens,
			TotalTokens:      msgResp.Usage.InputTokens + msgResp.Usage.OutputTokens,
		},
	}, nil
}

// CreateChatCompletionStream 创建聊天补全（流式）
func (p *Provider) CreateChatCompletionStream(ctx context.Context, req types.ChatCompletionRequest) (<-chan types.StreamChunk, error) {
	resp, err := p.do(ctx, p.convertRequest(req, true))
	if err != nil {
		return nil, err
	}

	chunks := make(chan types.StreamChunk, 10)

	go func() {
		defer close(chunks)
		defer resp.Body.Close()

		done := false
		scanErr := types.ScanSSEData(resp.Body, func(data string) bool {
			var event streamEvent
			if err := json.Unmarshal([]byte(data), &event); err != nil {
				types.Send(ctx, chunks, types.StreamChunk{
					Done:  true,
					Error: types.NewProviderError(p.Name(), "unmarshal event failed", err),
				})
				done = true
				return false
			}

			switch event.Type {
			case "content_block_delta":
				if event.Delta != nil && event.Delta.Type == "text_delta" && event.Delta.Text != "" {
					return types.Send(ctx, chunks, types.StreamChunk{Content: event.Delta.Text})
				}
			case "error":
				msg := "stream error"
				errType := types.ErrorTypeAPI
				if event.Error != nil {
					msg = event.Error.Message
					errType = types.ErrorType(event.Error.Type)
				}
				types.Send(ctx, chunks, types.StreamChunk{
					Done:  true,
					Error: &types.ProviderError{Type: errType, Provider: p.Name(), Message: msg},
				})
				done = true
				return false
			case "message_stop":
				types.Send(ctx, chunks, types.StreamChunk{Done: true})
				done = true
				return false
			}
			return true
		})

		if done || ctx.Err() != nil {
			return
		}
		if scanErr != nil {
			types.Send(ctx, chunks, types.StreamChunk{
				Done:  true,
				Error: types.NewProviderError(p.Name(), "read stream failed", scanErr),
			})
			return
		}
		types.Send(ctx, chunks, types.StreamChunk{Done: true})
	}()

	return chunks, nil
}

// Close 关闭 Provider
func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// do 发送请求，非 200 响应转换为 ProviderError
func (p *Provider) do(ctx context.Context, body *messagesRequest) (*http.Response, error) {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, types.NewProviderError(p.Name(), "marshal request failed", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/v1/messages", bytes.NewReader(reqBody))
	if err != nil {
		return nil, types.NewProviderError(p.Name(), "create request failed", err)
	}

	p.setHeaders(httpReq)
	if body.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, types.NewProviderError(p.Name(), "request failed", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, types.NewStatusError(p.Name(), resp.StatusCode, errorMessage(raw))
	}

	return resp, nil
}

// convertRequest 将 OpenAI 格式请求转换为 Anthropic 请求
func (p *Provider) convertRequest(req types.ChatCompletionRequest, stream bool) *messagesRequest {
	system, rest := types.SplitSystem(req.Messages)

	msgReq := &messagesRequest{
		Model:       req.Model,
		System:      system,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      stream,
	}
	if msgReq.Model == "" {
		msgReq.Model = p.config.Model
	}
	if msgReq.MaxTokens == 0 {
		msgReq.MaxTokens = defaultMaxTokens
	}

	for _, msg := range rest {
		msgReq.Messages = append(msgReq.Messages, message{Role: msg.Role, Content: msg.Content})
	}
	return msgReq
}

func errorMessage(raw []byte) string {
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil && er.Error.Message != "" {
		return er.Error.Message
	}
	if len(raw) == 0 {
		return "empty error response"
	}
	return fmt.Sprintf("API error: %s", strings.TrimSpace(string(raw)))
}
