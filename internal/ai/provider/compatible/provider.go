package compatible

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lk2023060901/zhi-text-evaluator/internal/ai/provider/types"
	"github.com/tidwall/gjson"
)

const doneSentinel = "[DONE]"

// Provider OpenAI 兼容接口实现（DeepSeek、Perplexity 等）
type Provider struct {
	name   string
	config *types.Config
	client *http.Client
}

// New 创建 OpenAI 兼容 Provider，name 用于日志与错误信息
func New(name string, config *types.Config) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if name == "" {
		name = "compatible"
	}

	return &Provider{
		name:   name,
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// Name 返回 Provider 名称
func (p *Provider) Name() string {
	return p.name
}

// CreateChatCompletion 创建聊天补全（同步）
func (p *Provider) CreateChatCompletion(ctx context.Context, req types.ChatCompletionRequest) (*types.ChatCompletionResponse, error) {
	resp, err := p.do(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewProviderError(p.Name(), "read response failed", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, types.NewProviderError(p.Name(), "invalid response body", nil)
	}

	result := gjson.ParseBytes(body)
	return &types.ChatCompletionResponse{
		ID:           result.Get("id").String(),
		Model:        result.Get("model").String(),
		Content:      result.Get("choices.0.message.content").String(),
		FinishReason: result.Get("choices.0.finish_reason").String(),
		Usage: types.Usage{
			PromptTokens:     int(result.Get("usage.prompt_tokens").Int()),
			CompletionTokens: int(result.Get("usage.completion_tokens").Int()),
			TotalTokens:      int(result.Get("usage.total_tokens").Int()),
		},
	}, nil
}

// CreateChatCompletionStream 创建聊天补全（流式）。无法解析的帧被跳过。
func (p *Provider) CreateChatCompletionStream(ctx context.Context, req types.ChatCompletionRequest) (<-chan types.StreamChunk, error) {
	resp, err := p.do(ctx, req, true)
	if err != nil {
		return nil, err
	}

	chunks := make(chan types.StreamChunk, 10)

	go func() {
		defer close(chunks)
		defer resp.Body.Close()

		done := false
		scanErr := types.ScanSSEData(resp.Body, func(data string) bool {
			if data == doneSentinel {
				types.Send(ctx, chunks, types.StreamChunk{Done: true})
				done = true
				return false
			}
			if !gjson.Valid(data) {
				return true
			}

			frame := gjson.Parse(data)
			if msg := frame.Get("error.message"); msg.Exists() {
				types.Send(ctx, chunks, types.StreamChunk{
					Done:  true,
					Error: &types.ProviderError{Type: types.ErrorTypeAPI, Provider: p.Name(), Message: msg.String()},
				})
				done = true
				return false
			}

			content := frame.Get("choices.0.delta.content").String()
			if content == "" {
				return true
			}
			return types.Send(ctx, chunks, types.StreamChunk{Content: content})
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

func (p *Provider) do(ctx context.Context, req types.ChatCompletionRequest, stream bool) (*http.Response, error) {
	req.Stream = stream
	if req.Model == "" {
		req.Model = p.config.Model
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, types.NewProviderError(p.Name(), "marshal request failed", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, types.NewProviderError(p.Name(), "create request failed", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	for key, value := range p.config.Headers {
		httpReq.Header.Set(key, value)
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

func errorMessage(raw []byte) string {
	if msg := gjson.GetBytes(raw, "error.message"); msg.Exists() && msg.String() != "" {
		return msg.String()
	}
	if len(raw) == 0 {
		return "empty error response"
	}
	return fmt.Sprintf("API error: %s", strings.TrimSpace(string(raw)))
}
