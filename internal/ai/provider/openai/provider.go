package openai

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/lk2023060901/zhi-text-evaluator/internal/ai/provider/types"
	goopenai "github.com/sashabaranov/go-openai"
)

// Provider OpenAI Provider 实现（基于 go-openai SDK）
type Provider struct {
	config     *types.Config
	client     *goopenai.Client
	httpClient *http.Client
}

// New 创建 OpenAI Provider
func New(config *types.Config) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Timeout:   config.Timeout,
		Transport: &headerTransport{headers: config.Headers, base: http.DefaultTransport},
	}

	clientCfg := goopenai.DefaultConfig(config.APIKey)
	clientCfg.BaseURL = config.BaseURL
	clientCfg.HTTPClient = httpClient

	return &Provider{
		config:     config,
		client:     goopenai.NewClientWithConfig(clientCfg),
		httpClient: httpClient,
	}, nil
}

// Name 返回 Provider 名称
func (p *Provider) Name() string {
	return "openai"
}

// CreateChatCompletion 创建聊天补全（同步）
func (p *Provider) CreateChatCompletion(ctx context.Context, req types.ChatCompletionRequest) (*types.ChatCompletionResponse, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.convertRequest(req, false))
	if err != nil {
		return nil, p.convertError(err)
	}

	result := &types.ChatCompletionResponse{
		ID:    resp.ID,
		Model: resp.Model,
		Usage: types.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	if len(resp.Choices) > 0 {
		result.Content = resp.Choices[0].Message.Content
		result.FinishReason = string(resp.Choices[0].FinishReason)
	}
	return result, nil
}

// CreateChatCompletionStream 创建聊天补全（流式）
func (p *Provider) CreateChatCompletionStream(ctx context.Context, req types.ChatCompletionRequest) (<-chan types.StreamChunk, error) {
	stream, err := p.client.CreateChatCompletionStream(ctx, p.convertRequest(req, true))
	if err != nil {
		return nil, p.convertError(err)
	}

	chunks := make(chan types.StreamChunk, 10)

	go func() {
		defer close(chunks)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				types.Send(ctx, chunks, types.StreamChunk{Done: true})
				return
			}
			if err != nil {
				types.Send(ctx, chunks, types.StreamChunk{Done: true, Error: p.convertError(err)})
				return
			}

			if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
				continue
			}
			if !types.Send(ctx, chunks, types.StreamChunk{Content: resp.Choices[0].Delta.Content}) {
				return
			}
		}
	}()

	return chunks, nil
}

// Close 关闭 Provider
func (p *Provider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// convertRequest 转换为 SDK 请求。max_tokens 以 max_completion_tokens 发送。
func (p *Provider) convertRequest(req types.ChatCompletionRequest, stream bool) goopenai.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = p.config.Model
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	return goopenai.ChatCompletionRequest{
		Model:               model,
		Messages:            messages,
		MaxCompletionTokens: req.MaxTokens,
		Temperature:         req.Temperature,
		Stream:              stream,
	}
}

// convertError 将 SDK 错误转换为 ProviderError
func (p *Provider) convertError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return types.NewProviderError(p.Name(), "request cancelled", err)
	}

	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		pe := types.NewStatusError(p.Name(), apiErr.HTTPStatusCode, apiErr.Message)
		return pe
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		pe := types.NewStatusError(p.Name(), reqErr.HTTPStatusCode, "request failed")
		pe.Err = reqErr.Err
		return pe
	}

	return types.NewProviderError(p.Name(), "request failed", err)
}

// headerTransport 为每个请求附加自定义 headers
type headerTransport struct {
	headers map[string]string
	base    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) == 0 {
		return t.base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	for key, value := range t.headers {
		req.Header.Set(key, value)
	}
	return t.base.RoundTrip(req)
}
