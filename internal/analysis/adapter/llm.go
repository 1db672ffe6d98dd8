package adapter

import (
	"context"
	"strings"

	"github.com/lk2023060901/zhi-text-evaluator/internal/ai/provider/registry"
	ptypes "github.com/lk2023060901/zhi-text-evaluator/internal/ai/provider/types"
	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/prompt"
	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/sanitize"
	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/types"
	"github.com/lk2023060901/zhi-text-evaluator/internal/pkg/logger"
	"go.uber.org/zap"
)

// Params 上游请求参数
type Params struct {
	Model       string
	MaxTokens   int
	Temperature float32
}

// profile 各服务的请求构造与输出清理方式
type profile struct {
	inlineSystem bool                // 系统指令并入用户消息
	buffered     bool                // 按句缓冲后清理
	fragment     func(string) string // 流式片段清理
	final        func(string) string // 单次结果清理
}

var profiles = map[types.ProviderID]profile{
	types.Zhi1: {
		fragment: sanitize.StripMarkup,
	},
	types.Zhi2: {
		buffered: true,
		fragment: sanitize.CleanMarkdown,
		final:    trimmed(sanitize.CleanMarkdown),
	},
	types.Zhi3: {
		fragment: sanitize.StripMarkupChars,
		final:    trimmed(sanitize.CleanMarkdown),
	},
	types.Zhi4: {
		inlineSystem: true,
		fragment:     sanitize.CleanAndRepair,
		final:        sanitize.CleanAndRepair,
	},
}

func trimmed(clean func(string) string) func(string) string {
	return func(s string) string {
		return strings.TrimSpace(clean(s))
	}
}

// LLMAdapter 基于注册表中上游 Provider 的适配器
type LLMAdapter struct {
	id       types.ProviderID
	registry *registry.Registry
	params   Params
	profile  profile
	logger   *logger.Logger
}

// New 创建适配器。上游 Provider 在每次调用时从注册表解析，未注册时调用失败。
func New(id types.ProviderID, reg *registry.Registry, params Params, lgr *logger.Logger) *LLMAdapter {
	return &LLMAdapter{
		id:       id,
		registry: reg,
		params:   params,
		profile:  profiles[id],
		logger:   logger.OrGlobal(lgr).Named("adapter").With(zap.String("provider", string(id))),
	}
}

// ID 返回服务标识
func (a *LLMAdapter) ID() types.ProviderID {
	return a.id
}

// Analyze 单次请求
func (a *LLMAdapter) Analyze(ctx context.Context, in Input) (string, error) {
	p, err := a.registry.Get(string(a.id))
	if err != nil {
		return "", &Error{Provider: a.id, Err: err}
	}

	resp, err := p.CreateChatCompletion(ctx, a.request(in))
	if err != nil {
		a.logger.WithContext(ctx).Warn("analysis request failed", zap.Error(err))
		return "", &Error{Provider: a.id, Err: err}
	}

	if a.profile.final != nil {
		return a.profile.final(resp.Content), nil
	}
	return resp.Content, nil
}

// StreamAnalysis 流式分析
func (a *LLMAdapter) StreamAnalysis(ctx context.Context, in Input) <-chan Fragment {
	out := make(chan Fragment, 10)

	go func() {
		defer close(out)

		fail := func(err error) {
			a.logger.WithContext(ctx).Warn("analysis stream failed", zap.Error(err))
			e := &Error{Provider: a.id, Err: err}
			send(ctx, out, Fragment{Text: e.Error(), Err: e})
		}

		p, err := a.registry.Get(string(a.id))
		if err != nil {
			fail(err)
			return
		}

		chunks, err := p.CreateChatCompletionStream(ctx, a.request(in))
		if err != nil {
			fail(err)
			return
		}

		var buf *sanitize.SentenceBuffer
		if a.profile.buffered {
			buf = sanitize.NewSentenceBuffer(a.profile.fragment)
		}

		emit := func(text string) bool {
			if text == "" {
				return true
			}
			return send(ctx, out, Fragment{Text: text})
		}

		flush := func() {
			if buf == nil {
				return
			}
			if text, ok := buf.Flush(); ok {
				emit(text)
			}
		}

		for chunk := range chunks {
			if chunk.Error != nil {
				flush()
				fail(chunk.Error)
				return
			}
			if chunk.Done {
				break
			}

			if buf != nil {
				if text, ok := buf.Push(chunk.Content); ok && !emit(text) {
					return
				}
				continue
			}
			if !emit(a.clean(chunk.Content)) {
				return
			}
		}

		flush()
	}()

	return out
}

func (a *LLMAdapter) clean(s string) string {
	if a.profile.fragment == nil {
		return s
	}
	return a.profile.fragment(s)
}

func (a *LLMAdapter) request(in Input) ptypes.ChatCompletionRequest {
	system := in.System
	user := in.Text
	if system == "" {
		system = prompt.SystemPrompt(in.Mode)
		user = prompt.UserMessage(prompt.Parts{
			Text:             in.Text,
			Context:          in.Context,
			PreviousAnalysis: in.PreviousAnalysis,
			Critique:         in.Critique,
		})
	}

	var messages []ptypes.Message
	if a.profile.inlineSystem {
		messages = []ptypes.Message{
			{Role: ptypes.RoleUser, Content: prompt.Inline(system, user)},
		}
	} else {
		messages = []ptypes.Message{
			{Role: ptypes.RoleSystem, Content: system},
			{Role: ptypes.RoleUser, Content: user},
		}
	}

	return ptypes.ChatCompletionRequest{
		Model:       a.params.Model,
		Messages:    messages,
		MaxTokens:   a.params.MaxTokens,
		Temperature: a.params.Temperature,
	}
}

func send(ctx context.Context, out chan<- Fragment, f Fragment) bool {
	select {
	case out <- f:
		return true
	case <-ctx.Done():
		return false
	}
}
