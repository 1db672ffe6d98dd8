package biz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/adapter"
	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/prompt"
	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/types"
	"github.com/lk2023060901/zhi-text-evaluator/internal/pkg/logger"
	"go.uber.org/zap"
)

// AnalysisRepo 分析结果存储
type AnalysisRepo interface {
	Save(ctx context.Context, record *types.AnalysisRecord) error
	Get(ctx context.Context, id string) (*types.AnalysisRecord, error)
	Recent(ctx context.Context, limit int) ([]*types.AnalysisRecord, error)
}

// AdapterSource 按服务标识解析适配器
type AdapterSource interface {
	Get(id types.ProviderID) (adapter.Adapter, error)
}

// SleepFunc 可被取消的等待
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option 编排器选项
type Option func(*Orchestrator)

// WithSleep 替换块间等待实现
func WithSleep(fn SleepFunc) Option {
	return func(o *Orchestrator) { o.sleep = fn }
}

// WithClock 替换时间来源
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithIDGenerator 替换运行 ID 生成方式
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) { o.newID = fn }
}

// Orchestrator 驱动一次分析运行：选择分块策略、累积片段并输出事件序列
type Orchestrator struct {
	adapters AdapterSource
	repo     AnalysisRepo
	cfg      *Config
	logger   *logger.Logger

	sleep SleepFunc
	now   func() time.Time
	newID func() string
}

// NewOrchestrator 创建编排器
func NewOrchestrator(adapters AdapterSource, repo AnalysisRepo, cfg *Config, lgr *logger.Logger, opts ...Option) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	o := &Orchestrator{
		adapters: adapters,
		repo:     repo,
		cfg:      cfg,
		logger:   logger.OrGlobal(lgr).Named("orchestrator"),
		sleep:    sleepContext,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ChunkHeader 逐块处理时每块之前的标题
func ChunkHeader(i, n int) string {
	return fmt.Sprintf("=== CHUNK %d OF %d ===\n\n", i, n)
}

// Run 校验请求并开始一次流式分析。
// 返回的通道依次产生一个 starting、若干增量 streaming 与一个终止事件，随后关闭；
// ctx 取消时中止上游请求与块间等待，关闭通道且不再产生事件。
func (o *Orchestrator) Run(ctx context.Context, req *types.AnalysisRequest) (<-chan types.AnalysisEvent, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	a, err := o.adapters.Get(req.Provider)
	if err != nil {
		return nil, err
	}

	r := &run{
		o:      o,
		req:    req,
		a:      a,
		id:     o.newID(),
		events: make(chan types.AnalysisEvent, 16),
	}
	ctx = logger.WithAnalysisID(ctx, r.id)
	r.log = o.logger.WithContext(ctx).With(
		zap.String("provider", string(req.Provider)),
		zap.String("mode", string(req.Mode)))

	go r.execute(ctx)

	return r.events, nil
}

// Analyze 同步分析，使用与流式相同的分块策略
func (o *Orchestrator) Analyze(ctx context.Context, req *types.AnalysisRequest) (*types.AnalysisResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	a, err := o.adapters.Get(req.Provider)
	if err != nil {
		return nil, err
	}

	id := o.newID()
	units := req.Units()
	var content strings.Builder

	if o.cfg.StrategyFor(req.Provider) == StrategySequential && len(units) > 1 {
		for i, unit := range units {
			if i > 0 {
				content.WriteString(types.ChunkSeparator)
			}
			content.WriteString(ChunkHeader(i+1, len(units)))

			text, err := a.Analyze(ctx, inputFor(req, unit))
			if err != nil {
				o.save(ctx, req, id, types.StatusError, failureMessage(err.Error()))
				return nil, err
			}
			content.WriteString(text)

			if i < len(units)-1 {
				if err := o.sleep(ctx, o.cfg.ChunkDelay); err != nil {
					return nil, err
				}
			}
		}
	} else {
		text, err := a.Analyze(ctx, inputFor(req, strings.Join(units, types.ChunkSeparator)))
		if err != nil {
			o.save(ctx, req, id, types.StatusError, failureMessage(err.Error()))
			return nil, err
		}
		content.WriteString(text)
	}

	result := &types.AnalysisResult{
		ID:       id,
		Status:   types.StatusCompleted,
		Content:  content.String(),
		Mode:     req.Mode,
		Provider: req.Provider,
	}
	o.save(ctx, req, id, types.StatusCompleted, result.Content)
	return result, nil
}

// Chat 与配置的对话服务进行一次流式对话
func (o *Orchestrator) Chat(ctx context.Context, req *types.ChatRequest) (<-chan types.ChatEvent, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	a, err := o.adapters.Get(o.cfg.ChatProvider)
	if err != nil {
		return nil, err
	}

	id := o.newID()
	events := make(chan types.ChatEvent, 16)
	log := o.logger.WithContext(ctx).With(zap.String("chat_id", id))

	go func() {
		defer close(events)

		emit := func(ev types.ChatEvent) bool {
			ev.ID = id
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit(types.ChatEvent{Status: types.StatusStarting}) {
			return
		}

		in := adapter.Input{Text: req.Message, System: prompt.ChatSystemPrompt(req.Context)}
		var content strings.Builder
		for frag := range a.StreamAnalysis(ctx, in) {
			if frag.Err != nil {
				log.Warn("chat failed", zap.Error(frag.Err))
				emit(types.ChatEvent{Status: types.StatusError, Content: frag.Text})
				return
			}
			content.WriteString(frag.Text)
			if !emit(types.ChatEvent{Status: types.StatusStreaming, Content: frag.Text}) {
				return
			}
		}

		if ctx.Err() != nil {
			log.Info("chat cancelled")
			return
		}
		emit(types.ChatEvent{Status: types.StatusCompleted, Content: content.String()})
	}()

	return events, nil
}

// Get 返回一次分析记录
func (o *Orchestrator) Get(ctx context.Context, id string) (*types.AnalysisRecord, error) {
	return o.repo.Get(ctx, id)
}

// Recent 返回最近的分析记录（新的在前），limit <= 0 使用默认值
func (o *Orchestrator) Recent(ctx context.Context, limit int) ([]*types.AnalysisRecord, error) {
	if limit <= 0 {
		limit = o.cfg.RecentLimit
	}
	return o.repo.Recent(ctx, limit)
}

func (o *Orchestrator) save(ctx context.Context, req *types.AnalysisRequest, id string, status types.Status, content string) {
	if o.repo == nil {
		return
	}

	// 请求结束后仍需写入
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	record := &types.AnalysisRecord{
		ID:        id,
		Mode:      req.Mode,
		Provider:  req.Provider,
		Input:     strings.Join(req.Units(), types.ChunkSeparator),
		Content:   content,
		Status:    status,
		CreatedAt: o.now(),
	}
	if err := o.repo.Save(saveCtx, record); err != nil {
		o.logger.WithContext(ctx).Error("failed to save analysis",
			zap.String("analysis_id", id),
			zap.Error(err))
	}
}

// run 一次流式分析的状态
type run struct {
	o       *Orchestrator
	req     *types.AnalysisRequest
	a       adapter.Adapter
	id      string
	events  chan types.AnalysisEvent
	content strings.Builder
	log     *logger.Logger
}

func (r *run) execute(ctx context.Context) {
	defer close(r.events)

	start := r.o.now()
	if !r.emit(ctx, types.StatusStarting, "") {
		return
	}

	units := r.req.Units()
	strategy := r.o.cfg.StrategyFor(r.req.Provider)
	r.log.Info("analysis started",
		zap.Int("units", len(units)),
		zap.String("strategy", string(strategy)),
		zap.Bool("revision", r.req.IsRevision()))

	var err error
	if strategy == StrategySequential && len(units) > 1 {
		err = r.sequential(ctx, units)
	} else {
		err = r.stream(ctx, strings.Join(units, types.ChunkSeparator))
	}

	if ctx.Err() != nil {
		r.log.Info("analysis cancelled", zap.Int("partial_len", r.content.Len()))
		return
	}

	if err != nil {
		msg := failureMessage(err.Error())
		r.log.Warn("analysis failed", zap.Error(err))
		r.o.save(ctx, r.req, r.id, types.StatusError, msg)
		r.emit(ctx, types.StatusError, msg)
		return
	}

	full := r.content.String()
	r.o.save(ctx, r.req, r.id, types.StatusCompleted, full)
	r.emit(ctx, types.StatusCompleted, full)
	r.log.Info("analysis completed",
		zap.Int("content_len", len(full)),
		zap.Duration("elapsed", r.o.now().Sub(start)))
}

// sequential 逐块流式分析，块之间等待 ChunkDelay（最后一块之后不等待）
func (r *run) sequential(ctx context.Context, units []string) error {
	n := len(units)
	for i, unit := range units {
		header := ChunkHeader(i+1, n)
		if i > 0 {
			header = types.ChunkSeparator + header
		}
		if !r.fragment(ctx, header) {
			return ctx.Err()
		}

		if err := r.stream(ctx, unit); err != nil {
			return err
		}

		if i < n-1 {
			r.log.Debug("waiting before next chunk",
				zap.Int("chunk", i+1),
				zap.Duration("delay", r.o.cfg.ChunkDelay))
			if err := r.o.sleep(ctx, r.o.cfg.ChunkDelay); err != nil {
				return err
			}
		}
	}
	return nil
}

// stream 将一个单元的适配器输出转为 streaming 事件
func (r *run) stream(ctx context.Context, text string) error {
	for frag := range r.a.StreamAnalysis(ctx, inputFor(r.req, text)) {
		if frag.Err != nil {
			return frag.Err
		}
		if !r.fragment(ctx, frag.Text) {
			return ctx.Err()
		}
	}
	return ctx.Err()
}

func (r *run) fragment(ctx context.Context, text string) bool {
	r.content.WriteString(text)
	return r.emit(ctx, types.StatusStreaming, text)
}

func (r *run) emit(ctx context.Context, status types.Status, content string) bool {
	ev := types.AnalysisEvent{
		ID:       r.id,
		Status:   status,
		Content:  content,
		Mode:     r.req.Mode,
		Provider: r.req.Provider,
	}
	select {
	case r.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// inputFor 只有 previousAnalysis 与 critique 同时存在时才携带修订材料
func inputFor(req *types.AnalysisRequest, text string) adapter.Input {
	in := adapter.Input{
		Text:    text,
		Mode:    req.Mode,
		Context: req.Context,
	}
	if req.IsRevision() {
		in.PreviousAnalysis = req.PreviousAnalysis
		in.Critique = req.Critique
	}
	return in
}

func failureMessage(msg string) string {
	return "Analysis failed: " + msg
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
