package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/adapter"
	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/biz"
	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/types"
	apperrors "github.com/lk2023060901/zhi-text-evaluator/internal/pkg/errors"
	"github.com/lk2023060901/zhi-text-evaluator/internal/pkg/logger"
	"github.com/lk2023060901/zhi-text-evaluator/internal/pkg/response"
	"github.com/lk2023060901/zhi-text-evaluator/internal/pkg/sse"
	"go.uber.org/zap"
)

// MaxListLimit GET /analyses 单次返回的上限
const MaxListLimit = 100

// AnalysisService 分析相关的 HTTP 接口
type AnalysisService struct {
	orch      *biz.Orchestrator
	heartbeat time.Duration
	logger    *logger.Logger
}

// NewAnalysisService 创建分析服务，heartbeat 为 SSE 心跳间隔（0 关闭）
func NewAnalysisService(orch *biz.Orchestrator, heartbeat time.Duration, lgr *logger.Logger) *AnalysisService {
	return &AnalysisService{
		orch:      orch,
		heartbeat: heartbeat,
		logger:    logger.OrGlobal(lgr).Named("analysis"),
	}
}

// RegisterRoutes 注册分析路由
func (s *AnalysisService) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/analyze", s.Analyze)
	r.POST("/analyze/sync", s.AnalyzeSync)
	r.POST("/chat", s.Chat)

	analyses := r.Group("/analyses")
	{
		analyses.GET("", s.ListAnalyses)
		analyses.GET("/:id", s.GetAnalysis)
	}
}

// Analyze 流式分析
// @Summary Stream a text analysis
// @Tags analysis
// @Accept json
// @Produce text/event-stream
// @Param request body types.AnalysisRequest true "Analysis Request"
// @Router /api/analyze [post]
func (s *AnalysisService) Analyze(c *gin.Context) {
	var req types.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.WithContext(c.Request.Context()).Debug("invalid analysis request", zap.Error(err))
		response.ErrorWithCode(c, apperrors.ErrInvalidAnalysisRequest)
		return
	}

	stream, err := sse.NewStream(c.Writer)
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrStreamingUnsupported)
		return
	}

	// 客户端断开或写入失败时取消上游
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events, err := s.orch.Run(ctx, &req)
	if err != nil {
		s.startFailed(c, err, apperrors.ErrInvalidAnalysisRequest, apperrors.ErrAnalysisFailed)
		return
	}

	if err := sse.Relay(ctx, stream, events, s.heartbeat); err != nil {
		s.logger.WithContext(ctx).Info("analysis stream ended early", zap.Error(err))
	}
}

// AnalyzeSync 单次分析，返回完整结果
// @Summary Analyze a text and return the full result
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body types.AnalysisRequest true "Analysis Request"
// @Success 200 {object} types.AnalysisResult
// @Router /api/analyze/sync [post]
func (s *AnalysisService) AnalyzeSync(c *gin.Context) {
	var req types.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidAnalysisRequest)
		return
	}

	result, err := s.orch.Analyze(c.Request.Context(), &req)
	if err != nil {
		var adapterErr *adapter.Error
		switch {
		case isInvalidRequest(err):
			response.ErrorWithCode(c, apperrors.ErrInvalidAnalysisRequest)
		case errors.As(err, &adapterErr):
			response.HandleError(c, apperrors.WithMessage(err, apperrors.ErrProviderFailed, adapterErr.Error()))
		default:
			s.logger.WithContext(c.Request.Context()).Error("analysis failed", zap.Error(err))
			response.ErrorWithCode(c, apperrors.ErrAnalysisFailed)
		}
		return
	}

	response.OK(c, result)
}

// Chat 针对分析结果的流式对话
// @Summary Stream a chat reply about an analysis
// @Tags analysis
// @Accept json
// @Produce text/event-stream
// @Param request body types.ChatRequest true "Chat Request"
// @Router /api/chat [post]
func (s *AnalysisService) Chat(c *gin.Context) {
	var req types.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidChatRequest)
		return
	}

	stream, err := sse.NewStream(c.Writer)
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrStreamingUnsupported)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events, err := s.orch.Chat(ctx, &req)
	if err != nil {
		s.startFailed(c, err, apperrors.ErrInvalidChatRequest, apperrors.ErrAnalysisFailed)
		return
	}

	if err := sse.Relay(ctx, stream, events, s.heartbeat); err != nil {
		s.logger.WithContext(ctx).Info("chat stream ended early", zap.Error(err))
	}
}

// ListAnalyses 最近的分析记录
// @Summary List recent analyses, newest first
// @Tags analysis
// @Produce json
// @Param limit query int false "Number of records"
// @Router /api/analyses [get]
func (s *AnalysisService) ListAnalyses(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.ErrorWithCode(c, apperrors.ErrInvalidParams, "limit must be a non-negative integer")
			return
		}
		limit = min(n, MaxListLimit)
	}

	records, err := s.orch.Recent(c.Request.Context(), limit)
	if err != nil {
		response.HandleError(c, apperrors.Wrap(err, apperrors.ErrInternalServer))
		return
	}

	response.OK(c, gin.H{"analyses": records})
}

// GetAnalysis 单条分析记录
// @Summary Get an analysis by id
// @Tags analysis
// @Produce json
// @Param id path string true "Analysis ID"
// @Success 200 {object} types.AnalysisRecord
// @Router /api/analyses/{id} [get]
func (s *AnalysisService) GetAnalysis(c *gin.Context) {
	record, err := s.orch.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, biz.ErrAnalysisNotFound) {
			response.ErrorWithCode(c, apperrors.ErrAnalysisNotFound)
			return
		}
		response.HandleError(c, apperrors.Wrap(err, apperrors.ErrInternalServer))
		return
	}

	response.OK(c, record)
}

// startFailed 流开始之前的失败，仍可返回普通 JSON 错误
func (s *AnalysisService) startFailed(c *gin.Context, err error, invalidCode, failedCode int) {
	if isInvalidRequest(err) {
		response.ErrorWithCode(c, invalidCode)
		return
	}
	s.logger.WithContext(c.Request.Context()).Error("failed to start stream", zap.Error(err))
	response.ErrorWithCode(c, failedCode)
}

func isInvalidRequest(err error) bool {
	return errors.Is(err, types.ErrTextRequired) ||
		errors.Is(err, types.ErrBlankChunk) ||
		errors.Is(err, types.ErrInvalidMode) ||
		errors.Is(err, types.ErrInvalidProvider) ||
		errors.Is(err, types.ErrMessageRequired)
}
