package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	analysisservice "github.com/lk2023060901/zhi-text-evaluator/internal/analysis/service"
	"github.com/lk2023060901/zhi-text-evaluator/internal/conf"
	documentservice "github.com/lk2023060901/zhi-text-evaluator/internal/document/service"
	"github.com/lk2023060901/zhi-text-evaluator/internal/pkg/logger"
	"go.uber.org/zap"
)

type HTTPServer struct {
	server *http.Server
	router *gin.Engine
	logger *logger.Logger
}

func NewHTTPServer(
	config *conf.Config,
	lgr *logger.Logger,
	documentService *documentservice.DocumentService,
	analysisService *analysisservice.AnalysisService,
) *HTTPServer {
	if config.Server.Mode != "" {
		gin.SetMode(config.Server.Mode)
	}
	lgr = logger.OrGlobal(lgr)

	router := gin.New()
	router.Use(logger.GinRecovery(lgr))
	router.Use(logger.GinLogger(lgr, logger.MiddlewareOptions{SkipPaths: []string{"/health"}}))
	router.Use(CORS(config.CORS.AllowOrigins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// API routes
	api := router.Group("/api")
	documentService.RegisterRoutes(api)
	analysisService.RegisterRoutes(api)

	return &HTTPServer{
		server: &http.Server{
			Addr:              config.Server.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			// 流式响应可能持续数分钟，不设置 WriteTimeout
		},
		router: router,
		logger: lgr,
	}
}

// Handler 返回路由（测试使用）
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}

// CORS 跨域配置，未指定来源时允许所有来源
func CORS(origins []string) gin.HandlerFunc {
	config := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", logger.RequestIDHeader}
	config.ExposeHeaders = []string{logger.RequestIDHeader}

	return cors.New(config)
}
