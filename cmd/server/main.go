package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/adapter"
	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/biz"
	analysisservice "github.com/lk2023060901/zhi-text-evaluator/internal/analysis/service"
	"github.com/lk2023060901/zhi-text-evaluator/internal/conf"
	"github.com/lk2023060901/zhi-text-evaluator/internal/data"
	"github.com/lk2023060901/zhi-text-evaluator/internal/document/chunker"
	"github.com/lk2023060901/zhi-text-evaluator/internal/document/loader"
	"github.com/lk2023060901/zhi-text-evaluator/internal/document/processor"
	documentservice "github.com/lk2023060901/zhi-text-evaluator/internal/document/service"
	"github.com/lk2023060901/zhi-text-evaluator/internal/pkg/logger"
	"github.com/lk2023060901/zhi-text-evaluator/internal/server"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "config file path")
)

func main() {
	flag.Parse()

	// Load configuration
	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger with config
	logConfig := &logger.Config{
		Level:            config.Log.Level,
		Format:           config.Log.Format,
		Output:           config.Log.Output,
		EnableCaller:     config.Log.EnableCaller,
		EnableStacktrace: config.Log.EnableStacktrace,
		File: logger.FileConfig{
			Filename:   config.Log.File.Filename,
			MaxSize:    config.Log.File.MaxSize,
			MaxAge:     config.Log.File.MaxAge,
			MaxBackups: config.Log.File.MaxBackups,
			Compress:   config.Log.File.Compress,
		},
	}

	log, err := logger.New(logConfig)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	// Initialize global logger
	logger.SetGlobal(log)

	log.Info("config loaded successfully")

	if err := loader.SetUniofficeLicense(config.Document.UniofficeLicense); err != nil {
		log.Warn("word documents may fail to load", zap.Error(err))
	}

	// Initialize data layer
	d, cleanup, err := data.NewData(config, log)
	if err != nil {
		log.Fatal("failed to initialize data layer", zap.Error(err))
	}
	defer cleanup()

	// Initialize use cases
	analysisConfig, err := biz.ConfigFromConf(&config.Analysis)
	if err != nil {
		log.Fatal("invalid analysis config", zap.Error(err))
	}
	adapters := adapter.FromConfig(d.Providers, &config.Providers, log)
	orchestrator := biz.NewOrchestrator(adapters, d.Store, analysisConfig, log)

	wordChunker, err := chunker.NewWordChunker(&chunker.WordChunkerConfig{
		Size:     config.Document.ChunkSize,
		Encoding: config.Document.TokenEncoding,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize chunker", zap.Error(err))
	}
	documentProcessor := processor.New(
		&processor.Config{MaxBytes: config.Document.MaxUploadBytes},
		loader.NewFactory(log),
		wordChunker,
		log,
	)

	// Initialize services
	documentService := documentservice.NewDocumentService(documentProcessor, log)
	analysisService := analysisservice.NewAnalysisService(orchestrator, config.Server.SSEHeartbeat, log)

	// Initialize server
	httpServer := server.NewHTTPServer(config, log, documentService, analysisService)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	log.Info("server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
