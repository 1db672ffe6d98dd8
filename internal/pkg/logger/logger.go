package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps zap.Logger and remembers the config it was built from
type Logger struct {
	*zap.Logger
	config *Config
}

// New builds a logger from cfg; a nil cfg uses DefaultConfig
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger configuration: %w", err)
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	core := zapcore.NewCore(newEncoder(cfg.Format), newWriteSyncer(cfg), level)

	opts := []zap.Option{zap.AddCallerSkip(1)}
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	if cfg.EnableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	return &Logger{
		Logger: zap.New(core, opts...),
		config: cfg,
	}, nil
}

// NewNop returns a logger that discards everything, handy in tests
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop(), config: DefaultConfig()}
}

func newEncoder(format string) zapcore.Encoder {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if format == "console" {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(encCfg)
	}
	return zapcore.NewJSONEncoder(encCfg)
}

func newWriteSyncer(cfg *Config) zapcore.WriteSyncer {
	var writers []zapcore.WriteSyncer
	if cfg.writesConsole() {
		writers = append(writers, zapcore.AddSync(os.Stdout))
	}
	if cfg.writesFile() {
		writers = append(writers, zapcore.AddSync(newRotatingFile(&cfg.File)))
	}
	return zapcore.NewMultiWriteSyncer(writers...)
}

// newRotatingFile returns a lumberjack writer, creating the log directory first
func newRotatingFile(cfg *FileConfig) *lumberjack.Logger {
	if err := os.MkdirAll(filepath.Dir(cfg.Filename), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory: %v\n", err)
	}
	return &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}
}

// With creates a child logger with additional fields
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...), config: l.config}
}

// Named creates a named child logger
func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.Named(name), config: l.config}
}

// Config returns the logger configuration
func (l *Logger) Config() *Config {
	return l.config
}

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
)

// InitGlobal builds a logger from cfg and installs it as the global logger
func InitGlobal(cfg *Config) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	SetGlobal(l)
	return nil
}

// SetGlobal replaces the global logger
func SetGlobal(l *Logger) {
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

// L returns the global logger, creating a default one on first use
func L() *Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger, _ = New(DefaultConfig())
	}
	return globalLogger
}

// OrGlobal returns l when set, otherwise the global logger
func OrGlobal(l *Logger) *Logger {
	if l != nil {
		return l
	}
	return L()
}

func Debug(msg string, fields ...zap.Field) { L().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { L().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { L().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { L().Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { L().Fatal(msg, fields...) }

// Sync flushes the global logger
func Sync() error {
	return L().Sync()
}
