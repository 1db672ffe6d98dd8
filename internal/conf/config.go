package conf

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Document  DocumentConfig  `mapstructure:"document"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Store     StoreConfig     `mapstructure:"store"`
	Redis     RedisConfig     `mapstructure:"redis"`
	CORS      CORSConfig      `mapstructure:"cors"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release, test
	SSEHeartbeat    time.Duration `mapstructure:"sse_heartbeat"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level            string        `mapstructure:"level"`
	Format           string        `mapstructure:"format"`
	Output           string        `mapstructure:"output"`
	File             FileLogConfig `mapstructure:"file"`
	EnableCaller     bool          `mapstructure:"enablecaller"`
	EnableStacktrace bool          `mapstructure:"enablestacktrace"`
}

type FileLogConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"maxsize"`
	MaxAge     int    `mapstructure:"maxage"`
	MaxBackups int    `mapstructure:"maxbackups"`
	Compress   bool   `mapstructure:"compress"`
}

type DocumentConfig struct {
	ChunkSize        int    `mapstructure:"chunk_size"`
	TokenEncoding    string `mapstructure:"token_encoding"`
	MaxUploadBytes   int64  `mapstructure:"max_upload_bytes"`
	UniofficeLicense string `mapstructure:"unioffice_license"`
}

type AnalysisConfig struct {
	// Strategies maps a provider id to "sequential" or "joined"
	Strategies   map[string]string `mapstructure:"strategies"`
	ChunkDelay   time.Duration     `mapstructure:"chunk_delay"`
	ChatProvider string            `mapstructure:"chat_provider"`
	RecentLimit  int               `mapstructure:"recent_limit"`
}

type ProviderConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type ProvidersConfig struct {
	Zhi1 ProviderConfig `mapstructure:"zhi1"`
	Zhi2 ProviderConfig `mapstructure:"zhi2"`
	Zhi3 ProviderConfig `mapstructure:"zhi3"`
	Zhi4 ProviderConfig `mapstructure:"zhi4"`
}

// ByID returns the settings for zhi1..zhi4
func (p *ProvidersConfig) ByID(id string) (ProviderConfig, bool) {
	switch id {
	case "zhi1":
		return p.Zhi1, true
	case "zhi2":
		return p.Zhi2, true
	case "zhi3":
		return p.Zhi3, true
	case "zhi4":
		return p.Zhi4, true
	}
	return ProviderConfig{}, false
}

type StoreConfig struct {
	Driver   string `mapstructure:"driver"` // memory, redis
	Capacity int    `mapstructure:"capacity"`
}

type RedisConfig struct {
	Addr      string        `mapstructure:"addr"`
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// envAliases binds the provider keys to the variable names operators already use
var envAliases = map[string]string{
	"providers.zhi1.api_key": "OPENAI_API_KEY",
	"providers.zhi2.api_key": "ANTHROPIC_API_KEY",
	"providers.zhi3.api_key": "DEEPSEEK_API_KEY",
	"providers.zhi4.api_key": "PERPLEXITY_API_KEY",
	"server.port":            "PORT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.sse_heartbeat", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "console")
	v.SetDefault("log.enablecaller", true)
	v.SetDefault("log.enablestacktrace", true)
	v.SetDefault("log.file.filename", "logs/zhi-evaluator.log")
	v.SetDefault("log.file.maxsize", 100)
	v.SetDefault("log.file.maxage", 30)
	v.SetDefault("log.file.maxbackups", 10)
	v.SetDefault("log.file.compress", true)

	v.SetDefault("document.chunk_size", 1000)
	v.SetDefault("document.token_encoding", "cl100k_base")
	v.SetDefault("document.max_upload_bytes", 10*1024*1024)

	v.SetDefault("analysis.strategies", map[string]string{
		"zhi1": "joined",
		"zhi2": "sequential",
		"zhi3": "joined",
		"zhi4": "joined",
	})
	v.SetDefault("analysis.chunk_delay", 10*time.Second)
	v.SetDefault("analysis.chat_provider", "zhi1")
	v.SetDefault("analysis.recent_limit", 10)

	v.SetDefault("providers.zhi1.base_url", "https://api.openai.com/v1")
	v.SetDefault("providers.zhi1.model", "gpt-4")
	v.SetDefault("providers.zhi1.max_tokens", 1500)
	v.SetDefault("providers.zhi1.timeout", 5*time.Minute)

	v.SetDefault("providers.zhi2.base_url", "https://api.anthropic.com")
	v.SetDefault("providers.zhi2.model", "claude-sonnet-4-20250514")
	v.SetDefault("providers.zhi2.max_tokens", 4000)
	v.SetDefault("providers.zhi2.timeout", 5*time.Minute)

	v.SetDefault("providers.zhi3.base_url", "https://api.deepseek.com/v1")
	v.SetDefault("providers.zhi3.model", "deepseek-chat")
	v.SetDefault("providers.zhi3.max_tokens", 4000)
	v.SetDefault("providers.zhi3.temperature", 0.7)
	v.SetDefault("providers.zhi3.timeout", 5*time.Minute)

	v.SetDefault("providers.zhi4.base_url", "https://api.perplexity.ai")
	v.SetDefault("providers.zhi4.model", "llama-3.1-sonar-large-128k-online")
	v.SetDefault("providers.zhi4.max_tokens", 2000)
	v.SetDefault("providers.zhi4.temperature", 0.1)
	v.SetDefault("providers.zhi4.timeout", 5*time.Minute)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.capacity", 1000)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.key_prefix", "zhi:")
	v.SetDefault("redis.ttl", 24*time.Hour)

	v.SetDefault("cors.allow_origins", []string{"*"})
}

// LoadConfig reads path (optional) on top of defaults, a .env file and the environment
func LoadConfig(path string) (*Config, error) {
	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the settings that would otherwise fail deep inside a request
func (c *Config) Validate() error {
	if c.Document.ChunkSize <= 0 {
		return fmt.Errorf("document.chunk_size must be positive, got %d", c.Document.ChunkSize)
	}
	if c.Document.MaxUploadBytes <= 0 {
		return fmt.Errorf("document.max_upload_bytes must be positive")
	}
	if c.Analysis.ChunkDelay < 0 {
		return fmt.Errorf("analysis.chunk_delay must not be negative")
	}
	for provider, strategy := range c.Analysis.Strategies {
		if strategy != "sequential" && strategy != "joined" {
			return fmt.Errorf("analysis.strategies.%s: unknown strategy %q", provider, strategy)
		}
	}
	switch c.Store.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	return nil
}

// Addr returns host:port for the HTTP listener
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
