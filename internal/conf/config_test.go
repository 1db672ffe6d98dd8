package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 1000, cfg.Document.ChunkSize)
	assert.Equal(t, int64(10*1024*1024), cfg.Document.MaxUploadBytes)
	assert.Equal(t, 10*time.Second, cfg.Analysis.ChunkDelay)
	assert.Equal(t, "sequential", cfg.Analysis.Strategies["zhi2"])
	assert.Equal(t, "joined", cfg.Analysis.Strategies["zhi1"])
	assert.Equal(t, "gpt-4", cfg.Providers.Zhi1.Model)
	assert.Equal(t, 1500, cfg.Providers.Zhi1.MaxTokens)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.Providers.Zhi2.Model)
	assert.Equal(t, "https://api.deepseek.com/v1", cfg.Providers.Zhi3.BaseURL)
	assert.InDelta(t, 0.1, cfg.Providers.Zhi4.Temperature, 1e-6)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowOrigins)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8088
analysis:
  chunk_delay: 2s
document:
  chunk_size: 500
`)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("PROVIDERS_ZHI1_API_KEY", "sk-openai-test")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8088", cfg.Server.Addr())
	assert.Equal(t, 2*time.Second, cfg.Analysis.ChunkDelay)
	assert.Equal(t, 500, cfg.Document.ChunkSize)
	assert.Equal(t, "sk-ant-test", cfg.Providers.Zhi2.APIKey)
	assert.Equal(t, "sk-openai-test", cfg.Providers.Zhi1.APIKey)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{
			name: "unknown strategy",
			body: `
analysis:
  strategies:
    zhi1: parallel
`,
			wantErr: true,
		},
		{
			name: "unknown store driver",
			body: `
store:
  driver: postgres
`,
			wantErr: true,
		},
		{
			name: "zero chunk size",
			body: `
document:
  chunk_size: 0
`,
			wantErr: true,
		},
		{
			name: "redis store",
			body: `
store:
  driver: redis
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
