package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadFromEnvDefaults(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "memory")
	t.Setenv("JWT_ACCESS_SECRET", testSecret)
	t.Setenv("GEMINI_API_KEY", "key")

	cfg, err := LoadFrom("")
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, "gemini", cfg.Embedding.Provider)
	assert.Equal(t, 3, cfg.Embedding.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Embedding.InitialBackoff)
	assert.Equal(t, 20, cfg.Matching.DefaultLimit)
	assert.Equal(t, 100, cfg.Matching.MaxLimit)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "STORAGE_TYPE=memory\nJWT_ACCESS_SECRET=" + testSecret + "\nEMBEDDING_PROVIDER=openai\nOPENAI_API_KEY=sk-test\nMATCH_MAX_LIMIT=50\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	cfg, err := LoadFrom(envFile)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, "sk-test", cfg.Embedding.OpenAIAPIKey)
	assert.Equal(t, 50, cfg.Matching.MaxLimit)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Storage:   StorageConfig{Type: "memory"},
			JWT:       JWTConfig{AccessSecret: testSecret},
			Embedding: EmbeddingConfig{Provider: "gemini", GeminiAPIKey: "k", MaxAttempts: 3},
			Matching:  MatchingConfig{DefaultLimit: 20, MaxLimit: 100, Workers: 2},
		}
	}

	require.NoError(t, base().Validate())

	cases := map[string]func(c *Config){
		"short secret":       func(c *Config) { c.JWT.AccessSecret = "short" },
		"unknown storage":    func(c *Config) { c.Storage.Type = "mongo" },
		"postgres no host":   func(c *Config) { c.Storage.Type = "postgres" },
		"missing gemini key": func(c *Config) { c.Embedding.GeminiAPIKey = "" },
		"unknown provider":   func(c *Config) { c.Embedding.Provider = "cohere" },
		"zero attempts":      func(c *Config) { c.Embedding.MaxAttempts = 0 },
		"default over max":   func(c *Config) { c.Matching.DefaultLimit = 101 },
		"no workers":         func(c *Config) { c.Matching.Workers = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
