package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Storage    StorageConfig
	Logging    LoggingConfig
	Embedding  EmbeddingConfig
	Matching   MatchingConfig
	Assessment AssessmentConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

type JWTConfig struct {
	AccessSecret string
}

type StorageConfig struct {
	// Type is "postgres" or "memory".
	Type string
	// SeedFile optionally preloads users, clients and consents into the
	// memory store.
	SeedFile string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type EmbeddingConfig struct {
	// Provider is "gemini" or "openai".
	Provider       string
	Dimensions     int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Timeout        time.Duration
	CacheSize      int

	GeminiAPIKey string
	GeminiModel  string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
}

type MatchingConfig struct {
	DefaultLimit int
	MaxLimit     int
	Workers      int
	BatchSize    int
}

type AssessmentConfig struct {
	Version float64
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_CACHE_TTL", "720h")
	v.SetDefault("STORAGE_TYPE", "postgres")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("EMBEDDING_PROVIDER", "gemini")
	v.SetDefault("EMBEDDING_DIMENSIONS", 0)
	v.SetDefault("EMBEDDING_MAX_ATTEMPTS", 3)
	v.SetDefault("EMBEDDING_INITIAL_BACKOFF", "500ms")
	v.SetDefault("EMBEDDING_MAX_BACKOFF", "5s")
	v.SetDefault("EMBEDDING_TIMEOUT", "15s")
	v.SetDefault("EMBEDDING_CACHE_SIZE", 10000)
	v.SetDefault("GEMINI_EMBEDDING_MODEL", "text-embedding-004")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com")
	v.SetDefault("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small")
	v.SetDefault("MATCH_DEFAULT_LIMIT", 20)
	v.SetDefault("MATCH_MAX_LIMIT", 100)
	v.SetDefault("MATCH_WORKERS", 4)
	v.SetDefault("MATCH_BATCH_SIZE", 64)
	v.SetDefault("ASSESSMENT_VERSION", 1.0)
}

// Load loads configuration from environment variables or .env file
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom reads the given env file (if present) and the process
// environment, environment taking precedence.
func LoadFrom(envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		// Try to read from .env file, but don't fail if it doesn't exist
		_ = v.ReadInConfig()
	}

	config := &Config{
		Server: ServerConfig{
			Host:         v.GetString("SERVER_HOST"),
			Port:         v.GetInt("SERVER_PORT"),
			Env:          v.GetString("ENV"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSL_MODE"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTL:      v.GetDuration("REDIS_CACHE_TTL"),
		},
		JWT: JWTConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Storage: StorageConfig{
			Type:     strings.ToLower(v.GetString("STORAGE_TYPE")),
			SeedFile: v.GetString("MEMORY_SEED_FILE"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Embedding: EmbeddingConfig{
			Provider:       strings.ToLower(v.GetString("EMBEDDING_PROVIDER")),
			Dimensions:     v.GetInt("EMBEDDING_DIMENSIONS"),
			MaxAttempts:    v.GetInt("EMBEDDING_MAX_ATTEMPTS"),
			InitialBackoff: v.GetDuration("EMBEDDING_INITIAL_BACKOFF"),
			MaxBackoff:     v.GetDuration("EMBEDDING_MAX_BACKOFF"),
			Timeout:        v.GetDuration("EMBEDDING_TIMEOUT"),
			CacheSize:      v.GetInt("EMBEDDING_CACHE_SIZE"),
			GeminiAPIKey:   v.GetString("GEMINI_API_KEY"),
			GeminiModel:    v.GetString("GEMINI_EMBEDDING_MODEL"),
			OpenAIAPIKey:   v.GetString("OPENAI_API_KEY"),
			OpenAIBaseURL:  v.GetString("OPENAI_BASE_URL"),
			OpenAIModel:    v.GetString("OPENAI_EMBEDDING_MODEL"),
		},
		Matching: MatchingConfig{
			DefaultLimit: v.GetInt("MATCH_DEFAULT_LIMIT"),
			MaxLimit:     v.GetInt("MATCH_MAX_LIMIT"),
			Workers:      v.GetInt("MATCH_WORKERS"),
			BatchSize:    v.GetInt("MATCH_BATCH_SIZE"),
		},
		Assessment: AssessmentConfig{
			Version: v.GetFloat64("ASSESSMENT_VERSION"),
		},
	}

	// Validate critical configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates critical configuration values
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("database name is required")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}
	if c.JWT.AccessSecret == "" {
		return fmt.Errorf("JWT access secret is required")
	}
	if len(c.JWT.AccessSecret) < 32 {
		return fmt.Errorf("JWT access secret must be at least 32 characters")
	}
	switch c.Embedding.Provider {
	case "gemini":
		if c.Embedding.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini embedding provider")
		}
	case "openai":
		if c.Embedding.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai embedding provider")
		}
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}
	if c.Embedding.MaxAttempts < 1 {
		return fmt.Errorf("EMBEDDING_MAX_ATTEMPTS must be at least 1")
	}
	if c.Matching.MaxLimit < 1 {
		return fmt.Errorf("MATCH_MAX_LIMIT must be positive")
	}
	if c.Matching.DefaultLimit < 1 || c.Matching.DefaultLimit > c.Matching.MaxLimit {
		return fmt.Errorf("MATCH_DEFAULT_LIMIT must be between 1 and MATCH_MAX_LIMIT")
	}
	if c.Matching.Workers < 1 {
		return fmt.Errorf("MATCH_WORKERS must be positive")
	}
	return nil
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// GetAddr returns Redis address
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
