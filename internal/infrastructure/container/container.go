package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gdugdh24/mpit2026-matching/internal/config"
	httpdelivery "github.com/gdugdh24/mpit2026-matching/internal/delivery/http"
	"github.com/gdugdh24/mpit2026-matching/internal/delivery/http/handler"
	"github.com/gdugdh24/mpit2026-matching/internal/delivery/http/middleware"
	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/database"
	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/embedding"
	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/gemini"
	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/metrics"
	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/server"
	"github.com/gdugdh24/mpit2026-matching/internal/repository"
	"github.com/gdugdh24/mpit2026-matching/internal/repository/memory"
	"github.com/gdugdh24/mpit2026-matching/internal/repository/postgres"
	"github.com/gdugdh24/mpit2026-matching/internal/usecase/assessment"
	"github.com/gdugdh24/mpit2026-matching/internal/usecase/matching"
)

// Container holds all application dependencies
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	DB     *sqlx.DB
	Redis  *redis.Client
	Gemini *gemini.GeminiClient

	Repositories Repositories
	Embedder     *embedding.Gateway

	AssessmentUseCase *assessment.AssessmentUseCase
	MatchUseCase      *matching.MatchUseCase

	Server *server.Server
}

// Repositories groups the storage ports of the selected backend
type Repositories struct {
	Profiles    repository.ProfileRepository
	Assessments repository.AssessmentRepository
	Consents    repository.ConsentRepository
	Users       repository.UserRepository
	Clients     repository.ClientRepository
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Registry: registry,
		Metrics:  metrics.New(registry),
	}

	if err := c.initRepositories(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	if err := c.initEmbedder(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.AssessmentUseCase = assessment.NewAssessmentUseCase(
		assessment.DefaultQuestionnaire(cfg.Assessment.Version),
		c.Repositories.Profiles,
		c.Repositories.Assessments,
		c.Embedder,
		logger.Named("assessment"),
		c.Metrics,
	)

	c.MatchUseCase = matching.NewMatchUseCase(
		matching.Config{
			DefaultLimit: cfg.Matching.DefaultLimit,
			MaxLimit:     cfg.Matching.MaxLimit,
			Workers:      cfg.Matching.Workers,
			BatchSize:    cfg.Matching.BatchSize,
		},
		c.Repositories.Profiles,
		c.Repositories.Users,
		c.Repositories.Consents,
		logger.Named("matching"),
		c.Metrics,
	)

	if err := handler.RegisterValidators(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	router := httpdelivery.NewRouter(
		handler.NewMatchHandler(c.MatchUseCase),
		handler.NewAssessmentHandler(c.AssessmentUseCase, c.Repositories.Consents),
		middleware.NewAuthMiddleware(cfg.JWT.AccessSecret, c.Repositories.Clients, logger.Named("auth")),
		registry,
		logger.Named("http"),
	)

	c.Server = server.NewServer(&cfg.Server, router.Setup(), logger.Named("server"))

	return c, nil
}

func (c *Container) initRepositories(ctx context.Context) error {
	switch c.Config.Storage.Type {
	case "postgres":
		db, err := database.NewPostgresDB(ctx, &c.Config.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		c.DB = db
		c.Repositories = Repositories{
			Profiles:    postgres.NewProfileRepository(db),
			Assessments: postgres.NewAssessmentRepository(db),
			Consents:    postgres.NewConsentRepository(db),
			Users:       postgres.NewUserRepository(db),
			Clients:     postgres.NewClientRepository(db),
		}
	case "memory":
		store := memory.NewStore()
		if path := c.Config.Storage.SeedFile; path != "" {
			if err := store.LoadSeedFile(path); err != nil {
				return fmt.Errorf("failed to load seed file: %w", err)
			}
		}
		c.Logger.Warn("using in-memory storage; data is lost on restart")
		c.Repositories = Repositories{
			Profiles:    memory.NewProfileRepository(store),
			Assessments: memory.NewAssessmentRepository(store),
			Consents:    memory.NewConsentRepository(store),
			Users:       memory.NewUserRepository(store),
			Clients:     memory.NewClientRepository(store),
		}
	default:
		return fmt.Errorf("unknown storage type %q", c.Config.Storage.Type)
	}
	return nil
}

func (c *Container) initEmbedder(ctx context.Context) error {
	cfg := c.Config.Embedding

	var provider embedding.Provider
	switch cfg.Provider {
	case "gemini":
		client, err := gemini.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return fmt.Errorf("failed to initialize gemini client: %w", err)
		}
		c.Gemini = client
		provider = client
	case "openai":
		client, err := embedding.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, &http.Client{})
		if err != nil {
			return fmt.Errorf("failed to initialize openai provider: %w", err)
		}
		provider = client
	default:
		return fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	var tiers []embedding.Tier
	if cfg.CacheSize > 0 {
		lru, err := embedding.NewLRUCache(cfg.CacheSize)
		if err != nil {
			return fmt.Errorf("failed to create embedding cache: %w", err)
		}
		tiers = append(tiers, embedding.Tier{Name: "l1", Cache: lru})
	}
	if c.Config.Redis.Enabled {
		client, err := database.NewRedisClient(ctx, &c.Config.Redis)
		if err != nil {
			// The shared cache is an optimisation; run without it.
			c.Logger.Warn("redis unavailable, embedding cache is process-local", zap.Error(err))
		} else {
			c.Redis = client
			tiers = append(tiers, embedding.Tier{
				Name:  "l2",
				Cache: embedding.NewRedisCache(client, c.Config.Redis.TTL, c.Logger.Named("embedding_cache")),
			})
		}
	}

	opts := embedding.Options{
		MaxAttempts:    cfg.MaxAttempts,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		Timeout:        cfg.Timeout,
		Dimensions:     cfg.Dimensions,
		Logger:         c.Logger.Named("embedding"),
		Metrics:        c.Metrics,
	}
	if len(tiers) > 0 {
		opts.Cache = embedding.NewTieredCache(c.Metrics, tiers...)
	}
	c.Embedder = embedding.NewGateway(provider, opts)

	c.Logger.Info("embedding gateway ready",
		zap.String("model", provider.Model()),
		zap.Int("cache_tiers", len(tiers)),
	)
	return nil
}

// Close releases every connection the container opened
func (c *Container) Close() error {
	var errs []error

	if c.Gemini != nil {
		if err := c.Gemini.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close gemini client: %w", err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}

// ShutdownTimeout bounds graceful HTTP shutdown
const ShutdownTimeout = 10 * time.Second
