// Package embedding maps axis descriptions to fixed-length vectors through
// an external provider, with caching and bounded retries.
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/metrics"
)

// EmptyPlaceholder is embedded in place of blank input so every axis still
// yields a vector.
const EmptyPlaceholder = "."

// Provider is a single-shot embedding backend. Retries, caching and input
// normalisation are the Gateway's job.
type Provider interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// Options configures a Gateway. Zero values fall back to defaults.
type Options struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Timeout        time.Duration
	// Dimensions, when positive, is the vector length every response must have.
	Dimensions int
	Cache      Cache
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
}

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
)

type Gateway struct {
	provider       Provider
	cache          Cache
	logger         *zap.Logger
	metrics        *metrics.Metrics
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	timeout        time.Duration
	dimensions     int

	sleep func(ctx context.Context, d time.Duration) error
}

func NewGateway(provider Provider, opts Options) *Gateway {
	g := &Gateway{
		provider:       provider,
		cache:          opts.Cache,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		maxAttempts:    opts.MaxAttempts,
		initialBackoff: opts.InitialBackoff,
		maxBackoff:     opts.MaxBackoff,
		timeout:        opts.Timeout,
		dimensions:     opts.Dimensions,
		sleep:          sleepContext,
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	if g.maxAttempts <= 0 {
		g.maxAttempts = defaultMaxAttempts
	}
	if g.initialBackoff <= 0 {
		g.initialBackoff = defaultInitialBackoff
	}
	if g.maxBackoff <= 0 {
		g.maxBackoff = defaultMaxBackoff
	}
	return g
}

// Model reports the provider model the vectors come from.
func (g *Gateway) Model() string {
	return g.provider.Model()
}

// Embed returns the vector for a single text.
func (g *Gateway) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := g.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch returns one vector per input, in order. Either every vector is
// returned or the call fails with an error wrapping domain.ErrEmbeddingProvider.
func (g *Gateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	clean := make([]string, len(texts))
	for i, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			t = EmptyPlaceholder
		}
		clean[i] = t
	}

	out := make([][]float32, len(clean))
	keys := make([]string, len(clean))
	var missIdx []int
	var missTexts []string
	for i, t := range clean {
		keys[i] = g.cacheKey(t)
		if g.cache != nil {
			if vec, ok := g.cache.Get(ctx, keys[i]); ok {
				out[i] = vec
				continue
			}
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}

	if len(missTexts) > 0 {
		vecs, err := g.embedWithRetry(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		for j, idx := range missIdx {
			out[idx] = vecs[j]
		}
	}

	if err := g.checkDimensions(out); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingProvider, err)
	}

	if g.cache != nil {
		for _, idx := range missIdx {
			g.cache.Set(ctx, keys[idx], out[idx])
		}
	}
	return out, nil
}

func (g *Gateway) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	backoff := g.initialBackoff
	attempts := 0
	var lastErr error

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		attempts = attempt
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		vecs, err := g.attemptOnce(ctx, texts)
		if err == nil {
			g.metrics.ObserveEmbeddingRequest(g.provider.Model(), "success")
			return vecs, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			g.metrics.ObserveEmbeddingRequest(g.provider.Model(), "canceled")
			break
		}
		if !IsRetryable(err) {
			g.metrics.ObserveEmbeddingRequest(g.provider.Model(), "fatal")
			break
		}
		g.metrics.ObserveEmbeddingRequest(g.provider.Model(), "retryable")
		if attempt == g.maxAttempts {
			break
		}

		sleepFor := jitter(backoff)
		g.logger.Warn("embedding request retrying",
			zap.String("model", g.provider.Model()),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", g.maxAttempts),
			zap.Duration("sleep", sleepFor),
			zap.Error(err),
		)
		g.metrics.IncEmbeddingRetry()
		if err := g.sleep(ctx, sleepFor); err != nil {
			lastErr = err
			break
		}
		backoff *= 2
		if backoff > g.maxBackoff {
			backoff = g.maxBackoff
		}
	}

	g.logger.Error("embedding request failed",
		zap.String("model", g.provider.Model()),
		zap.Int("attempts", attempts),
		zap.Int("texts", len(texts)),
		zap.Error(lastErr),
	)
	return nil, fmt.Errorf("%w: %s failed after %d attempt(s): %w", domain.ErrEmbeddingProvider, g.provider.Model(), attempts, lastErr)
}

func (g *Gateway) attemptOnce(ctx context.Context, texts []string) ([][]float32, error) {
	actx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	vecs, err := g.provider.EmbedBatch(actx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: requested=%d returned=%d", errIncompleteResponse, len(texts), len(vecs))
	}
	for i, v := range vecs {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: empty vector at index %d", errIncompleteResponse, i)
		}
	}
	return vecs, nil
}

func (g *Gateway) checkDimensions(vecs [][]float32) error {
	want := g.dimensions
	if want <= 0 {
		want = len(vecs[0])
	}
	for i, v := range vecs {
		if len(v) != want {
			return fmt.Errorf("vector %d has %d dimensions, want %d", i, len(v), want)
		}
	}
	return nil
}

func (g *Gateway) cacheKey(text string) string {
	h := sha256.New()
	h.Write([]byte(g.provider.Model()))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

var errIncompleteResponse = errors.New("embedding response incomplete")

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
