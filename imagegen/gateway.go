package imagegen

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/avast/retry-go/v4"
)

// GatewayConfig controls retry behavior and the terminal fallback.
type GatewayConfig struct {
	Attempts  uint          // overall attempt budget, default 4
	BaseDelay time.Duration // first backoff step, default 2s
	MaxDelay  time.Duration // backoff cap, default 30s
	MaxJitter time.Duration // randomization added to each delay, default 1s

	// Strict re-raises the last error after the budget is spent instead of
	// degrading to a placeholder. Auth errors always surface regardless.
	Strict bool

	// Defaults applied to requests that leave them zero.
	Width  int
	Height int
	Steps  int
	Model  string
}

// Gateway wraps a Provider with retry/backoff and the placeholder fallback,
// and canonicalizes every result to a decoded raster. It never writes to
// disk; persistence belongs to the cache.
type Gateway struct {
	provider Provider
	cfg      GatewayConfig
}

func NewGateway(provider Provider, cfg GatewayConfig) *Gateway {
	if cfg.Attempts == 0 {
		cfg.Attempts = 4
	}
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = 2 * time.Second
	}
	if cfg.MaxDelay == 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.MaxJitter == 0 {
		cfg.MaxJitter = time.Second
	}
	return &Gateway{provider: provider, cfg: cfg}
}

// ProviderName reports the wrapped backend's name.
func (g *Gateway) ProviderName() string { return g.provider.Name() }

// Fetch runs the retry loop and returns the provider's raw bytes, verified
// decodable. Unlike Generate it never masks failure with a placeholder, so
// callers that persist results (the cache) store only real provider output.
func (g *Gateway) Fetch(ctx context.Context, prompt string) ([]byte, error) {
	req := Request{
		Prompt: prompt,
		Width:  g.cfg.Width,
		Height: g.cfg.Height,
		Steps:  g.cfg.Steps,
		Model:  g.cfg.Model,
	}

	var data []byte
	err := retry.Do(
		func() error {
			var genErr error
			data, genErr = g.provider.Generate(ctx, req)
			return genErr
		},
		retry.Context(ctx),
		retry.Attempts(g.cfg.Attempts),
		retry.Delay(g.cfg.BaseDelay),
		retry.MaxDelay(g.cfg.MaxDelay),
		retry.MaxJitter(g.cfg.MaxJitter),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.RetryIf(retryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("image generation attempt %d/%d failed (%s): %v",
				n+1, g.cfg.Attempts, g.provider.Name(), err)
		}),
	)
	if err != nil {
		if errors.Is(err, ErrAuth) {
			return nil, err
		}
		return nil, fmt.Errorf("generating image after %d attempts: %w", g.cfg.Attempts, err)
	}

	if _, err := DecodeRaster(data); err != nil {
		return nil, fmt.Errorf("provider %s returned undecodable bytes: %w", g.provider.Name(), err)
	}
	return data, nil
}

// Generate produces a raster for the prompt, retrying transient failures
// with capped exponential backoff and jitter. After the attempt budget is
// exhausted it returns a placeholder (or, in strict mode, the last error).
// Auth failures short-circuit: they are never retried and never masked
// unless graceful degradation is on.
func (g *Gateway) Generate(ctx context.Context, prompt string) (*Raster, error) {
	data, err := g.Fetch(ctx, prompt)
	if err != nil {
		if g.cfg.Strict {
			return nil, err
		}
		log.Printf("image generation failed, substituting placeholder: %v", err)
		return NewPlaceholderRaster(g.cfg.Width, g.cfg.Height), nil
	}

	raster, err := DecodeRaster(data)
	if err != nil {
		// Unreachable in practice, Fetch already verified decodability.
		if g.cfg.Strict {
			return nil, err
		}
		return NewPlaceholderRaster(g.cfg.Width, g.cfg.Height), nil
	}
	return g.clamp(raster), nil
}

// clamp downscales oversized results from providers that ignore the size
// hint, bounding memory and output file size.
func (g *Gateway) clamp(r *Raster) *Raster {
	if g.cfg.Width <= 0 || r.Width <= 2*g.cfg.Width {
		return r
	}
	h := int(float64(g.cfg.Width) * float64(r.Height) / float64(r.Width))
	return r.Resize(g.cfg.Width, h)
}
