package imagegen

import (
	"context"
	"fmt"
	"time"
)

// Request describes one text-to-image generation.
type Request struct {
	Prompt string
	Width  int
	Height int
	Steps  int
	Model  string
	Seed   *int64
}

// Provider is the uniform capability interface over heterogeneous
// text-to-image backends. Implementations return encoded image bytes in
// whatever format the backend produces; the gateway canonicalizes.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) ([]byte, error)
}

// ProviderConfig carries the out-of-band settings a backend needs. Which
// fields apply depends on the provider kind.
type ProviderConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Width       int
	Height      int
	Steps       int
	CFGScale    float64
	PollTimeout time.Duration
}

// NewProvider builds a provider by name. Known names: "horde", "sdwebui",
// "openai", "placeholder".
func NewProvider(name string, cfg ProviderConfig) (Provider, error) {
	switch name {
	case "horde":
		return NewHordeProvider(cfg), nil
	case "sdwebui":
		return NewSDWebUIProvider(cfg)
	case "openai":
		return NewOpenAIProvider(cfg), nil
	case "placeholder", "":
		return NewPlaceholderProvider(), nil
	default:
		return nil, fmt.Errorf("unknown image provider %q", name)
	}
}
