package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SDWebUIProvider is the synchronous Stable Diffusion WebUI backend: one
// POST to /sdapi/v1/txt2img returning base64 image data.
type SDWebUIProvider struct {
	baseURL  string
	cfgScale float64
	client   *http.Client
}

type sdWebUIRequest struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	Steps          int     `json:"steps"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	CFGScale       float64 `json:"cfg_scale,omitempty"`
	BatchSize      int     `json:"batch_size,omitempty"`
	Seed           int64   `json:"seed,omitempty"`
}

type sdWebUIResponse struct {
	Images []string `json:"images"`
	Info   string   `json:"info"`
	Error  string   `json:"error,omitempty"`
}

// NewSDWebUIProvider builds the provider. BaseURL is required; the endpoint
// path is fixed by the WebUI API.
func NewSDWebUIProvider(cfg ProviderConfig) (*SDWebUIProvider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("sdwebui: base URL not configured")
	}
	cfgScale := cfg.CFGScale
	if cfgScale == 0 {
		cfgScale = 3.0
	}
	return &SDWebUIProvider{
		baseURL:  cfg.BaseURL,
		cfgScale: cfgScale,
		// SD generation can take a while.
		client: &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

func (p *SDWebUIProvider) Name() string { return "sdwebui" }

func (p *SDWebUIProvider) Generate(ctx context.Context, req Request) ([]byte, error) {
	payload := sdWebUIRequest{
		Prompt:    req.Prompt,
		Steps:     req.Steps,
		Width:     req.Width,
		Height:    req.Height,
		CFGScale:  p.cfgScale,
		BatchSize: 1,
	}
	if req.Seed != nil {
		payload.Seed = *req.Seed
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/sdapi/v1/txt2img", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrTransient, err)
	}
	if err := classifyStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	var sdResp sdWebUIResponse
	if err := json.Unmarshal(body, &sdResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(sdResp.Images) == 0 {
		return nil, fmt.Errorf("%w: no images generated", ErrTransient)
	}
	imageBytes, err := base64.StdEncoding.DecodeString(sdResp.Images[0])
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return imageBytes, nil
}

// classifyStatus maps an HTTP status onto the failure taxonomy. 401/403 and
// payment-required responses are fatal; 429 and 5xx are transient.
func classifyStatus(status int, body []byte) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusUnauthorized, status == http.StatusForbidden,
		status == http.StatusPaymentRequired:
		return fmt.Errorf("%w: status %d: %s", ErrAuth, status, truncate(body, 200))
	case status == http.StatusTooManyRequests, status >= 500:
		return fmt.Errorf("%w: status %d: %s", ErrTransient, status, truncate(body, 200))
	default:
		return fmt.Errorf("unexpected status code %d: %s", status, truncate(body, 200))
	}
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
