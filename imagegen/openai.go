package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIProvider is the synchronous OpenAI-compatible images backend
// (/v1/images/generations). Routers exposing the same wire format work via
// BaseURL. The result carries either an embedded base64 payload or a URL;
// both are normalized into raw bytes here.
type OpenAIProvider struct {
	client openai.Client
	model  string
	http   *http.Client
}

const openAIDefaultImageModel = "black-forest-labs/FLUX-1-schnell:free"

func NewOpenAIProvider(cfg ProviderConfig) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = openAIDefaultImageModel
	}
	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  model,
		http:   &http.Client{Timeout: 2 * time.Minute},
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) ([]byte, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	params := openai.ImageGenerateParams{
		Prompt: req.Prompt,
		Model:  openai.ImageModel(model),
		N:      openai.Int(1),
	}
	if req.Width > 0 && req.Height > 0 {
		params.Size = openai.ImageGenerateParamsSize(fmt.Sprintf("%dx%d", req.Width, req.Height))
	}

	resp, err := p.client.Images.Generate(ctx, params)
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: response contained no images", ErrTransient)
	}

	entry := resp.Data[0]
	if entry.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(entry.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode b64_json payload: %w", err)
		}
		return data, nil
	}
	if entry.URL != "" {
		return p.download(ctx, entry.URL)
	}
	return nil, fmt.Errorf("%w: response had neither b64_json nor url", ErrTransient)
}

func (p *OpenAIProvider) download(ctx context.Context, url string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := p.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: downloading result: %v", ErrTransient, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: download status %d", ErrTransient, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// mapOpenAIError folds SDK errors into the gateway taxonomy.
func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized,
			apiErr.StatusCode == http.StatusForbidden,
			apiErr.StatusCode == http.StatusPaymentRequired:
			return fmt.Errorf("%w: status %d: %s", ErrAuth, apiErr.StatusCode, apiErr.Message)
		case apiErr.StatusCode == http.StatusTooManyRequests, apiErr.StatusCode >= 500:
			return fmt.Errorf("%w: status %d: %s", ErrTransient, apiErr.StatusCode, apiErr.Message)
		default:
			return fmt.Errorf("openai image error (status %d): %s", apiErr.StatusCode, apiErr.Message)
		}
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}
