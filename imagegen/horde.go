package imagegen

import (
	"context"
	"fmt"
	"time"

	"github.com/opd-ai/horde"
)

// HordeProvider is the asynchronous AI Horde backend: submit a job, wait for
// the worker pool to finish it, download the result. The wait is bounded by
// a hard poll ceiling independent of the gateway's retry budget.
type HordeProvider struct {
	client      *horde.Client
	model       string
	pollTimeout time.Duration
}

// DefaultPollTimeout bounds one submit-and-wait cycle against the Horde.
const DefaultPollTimeout = 2 * time.Minute

func NewHordeProvider(cfg ProviderConfig) *HordeProvider {
	timeout := cfg.PollTimeout
	if timeout == 0 {
		timeout = DefaultPollTimeout
	}
	model := cfg.Model
	if model == "" {
		model = horde.DefaultModel
	}
	return &HordeProvider{
		client:      horde.NewClient(cfg.APIKey),
		model:       model,
		pollTimeout: timeout,
	}
}

func (p *HordeProvider) Name() string { return "horde" }

func (p *HordeProvider) Generate(ctx context.Context, req Request) ([]byte, error) {
	steps := req.Steps
	if steps == 0 {
		steps = horde.DefaultSteps
	}
	width := req.Width
	if width == 0 {
		width = horde.DefaultWidth
	}
	height := req.Height
	if height == 0 {
		height = horde.DefaultHeight
	}
	model := req.Model
	if model == "" {
		model = p.model
	}

	genReq := horde.GenerationRequest{
		Prompt: req.Prompt,
		Params: horde.Params{
			Steps:     steps,
			Width:     width,
			Height:    height,
			ModelName: model,
		},
	}
	resp, err := p.client.RequestGeneration(genReq)
	if err != nil {
		return nil, fmt.Errorf("%w: requesting generation: %v", ErrTransient, err)
	}

	imageURL, err := p.waitForCompletion(ctx, resp.ID)
	if err != nil {
		return nil, err
	}

	imageData, err := p.client.DownloadImage(imageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: downloading image: %v", ErrTransient, err)
	}
	return imageData, nil
}

// waitForCompletion runs the horde client's poll loop under the ceiling and
// returns the finished image URL. Exceeding the ceiling yields ErrTimeout,
// which the gateway treats as retryable.
func (p *HordeProvider) waitForCompletion(ctx context.Context, id string) (string, error) {
	type result struct {
		image string
		err   error
	}
	done := make(chan result, 1)
	go func() {
		status, err := p.client.WaitForCompletion(id)
		if err != nil {
			done <- result{err: err}
			return
		}
		if len(status.Generation) == 0 {
			done <- result{err: fmt.Errorf("no results returned for job %s", id)}
			return
		}
		done <- result{image: status.Generation[0].Image}
	}()

	timer := time.NewTimer(p.pollTimeout)
	defer timer.Stop()
	select {
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("%w: waiting for completion: %v", ErrTransient, r.err)
		}
		return r.image, nil
	case <-timer.C:
		return "", fmt.Errorf("%w: job %s exceeded %s", ErrTimeout, id, p.pollTimeout)
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	}
}
