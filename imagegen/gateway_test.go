package imagegen

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// stubProvider fails a configurable number of times before succeeding.
type stubProvider struct {
	failures int
	failWith error
	calls    int
	payload  []byte
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Generate(context.Context, Request) ([]byte, error) {
	s.calls++
	if s.calls <= s.failures {
		return nil, s.failWith
	}
	if s.payload != nil {
		return s.payload, nil
	}
	return NewPlaceholderRaster(64, 48).EncodePNG()
}

func fastConfig() GatewayConfig {
	return GatewayConfig{
		Attempts:  4,
		BaseDelay: time.Millisecond,
		MaxDelay:  2 * time.Millisecond,
		MaxJitter: time.Millisecond,
		Width:     64,
		Height:    48,
	}
}

func TestGatewayRetriesTransientThenSucceeds(t *testing.T) {
	stub := &stubProvider{failures: 3, failWith: fmt.Errorf("%w: status 503", ErrTransient)}
	gw := NewGateway(stub, fastConfig())

	raster, err := gw.Generate(context.Background(), "a scene")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raster == nil || raster.Width != 64 {
		t.Fatalf("unexpected raster: %#v", raster)
	}
	if stub.calls != 4 {
		t.Fatalf("expected 4 calls (3 retries then success), got %d", stub.calls)
	}
}

func TestGatewayExhaustedBudgetYieldsPlaceholder(t *testing.T) {
	stub := &stubProvider{failures: 100, failWith: fmt.Errorf("%w: status 429", ErrTransient)}
	gw := NewGateway(stub, fastConfig())

	raster, err := gw.Generate(context.Background(), "a scene")
	if err != nil {
		t.Fatalf("default mode must degrade, got error: %v", err)
	}
	if raster.Width != 64 || raster.Height != 48 {
		t.Fatalf("placeholder should match requested dimensions, got %dx%d", raster.Width, raster.Height)
	}
	if stub.calls != 4 {
		t.Fatalf("expected exactly the attempt budget, got %d calls", stub.calls)
	}
}

func TestGatewayStrictModeReturnsLastError(t *testing.T) {
	stub := &stubProvider{failures: 100, failWith: fmt.Errorf("%w: status 500", ErrTransient)}
	cfg := fastConfig()
	cfg.Strict = true
	gw := NewGateway(stub, cfg)

	_, err := gw.Generate(context.Background(), "a scene")
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected wrapped transient error, got %v", err)
	}
}

func TestGatewayNeverRetriesAuthErrors(t *testing.T) {
	stub := &stubProvider{failures: 100, failWith: fmt.Errorf("%w: status 401", ErrAuth)}
	cfg := fastConfig()
	cfg.Strict = true
	gw := NewGateway(stub, cfg)

	_, err := gw.Generate(context.Background(), "a scene")
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if stub.calls != 1 {
		t.Fatalf("auth errors must not be retried, got %d calls", stub.calls)
	}
}

func TestGatewayAuthErrorDegradesWhenNotStrict(t *testing.T) {
	stub := &stubProvider{failures: 100, failWith: fmt.Errorf("%w: billing required", ErrAuth)}
	gw := NewGateway(stub, fastConfig())

	raster, err := gw.Generate(context.Background(), "a scene")
	if err != nil {
		t.Fatalf("graceful mode must mask auth failures: %v", err)
	}
	if raster == nil {
		t.Fatal("expected placeholder raster")
	}
}

func TestGatewayTimeoutIsRetryable(t *testing.T) {
	stub := &stubProvider{failures: 1, failWith: fmt.Errorf("%w: job abc exceeded 2m", ErrTimeout)}
	gw := NewGateway(stub, fastConfig())

	if _, err := gw.Generate(context.Background(), "a scene"); err != nil {
		t.Fatalf("timeout should be retried then succeed: %v", err)
	}
	if stub.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", stub.calls)
	}
}

func TestGatewayFetchNeverMasksFailure(t *testing.T) {
	stub := &stubProvider{failures: 100, failWith: fmt.Errorf("%w: status 503", ErrTransient)}
	gw := NewGateway(stub, fastConfig())

	if _, err := gw.Fetch(context.Background(), "a scene"); !errors.Is(err, ErrTransient) {
		t.Fatalf("Fetch must surface the last error, got %v", err)
	}
}

func TestGatewayFetchRejectsUndecodableBytes(t *testing.T) {
	stub := &stubProvider{payload: []byte("not an image")}
	gw := NewGateway(stub, fastConfig())

	if _, err := gw.Fetch(context.Background(), "a scene"); err == nil {
		t.Fatal("expected an error for undecodable provider bytes")
	}
}

func TestGatewayUndecodableBytesYieldPlaceholder(t *testing.T) {
	stub := &stubProvider{payload: []byte("not an image")}
	gw := NewGateway(stub, fastConfig())

	raster, err := gw.Generate(context.Background(), "a scene")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raster.Width != 64 {
		t.Fatalf("expected placeholder sized to request, got %d", raster.Width)
	}
}
