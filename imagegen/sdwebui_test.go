package imagegen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newSDWebUITestServer(t *testing.T, status int, images []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sdapi/v1/txt2img" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req sdWebUIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.WriteHeader(status)
		if status == http.StatusOK {
			json.NewEncoder(w).Encode(sdWebUIResponse{Images: images})
		}
	}))
}

func TestSDWebUIGenerate(t *testing.T) {
	payload, err := NewPlaceholderRaster(32, 32).EncodePNG()
	if err != nil {
		t.Fatal(err)
	}
	srv := newSDWebUITestServer(t, http.StatusOK, []string{base64.StdEncoding.EncodeToString(payload)})
	defer srv.Close()

	p, err := NewSDWebUIProvider(ProviderConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	data, err := p.Generate(context.Background(), Request{Prompt: "a scene", Width: 32, Height: 32, Steps: 20})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := DecodeRaster(data); err != nil {
		t.Fatalf("result not decodable: %v", err)
	}
}

func TestSDWebUIStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrAuth},
		{http.StatusForbidden, ErrAuth},
		{http.StatusPaymentRequired, ErrAuth},
		{http.StatusTooManyRequests, ErrTransient},
		{http.StatusInternalServerError, ErrTransient},
		{http.StatusServiceUnavailable, ErrTransient},
	}
	for _, tt := range tests {
		srv := newSDWebUITestServer(t, tt.status, nil)
		p, err := NewSDWebUIProvider(ProviderConfig{BaseURL: srv.URL})
		if err != nil {
			t.Fatal(err)
		}
		_, err = p.Generate(context.Background(), Request{Prompt: "x"})
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: got %v, want %v", tt.status, err, tt.want)
		}
		srv.Close()
	}
}

func TestSDWebUIRequiresBaseURL(t *testing.T) {
	if _, err := NewSDWebUIProvider(ProviderConfig{}); err == nil {
		t.Fatal("expected configuration error")
	}
}

func TestNewProviderUnknownName(t *testing.T) {
	if _, err := NewProvider("nope", ProviderConfig{}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewProviderDefaultsToPlaceholder(t *testing.T) {
	p, err := NewProvider("", ProviderConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "placeholder" {
		t.Fatalf("got %s", p.Name())
	}
}
