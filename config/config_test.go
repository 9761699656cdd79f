package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxImages != 6 {
		t.Errorf("max_images default: got %d, want 6", cfg.MaxImages)
	}
	if cfg.AppendixMarker != "actividades" {
		t.Errorf("appendix_marker default: got %q", cfg.AppendixMarker)
	}
	if cfg.Provider != "placeholder" {
		t.Errorf("provider default: got %q", cfg.Provider)
	}
	if cfg.RequestDelay != 3*time.Second {
		t.Errorf("request_delay default: got %v", cfg.RequestDelay)
	}
	if cfg.Retry.Attempts != 4 {
		t.Errorf("retry.attempts default: got %d", cfg.Retry.Attempts)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "provider: horde\nmax_images: 2\nretry:\n  attempts: 7\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider != "horde" {
		t.Errorf("provider: got %q, want horde", cfg.Provider)
	}
	if cfg.MaxImages != 2 {
		t.Errorf("max_images: got %d, want 2", cfg.MaxImages)
	}
	if cfg.Retry.Attempts != 7 {
		t.Errorf("retry.attempts: got %d, want 7", cfg.Retry.Attempts)
	}
	// Untouched keys keep their defaults.
	if cfg.AppendixMarker != "actividades" {
		t.Errorf("appendix_marker: got %q", cfg.AppendixMarker)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("COMICPDF_PROVIDER", "openai")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider != "openai" {
		t.Errorf("env override ignored: got %q", cfg.Provider)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.Provider = "dalle9000" }},
		{"unknown refiner", func(c *Config) { c.Refiner = "oracle" }},
		{"sdwebui without url", func(c *Config) { c.Provider = "sdwebui"; c.SDWebUIURL = "" }},
		{"negative max_images", func(c *Config) { c.MaxImages = -1 }},
		{"zero attempts", func(c *Config) { c.Retry.Attempts = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			tt.mut(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
