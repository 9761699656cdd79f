// Package config builds the runtime configuration from flags, COMICPDF_*
// environment variables, an optional config.yaml, and defaults, in that
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Retry tunes the provider gateway's retry budget.
type Retry struct {
	Attempts  int           `mapstructure:"attempts"`
	BaseDelay time.Duration `mapstructure:"base_delay"`
	MaxDelay  time.Duration `mapstructure:"max_delay"`
	Jitter    time.Duration `mapstructure:"jitter"`
}

// Config is the full knob surface. It is loaded once at startup and passed
// by value; nothing reloads it mid-run.
type Config struct {
	InputRoot  string `mapstructure:"input_root"`
	OutputRoot string `mapstructure:"output_root"`

	MaxImages      int    `mapstructure:"max_images"`
	AppendixMarker string `mapstructure:"appendix_marker"`
	FontPath       string `mapstructure:"font_path"`
	SkipImages     bool   `mapstructure:"skip_images"`
	Strict         bool   `mapstructure:"strict"`
	ValidateOutput bool   `mapstructure:"validate_output"`

	Provider    string `mapstructure:"provider"` // horde | sdwebui | openai | placeholder
	Model       string `mapstructure:"model"`
	ImageWidth  int    `mapstructure:"image_width"`
	ImageHeight int    `mapstructure:"image_height"`
	Steps       int    `mapstructure:"steps"`

	Refiner     string `mapstructure:"refiner"` // none | heuristic | claude
	StylePrefix string `mapstructure:"style_prefix"`

	CacheDir     string        `mapstructure:"cache_dir"`
	RequestDelay time.Duration `mapstructure:"request_delay"`
	PollTimeout  time.Duration `mapstructure:"poll_timeout"`
	Retry        Retry         `mapstructure:"retry"`

	SDWebUIURL      string `mapstructure:"sdwebui_url"`
	HordeAPIKey     string `mapstructure:"horde_api_key"`
	OpenAIAPIKey    string `mapstructure:"openai_api_key"`
	OpenAIBaseURL   string `mapstructure:"openai_base_url"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
}

// DefaultStylePrefix frames every scene prompt in the house illustration
// style before the provider sees it.
const DefaultStylePrefix = "Ilustración estilo cómic educativo para niños, colores vivos, trazo limpio"

func setDefaults(v *viper.Viper) {
	v.SetDefault("input_root", "docs")
	v.SetDefault("output_root", "out")
	v.SetDefault("max_images", 6)
	v.SetDefault("appendix_marker", "actividades")
	v.SetDefault("provider", "placeholder")
	v.SetDefault("image_width", 768)
	v.SetDefault("image_height", 480)
	v.SetDefault("steps", 25)
	v.SetDefault("refiner", "heuristic")
	v.SetDefault("style_prefix", DefaultStylePrefix)
	v.SetDefault("cache_dir", ".imagecache")
	v.SetDefault("request_delay", 3*time.Second)
	v.SetDefault("poll_timeout", 2*time.Minute)
	v.SetDefault("retry.attempts", 4)
	v.SetDefault("retry.base_delay", 2*time.Second)
	v.SetDefault("retry.max_delay", 30*time.Second)
	v.SetDefault("retry.jitter", time.Second)
}

// Load reads the configuration. cfgFile may be empty, in which case
// config.yaml is searched in the working directory and ~/.comicpdf.
func Load(cfgFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("COMICPDF")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.comicpdf")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects combinations that would only fail later and further away.
func (c Config) Validate() error {
	switch c.Provider {
	case "horde", "sdwebui", "openai", "placeholder", "":
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	switch c.Refiner {
	case "none", "heuristic", "claude", "":
	default:
		return fmt.Errorf("unknown refiner %q", c.Refiner)
	}
	if c.Provider == "sdwebui" && c.SDWebUIURL == "" {
		return errors.New("provider sdwebui requires sdwebui_url")
	}
	if c.MaxImages < 0 {
		return errors.New("max_images must not be negative")
	}
	if c.Retry.Attempts < 1 {
		return errors.New("retry.attempts must be at least 1")
	}
	return nil
}
