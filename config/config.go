package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Analyzer modes.
const (
	AnalyzerStub   = "stub"
	AnalyzerRemote = "remote"
	AnalyzerGemini = "gemini"
)

type Config struct {
	Analyzer       string `yaml:"analyzer"`
	HTTPAddr       string `yaml:"http_addr"`
	MaxUploadBytes int    `yaml:"max_upload_bytes"`
	TelegramToken  string `yaml:"telegram_token"`
	LogLevel       string `yaml:"log_level"`

	Vision VisionConfig `yaml:"vision"`
	Gemini GeminiConfig `yaml:"gemini"`
}

// VisionConfig configures the chat-completions analyzer.
type VisionConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	APIVersion  string        `yaml:"api_version"`
	Timeout     time.Duration `yaml:"timeout"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
}

// GeminiConfig configures the Gemini analyzer.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Analyzer:       AnalyzerStub,
		HTTPAddr:       ":8080",
		MaxUploadBytes: 10 << 20,
		LogLevel:       "info",
		Vision: VisionConfig{
			Model:       "gpt-4o",
			APIVersion:  "2024-02-15-preview",
			Timeout:     30 * time.Second,
			Temperature: 0.2,
			MaxTokens:   800,
		},
		Gemini: GeminiConfig{
			Model: "gemini-1.5-flash",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing priority. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	cfg.Analyzer = strings.ToLower(strings.TrimSpace(cfg.Analyzer))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that do not depend on the selected analyzer's
// credentials; missing endpoint or key is reported at analysis time.
func (c *Config) Validate() error {
	switch c.Analyzer {
	case AnalyzerStub, AnalyzerRemote, AnalyzerGemini:
	default:
		return fmt.Errorf("unknown analyzer %q (want %s, %s or %s)", c.Analyzer, AnalyzerStub, AnalyzerRemote, AnalyzerGemini)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.Vision.MaxTokens <= 0 || c.Vision.MaxTokens > math.MaxInt32 {
		return fmt.Errorf("vision max tokens must be in 1..%d, got %d", math.MaxInt32, c.Vision.MaxTokens)
	}
	if c.Vision.Timeout <= 0 {
		return fmt.Errorf("vision timeout must be positive, got %s", c.Vision.Timeout)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Analyzer, "ANALYZER")
	setString(&cfg.HTTPAddr, "HTTP_ADDR")
	setString(&cfg.TelegramToken, "TELEGRAM_TOKEN")
	setString(&cfg.LogLevel, "LOG_LEVEL")

	setString(&cfg.Vision.Endpoint, "VISION_ENDPOINT")
	setString(&cfg.Vision.APIKey, "VISION_API_KEY")
	setString(&cfg.Vision.Model, "VISION_MODEL")
	setString(&cfg.Vision.APIVersion, "VISION_API_VERSION")

	setString(&cfg.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "GEMINI_MODEL")

	if err := setInt(&cfg.MaxUploadBytes, "MAX_UPLOAD_BYTES"); err != nil {
		return err
	}
	if err := setInt(&cfg.Vision.MaxTokens, "VISION_MAX_TOKENS"); err != nil {
		return err
	}
	if err := setFloat(&cfg.Vision.Temperature, "VISION_TEMPERATURE"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Vision.Timeout, "VISION_TIMEOUT"); err != nil {
		return err
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
