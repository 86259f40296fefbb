package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"ANALYZER", "HTTP_ADDR", "TELEGRAM_TOKEN", "LOG_LEVEL", "MAX_UPLOAD_BYTES",
	"VISION_ENDPOINT", "VISION_API_KEY", "VISION_MODEL", "VISION_API_VERSION",
	"VISION_TIMEOUT", "VISION_TEMPERATURE", "VISION_MAX_TOKENS",
	"GEMINI_API_KEY", "GEMINI_MODEL",
}

// clearEnv isolates a test from the developer's environment and any .env file.
func clearEnv(t *testing.T) {
	t.Helper()
	chdir(t, t.TempDir())
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, AnalyzerStub, cfg.Analyzer)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, 10<<20, cfg.MaxUploadBytes)
	require.Equal(t, "gpt-4o", cfg.Vision.Model)
	require.Equal(t, "2024-02-15-preview", cfg.Vision.APIVersion)
	require.Equal(t, 30*time.Second, cfg.Vision.Timeout)
	require.Empty(t, cfg.Vision.Endpoint)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "ripeness.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
analyzer: remote
http_addr: ":9000"
vision:
  endpoint: file-host.example.com
  api_key: from-file
  timeout: 5s
  max_tokens: 300
`), 0o600))

	t.Setenv("VISION_API_KEY", "from-env")
	t.Setenv("VISION_TEMPERATURE", "0")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, AnalyzerRemote, cfg.Analyzer)
	require.Equal(t, ":9000", cfg.HTTPAddr)
	require.Equal(t, "file-host.example.com", cfg.Vision.Endpoint)
	require.Equal(t, "from-env", cfg.Vision.APIKey)
	require.Equal(t, 5*time.Second, cfg.Vision.Timeout)
	require.Equal(t, 300, cfg.Vision.MaxTokens)
	require.Zero(t, cfg.Vision.Temperature)
	// Untouched defaults survive a partial file.
	require.Equal(t, "gpt-4o", cfg.Vision.Model)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config file")

	t.Setenv("ANALYZER", "magic")
	_, err = Load("")
	require.ErrorContains(t, err, "unknown analyzer")

	t.Setenv("ANALYZER", "")
	t.Setenv("VISION_TIMEOUT", "soon")
	_, err = Load("")
	require.ErrorContains(t, err, "VISION_TIMEOUT")

	t.Setenv("VISION_TIMEOUT", "")
	t.Setenv("MAX_UPLOAD_BYTES", "-1")
	_, err = Load("")
	require.ErrorContains(t, err, "max upload bytes")

	t.Setenv("MAX_UPLOAD_BYTES", "")
	t.Setenv("VISION_MAX_TOKENS", "4294967296")
	_, err = Load("")
	require.ErrorContains(t, err, "vision max tokens")
}

func TestLoad_AnalyzerCaseInsensitive(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANALYZER", "Gemini")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, AnalyzerGemini, cfg.Analyzer)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
