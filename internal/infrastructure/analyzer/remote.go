package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ripeness-detector/internal/domain/entity"
	applog "ripeness-detector/internal/log"
)

const (
	DefaultModel      = "gpt-4o"
	DefaultAPIVersion = "2024-02-15-preview"
	DefaultTimeout    = 30 * time.Second
	DefaultMaxTokens  = 800

	opRemote         = "remote"
	maxResponseBytes = 1 << 20
	maxErrorBody     = 512
)

// RemoteConfig holds the connection settings of the chat-completions API.
type RemoteConfig struct {
	Endpoint    string
	APIKey      string
	Model       string
	APIVersion  string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// RemoteAnalyzer forwards the image to an Azure-OpenAI style deployment and
// relays the model's JSON answer.
type RemoteAnalyzer struct {
	cfg    RemoteConfig
	http   *http.Client
	logger *slog.Logger
}

// RemoteOption customizes a RemoteAnalyzer.
type RemoteOption func(*RemoteAnalyzer)

// WithHTTPClient replaces the HTTP client. Its Timeout is left as given.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(a *RemoteAnalyzer) { a.http = c }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) RemoteOption {
	return func(a *RemoteAnalyzer) { a.logger = l }
}

// NewRemoteAnalyzer fills in defaults for model, version, timeout and sampling.
// Missing endpoint or key is reported by Analyze, not here.
func NewRemoteAnalyzer(cfg RemoteConfig, opts ...RemoteOption) *RemoteAnalyzer {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if strings.TrimSpace(cfg.APIVersion) == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	a := &RemoteAnalyzer{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: applog.With("component", "analyzer.remote"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *RemoteAnalyzer) Name() string { return "remote" }

// NormalizeEndpoint adds an https scheme when none is given and strips
// trailing slashes.
func NormalizeEndpoint(raw string) string {
	ep := strings.TrimSpace(raw)
	if ep == "" {
		return ""
	}
	lower := strings.ToLower(ep)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		ep = "https://" + ep
	}
	return strings.TrimRight(ep, "/")
}

// RequestURL builds {endpoint}/openai/deployments/{model}/chat/completions?api-version={version}.
func (a *RemoteAnalyzer) RequestURL() (string, error) {
	if err := a.checkConfig(); err != nil {
		return "", err
	}
	base, err := url.Parse(NormalizeEndpoint(a.cfg.Endpoint))
	if err != nil || base.Host == "" {
		return "", entity.NewAnalysisError(entity.ErrConfiguration, opRemote,
			fmt.Errorf("invalid endpoint %q", a.cfg.Endpoint))
	}
	base = base.JoinPath("openai", "deployments", a.cfg.Model, "chat", "completions")
	q := base.Query()
	q.Set("api-version", a.cfg.APIVersion)
	base.RawQuery = q.Encode()
	return base.String(), nil
}

func (a *RemoteAnalyzer) checkConfig() error {
	var missing []string
	if strings.TrimSpace(a.cfg.Endpoint) == "" {
		missing = append(missing, "endpoint")
	}
	if strings.TrimSpace(a.cfg.APIKey) == "" {
		missing = append(missing, "api key")
	}
	if len(missing) > 0 {
		return entity.NewAnalysisError(entity.ErrConfiguration, opRemote,
			fmt.Errorf("%s not set", strings.Join(missing, " and ")))
	}
	return nil
}

// Analyze performs exactly one chat-completions call. Every failure returns a
// nil report.
func (a *RemoteAnalyzer) Analyze(ctx context.Context, img *entity.ImageBuffer) (*entity.RipenessReport, error) {
	reqURL, err := a.RequestURL()
	if err != nil {
		return nil, err
	}
	if img == nil || len(img.Data) == 0 {
		return nil, entity.NewAnalysisError(entity.ErrDecode, opRemote, errors.New("empty image"))
	}

	payload, err := json.Marshal(a.buildRequest(img))
	if err != nil {
		return nil, entity.NewAnalysisError(entity.ErrParse, opRemote, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, entity.NewAnalysisError(entity.ErrConfiguration, opRemote, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", a.cfg.APIKey)

	start := time.Now()
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, entity.NewAnalysisError(entity.ErrTransport, opRemote, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, entity.NewAnalysisError(entity.ErrTransport, opRemote, fmt.Errorf("read response: %w", err))
	}

	a.logger.Debug("chat completion finished",
		"status", resp.StatusCode,
		"bytes", len(body),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &entity.AnalysisError{
			Kind:       entity.ErrProtocol,
			Op:         opRemote,
			StatusCode: resp.StatusCode,
			Err:        errors.New(truncate(string(body), maxErrorBody)),
		}
	}

	content, err := decodeEnvelope(body)
	if err != nil {
		return nil, entity.NewAnalysisError(entity.ErrParse, opRemote, err)
	}
	report, err := decodeReport(content)
	if err != nil {
		return nil, entity.NewAnalysisError(entity.ErrParse, opRemote, err)
	}
	return report, nil
}

type chatRequest struct {
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

func (a *RemoteAnalyzer) buildRequest(img *entity.ImageBuffer) chatRequest {
	return chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: userPrompt},
				{Type: "image_url", ImageURL: &imageURL{URL: img.DataURL(), Detail: "high"}},
			}},
		},
		Temperature:    a.cfg.Temperature,
		MaxTokens:      a.cfg.MaxTokens,
		ResponseFormat: responseFormat{Type: "json_object"},
	}
}
