package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"ripeness-detector/internal/domain/entity"
	applog "ripeness-detector/internal/log"
)

const (
	DefaultGeminiModel = "gemini-1.5-flash"

	opGemini = "gemini"
)

// GeminiConfig holds the Google Generative AI settings.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// GeminiAnalyzer asks a Gemini model for the ripeness report.
type GeminiAnalyzer struct {
	cfg        GeminiConfig
	clientOpts []option.ClientOption
	logger     *slog.Logger
}

// NewGeminiAnalyzer fills in defaults. Extra client options are appended after
// the API key, which lets tests point the client at another endpoint.
func NewGeminiAnalyzer(cfg GeminiConfig, opts ...option.ClientOption) *GeminiAnalyzer {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &GeminiAnalyzer{
		cfg:        cfg,
		clientOpts: opts,
		logger:     applog.With("component", "analyzer.gemini"),
	}
}

func (a *GeminiAnalyzer) Name() string { return "gemini" }

// Analyze performs one GenerateContent call with the image inline.
func (a *GeminiAnalyzer) Analyze(ctx context.Context, img *entity.ImageBuffer) (*entity.RipenessReport, error) {
	if a.cfg.APIKey == "" {
		return nil, entity.NewAnalysisError(entity.ErrConfiguration, opGemini, errors.New("api key not set"))
	}
	if img == nil || len(img.Data) == 0 {
		return nil, entity.NewAnalysisError(entity.ErrDecode, opGemini, errors.New("empty image"))
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	opts := append([]option.ClientOption{option.WithAPIKey(a.cfg.APIKey)}, a.clientOpts...)
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, entity.NewAnalysisError(entity.ErrTransport, opGemini, fmt.Errorf("create client: %w", err))
	}
	defer cl.Close()

	m := cl.GenerativeModel(a.cfg.Model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(float32(a.cfg.Temperature)),
		MaxOutputTokens:  ptrInt32(clampInt32(a.cfg.MaxTokens)),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	start := time.Now()
	resp, err := m.GenerateContent(ctx, genai.Text(userPrompt), genai.ImageData(imageFormat(img.MIME), img.Data))
	if err != nil {
		return nil, entity.NewAnalysisError(entity.ErrTransport, opGemini, err)
	}
	a.logger.Debug("generate content finished", "latency_ms", time.Since(start).Milliseconds())

	txt := firstText(resp)
	if txt == "" {
		return nil, entity.NewAnalysisError(entity.ErrParse, opGemini, errors.New("response has no text"))
	}
	report, err := decodeReport(txt)
	if err != nil {
		return nil, entity.NewAnalysisError(entity.ErrParse, opGemini, err)
	}
	return report, nil
}

// imageFormat maps a MIME type to the short format genai.ImageData expects.
func imageFormat(mime string) string {
	if mime == entity.MIMEPNG {
		return "png"
	}
	return "jpeg"
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }

func ptrInt32(v int32) *int32 { return &v }

func clampInt32(v int) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < 0 {
		return 0
	}
	return int32(v)
}
