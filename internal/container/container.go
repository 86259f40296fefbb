package container

import (
	"fmt"

	"ripeness-detector/config"
	app "ripeness-detector/internal/application"
	"ripeness-detector/internal/domain/port"
	"ripeness-detector/internal/infrastructure/analyzer"
	"ripeness-detector/internal/infrastructure/vision"
)

type Container struct {
	Analyzer        port.Analyzer
	AnalysisService *app.AnalysisService
	SessionService  *app.SessionService
}

// NewAnalyzer builds the analyzer selected by cfg.Analyzer. Credentials are
// not checked here; a misconfigured analyzer fails each call instead.
func NewAnalyzer(cfg *config.Config) (port.Analyzer, error) {
	switch cfg.Analyzer {
	case config.AnalyzerStub, "":
		return analyzer.NewStubAnalyzer(), nil
	case config.AnalyzerRemote:
		return analyzer.NewRemoteAnalyzer(analyzer.RemoteConfig{
			Endpoint:    cfg.Vision.Endpoint,
			APIKey:      cfg.Vision.APIKey,
			Model:       cfg.Vision.Model,
			APIVersion:  cfg.Vision.APIVersion,
			Timeout:     cfg.Vision.Timeout,
			Temperature: cfg.Vision.Temperature,
			MaxTokens:   cfg.Vision.MaxTokens,
		}), nil
	case config.AnalyzerGemini:
		return analyzer.NewGeminiAnalyzer(analyzer.GeminiConfig{
			APIKey:      cfg.Gemini.APIKey,
			Model:       cfg.Gemini.Model,
			Timeout:     cfg.Vision.Timeout,
			Temperature: cfg.Vision.Temperature,
			MaxTokens:   cfg.Vision.MaxTokens,
		}), nil
	default:
		return nil, fmt.Errorf("unknown analyzer %q", cfg.Analyzer)
	}
}

func New(cfg *config.Config, sessionRepo port.SessionRepository) (*Container, error) {
	an, err := NewAnalyzer(cfg)
	if err != nil {
		return nil, err
	}

	// The decoded grid keeps the original resolution.
	decoder := vision.NewDecoder(0)

	return &Container{
		Analyzer:        an,
		AnalysisService: app.NewAnalysisService(an, decoder, cfg.MaxUploadBytes),
		SessionService:  app.NewSessionService(sessionRepo),
	}, nil
}
