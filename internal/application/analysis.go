package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ripeness-detector/internal/domain/entity"
	"ripeness-detector/internal/domain/port"
	applog "ripeness-detector/internal/log"
)

// DefaultMaxImageBytes bounds a single acquired image.
const DefaultMaxImageBytes = 10 << 20

// AnalysisService runs one interaction: pick the image, decode it, analyze it.
type AnalysisService struct {
	analyzer port.Analyzer
	decoder  port.ImageDecoder
	maxBytes int
	logger   *slog.Logger
}

// AnalysisOutput is the result of Process. RequestID is always set; the other
// fields are filled as far as the interaction got.
type AnalysisOutput struct {
	RequestID string
	Analyzer  string
	Image     *entity.ImageBuffer
	Report    *entity.RipenessReport
	Duration  time.Duration
}

// NewAnalysisService creates the service. maxBytes <= 0 selects DefaultMaxImageBytes.
func NewAnalysisService(analyzer port.Analyzer, decoder port.ImageDecoder, maxBytes int) *AnalysisService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &AnalysisService{
		analyzer: analyzer,
		decoder:  decoder,
		maxBytes: maxBytes,
		logger:   applog.With("component", "analysis"),
	}
}

// AnalyzerName returns the configured analyzer's name.
func (s *AnalysisService) AnalyzerName() string {
	if s.analyzer == nil {
		return ""
	}
	return s.analyzer.Name()
}

// SelectUpload picks the upload to analyze. A camera capture always wins over
// a file upload; otherwise the first present candidate is used.
func SelectUpload(candidates ...entity.Upload) (entity.Upload, bool) {
	for _, c := range candidates {
		if c.Origin == entity.OriginCamera && c.Present() {
			return c, true
		}
	}
	for _, c := range candidates {
		if c.Present() {
			return c, true
		}
	}
	return entity.Upload{}, false
}

// Acquire selects and decodes the image of an interaction. It returns
// entity.ErrNoImage when nothing was provided and a decode error for
// oversized, unsupported or corrupt content.
func (s *AnalysisService) Acquire(_ context.Context, candidates ...entity.Upload) (*entity.ImageBuffer, error) {
	up, ok := SelectUpload(candidates...)
	if !ok {
		return nil, entity.ErrNoImage
	}

	if len(up.Data) > s.maxBytes {
		return nil, entity.NewAnalysisError(entity.ErrDecode, "acquire",
			fmt.Errorf("image is %d bytes, limit is %d", len(up.Data), s.maxBytes))
	}

	mime, ok := entity.DetectImageType(up.Data)
	if !ok {
		return nil, entity.NewAnalysisError(entity.ErrDecode, "acquire",
			errors.New("unsupported image type, only JPEG and PNG are accepted"))
	}

	if s.decoder == nil {
		return nil, errors.New("decoder is not configured")
	}
	pixels, err := s.decoder.Decode(up.Data)
	if err != nil {
		return nil, entity.NewAnalysisError(entity.ErrDecode, "acquire", err)
	}

	data := make([]byte, len(up.Data))
	copy(data, up.Data)

	return &entity.ImageBuffer{
		Origin:   up.Origin,
		Filename: up.Filename,
		MIME:     mime,
		Data:     data,
		Pixels:   pixels,
	}, nil
}

// Analyze runs the configured analyzer once.
func (s *AnalysisService) Analyze(ctx context.Context, img *entity.ImageBuffer) (*entity.RipenessReport, error) {
	if s.analyzer == nil {
		return nil, errors.New("analyzer is not configured")
	}
	if img == nil {
		return nil, entity.ErrNoImage
	}
	return s.analyzer.Analyze(ctx, img)
}

// Process acquires and analyzes in one step. An empty requestID is replaced
// by a fresh UUID. The returned output is never nil.
func (s *AnalysisService) Process(ctx context.Context, requestID string, candidates ...entity.Upload) (*AnalysisOutput, error) {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	out := &AnalysisOutput{RequestID: requestID, Analyzer: s.AnalyzerName()}
	logger := s.logger.With("request_id", requestID, "analyzer", out.Analyzer)

	start := time.Now()
	defer func() { out.Duration = time.Since(start) }()

	img, err := s.Acquire(ctx, candidates...)
	if err != nil {
		logger.Warn("acquire failed", "kind", entity.KindOf(err), "error", err)
		return out, err
	}
	out.Image = img

	report, err := s.Analyze(ctx, img)
	if err != nil {
		logger.Error("analysis failed",
			"kind", entity.KindOf(err),
			"source", img.Origin,
			"error", err,
		)
		return out, err
	}
	out.Report = report

	logger.Info("analysis complete",
		"source", img.Origin,
		"width", img.Pixels.Width,
		"height", img.Pixels.Height,
		"total", report.TotalCount,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
