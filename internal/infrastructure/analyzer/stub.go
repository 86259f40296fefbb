package analyzer

import (
	"context"

	"ripeness-detector/internal/domain/entity"
)

const stubAnalysis = "Sample image contains 3 bananas: 1 unripe (green), 1 ripe (yellow), and 1 overripe (with brown spots)."

// StubAnalyzer returns a fixed placeholder report for any input.
type StubAnalyzer struct{}

// NewStubAnalyzer creates the placeholder analyzer.
func NewStubAnalyzer() *StubAnalyzer {
	return &StubAnalyzer{}
}

func (a *StubAnalyzer) Name() string { return "stub" }

// Analyze ignores the image and returns a fresh copy of the sample report.
func (a *StubAnalyzer) Analyze(_ context.Context, _ *entity.ImageBuffer) (*entity.RipenessReport, error) {
	return &entity.RipenessReport{
		TotalCount:       3,
		UnripeCount:      1,
		RipeCount:        1,
		OverripeCount:    1,
		DetailedAnalysis: stubAnalysis,
	}, nil
}
