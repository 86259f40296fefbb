package port

import (
	"context"

	"ripeness-detector/internal/domain/entity"
)

// Analyzer turns an acquired image into a ripeness report.
type Analyzer interface {
	// Name identifies the implementation in logs and responses
	Name() string

	// Analyze classifies the bananas in the image. On failure the report is nil
	// and the error wraps one of the entity error kinds.
	Analyze(ctx context.Context, img *entity.ImageBuffer) (*entity.RipenessReport, error)
}
