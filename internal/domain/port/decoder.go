package port

import "ripeness-detector/internal/domain/entity"

// ImageDecoder decodes JPEG/PNG bytes into a BGR pixel grid.
type ImageDecoder interface {
	Decode(data []byte) (entity.PixelGrid, error)
}
