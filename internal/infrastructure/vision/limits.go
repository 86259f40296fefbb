package vision

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
)

// DefaultMaxPixels caps width*height of an accepted image (40 MP).
const DefaultMaxPixels = 40_000_000

// checkDimensions reads only the image header and rejects images whose pixel
// count exceeds maxPixels, before any pixel buffer is allocated.
func checkDimensions(data []byte, maxPixels int) error {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("decode image header: invalid size %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return fmt.Errorf("image is %dx%d pixels, limit is %d", cfg.Width, cfg.Height, maxPixels)
	}
	return nil
}
