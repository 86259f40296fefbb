//go:build !gocv
// +build !gocv

package vision

import (
	"bytes"
	"fmt"
	"image"

	"ripeness-detector/internal/domain/entity"
)

// Decoder decodes images with the pure-Go image codecs when the build runs
// without the gocv tag.
type Decoder struct {
	// MaxSide bounds the longer edge of the decoded grid; 0 keeps the original size.
	MaxSide int
	// MaxPixels bounds width*height of the encoded image; 0 means DefaultMaxPixels.
	MaxPixels int
}

// NewDecoder creates a decoder that needs no OpenCV installation.
func NewDecoder(maxSide int) *Decoder {
	return &Decoder{MaxSide: maxSide}
}

// Decode turns JPEG/PNG bytes into a BGR grid.
func (d *Decoder) Decode(data []byte) (entity.PixelGrid, error) {
	if err := checkDimensions(data, d.MaxPixels); err != nil {
		return entity.PixelGrid{}, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return entity.PixelGrid{}, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return entity.PixelGrid{}, fmt.Errorf("decode image: empty image")
	}

	w, h := srcW, srcH
	if d.MaxSide > 0 && (srcW > d.MaxSide || srcH > d.MaxSide) {
		w, h = fitWithin(srcW, srcH, d.MaxSide)
	}

	// Nearest-neighbour sampling; identity when no resize is needed.
	pix := make([]byte, w*h*entity.Channels)
	i := 0
	for y := 0; y < h; y++ {
		sy := bounds.Min.Y + y*srcH/h
		for x := 0; x < w; x++ {
			sx := bounds.Min.X + x*srcW/w
			r, g, b, _ := img.At(sx, sy).RGBA()
			pix[i] = uint8(b >> 8)
			pix[i+1] = uint8(g >> 8)
			pix[i+2] = uint8(r >> 8)
			i += entity.Channels
		}
	}

	return entity.PixelGrid{Width: w, Height: h, Pix: pix}, nil
}
