//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"ripeness-detector/internal/domain/entity"
)

// Decoder decodes images with OpenCV.
type Decoder struct {
	// MaxSide bounds the longer edge of the decoded grid; 0 keeps the original size.
	MaxSide int
	// MaxPixels bounds width*height of the encoded image; 0 means DefaultMaxPixels.
	MaxPixels int
}

// NewDecoder creates an OpenCV-backed decoder.
func NewDecoder(maxSide int) *Decoder {
	return &Decoder{MaxSide: maxSide}
}

// Decode turns JPEG/PNG bytes into a BGR grid, which is OpenCV's native order.
func (d *Decoder) Decode(data []byte) (entity.PixelGrid, error) {
	if err := checkDimensions(data, d.MaxPixels); err != nil {
		return entity.PixelGrid{}, err
	}

	mat, err := decodeToMat(data)
	if err != nil {
		return entity.PixelGrid{}, err
	}
	defer mat.Close()

	if mat.Channels() != entity.Channels {
		return entity.PixelGrid{}, fmt.Errorf("decode image: expected %d channels, got %d", entity.Channels, mat.Channels())
	}

	if d.MaxSide > 0 && (mat.Cols() > d.MaxSide || mat.Rows() > d.MaxSide) {
		w, h := fitWithin(mat.Cols(), mat.Rows(), d.MaxSide)
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(mat, &resized, image.Pt(w, h), 0, 0, gocv.InterpolationArea)
		return matToGrid(resized), nil
	}

	return matToGrid(mat), nil
}

// decodeToMat turns image bytes into a gocv.Mat.
func decodeToMat(data []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	mat.Close()
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("decode image: %w", err)
	}
	return gocv.NewMat(), errors.New("decode image: unreadable image data")
}

func matToGrid(mat gocv.Mat) entity.PixelGrid {
	return entity.PixelGrid{
		Width:  mat.Cols(),
		Height: mat.Rows(),
		Pix:    mat.ToBytes(),
	}
}
