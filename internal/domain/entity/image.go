package entity

import (
	"bytes"
	"encoding/base64"
)

// Origin says where an image came from.
type Origin string

const (
	OriginCamera Origin = "camera" // live camera capture
	OriginUpload Origin = "upload" // file picker
)

// Supported encoded image types.
const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
)

// Channels is the number of bytes per pixel in a PixelGrid (B, G, R).
const Channels = 3

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
)

// Upload is one candidate input of an interaction. Empty Data means the
// control was left unused.
type Upload struct {
	Origin      Origin
	Filename    string
	ContentType string
	Data        []byte
}

// Present reports whether the upload carries any bytes.
func (u Upload) Present() bool {
	return len(u.Data) > 0
}

// PixelGrid is a decoded image: Height rows of Width pixels, 3 bytes per
// pixel in BGR order.
type PixelGrid struct {
	Width  int
	Height int
	Pix    []byte
}

// Valid reports whether the grid dimensions match the pixel buffer.
func (g PixelGrid) Valid() bool {
	return g.Width > 0 && g.Height > 0 && len(g.Pix) == g.Width*g.Height*Channels
}

// At returns the BGR triple at (x, y).
func (g PixelGrid) At(x, y int) (b, gr, r uint8) {
	i := (y*g.Width + x) * Channels
	return g.Pix[i], g.Pix[i+1], g.Pix[i+2]
}

// ImageBuffer is an acquired photo: its original encoded bytes and the
// decoded pixel grid. Created once per interaction.
type ImageBuffer struct {
	Origin   Origin
	Filename string
	MIME     string
	Data     []byte
	Pixels   PixelGrid
}

// Base64 returns the original bytes in standard base64.
func (b *ImageBuffer) Base64() string {
	return base64.StdEncoding.EncodeToString(b.Data)
}

// DataURL embeds the original bytes as a data URL. An unknown MIME type is
// sent as JPEG.
func (b *ImageBuffer) DataURL() string {
	mime := b.MIME
	if mime == "" {
		mime = MIMEJPEG
	}
	return "data:" + mime + ";base64," + b.Base64()
}

// DetectImageType sniffs JPEG or PNG magic bytes. Any other content is
// reported as unsupported.
func DetectImageType(data []byte) (string, bool) {
	switch {
	case bytes.HasPrefix(data, jpegMagic):
		return MIMEJPEG, true
	case bytes.HasPrefix(data, pngMagic):
		return MIMEPNG, true
	default:
		return "", false
	}
}
