// Package avatar turns uploaded profile pictures into square-bounded PNG
// thumbnails.
package avatar

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	"image/png"
	"io"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder
)

// ContentType of every processed avatar.
const ContentType = "image/png"

// Defaults used when callers pass zero limits.
const (
	DefaultMaxBytes = 5 << 20
	DefaultSize     = 256
)

// MaxPixels bounds the decoded image area. The header is checked before
// the pixel buffer is allocated.
const MaxPixels = 40_000_000

// Sentinel kinds for avatar errors.
var (
	ErrTooLarge = errors.New("avatar too large")
	ErrNotImage = errors.New("file is not a supported image")
)

// Process reads at most maxBytes from r, rejects images over MaxPixels,
// decodes it as png, jpeg, gif or webp, scales it to fit within size x size preserving aspect ratio and
// returns the PNG encoding. Images already within bounds are re-encoded
// without scaling.
func Process(r io.Reader, maxBytes int64, size int) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if size <= 0 {
		size = DefaultSize
	}

	raw, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read avatar: %w", err)
	}
	if int64(len(raw)) > maxBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, maxBytes)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrNotImage)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, cfg.Width, cfg.Height, MaxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	dst := scale(src, size)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}

// Fit returns the dimensions of a w x h image scaled to fit within
// size x size. Dimensions never drop below 1.
func Fit(w, h, size int) (int, int) {
	if w <= size && h <= size {
		return w, h
	}
	if w >= h {
		nh := h * size / w
		return size, max(nh, 1)
	}
	nw := w * size / h
	return max(nw, 1), size
}

func scale(src image.Image, size int) image.Image {
	b := src.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), size)
	if w == b.Dx() && h == b.Dy() {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
