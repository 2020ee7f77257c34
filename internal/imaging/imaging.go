package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"math"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
)

// jpegQuality is used for every frame handed to a face provider
const jpegQuality = 90

var ErrEmptyImage = errors.New("image has zero area")

// Decode reads a JPEG, PNG, BMP or WebP image.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", domain.ErrInvalidImage.WithError(errors.New("empty payload"))
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", domain.ErrInvalidImage.WithError(err)
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, "", domain.ErrInvalidImage.WithError(ErrEmptyImage)
	}

	return img, format, nil
}

// Scale resizes img by factor on both axes. A factor of 1 returns img as is.
func Scale(img image.Image, factor float64) (image.Image, error) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return nil, fmt.Errorf("scale factor must be positive, got %v", factor)
	}
	if factor == 1 {
		return img, nil
	}

	b := img.Bounds()
	w := uint(math.Max(1, math.Round(float64(b.Dx())*factor)))
	h := uint(math.Max(1, math.Round(float64(b.Dy())*factor)))

	return resize.Resize(w, h, img, resize.Bilinear), nil
}

// Fit shrinks img to fit within maxSize on its longest side, keeping the
// aspect ratio. Smaller images are returned unchanged.
func Fit(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if maxSize <= 0 || (width <= maxSize && height <= maxSize) {
		return img
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = maxSize
		newHeight = int(float64(height) * float64(maxSize) / float64(width))
	} else {
		newHeight = maxSize
		newWidth = int(float64(width) * float64(maxSize) / float64(height))
	}

	dst := image.NewRGBA(image.Rect(0, 0, max(newWidth, 1), max(newHeight, 1)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// EncodeJPEG serializes img so every provider receives the same format.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Normalize decodes data and re-encodes it as JPEG, shrinking it to maxSize
// when maxSize is positive.
func Normalize(data []byte, maxSize int) ([]byte, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return EncodeJPEG(Fit(img, maxSize))
}
