package handler

import (
	"errors"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
)

const (
	maxImageSize = 10 * 1024 * 1024 // 10MB
	maxImages    = 16
)

var validImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// extractImage reads the single "image" file of a multipart form
func extractImage(c *fiber.Ctx) ([]byte, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return nil, domain.ErrValidationFailed.WithError(errors.New("image is required"))
	}
	return readImage(file)
}

// extractImages reads every "image" file of a multipart form
func extractImages(c *fiber.Ctx) ([][]byte, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, domain.ErrValidationFailed.WithError(err)
	}

	files := form.File["image"]
	if len(files) == 0 {
		return nil, domain.ErrValidationFailed.WithError(errors.New("image is required"))
	}
	if len(files) > maxImages {
		return nil, domain.ErrValidationFailed.WithError(errors.New("too many images"))
	}

	images := make([][]byte, 0, len(files))
	for _, fh := range files {
		data, err := readImage(fh)
		if err != nil {
			return nil, err
		}
		images = append(images, data)
	}
	return images, nil
}

func readImage(file *multipart.FileHeader) ([]byte, error) {
	if file.Size == 0 || file.Size > maxImageSize {
		return nil, domain.ErrInvalidImage.WithError(errors.New("image size out of range"))
	}

	// Content-Type is advisory; the decoder has the final word
	if ct := file.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" && !validImageTypes[ct] {
		return nil, domain.ErrInvalidImage.WithError(errors.New("unsupported content type " + ct))
	}

	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	return data, nil
}
