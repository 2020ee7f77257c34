// Package camera produces frames for the recognition loop from a V4L2 device
// or from a directory of still images.
package camera

import (
	"context"
	"errors"
	"image"
	"io"
	"time"
)

// Frame is one captured image.
type Frame struct {
	Image image.Image
	Seq   int
	At    time.Time
	// Name is the file name for replayed frames
	Name string
}

// Source yields frames until it returns io.EOF. Close releases the device
// and must be called on every exit path; calling it twice is allowed.
type Source interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}

var ErrClosed = errors.New("camera: source closed")

// IsEndOfStream reports whether err ends a stream normally.
func IsEndOfStream(err error) bool {
	return errors.Is(err, io.EOF)
}
