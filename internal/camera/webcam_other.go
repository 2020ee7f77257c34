//go:build !linux

package camera

import (
	"context"
	"errors"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
)

// Webcam capture needs V4L2 and is only available on Linux.
type Webcam struct{}

func OpenWebcam(device string, _ WebcamConfig, _ *slog.Logger) (*Webcam, error) {
	return nil, domain.ErrDeviceUnavailable.WithError(errors.New("webcam capture requires linux (v4l2): " + device))
}

func (w *Webcam) Next(context.Context) (Frame, error) {
	return Frame{}, ErrClosed
}

func (w *Webcam) Close() error {
	return nil
}
