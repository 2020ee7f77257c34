//go:build linux

package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/blackjack/webcam"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/imaging"
)

// V4L2 fourcc codes
const (
	pixFmtMJPEG webcam.PixelFormat = 0x47504A4D
	pixFmtYUYV  webcam.PixelFormat = 0x56595559
)

// Webcam streams frames from a V4L2 device.
type Webcam struct {
	cam    *webcam.Webcam
	format webcam.PixelFormat
	width  int
	height int
	cfg    WebcamConfig
	logger *slog.Logger

	mu     sync.Mutex
	seq    int
	closed bool
}

// OpenWebcam opens device, negotiates MJPEG (or YUYV when MJPEG is not
// offered) at the largest frame size within the configured bounds, and starts
// streaming. Failures are ErrDeviceUnavailable.
func OpenWebcam(device string, cfg WebcamConfig, logger *slog.Logger) (*Webcam, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	cam, err := webcam.Open(device)
	if err != nil {
		return nil, domain.ErrDeviceUnavailable.WithError(fmt.Errorf("open %s: %w", device, err))
	}

	w := &Webcam{cam: cam, cfg: cfg, logger: logger}
	if err := w.configure(); err != nil {
		_ = cam.Close()
		return nil, domain.ErrDeviceUnavailable.WithError(fmt.Errorf("configure %s: %w", device, err))
	}
	if err := cam.StartStreaming(); err != nil {
		_ = cam.Close()
		return nil, domain.ErrDeviceUnavailable.WithError(fmt.Errorf("start streaming %s: %w", device, err))
	}

	logger.Info("camera opened",
		slog.String("device", device),
		slog.String("format", formatName(w.format)),
		slog.Int("width", w.width),
		slog.Int("height", w.height),
	)
	return w, nil
}

func (w *Webcam) configure() error {
	formats := w.cam.GetSupportedFormats()

	var format webcam.PixelFormat
	switch {
	case formats[pixFmtMJPEG] != "":
		format = pixFmtMJPEG
	case formats[pixFmtYUYV] != "":
		format = pixFmtYUYV
	default:
		return errors.New("device offers neither MJPEG nor YUYV")
	}

	width, height := uint32(w.cfg.MaxWidth), uint32(w.cfg.MaxHeight)
	sizes := w.cam.GetSupportedFrameSizes(format)
	sort.Slice(sizes, func(i, j int) bool {
		return sizes[i].MaxWidth*sizes[i].MaxHeight > sizes[j].MaxWidth*sizes[j].MaxHeight
	})
	for _, s := range sizes {
		if s.MaxWidth <= width && s.MaxHeight <= height {
			width, height = s.MaxWidth, s.MaxHeight
			break
		}
	}

	f, fw, fh, err := w.cam.SetImageFormat(format, width, height)
	if err != nil {
		return err
	}
	if f != pixFmtMJPEG && f != pixFmtYUYV {
		return fmt.Errorf("device switched to unsupported format %s", formatName(f))
	}

	_ = w.cam.SetBufferCount(2)

	w.format = f
	w.width = int(fw)
	w.height = int(fh)
	return nil
}

// Next blocks until a frame is available. WaitForFrame timeouts are retried
// until ctx is done or MaxTimeouts is reached.
func (w *Webcam) Next(ctx context.Context) (Frame, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return Frame{}, ErrClosed
	}

	timeouts := 0
	for {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}

		err := w.cam.WaitForFrame(uint32(w.cfg.FrameTimeout / time.Second))
		var timeout *webcam.Timeout
		switch {
		case err == nil:
		case errors.As(err, &timeout):
			timeouts++
			if timeouts >= w.cfg.MaxTimeouts {
				return Frame{}, domain.ErrDeviceUnavailable.WithError(fmt.Errorf("no frame after %d timeouts", timeouts))
			}
			continue
		default:
			return Frame{}, domain.ErrDeviceUnavailable.WithError(err)
		}

		raw, err := w.cam.ReadFrame()
		if err != nil {
			return Frame{}, domain.ErrDeviceUnavailable.WithError(err)
		}
		if len(raw) == 0 {
			continue
		}

		img, err := w.decode(raw)
		if err != nil {
			w.logger.WarnContext(ctx, "dropping undecodable frame", slog.String("error", err.Error()))
			continue
		}

		w.seq++
		return Frame{Image: img, Seq: w.seq, At: time.Now()}, nil
	}
}

// decode copies out of the driver buffer, which is reused on the next read
func (w *Webcam) decode(raw []byte) (image.Image, error) {
	if w.format == pixFmtYUYV {
		return imaging.FromYUYV(raw, w.width, w.height)
	}
	buf := make([]byte, len(raw))
	copy(buf, raw)
	img, _, err := imaging.Decode(buf)
	return img, err
}

// Close stops streaming and releases the device.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	stopErr := w.cam.StopStreaming()
	closeErr := w.cam.Close()
	w.logger.Info("camera released")
	return errors.Join(stopErr, closeErr)
}

func formatName(f webcam.PixelFormat) string {
	switch f {
	case pixFmtMJPEG:
		return "MJPEG"
	case pixFmtYUYV:
		return "YUYV"
	default:
		return fmt.Sprintf("0x%08x", uint32(f))
	}
}
