package camera

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/gallery"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/imaging"
)

// Replay plays the images of a directory, in lexical order, as a stream.
// Undecodable files are logged and skipped.
type Replay struct {
	files    []string
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	pos    int
	seq    int
	closed bool
}

// OpenReplay lists the supported images in dir. interval paces frames; zero
// delivers them as fast as they are read.
func OpenReplay(dir string, interval time.Duration, logger *slog.Logger) (*Replay, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, domain.ErrDeviceUnavailable.WithError(fmt.Errorf("replay %s: %w", dir, err))
	}

	r := &Replay{interval: interval, logger: logger}
	for _, e := range entries {
		if e.IsDir() || !gallery.IsSupported(e.Name()) {
			continue
		}
		r.files = append(r.files, filepath.Join(dir, e.Name()))
	}
	return r, nil
}

// Len is the number of files in the stream.
func (r *Replay) Len() int {
	return len(r.files)
}

func (r *Replay) Next(ctx context.Context) (Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Frame{}, ErrClosed
	}

	for r.pos < len(r.files) {
		if r.seq > 0 && r.interval > 0 {
			select {
			case <-ctx.Done():
				return Frame{}, ctx.Err()
			case <-time.After(r.interval):
			}
		}
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}

		path := r.files[r.pos]
		r.pos++

		data, err := os.ReadFile(path)
		if err == nil {
			var img image.Image
			img, _, err = imaging.Decode(data)
			if err == nil {
				r.seq++
				return Frame{Image: img, Seq: r.seq, At: time.Now(), Name: filepath.Base(path)}, nil
			}
		}
		r.logger.WarnContext(ctx, "skipping replay frame",
			slog.String("file", filepath.Base(path)),
			slog.String("error", err.Error()),
		)
	}
	return Frame{}, io.EOF
}

func (r *Replay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}
