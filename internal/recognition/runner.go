// Package recognition drives the live loop: frames from a camera source are
// matched against the gallery and fed to the attendance workflow, one frame at
// a time.
package recognition

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/attendance"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/camera"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
)

// FrameMatcher matches the faces of one decoded frame.
type FrameMatcher interface {
	MatchImage(ctx context.Context, img image.Image) ([]domain.MatchResult, error)
}

// Processor records attendance for match results.
type Processor interface {
	Process(ctx context.Context, results []domain.MatchResult) []attendance.Event
}

// StopReason says why Run returned.
type StopReason string

const (
	StopEndOfStream StopReason = "end_of_stream"
	StopCancelled   StopReason = "cancelled"
	StopMatched     StopReason = "matched"
	StopError       StopReason = "error"
)

// FrameResult is passed to the frame callback after each processed frame.
type FrameResult struct {
	Frame   camera.Frame
	Matches []domain.MatchResult
	Events  []attendance.Event
}

// Summary describes a finished run.
type Summary struct {
	Frames     int                `json:"frames"`
	Skipped    int                `json:"skipped"`
	Recognized []domain.Identity  `json:"recognized"`
	Events     []attendance.Event `json:"events"`
	Reason     StopReason         `json:"reason"`
}

type Runner struct {
	matcher     FrameMatcher
	processor   Processor
	logger      *slog.Logger
	stopOnMatch bool
	expected    domain.Identity
	onFrame     func(FrameResult)
}

type Option func(*Runner)

// WithStopOnMatch ends the run after the first frame with a known face.
func WithStopOnMatch() Option {
	return func(r *Runner) { r.stopOnMatch = true }
}

// WithExpected restricts attendance to identity; other known faces are
// reported but not recorded.
func WithExpected(identity domain.Identity) Option {
	return func(r *Runner) { r.expected = identity }
}

func WithFrameCallback(fn func(FrameResult)) Option {
	return func(r *Runner) { r.onFrame = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

func NewRunner(m FrameMatcher, p Processor, opts ...Option) *Runner {
	r := &Runner{
		matcher:   m,
		processor: p,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads src until the stream ends, ctx is cancelled, a match stops it,
// or a device, configuration or provider error occurs. src is closed before
// Run returns. Frames that fail to decode are skipped.
func (r *Runner) Run(ctx context.Context, src camera.Source) (summary Summary, err error) {
	defer func() {
		if cerr := src.Close(); cerr != nil {
			r.logger.WarnContext(ctx, "closing camera source", slog.String("error", cerr.Error()))
			if err == nil {
				err = domain.ErrDeviceUnavailable.WithError(cerr)
			}
		}
	}()

	seen := make(map[domain.Identity]struct{})
	for {
		frame, err := src.Next(ctx)
		switch {
		case err == nil:
		case camera.IsEndOfStream(err):
			summary.Reason = StopEndOfStream
			return summary, nil
		case ctx.Err() != nil:
			summary.Reason = StopCancelled
			return summary, nil
		default:
			summary.Reason = StopError
			return summary, fmt.Errorf("read frame: %w", err)
		}

		summary.Frames++
		matches, err := r.matcher.MatchImage(ctx, frame.Image)
		if err != nil {
			if ctx.Err() != nil {
				summary.Reason = StopCancelled
				return summary, nil
			}
			if errors.Is(err, domain.ErrInvalidImage) {
				summary.Skipped++
				r.logger.WarnContext(ctx, "skipping frame",
					slog.Int("seq", frame.Seq),
					slog.String("stage", "decode"),
					slog.String("error", err.Error()),
				)
				continue
			}
			summary.Reason = StopError
			return summary, fmt.Errorf("match frame %d: %w", frame.Seq, err)
		}

		known := false
		for _, m := range matches {
			if !m.Known() {
				continue
			}
			known = true
			if _, ok := seen[m.Identity]; !ok {
				seen[m.Identity] = struct{}{}
				summary.Recognized = append(summary.Recognized, m.Identity)
			}
		}

		events := r.processor.Process(ctx, r.filter(ctx, matches))
		summary.Events = append(summary.Events, events...)

		if r.onFrame != nil {
			r.onFrame(FrameResult{Frame: frame, Matches: matches, Events: events})
		}

		if known && r.stopOnMatch && (r.expected == "" || r.sawExpected(matches)) {
			summary.Reason = StopMatched
			return summary, nil
		}
	}
}

func (r *Runner) filter(ctx context.Context, matches []domain.MatchResult) []domain.MatchResult {
	if r.expected == "" {
		return matches
	}
	out := make([]domain.MatchResult, 0, len(matches))
	for _, m := range matches {
		if m.Known() && m.Identity != r.expected {
			r.logger.InfoContext(ctx, "ignoring face of another student",
				slog.String("identity", m.Identity.String()),
				slog.String("expected", r.expected.String()),
			)
			continue
		}
		out = append(out, m)
	}
	return out
}

func (r *Runner) sawExpected(matches []domain.MatchResult) bool {
	for _, m := range matches {
		if m.Identity == r.expected {
			return true
		}
	}
	return false
}
