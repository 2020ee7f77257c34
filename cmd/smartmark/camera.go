package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/attendance"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/camera"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/config"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/recognition"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/session"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/timetable"
)

var cameraCmd = &cobra.Command{
	Use:   "camera",
	Short: "Recognize faces from the webcam and mark attendance",
	Long: `Stream frames from a V4L2 webcam (or a directory of images with --replay),
match every face against the reference gallery and mark attendance once per
student for the subject.

The subject defaults to the timetable slot running now. The run ends on
Ctrl+C, at the end of a replay, on a device error or, with --stop-on-match,
after the first recognized face.

Examples:
  # Take attendance for a whole class
  smartmark camera --subject Mathematics

  # Mark a single student and stop once they are seen
  smartmark camera --subject Physics --student 2021001 --stop-on-match

  # Replay recorded frames
  smartmark camera --subject Physics --replay ./frames --interval 200ms`,
	Args: cobra.NoArgs,
	RunE: runCamera,
}

func init() {
	rootCmd.AddCommand(cameraCmd)

	cameraCmd.Flags().String("subject", "", "Subject to record attendance for (default: current timetable slot)")
	cameraCmd.Flags().String("student", "", "Only record attendance for this student id")
	cameraCmd.Flags().String("device", "", "Video device (default: CAMERA_DEVICE)")
	cameraCmd.Flags().String("replay", "", "Read frames from image files in this directory instead of a device")
	cameraCmd.Flags().Duration("interval", 0, "Delay between replayed frames")
	cameraCmd.Flags().Bool("stop-on-match", false, "Stop after the first frame with a recognized face")
}

func runCamera(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	rt, err := newRuntime(cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	subject, err := resolveSubject(mustGetString(cmd, "subject"), rt.cfg.TimetablePath, time.Now())
	if err != nil {
		return err
	}

	src, err := openSource(cmd, rt.cfg, rt.logger)
	if err != nil {
		return err
	}

	client := attendance.NewClient(attendance.Config{
		BaseURL: rt.cfg.AttendanceAPIURL,
		Timeout: rt.cfg.AttendanceTimeout,
		Secret:  rt.cfg.AttendanceSecret,
	})
	workflow := attendance.NewWorkflow(session.NewTracker(), client, subject,
		attendance.WithAuditLogger(rt.audit),
		attendance.WithLogger(rt.logger),
	)

	jsonOutput := mustGetBool(cmd, "json")
	opts := []recognition.Option{recognition.WithLogger(rt.logger)}
	if mustGetBool(cmd, "stop-on-match") {
		opts = append(opts, recognition.WithStopOnMatch())
	}
	if student := strings.TrimSpace(mustGetString(cmd, "student")); student != "" {
		opts = append(opts, recognition.WithExpected(domain.Identity(student)))
	}
	if !jsonOutput {
		out := cmd.OutOrStdout()
		opts = append(opts, recognition.WithFrameCallback(func(fr recognition.FrameResult) {
			printFrame(out, fr)
		}))
	}

	rt.logger.Info("camera started",
		slog.String("subject", subject),
		slog.Int("gallery_size", rt.store.Current().Len()),
	)

	summary, err := recognition.NewRunner(rt.matcher, workflow, opts...).Run(ctx, src)
	if jsonOutput {
		if werr := writeJSON(cmd.OutOrStdout(), summary); werr != nil {
			return werr
		}
	} else {
		printSummary(cmd.OutOrStdout(), subject, summary)
	}
	return err
}

// resolveSubject returns subject, or the class running at now according to
// the timetable file when subject is empty.
func resolveSubject(subject, timetablePath string, now time.Time) (string, error) {
	if s := strings.TrimSpace(subject); s != "" {
		return s, nil
	}
	if timetablePath == "" {
		return "", errors.New("--subject is required when TIMETABLE_PATH is unset")
	}
	tt, err := timetable.Load(timetablePath)
	if err != nil {
		return "", fmt.Errorf("--subject not given and timetable unavailable: %w", err)
	}
	slot, ok := tt.At(now)
	if !ok {
		return "", fmt.Errorf("--subject not given and no class is scheduled for %s %s",
			now.Weekday(), now.Format("15:04"))
	}
	return slot.Subject, nil
}

// openSource opens the --replay directory or the webcam. Commands calling it
// register the device, replay and interval flags.
func openSource(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (camera.Source, error) {
	if dir := mustGetString(cmd, "replay"); dir != "" {
		return camera.OpenReplay(dir, mustGetDuration(cmd, "interval"), logger)
	}

	device := mustGetString(cmd, "device")
	if device == "" {
		device = cfg.CameraDevice
	}
	return camera.OpenWebcam(device, camera.DefaultWebcamConfig(), logger)
}

func printFrame(w io.Writer, fr recognition.FrameResult) {
	for _, m := range fr.Matches {
		if !m.Known() {
			continue
		}
		fmt.Fprintf(w, "frame %d: %s (distance %.3f)\n", fr.Frame.Seq, m.Identity, m.Distance)
	}
	for _, e := range fr.Events {
		if e.Marked {
			fmt.Fprintf(w, "  marked %s for %s: %s\n", e.Identity, e.Subject, e.Message)
		} else {
			fmt.Fprintf(w, "  failed to mark %s for %s: %s\n", e.Identity, e.Subject, e.Error)
		}
	}
}

func printSummary(out io.Writer, subject string, s recognition.Summary) {
	fmt.Fprintf(out, "\nSubject: %s\n", subject)
	fmt.Fprintf(out, "Frames: %d (%d skipped), stopped: %s\n", s.Frames, s.Skipped, s.Reason)

	if len(s.Events) == 0 {
		fmt.Fprintln(out, "No attendance recorded.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STUDENT\tMARKED\tDETAIL")
	for _, e := range s.Events {
		detail := e.Message
		if !e.Marked {
			detail = e.Error
		}
		fmt.Fprintf(w, "%s\t%t\t%s\n", e.Identity, e.Marked, detail)
	}
	_ = w.Flush()
}
