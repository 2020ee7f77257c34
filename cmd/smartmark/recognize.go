package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/attendance"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/session"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize FILE...",
	Short: "Recognize the faces in still images",
	Long: `Detect every face in each image and match it against the reference gallery.

With --subject, recognized students are also marked present, once each.

Examples:
  smartmark recognize class.jpg
  smartmark recognize --subject Chemistry shots/*.jpg --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().String("subject", "", "Mark recognized students present for this subject")
}

// FileResult is the outcome for one input image
type FileResult struct {
	File    string               `json:"file"`
	Faces   []domain.MatchResult `json:"faces"`
	Events  []attendance.Event   `json:"attendance,omitempty"`
	Error   string               `json:"error,omitempty"`
	failed  bool
}

func runRecognize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rt, err := newRuntime(cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	var workflow *attendance.Workflow
	if subject := strings.TrimSpace(mustGetString(cmd, "subject")); subject != "" {
		client := attendance.NewClient(attendance.Config{
			BaseURL: rt.cfg.AttendanceAPIURL,
			Timeout: rt.cfg.AttendanceTimeout,
			Secret:  rt.cfg.AttendanceSecret,
		})
		workflow = attendance.NewWorkflow(session.NewTracker(), client, subject,
			attendance.WithAuditLogger(rt.audit),
			attendance.WithLogger(rt.logger),
		)
	}

	results := make([]FileResult, 0, len(args))
	for _, path := range args {
		res := FileResult{File: path, Faces: []domain.MatchResult{}}

		data, err := os.ReadFile(path)
		if err != nil {
			res.Error, res.failed = err.Error(), true
			results = append(results, res)
			continue
		}

		matches, err := rt.matcher.DetectAndMatch(ctx, data)
		switch {
		case errors.Is(err, domain.ErrInvalidImage):
			res.Error, res.failed = err.Error(), true
			results = append(results, res)
			continue
		case err != nil:
			return fmt.Errorf("recognize %s: %w", path, err)
		}

		res.Faces = matches
		if workflow != nil {
			res.Events = workflow.Process(ctx, matches)
		}
		results = append(results, res)
	}

	if mustGetBool(cmd, "json") {
		if err := writeJSON(cmd.OutOrStdout(), results); err != nil {
			return err
		}
	} else {
		printRecognition(cmd.OutOrStdout(), results)
	}

	for _, r := range results {
		if r.failed {
			return errors.New("some images could not be read")
		}
	}
	return nil
}

func printRecognition(out io.Writer, results []FileResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tIDENTITY\tDISTANCE\tBOX")
	for _, r := range results {
		name := filepath.Base(r.File)
		if r.Error != "" {
			fmt.Fprintf(w, "%s\t-\t-\t%s\n", name, r.Error)
			continue
		}
		if len(r.Faces) == 0 {
			fmt.Fprintf(w, "%s\t-\t-\tno faces\n", name)
			continue
		}
		for _, m := range r.Faces {
			b := m.Detection.Box
			fmt.Fprintf(w, "%s\t%s\t%.3f\t%d,%d %dx%d\n", name, m.Identity, m.Distance, b.X, b.Y, b.Width, b.Height)
		}
	}
	_ = w.Flush()

	for _, r := range results {
		for _, e := range r.Events {
			if e.Marked {
				fmt.Fprintf(out, "marked %s for %s: %s\n", e.Identity, e.Subject, e.Message)
			} else {
				fmt.Fprintf(out, "failed to mark %s for %s: %s\n", e.Identity, e.Subject, e.Error)
			}
		}
	}
}
