package attendance

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/audit"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/session"
)

// Recorder persists an attendance mark. *Client and the local attendance
// service implement it.
type Recorder interface {
	MarkAttendance(ctx context.Context, studentID, subject string) (domain.AttendanceReceipt, error)
}

// Event reports the outcome for an identity recorded for the first time in
// the session.
type Event struct {
	Identity domain.Identity `json:"identity"`
	Subject  string          `json:"subject"`
	Marked   bool            `json:"marked"`
	Message  string          `json:"message,omitempty"`
	Error    string          `json:"error,omitempty"`
	Err      error           `json:"-"`
}

// Workflow turns match results into attendance marks, at most one per
// identity per session. A failed mark is not retried and the identity stays
// recorded.
type Workflow struct {
	tracker   *session.Tracker
	recorder  Recorder
	subject   string
	sessionID string
	audit     audit.Logger
	logger    *slog.Logger
	now       func() time.Time

	mu  sync.Mutex
	day string
}

type WorkflowOption func(*Workflow)

func WithClock(now func() time.Time) WorkflowOption {
	return func(w *Workflow) { w.now = now }
}

func WithAuditLogger(l audit.Logger) WorkflowOption {
	return func(w *Workflow) { w.audit = l }
}

func WithLogger(l *slog.Logger) WorkflowOption {
	return func(w *Workflow) { w.logger = l }
}

func WithSessionID(id string) WorkflowOption {
	return func(w *Workflow) { w.sessionID = id }
}

func NewWorkflow(tracker *session.Tracker, recorder Recorder, subject string, opts ...WorkflowOption) *Workflow {
	w := &Workflow{
		tracker:  tracker,
		recorder: recorder,
		subject:  subject,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Workflow) Subject() string {
	return w.subject
}

func (w *Workflow) Tracker() *session.Tracker {
	return w.tracker
}

// Process records every known identity in results. The recorder is called
// once for each identity not yet recorded; Unknown and repeated identities
// produce no event.
func (w *Workflow) Process(ctx context.Context, results []domain.MatchResult) []Event {
	w.rollover(ctx)

	var events []Event
	for _, r := range results {
		if !w.tracker.Record(r.Identity) {
			continue
		}
		events = append(events, w.mark(ctx, r.Identity))
	}
	return events
}

// rollover clears the tracker when the calendar day changes
func (w *Workflow) rollover(ctx context.Context) {
	today := w.now().Format(time.DateOnly)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.day == today {
		return
	}
	if w.day != "" {
		w.tracker.Reset()
		w.logger.InfoContext(ctx, "new day, session record cleared",
			slog.String("previous", w.day),
			slog.String("day", today),
		)
	}
	w.day = today
}

func (w *Workflow) mark(ctx context.Context, identity domain.Identity) Event {
	ev := Event{Identity: identity, Subject: w.subject}

	receipt, err := w.recorder.MarkAttendance(ctx, identity.String(), w.subject)
	if err != nil {
		ev.Err = err
		ev.Error = err.Error()
		w.logger.WarnContext(ctx, "attendance not marked",
			slog.String("identity", identity.String()),
			slog.String("subject", w.subject),
			slog.String("stage", "attendance"),
			slog.String("error", err.Error()),
		)
		audit.Fire(ctx, w.audit, audit.Event{
			EventType: audit.EventAttendanceFailed,
			Identity:  identity.String(),
			Subject:   w.subject,
			SessionID: w.sessionID,
			Success:   false,
			Error:     err.Error(),
		})
		return ev
	}

	ev.Marked = true
	ev.Message = receipt.Message
	w.logger.InfoContext(ctx, "attendance marked",
		slog.String("identity", identity.String()),
		slog.String("subject", w.subject),
	)
	audit.Fire(ctx, w.audit, audit.Event{
		EventType: audit.EventAttendanceRecorded,
		Identity:  identity.String(),
		Subject:   w.subject,
		SessionID: w.sessionID,
		Success:   true,
	})
	return ev
}
