package reminder

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/sanpdy/pulse/internal/model"
	"github.com/sanpdy/pulse/internal/notify"
)

// DefaultHours are the fixed local reminder times on a task's due date:
// 06:00, 12:00 and 18:00.
var DefaultHours = []int{6, 12, 18}

// Scheduler turns a task's due date into a batch of platform notifications
// and tears them down again when the task completes or is deleted.
type Scheduler struct {
	svc    notify.Service
	logger *log.Logger
	hours  []int
	now    func() time.Time
}

type Options struct {
	Service notify.Service
	Logger  *log.Logger
	// Hours overrides the reminder times (local hours on the due date).
	Hours []int
}

func New(opts Options) *Scheduler {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	hours := opts.Hours
	if len(hours) == 0 {
		hours = DefaultHours
	}
	return &Scheduler{
		svc:    opts.Service,
		logger: opts.Logger,
		hours:  hours,
		now:    time.Now,
	}
}

// RequestPermission reports whether notifications are authorized. A service
// error counts as denial; callers fall back to reminder-less creation.
func (s *Scheduler) RequestPermission(ctx context.Context) bool {
	granted, err := s.svc.RequestPermission(ctx)
	if err != nil {
		s.logJSON("error", "notification_permission_failed", map[string]any{"error": err.Error()})
		return false
	}
	return granted
}

// ScheduleAll registers one notification per reminder hour on date,
// returning the handles in schedule order. Instants already in the past are
// skipped. A failed registration drops that instant only; the remaining
// instants still get scheduled.
func (s *Scheduler) ScheduleAll(ctx context.Context, title, body, date string) []model.ReminderHandle {
	day, err := time.ParseInLocation(model.DateLayout, date, time.Local)
	if err != nil {
		s.logJSON("error", "reminder_bad_date", map[string]any{"date": date, "error": err.Error()})
		return nil
	}

	now := s.now()
	content := notify.Content{Title: title, Body: body}

	var handles []model.ReminderHandle
	for _, hour := range s.hours {
		at := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.Local)
		if !at.After(now) {
			continue
		}
		handle, err := s.svc.Schedule(ctx, content, at)
		if err != nil {
			s.logJSON("error", "reminder_schedule_failed", map[string]any{
				"date":  date,
				"hour":  hour,
				"error": err.Error(),
			})
			continue
		}
		handles = append(handles, handle)
	}
	return handles
}

// CancelAll cancels every handle. Unknown, fired or already-cancelled
// handles are no-ops; the first real cancellation error is returned after
// all handles have been attempted.
func (s *Scheduler) CancelAll(ctx context.Context, handles []model.ReminderHandle) error {
	var firstErr error
	for _, handle := range handles {
		if handle == "" {
			continue
		}
		if err := s.svc.Cancel(ctx, handle); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Scheduler) logJSON(level, msg string, fields map[string]any) {
	payload := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"level": level,
		"msg":   msg,
	}
	for k, v := range fields {
		payload[k] = v
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	s.logger.Print(string(b))
}
