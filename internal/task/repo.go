package task

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/sanpdy/pulse/internal/model"
	"github.com/sanpdy/pulse/internal/reminder"
	"github.com/sanpdy/pulse/internal/streak"
	"github.com/sanpdy/pulse/internal/telemetry"
)

// reminderBody is the notification body attached to every task reminder.
const reminderBody = "You planned this for today."

// Repository orchestrates task mutations. Every operation runs its whole
// load-mutate-save sequence under one mutex so two near-simultaneous
// mutations can never clobber each other's write (the collection is
// persisted as a single unit, so an unserialized save would silently drop
// the other mutation).
type Repository struct {
	mu        sync.Mutex
	gateway   *Gateway
	reminders *reminder.Scheduler
	streaks   *streak.Evaluator
	events    telemetry.Repository
	logger    *log.Logger
}

type Options struct {
	Gateway   *Gateway
	Reminders *reminder.Scheduler
	// Streaks is optional; when set, every operation gives the evaluator a
	// chance to notice a day boundary.
	Streaks *streak.Evaluator
	// Events is optional telemetry.
	Events telemetry.Repository
	Logger *log.Logger
}

func NewRepository(opts Options) *Repository {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Repository{
		gateway:   opts.Gateway,
		reminders: opts.Reminders,
		streaks:   opts.Streaks,
		events:    opts.Events,
		logger:    opts.Logger,
	}
}

// List returns the full collection.
func (r *Repository) List(ctx context.Context) []model.Task {
	r.mu.Lock()
	tasks := r.gateway.Load()
	r.mu.Unlock()

	r.observe(tasks)
	return tasks
}

// ListOn returns the tasks pinned to one calendar date.
func (r *Repository) ListOn(ctx context.Context, date string) []model.Task {
	all := r.List(ctx)
	out := make([]model.Task, 0, len(all))
	for _, t := range all {
		if t.Date == date {
			out = append(out, t)
		}
	}
	return out
}

// Add creates a task for date with freshly scheduled reminders attached.
// A blank title is a no-op returning the unchanged collection. Permission
// denial is not an error: the task is created with no reminders.
func (r *Repository) Add(ctx context.Context, title, date string) ([]model.Task, error) {
	title = strings.TrimSpace(title)

	r.mu.Lock()
	defer r.mu.Unlock()

	tasks := r.gateway.Load()
	if title == "" {
		return tasks, nil
	}

	var handles []model.ReminderHandle
	if r.reminders != nil && r.reminders.RequestPermission(ctx) {
		handles = r.reminders.ScheduleAll(ctx, title, reminderBody, date)
	}

	t := model.Task{
		ID:              nextID(tasks),
		Title:           title,
		Date:            date,
		IsCompleted:     false,
		NotificationIDs: handles,
	}
	normalizeTask(&t)

	updated := append(tasks, t)
	if err := r.gateway.Save(updated); err != nil {
		// The task never made it to storage, so its reminders must not
		// outlive it.
		if r.reminders != nil {
			_ = r.reminders.CancelAll(ctx, handles)
		}
		return nil, err
	}

	r.recordEvent(telemetry.EventTaskCreated, telemetry.EventMetadata{"id": t.ID, "date": t.Date})
	if len(handles) > 0 {
		r.recordEvent(telemetry.EventRemindersScheduled, telemetry.EventMetadata{"id": t.ID, "count": len(handles)})
	}

	r.observe(updated)
	return updated, nil
}

// Toggle flips a task's completion state. Completing a task cancels its
// reminders and clears the handles; reopening does not re-arm them.
// An unknown id is a no-op.
func (r *Repository) Toggle(ctx context.Context, id int64) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks := r.gateway.Load()
	idx := indexOf(tasks, id)
	if idx < 0 {
		return tasks, nil
	}

	t := tasks[idx]
	if !t.IsCompleted {
		cancelled := len(t.NotificationIDs)
		r.cancelHandles(ctx, t.NotificationIDs)
		t.IsCompleted = true
		t.NotificationIDs = []model.ReminderHandle{}
		tasks[idx] = t
		if err := r.gateway.Save(tasks); err != nil {
			return nil, err
		}
		r.recordEvent(telemetry.EventTaskCompleted, telemetry.EventMetadata{"id": t.ID, "date": t.Date})
		if cancelled > 0 {
			r.recordEvent(telemetry.EventRemindersCancelled, telemetry.EventMetadata{"id": t.ID, "count": cancelled})
		}
	} else {
		t.IsCompleted = false
		tasks[idx] = t
		if err := r.gateway.Save(tasks); err != nil {
			return nil, err
		}
		r.recordEvent(telemetry.EventTaskReopened, telemetry.EventMetadata{"id": t.ID, "date": t.Date})
	}

	r.observe(tasks)
	return tasks, nil
}

// Delete cancels a task's reminders and removes it from the collection.
// An unknown id is a no-op.
func (r *Repository) Delete(ctx context.Context, id int64) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks := r.gateway.Load()
	idx := indexOf(tasks, id)
	if idx < 0 {
		return tasks, nil
	}

	t := tasks[idx]
	cancelled := len(t.NotificationIDs)
	r.cancelHandles(ctx, t.NotificationIDs)

	updated := append(tasks[:idx], tasks[idx+1:]...)
	if err := r.gateway.Save(updated); err != nil {
		return nil, err
	}

	r.recordEvent(telemetry.EventTaskDeleted, telemetry.EventMetadata{"id": t.ID, "date": t.Date})
	if cancelled > 0 {
		r.recordEvent(telemetry.EventRemindersCancelled, telemetry.EventMetadata{"id": t.ID, "count": cancelled})
	}

	r.observe(updated)
	return updated, nil
}

// nextID assigns ids monotonically within the collection, independent of
// wall clock, so rapid successive inserts cannot collide.
func nextID(tasks []model.Task) int64 {
	var maxID int64
	for _, t := range tasks {
		if t.ID > maxID {
			maxID = t.ID
		}
	}
	return maxID + 1
}

func indexOf(tasks []model.Task, id int64) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (r *Repository) cancelHandles(ctx context.Context, handles []model.ReminderHandle) {
	if r.reminders == nil || len(handles) == 0 {
		return
	}
	if err := r.reminders.CancelAll(ctx, handles); err != nil {
		// The handles are cleared regardless; a task must never keep
		// handles that no longer match its state.
		r.logger.Printf(`{"level":"error","msg":"reminder_cancel_failed","error":%q}`, err.Error())
	}
}

func (r *Repository) observe(tasks []model.Task) {
	if r.streaks != nil {
		r.streaks.Observe(tasks)
	}
}

func (r *Repository) recordEvent(eventType telemetry.EventType, meta telemetry.EventMetadata) {
	if r.events == nil {
		return
	}
	_ = r.events.RecordEvent(eventType, meta)
}
