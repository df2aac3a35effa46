package notify

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sanpdy/pulse/internal/model"
)

// LocalScheduler is an in-process Service: it holds pending reminders on
// timers and hands due ones to a delivery Backend. Handles are opaque
// uuids, round-trippable through storage.
type LocalScheduler struct {
	mu      sync.Mutex
	backend Backend
	logger  *log.Logger
	granted bool
	pending map[model.ReminderHandle]*time.Timer
}

type LocalOptions struct {
	Backend Backend
	Logger  *log.Logger
	// PermissionGranted models the platform authorization prompt outcome.
	PermissionGranted bool
}

func NewLocalScheduler(opts LocalOptions) *LocalScheduler {
	if opts.Backend == nil {
		opts.Backend = &NoopBackend{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &LocalScheduler{
		backend: opts.Backend,
		logger:  opts.Logger,
		granted: opts.PermissionGranted,
		pending: map[model.ReminderHandle]*time.Timer{},
	}
}

func (s *LocalScheduler) RequestPermission(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.granted, nil
}

func (s *LocalScheduler) Schedule(_ context.Context, content Content, at time.Time) (model.ReminderHandle, error) {
	handle := model.ReminderHandle(uuid.NewString())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[handle] = time.AfterFunc(time.Until(at), func() {
		s.fire(handle, content)
	})
	return handle, nil
}

func (s *LocalScheduler) Cancel(_ context.Context, handle model.ReminderHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.pending[handle]; ok {
		timer.Stop()
		delete(s.pending, handle)
	}
	return nil
}

// PendingCount reports how many reminders have not yet fired.
func (s *LocalScheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close stops every pending timer without delivering.
func (s *LocalScheduler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for handle, timer := range s.pending {
		timer.Stop()
		delete(s.pending, handle)
	}
	return nil
}

func (s *LocalScheduler) fire(handle model.ReminderHandle, content Content) {
	s.mu.Lock()
	delete(s.pending, handle)
	backend := s.backend
	s.mu.Unlock()

	if err := backend.Deliver(content); err != nil {
		line, merr := json.Marshal(map[string]any{
			"ts":      time.Now().UTC().Format(time.RFC3339Nano),
			"level":   "error",
			"msg":     "reminder_delivery_failed",
			"backend": backend.Name(),
			"title":   content.Title,
			"error":   err.Error(),
		})
		if merr == nil {
			s.logger.Print(string(line))
		}
	}
}
