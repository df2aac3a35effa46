package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sanpdy/pulse/internal/model"
)

// ScheduledReminder records one Schedule call observed by MemoryService.
type ScheduledReminder struct {
	Handle  model.ReminderHandle
	Content Content
	At      time.Time
}

// MemoryService is a recording Service for tests.
type MemoryService struct {
	mu      sync.Mutex
	granted bool
	next    int

	// ScheduleFail, when set, is consulted per Schedule call so tests can
	// simulate per-instant registration failures.
	ScheduleFail func(content Content, at time.Time) error

	scheduled []ScheduledReminder
	cancelled []model.ReminderHandle
}

func NewMemoryService(granted bool) *MemoryService {
	return &MemoryService{granted: granted}
}

func (s *MemoryService) RequestPermission(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.granted, nil
}

func (s *MemoryService) Schedule(_ context.Context, content Content, at time.Time) (model.ReminderHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ScheduleFail != nil {
		if err := s.ScheduleFail(content, at); err != nil {
			return "", err
		}
	}

	s.next++
	handle := model.ReminderHandle(fmt.Sprintf("rem_%03d", s.next))
	s.scheduled = append(s.scheduled, ScheduledReminder{Handle: handle, Content: content, At: at})
	return handle, nil
}

func (s *MemoryService) Cancel(_ context.Context, handle model.ReminderHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelled = append(s.cancelled, handle)
	return nil
}

func (s *MemoryService) Scheduled() []ScheduledReminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ScheduledReminder, len(s.scheduled))
	copy(out, s.scheduled)
	return out
}

func (s *MemoryService) Cancelled() []model.ReminderHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ReminderHandle, len(s.cancelled))
	copy(out, s.cancelled)
	return out
}
