package telemetry

import "time"

type EventType string

const (
	EventTaskCreated        EventType = "task_created"
	EventTaskCompleted      EventType = "task_completed"
	EventTaskReopened       EventType = "task_reopened"
	EventTaskDeleted        EventType = "task_deleted"
	EventRemindersScheduled EventType = "reminders_scheduled"
	EventRemindersCancelled EventType = "reminders_cancelled"
	EventStreakAdvanced     EventType = "streak_advanced"
	EventStreakReset        EventType = "streak_reset"
)

type Event struct {
	ID        int       `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  string    `json:"metadata"`
}

type EventMetadata map[string]interface{}
