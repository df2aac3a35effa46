package telemetry

import (
	"encoding/json"
	"time"
)

type Stats struct {
	Period             string            `json:"period"`
	EventCounts        map[EventType]int `json:"event_counts"`
	TasksCreated       int               `json:"tasks_created"`
	TaskCompletions    int               `json:"task_completions"`
	TasksDeleted       int               `json:"tasks_deleted"`
	RemindersScheduled int               `json:"reminders_scheduled"`
	RemindersCancelled int               `json:"reminders_cancelled"`
	StreakAdvances     int               `json:"streak_advances"`
	StreakResets       int               `json:"streak_resets"`
	CompletionsPerDay  float64           `json:"completions_per_day"`
}

// CalculateStats aggregates usage stats from events recorded since a point
// in time.
func CalculateStats(events []Event, since time.Time) (Stats, error) {
	stats := Stats{
		Period:      since.Format("2006-01-02"),
		EventCounts: make(map[EventType]int),
	}

	for _, event := range events {
		stats.EventCounts[event.Type]++

		var metadata EventMetadata
		if err := json.Unmarshal([]byte(event.Metadata), &metadata); err != nil {
			continue
		}

		switch event.Type {
		case EventTaskCreated:
			stats.TasksCreated++
		case EventTaskCompleted:
			stats.TaskCompletions++
		case EventTaskDeleted:
			stats.TasksDeleted++
		case EventRemindersScheduled:
			stats.RemindersScheduled += metadataInt(metadata, "count")
		case EventRemindersCancelled:
			stats.RemindersCancelled += metadataInt(metadata, "count")
		case EventStreakAdvanced:
			stats.StreakAdvances++
		case EventStreakReset:
			stats.StreakResets++
		}
	}

	days := time.Since(since).Hours() / 24
	if days >= 1 {
		stats.CompletionsPerDay = float64(stats.TaskCompletions) / days
	} else {
		stats.CompletionsPerDay = float64(stats.TaskCompletions)
	}

	return stats, nil
}

func metadataInt(m EventMetadata, key string) int {
	v, ok := m[key]
	if !ok {
		return 0
	}
	// JSON numbers decode as float64.
	f, ok := v.(float64)
	if !ok {
		return 0
	}
	return int(f)
}
