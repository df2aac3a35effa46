package model

import "time"

// DateLayout is the calendar-date form used everywhere a Task is pinned to
// a day. No time component; local calendar semantics.
const DateLayout = "2006-01-02"

// ReminderHandle is an opaque identifier for a scheduled notification.
// It is a distinct type so task ids and reminder ids cannot be mixed up.
type ReminderHandle string

type Task struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	// Date is the day this task belongs to, in YYYY-MM-DD form.
	Date        string `json:"date"`
	IsCompleted bool   `json:"isCompleted"`
	// NotificationIDs holds the handles of every reminder still owned by
	// this task. Cleared when the task is completed or deleted.
	NotificationIDs []ReminderHandle `json:"notificationIds"`
}

// ValidDate reports whether s is a well-formed YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.ParseInLocation(DateLayout, s, time.Local)
	return err == nil
}

// Day formats t's calendar date in the local timezone.
func Day(t time.Time) string {
	return t.In(time.Local).Format(DateLayout)
}
