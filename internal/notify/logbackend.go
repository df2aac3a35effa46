package notify

import (
	"encoding/json"
	"log"
	"time"
)

func init() {
	_ = Register("log", func(logger *log.Logger) Backend {
		return &LogBackend{logger: logger}
	})
}

// LogBackend writes due notifications to the service log as JSON lines.
type LogBackend struct {
	logger *log.Logger
}

func (b *LogBackend) Name() string { return "log" }

func (b *LogBackend) IsEnabled() bool { return true }

func (b *LogBackend) Deliver(content Content) error {
	logger := b.logger
	if logger == nil {
		logger = log.Default()
	}
	line, err := json.Marshal(map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"level": "info",
		"msg":   "reminder_delivered",
		"title": content.Title,
		"body":  content.Body,
	})
	if err != nil {
		return err
	}
	logger.Print(string(line))
	return nil
}
