package task

import (
	"encoding/json"
	"log"
	"time"

	"github.com/sanpdy/pulse/internal/kvstore"
	"github.com/sanpdy/pulse/internal/model"
)

// collectionKey is the single storage entry holding every task.
const collectionKey = "tasks"

// Gateway reads and writes the whole task collection as one unit. It is
// pure mechanism; the Repository owns when and what to write.
type Gateway struct {
	store  kvstore.Store
	logger *log.Logger
}

func NewGateway(store kvstore.Store, logger *log.Logger) *Gateway {
	if logger == nil {
		logger = log.Default()
	}
	return &Gateway{store: store, logger: logger}
}

// Load returns the stored collection. Missing or malformed data degrades
// to an empty collection; read problems are logged, never surfaced.
func (g *Gateway) Load() []model.Task {
	b, err := g.store.Get(collectionKey)
	if err == kvstore.ErrNotFound {
		return []model.Task{}
	}
	if err != nil {
		g.logJSON("error", "tasks_read_failed", map[string]any{"error": err.Error()})
		return []model.Task{}
	}

	var tasks []model.Task
	if err := json.Unmarshal(b, &tasks); err != nil {
		g.logJSON("error", "tasks_parse_failed", map[string]any{"error": err.Error()})
		return []model.Task{}
	}
	for i := range tasks {
		normalizeTask(&tasks[i])
	}
	return tasks
}

// Save overwrites the stored collection. Write failures propagate so a
// caller never reports a mutation it could not persist.
func (g *Gateway) Save(tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	for i := range tasks {
		normalizeTask(&tasks[i])
	}
	b, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	return g.store.Set(collectionKey, b)
}

func normalizeTask(t *model.Task) {
	if t.NotificationIDs == nil {
		t.NotificationIDs = []model.ReminderHandle{}
	}
}

func (g *Gateway) logJSON(level, msg string, fields map[string]any) {
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
	g.logger.Print(string(b))
}
