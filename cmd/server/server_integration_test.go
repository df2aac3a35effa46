package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sanpdy/pulse/internal/config"
	"github.com/sanpdy/pulse/internal/kvstore"
	"github.com/sanpdy/pulse/internal/model"
	"github.com/sanpdy/pulse/internal/notify"
	"github.com/sanpdy/pulse/internal/serverapp"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type testApp struct {
	handler http.Handler
	svc     *notify.MemoryService
	clock   *fakeClock
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := config.Default()
	clock := &fakeClock{now: time.Date(2024, 1, 9, 9, 0, 0, 0, time.Local)}
	svc := notify.NewMemoryService(true)

	srv, err := serverapp.New(serverapp.Options{
		Config: &cfg,
		Logger: log.New(io.Discard, "", 0),
		Store:  kvstore.NewMemoryStore(),
		Notify: svc,
		Clock:  clock,
	})
	if err != nil {
		t.Fatalf("build server: %v", err)
	}
	t.Cleanup(func() { srv.Close() })

	return &testApp{handler: srv.Handler(), svc: svc, clock: clock}
}

func (a *testApp) request(method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res := httptest.NewRecorder()
	a.handler.ServeHTTP(res, req)
	return res
}

func (a *testApp) json(method, path string, payload any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(payload)
	return a.request(method, path, b)
}

func decodeTasks(t *testing.T, res *httptest.ResponseRecorder) []model.Task {
	t.Helper()
	var tasks []model.Task
	if err := json.Unmarshal(res.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("decoding tasks from %q: %v", res.Body.String(), err)
	}
	return tasks
}

func TestServer_TaskLifecycle(t *testing.T) {
	app := newTestApp(t)

	res := app.json(http.MethodPost, "/api/tasks", map[string]string{
		"title": "Meditate",
		"date":  "2030-05-01",
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("create expected 201, got %d body=%s", res.Code, res.Body.String())
	}
	tasks := decodeTasks(t, res)
	if len(tasks) != 1 || tasks[0].Title != "Meditate" || tasks[0].IsCompleted {
		t.Fatalf("unexpected collection after create: %+v", tasks)
	}
	if len(tasks[0].NotificationIDs) != 3 {
		t.Fatalf("expected 3 reminder handles, got %d", len(tasks[0].NotificationIDs))
	}

	toggleRes := app.request(http.MethodPost, "/api/tasks/1/toggle", nil)
	if toggleRes.Code != http.StatusOK {
		t.Fatalf("toggle expected 200, got %d", toggleRes.Code)
	}
	toggled := decodeTasks(t, toggleRes)
	if !toggled[0].IsCompleted || len(toggled[0].NotificationIDs) != 0 {
		t.Fatalf("completion must clear reminder handles: %+v", toggled[0])
	}
	if got := len(app.svc.Cancelled()); got != 3 {
		t.Fatalf("expected 3 cancelled reminders, got %d", got)
	}

	delRes := app.request(http.MethodDelete, "/api/tasks/1", nil)
	if delRes.Code != http.StatusOK {
		t.Fatalf("delete expected 200, got %d", delRes.Code)
	}
	if remaining := decodeTasks(t, delRes); len(remaining) != 0 {
		t.Fatalf("expected empty collection, got %+v", remaining)
	}
}

func TestServer_StreakAcrossDayBoundary(t *testing.T) {
	app := newTestApp(t)

	res := app.json(http.MethodPost, "/api/tasks", map[string]string{
		"title": "Meditate",
		"date":  "2024-01-09",
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("create expected 201, got %d", res.Code)
	}
	if res := app.request(http.MethodPost, "/api/tasks/1/toggle", nil); res.Code != http.StatusOK {
		t.Fatalf("toggle expected 200, got %d", res.Code)
	}

	// Still the same day: nothing to evaluate yet.
	streakRes := app.request(http.MethodGet, "/api/streak", nil)
	var before struct {
		Streak int `json:"streak"`
	}
	if err := json.Unmarshal(streakRes.Body.Bytes(), &before); err != nil {
		t.Fatal(err)
	}
	if before.Streak != 0 {
		t.Fatalf("expected streak 0 before day boundary, got %d", before.Streak)
	}

	app.clock.set(time.Date(2024, 1, 10, 8, 0, 0, 0, time.Local))

	streakRes = app.request(http.MethodGet, "/api/streak", nil)
	var after struct {
		Streak      int    `json:"streak"`
		LastChecked string `json:"lastChecked"`
		Policy      string `json:"policy"`
	}
	if err := json.Unmarshal(streakRes.Body.Bytes(), &after); err != nil {
		t.Fatal(err)
	}
	if after.Streak != 1 {
		t.Fatalf("expected streak 1 after completed day, got %d", after.Streak)
	}
	if after.LastChecked != "2024-01-10" || after.Policy != "hold" {
		t.Fatalf("unexpected streak payload: %+v", after)
	}
}

func TestServer_StatsCountsActivity(t *testing.T) {
	app := newTestApp(t)

	app.json(http.MethodPost, "/api/tasks", map[string]string{"title": "a", "date": "2030-05-01"})
	app.json(http.MethodPost, "/api/tasks", map[string]string{"title": "b", "date": "2030-05-01"})
	app.request(http.MethodPost, "/api/tasks/1/toggle", nil)

	res := app.request(http.MethodGet, "/api/stats", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("stats expected 200, got %d", res.Code)
	}
	var stats struct {
		TasksCreated       int `json:"tasks_created"`
		TaskCompletions    int `json:"task_completions"`
		RemindersScheduled int `json:"reminders_scheduled"`
		RemindersCancelled int `json:"reminders_cancelled"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.TasksCreated != 2 || stats.TaskCompletions != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.RemindersScheduled != 6 || stats.RemindersCancelled != 3 {
		t.Fatalf("unexpected reminder stats: %+v", stats)
	}
}

func TestServer_HealthzAndEmbeddedUI(t *testing.T) {
	app := newTestApp(t)

	health := app.request(http.MethodGet, "/healthz", nil)
	if health.Code != http.StatusOK {
		t.Fatalf("healthz expected 200, got %d", health.Code)
	}
	if !strings.Contains(health.Body.String(), `"service":"pulse"`) {
		t.Fatalf("unexpected healthz body: %s", health.Body.String())
	}

	page := app.request(http.MethodGet, "/", nil)
	if page.Code != http.StatusOK {
		t.Fatalf("index expected 200, got %d", page.Code)
	}
	if !strings.Contains(page.Body.String(), "<title>pulse</title>") {
		t.Fatalf("embedded page not served")
	}

	if rid := page.Header().Get("X-Request-Id"); rid == "" {
		t.Fatalf("expected request id header")
	}
}
