package serverapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sanpdy/pulse/internal/config"
	"github.com/sanpdy/pulse/internal/httpmw"
	"github.com/sanpdy/pulse/internal/kvstore"
	"github.com/sanpdy/pulse/internal/notify"
	"github.com/sanpdy/pulse/internal/reminder"
	"github.com/sanpdy/pulse/internal/streak"
	"github.com/sanpdy/pulse/internal/task"
	"github.com/sanpdy/pulse/internal/telemetry"
	staticfiles "github.com/sanpdy/pulse/static"
)

type Options struct {
	Config *config.Config
	Logger *log.Logger

	// Store and Notify, when set, override the configured backends.
	// Tests use these to substitute in-memory fakes.
	Store  kvstore.Store
	Notify notify.Service
	Clock  streak.Clock
}

// Server owns the wired application: storage, notification scheduling,
// the task repository, the streak evaluator and the HTTP surface.
type Server struct {
	handler http.Handler
	logger  *log.Logger

	store   kvstore.Store
	local   *notify.LocalScheduler
	repo    *task.Repository
	streaks *streak.Evaluator
	events  telemetry.Repository

	stopOnce sync.Once
	stop     chan struct{}
}

func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	store := opts.Store
	if store == nil {
		var err error
		switch cfg.Storage.Backend {
		case "sqlite":
			if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
				return nil, err
			}
			store, err = kvstore.NewSQLiteStore(filepath.Join(cfg.DataDir, "pulse.db"))
		default:
			store, err = kvstore.NewFileStore(cfg.DataDir)
		}
		if err != nil {
			return nil, err
		}
	}

	svc := opts.Notify
	var local *notify.LocalScheduler
	if svc == nil {
		backend, err := notify.SelectBackend(cfg.Reminders.Backend, logger)
		if err != nil {
			return nil, err
		}
		local = notify.NewLocalScheduler(notify.LocalOptions{
			Backend:           backend,
			Logger:            logger,
			PermissionGranted: cfg.Reminders.PermissionGranted,
		})
		svc = local
	}

	policy, ok := streak.ParsePolicy(cfg.Streak.RestDayPolicy)
	if !ok {
		return nil, fmt.Errorf("unknown streak policy %q", cfg.Streak.RestDayPolicy)
	}

	events := telemetry.NewMemoryRepository()
	streaks := streak.NewEvaluator(streak.Options{
		Store:  store,
		Logger: logger,
		Clock:  opts.Clock,
		Policy: policy,
		Events: events,
	})
	reminders := reminder.New(reminder.Options{
		Service: svc,
		Logger:  logger,
		Hours:   cfg.Reminders.Hours,
	})
	repo := task.NewRepository(task.Options{
		Gateway:   task.NewGateway(store, logger),
		Reminders: reminders,
		Streaks:   streaks,
		Events:    events,
		Logger:    logger,
	})

	s := &Server{
		logger:  logger,
		store:   store,
		local:   local,
		repo:    repo,
		streaks: streaks,
		events:  events,
		stop:    make(chan struct{}),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "pulse",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	taskHandler := task.NewHandler(repo)
	mux.HandleFunc("/api/tasks", taskHandler.TasksRoot)
	mux.HandleFunc("/api/tasks/", taskHandler.TasksSub)

	mux.HandleFunc("/api/streak", s.handleStreak)
	mux.HandleFunc("/api/stats", s.handleStats)

	mux.Handle("/", http.FileServer(http.FS(staticfiles.EmbeddedFS())))

	s.handler = httpmw.Chain(mux,
		httpmw.WithRequestID,
		httpmw.WithRecover(logger),
		httpmw.WithAccessLog(logger),
	)

	return s, nil
}

func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	// Listing gives the evaluator a chance to notice a day boundary
	// before the streak is reported.
	s.repo.List(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"streak":      s.streaks.Current(),
		"lastChecked": s.streaks.LastChecked(),
		"policy":      s.streaks.Policy(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	since := time.Now().AddDate(0, 0, -30)
	events, err := s.events.GetEvents(since, nil)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	stats, err := telemetry.CalculateStats(events, since)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// StartDayTicker re-observes the task collection on an interval so a
// long-running process crosses midnight even with no UI traffic.
func (s *Server) StartDayTicker(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.repo.List(context.Background())
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *Server) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	if s.local != nil {
		_ = s.local.Close()
	}
	return s.store.Close()
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}
