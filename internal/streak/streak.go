package streak

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/sanpdy/pulse/internal/kvstore"
	"github.com/sanpdy/pulse/internal/model"
	"github.com/sanpdy/pulse/internal/telemetry"
)

// Policy names the behavior for a day with no tasks due.
type Policy string

const (
	// PolicyHold: a rest day neither rewards nor penalizes; the streak
	// carries over untouched.
	PolicyHold Policy = "hold"
	// PolicyReset: a day with nothing due still breaks the streak.
	PolicyReset Policy = "reset"
)

func ParsePolicy(s string) (Policy, bool) {
	switch Policy(s) {
	case PolicyHold:
		return PolicyHold, true
	case PolicyReset:
		return PolicyReset, true
	case "":
		return PolicyHold, true
	}
	return "", false
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// stateKey holds the persisted evaluator state so the streak survives
// process restarts.
const stateKey = "streak_state"

type state struct {
	Streak      int    `json:"streak"`
	LastChecked string `json:"lastChecked"`
}

// Evaluator derives the consecutive-completed-days counter. Each calendar
// day is evaluated exactly once: the first observation on a new day looks
// at yesterday's tasks and advances or resets the streak.
type Evaluator struct {
	mu     sync.Mutex
	store  kvstore.Store
	logger *log.Logger
	clock  Clock
	policy Policy
	events telemetry.Repository
	st     state
}

type Options struct {
	Store  kvstore.Store
	Logger *log.Logger
	Clock  Clock
	Policy Policy
	// Events is optional; when set, streak transitions are recorded.
	Events telemetry.Repository
}

func NewEvaluator(opts Options) *Evaluator {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Policy == "" {
		opts.Policy = PolicyHold
	}
	e := &Evaluator{
		store:  opts.Store,
		logger: opts.Logger,
		clock:  opts.Clock,
		policy: opts.Policy,
		events: opts.Events,
	}
	e.load()
	return e
}

// load is tolerant: missing or malformed state starts the streak from
// zero. The streak is derived data, losing it is recoverable.
func (e *Evaluator) load() {
	if e.store == nil {
		return
	}
	b, err := e.store.Get(stateKey)
	if err == kvstore.ErrNotFound {
		return
	}
	if err != nil {
		e.logJSON("error", "streak_state_read_failed", map[string]any{"error": err.Error()})
		return
	}
	var st state
	if err := json.Unmarshal(b, &st); err != nil {
		e.logJSON("error", "streak_state_parse_failed", map[string]any{"error": err.Error()})
		return
	}
	e.st = st
}

func (e *Evaluator) saveLocked() {
	if e.store == nil {
		return
	}
	b, err := json.Marshal(e.st)
	if err != nil {
		return
	}
	if err := e.store.Set(stateKey, b); err != nil {
		e.logJSON("error", "streak_state_write_failed", map[string]any{"error": err.Error()})
	}
}

// Observe re-derives the streak against the given task collection. It is
// idempotent per calendar day: repeat calls on the same date return the
// same value without re-evaluating. Returns the current streak.
func (e *Evaluator) Observe(tasks []model.Task) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	today := model.Day(now)
	if e.st.LastChecked == today {
		return e.st.Streak
	}

	yesterday := model.Day(now.AddDate(0, 0, -1))

	due := 0
	done := 0
	for _, t := range tasks {
		if t.Date != yesterday {
			continue
		}
		due++
		if t.IsCompleted {
			done++
		}
	}

	prev := e.st.Streak
	switch {
	case due == 0:
		if e.policy == PolicyReset {
			e.st.Streak = 0
		}
	case due == done:
		e.st.Streak++
	default:
		e.st.Streak = 0
	}

	e.st.LastChecked = today
	e.saveLocked()
	e.record(prev, e.st.Streak, yesterday, due, done)

	return e.st.Streak
}

// Current returns the streak without evaluating.
func (e *Evaluator) Current() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.Streak
}

// LastChecked returns the date most recently evaluated, "" if never.
func (e *Evaluator) LastChecked() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.LastChecked
}

func (e *Evaluator) Policy() Policy { return e.policy }

func (e *Evaluator) record(prev, next int, yesterday string, due, done int) {
	if e.events == nil || next == prev {
		return
	}
	meta := telemetry.EventMetadata{
		"date":      yesterday,
		"tasks_due": due,
		"done":      done,
		"streak":    next,
	}
	if next > prev {
		_ = e.events.RecordEvent(telemetry.EventStreakAdvanced, meta)
	} else {
		_ = e.events.RecordEvent(telemetry.EventStreakReset, meta)
	}
}

func (e *Evaluator) logJSON(level, msg string, fields map[string]any) {
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
	e.logger.Print(string(b))
}
