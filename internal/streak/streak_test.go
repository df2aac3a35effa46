package streak

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/sanpdy/pulse/internal/kvstore"
	"github.com/sanpdy/pulse/internal/model"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newEvaluator(store kvstore.Store, clock Clock, policy Policy) *Evaluator {
	return NewEvaluator(Options{
		Store:  store,
		Logger: quietLogger(),
		Clock:  clock,
		Policy: policy,
	})
}

func at(date string) time.Time {
	t, err := time.ParseInLocation(model.DateLayout, date, time.Local)
	if err != nil {
		panic(err)
	}
	return t.Add(9 * time.Hour)
}

func TestObserve_AllCompletedAdvances(t *testing.T) {
	clock := &fakeClock{now: at("2024-01-10")}
	e := newEvaluator(kvstore.NewMemoryStore(), clock, PolicyHold)

	tasks := []model.Task{
		{ID: 1, Title: "Meditate", Date: "2024-01-09", IsCompleted: true},
		{ID: 2, Title: "Run", Date: "2024-01-09", IsCompleted: true},
	}
	if got := e.Observe(tasks); got != 1 {
		t.Fatalf("expected streak 1, got %d", got)
	}
}

func TestObserve_AnyIncompleteResets(t *testing.T) {
	store := kvstore.NewMemoryStore()
	clock := &fakeClock{now: at("2024-01-09")}
	e := newEvaluator(store, clock, PolicyHold)

	// Build up a streak first.
	prior := []model.Task{{ID: 1, Title: "Stretch", Date: "2024-01-08", IsCompleted: true}}
	if got := e.Observe(prior); got != 1 {
		t.Fatalf("setup: expected streak 1, got %d", got)
	}

	clock.now = at("2024-01-10")
	tasks := []model.Task{
		{ID: 2, Title: "Meditate", Date: "2024-01-09", IsCompleted: true},
		{ID: 3, Title: "Run", Date: "2024-01-09", IsCompleted: false},
	}
	if got := e.Observe(tasks); got != 0 {
		t.Fatalf("expected streak reset to 0, got %d", got)
	}
}

func TestObserve_IdempotentPerDay(t *testing.T) {
	clock := &fakeClock{now: at("2024-01-10")}
	e := newEvaluator(kvstore.NewMemoryStore(), clock, PolicyHold)

	tasks := []model.Task{{ID: 1, Title: "Meditate", Date: "2024-01-09", IsCompleted: true}}
	first := e.Observe(tasks)
	second := e.Observe(tasks)
	third := e.Observe(tasks)
	if first != 1 || second != 1 || third != 1 {
		t.Fatalf("expected stable streak 1 within a day, got %d/%d/%d", first, second, third)
	}
}

func TestObserve_RestDayPolicies(t *testing.T) {
	cases := []struct {
		policy Policy
		want   int
	}{
		{PolicyHold, 1},
		{PolicyReset, 0},
	}

	for _, tc := range cases {
		t.Run(string(tc.policy), func(t *testing.T) {
			store := kvstore.NewMemoryStore()
			clock := &fakeClock{now: at("2024-01-09")}
			e := newEvaluator(store, clock, tc.policy)

			prior := []model.Task{{ID: 1, Title: "Stretch", Date: "2024-01-08", IsCompleted: true}}
			if got := e.Observe(prior); got != 1 {
				t.Fatalf("setup: expected streak 1, got %d", got)
			}

			// Nothing was due on the 9th.
			clock.now = at("2024-01-10")
			if got := e.Observe(prior); got != tc.want {
				t.Fatalf("policy %s: expected %d, got %d", tc.policy, tc.want, got)
			}
		})
	}
}

func TestObserve_ConsecutiveDays(t *testing.T) {
	clock := &fakeClock{now: at("2024-01-09")}
	e := newEvaluator(kvstore.NewMemoryStore(), clock, PolicyHold)

	tasks := []model.Task{
		{ID: 1, Title: "Meditate", Date: "2024-01-08", IsCompleted: true},
		{ID: 2, Title: "Run", Date: "2024-01-09", IsCompleted: true},
		{ID: 3, Title: "Read", Date: "2024-01-10", IsCompleted: true},
	}
	for i, day := range []string{"2024-01-09", "2024-01-10", "2024-01-11"} {
		clock.now = at(day)
		if got := e.Observe(tasks); got != i+1 {
			t.Fatalf("day %s: expected streak %d, got %d", day, i+1, got)
		}
	}
}

func TestStatePersistsAcrossRestart(t *testing.T) {
	store := kvstore.NewMemoryStore()
	clock := &fakeClock{now: at("2024-01-10")}
	e := newEvaluator(store, clock, PolicyHold)

	tasks := []model.Task{{ID: 1, Title: "Meditate", Date: "2024-01-09", IsCompleted: true}}
	if got := e.Observe(tasks); got != 1 {
		t.Fatalf("expected streak 1, got %d", got)
	}

	// A fresh evaluator over the same store resumes, and the already
	// checked day is not evaluated again.
	e2 := newEvaluator(store, clock, PolicyHold)
	if got := e2.Current(); got != 1 {
		t.Fatalf("expected restored streak 1, got %d", got)
	}
	if got := e2.Observe(tasks); got != 1 {
		t.Fatalf("expected no re-evaluation on restored day, got %d", got)
	}
}

func TestCorruptStateStartsFromZero(t *testing.T) {
	store := kvstore.NewMemoryStore()
	if err := store.Set("streak_state", []byte("{not json")); err != nil {
		t.Fatal(err)
	}

	clock := &fakeClock{now: at("2024-01-10")}
	e := newEvaluator(store, clock, PolicyHold)
	if got := e.Current(); got != 0 {
		t.Fatalf("expected zero streak from corrupt state, got %d", got)
	}
}
