package task

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sanpdy/pulse/internal/kvstore"
	"github.com/sanpdy/pulse/internal/model"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	repo, _ := newTestRepo(kvstore.NewMemoryStore(), false)
	h := NewHandler(repo)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/tasks", h.TasksRoot)
	mux.HandleFunc("/api/tasks/", h.TasksSub)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeTasks(t *testing.T, resp *http.Response) []model.Task {
	t.Helper()
	defer resp.Body.Close()
	var tasks []model.Task
	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		t.Fatalf("decoding tasks: %v", err)
	}
	return tasks
}

func TestHTTPCreateListToggleDelete(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/tasks", map[string]string{
		"title": "Meditate",
		"date":  "2024-01-10",
	})
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	tasks := decodeTasks(t, resp)
	if len(tasks) != 1 || tasks[0].Title != "Meditate" {
		t.Fatalf("unexpected creation response: %+v", tasks)
	}
	id := tasks[0].ID

	getResp, err := http.Get(srv.URL + "/api/tasks?date=2024-01-10")
	if err != nil {
		t.Fatal(err)
	}
	if got := decodeTasks(t, getResp); len(got) != 1 {
		t.Fatalf("expected 1 task for the date, got %d", len(got))
	}

	toggleResp := postJSON(t, srv.URL+"/api/tasks/1/toggle", nil)
	if toggleResp.StatusCode != 200 {
		t.Fatalf("expected 200 on toggle, got %d", toggleResp.StatusCode)
	}
	if got := decodeTasks(t, toggleResp); !got[0].IsCompleted {
		t.Fatalf("expected task completed: %+v", got)
	}

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/tasks/1", nil)
	if err != nil {
		t.Fatal(err)
	}
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if delResp.StatusCode != 200 {
		t.Fatalf("expected 200 on delete, got %d", delResp.StatusCode)
	}
	if got := decodeTasks(t, delResp); len(got) != 0 {
		t.Fatalf("expected empty collection after delete of %d, got %+v", id, got)
	}
}

func TestHTTPValidation(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name string
		body map[string]string
	}{
		{"blank title", map[string]string{"title": "  ", "date": "2024-01-10"}},
		{"missing date", map[string]string{"title": "x"}},
		{"malformed date", map[string]string{"title": "x", "date": "Jan 10"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/tasks", tc.body)
			defer resp.Body.Close()
			if resp.StatusCode != 400 {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
		})
	}

	resp, err := http.Get(srv.URL + "/api/tasks?date=nope")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400 for bad date filter, got %d", resp.StatusCode)
	}
}

func TestHTTPUnknownIDIsIdempotent(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/tasks/42/toggle", nil)
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("toggle on unknown id should be a 200 no-op, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/tasks/42", nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer delResp.Body.Close()
	if delResp.StatusCode != 200 {
		t.Fatalf("delete on unknown id should be a 200 no-op, got %d", delResp.StatusCode)
	}
}
