package task

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/sanpdy/pulse/internal/model"
)

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

// /api/tasks  (collection)
func (h *Handler) TasksRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		date := strings.TrimSpace(r.URL.Query().Get("date"))
		if date == "" {
			writeJSON(w, 200, h.repo.List(r.Context()))
			return
		}
		if !model.ValidDate(date) {
			writeErr(w, 400, "date must be YYYY-MM-DD")
			return
		}
		writeJSON(w, 200, h.repo.ListOn(r.Context(), date))
		return

	case http.MethodPost:
		var in struct {
			Title string `json:"title"`
			Date  string `json:"date"`
		}
		if err := decodeJSON(r, &in); err != nil {
			writeErr(w, 400, "bad json")
			return
		}
		if strings.TrimSpace(in.Title) == "" {
			writeErr(w, 400, "title is required")
			return
		}
		if !model.ValidDate(in.Date) {
			writeErr(w, 400, "date must be YYYY-MM-DD")
			return
		}

		updated, err := h.repo.Add(r.Context(), in.Title, in.Date)
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 201, updated)
		return

	default:
		writeErr(w, 405, "method not allowed")
		return
	}
}

// /api/tasks/{id} and /api/tasks/{id}/toggle
func (h *Handler) TasksSub(w http.ResponseWriter, r *http.Request) {
	tail := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	tail = strings.Trim(tail, "/")
	if tail == "" {
		writeErr(w, 404, "not found")
		return
	}

	parts := strings.Split(tail, "/")
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeErr(w, 400, "bad task id")
		return
	}

	// /api/tasks/{id}
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodDelete:
			updated, err := h.repo.Delete(r.Context(), id)
			if err != nil {
				writeErr(w, 500, err.Error())
				return
			}
			writeJSON(w, 200, updated)
			return

		default:
			writeErr(w, 405, "method not allowed")
			return
		}
	}

	// /api/tasks/{id}/toggle
	if len(parts) == 2 && parts[1] == "toggle" {
		if r.Method != http.MethodPost {
			writeErr(w, 405, "method not allowed")
			return
		}
		updated, err := h.repo.Toggle(r.Context(), id)
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, updated)
		return
	}

	writeErr(w, 404, "not found")
}
