package tasks

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ocastro-backend/internal/analytics"
	"ocastro-backend/internal/auth"
	"ocastro-backend/internal/dates"
)

// Handlers serves /api/tasks.
type Handlers struct {
	Repo      Repository
	Analytics *analytics.Recorder
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func taskIDFromPath(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	return id, err == nil && id > 0
}

func parseDateParam(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := dates.ParseISO(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (h Handlers) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		q := r.URL.Query()
		f := Filter{Status: Status(q.Get("status")), Priority: Priority(q.Get("priority"))}

		var err error
		if f.DueFrom, err = parseDateParam(q.Get("from_date")); err != nil {
			http.Error(w, "invalid from_date", http.StatusBadRequest)
			return
		}
		if f.DueTo, err = parseDateParam(q.Get("to_date")); err != nil {
			http.Error(w, "invalid to_date", http.StatusBadRequest)
			return
		}

		result, err := h.Repo.List(r.Context(), uid, f)
		if err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if result == nil {
			result = []Task{}
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func (h Handlers) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			Title       string  `json:"title"`
			Description string  `json:"description"`
			Status      string  `json:"status"`
			Priority    string  `json:"priority"`
			DueDate     *string `json:"due_date"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		t := Task{
			UserID:      uid,
			Title:       strings.TrimSpace(body.Title),
			Description: strings.TrimSpace(body.Description),
			Status:      StatusInbox,
			Priority:    PriorityMedium,
		}
		if t.Title == "" {
			http.Error(w, "title is required", http.StatusBadRequest)
			return
		}
		if body.Status != "" {
			st, ok := ParseStatus(body.Status)
			if !ok {
				http.Error(w, "invalid status", http.StatusBadRequest)
				return
			}
			t.Status = st
		}
		if body.Priority != "" {
			p, ok := ParsePriority(body.Priority)
			if !ok {
				http.Error(w, "invalid priority", http.StatusBadRequest)
				return
			}
			t.Priority = p
		}
		if body.DueDate != nil {
			d, err := parseDateParam(*body.DueDate)
			if err != nil {
				http.Error(w, "invalid due_date", http.StatusBadRequest)
				return
			}
			t.DueDate = d
		}

		if err := h.Repo.Create(r.Context(), &t); err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}

		// analytics: task_created
		{
			env := analytics.FromRequest(r)
			env.UserID = uid
			props := map[string]any{
				"task_id":      t.ID,
				"input_method": "text",
				"title_len":    len(t.Title),
				"has_deadline": t.DueDate != nil,
				"priority":     t.Priority,
			}
			_ = h.Analytics.Log(r.Context(), env, "task_created", props, analytics.SourceEventKeyFromRequest(r))
		}

		writeJSON(w, http.StatusCreated, map[string]any{"data": t, "success": true})
	}
}

func (h Handlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		id, ok := taskIDFromPath(r)
		if !ok {
			http.Error(w, "invalid task id", http.StatusBadRequest)
			return
		}

		t, err := h.Repo.Get(r.Context(), uid, id)
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "task not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"data": t, "success": true})
	}
}

// Update applies only the fields present in the body. A null due_date
// clears the date.
func (h Handlers) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		id, ok := taskIDFromPath(r)
		if !ok {
			http.Error(w, "invalid task id", http.StatusBadRequest)
			return
		}

		var body map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		t, err := h.Repo.Get(r.Context(), uid, id)
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "task not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		prevStatus := t.Status

		if err := applyPatch(&t, body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := h.Repo.Update(r.Context(), &t); err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		h.logStatusChange(r, uid, t, prevStatus)

		writeJSON(w, http.StatusOK, map[string]any{"data": t, "success": true})
	}
}

func applyPatch(t *Task, body map[string]json.RawMessage) error {
	str := func(key string) (string, bool, error) {
		raw, ok := body[key]
		if !ok {
			return "", false, nil
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", true, errors.New("invalid " + key)
		}
		return s, true, nil
	}

	if s, ok, err := str("title"); err != nil {
		return err
	} else if ok {
		if strings.TrimSpace(s) == "" {
			return errors.New("title is required")
		}
		t.Title = strings.TrimSpace(s)
	}
	if s, ok, err := str("description"); err != nil {
		return err
	} else if ok {
		t.Description = s
	}
	if s, ok, err := str("status"); err != nil {
		return err
	} else if ok {
		st, valid := ParseStatus(s)
		if !valid {
			return errors.New("invalid status")
		}
		t.Status = st
	}
	if s, ok, err := str("priority"); err != nil {
		return err
	} else if ok {
		p, valid := ParsePriority(s)
		if !valid {
			return errors.New("invalid priority")
		}
		t.Priority = p
	}
	if raw, ok := body["due_date"]; ok {
		var s *string
		if err := json.Unmarshal(raw, &s); err != nil {
			return errors.New("invalid due_date")
		}
		t.DueDate = nil
		if s != nil {
			d, err := parseDateParam(*s)
			if err != nil {
				return errors.New("invalid due_date")
			}
			t.DueDate = d
		}
	}
	return nil
}

func (h Handlers) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		id, ok := taskIDFromPath(r)
		if !ok {
			http.Error(w, "invalid task id", http.StatusBadRequest)
			return
		}

		n, err := h.Repo.Delete(r.Context(), uid, id)
		if err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if n == 0 {
			http.Error(w, "task not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func (h Handlers) SetStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		id, ok := taskIDFromPath(r)
		if !ok {
			http.Error(w, "invalid task id", http.StatusBadRequest)
			return
		}

		var body struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if body.Status == "" {
			http.Error(w, "status required", http.StatusBadRequest)
			return
		}
		st, valid := ParseStatus(body.Status)
		if !valid {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}

		t, err := h.Repo.Get(r.Context(), uid, id)
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "task not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}

		prevStatus := t.Status
		t.Status = st
		if err := h.Repo.Update(r.Context(), &t); err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		h.logStatusChange(r, uid, t, prevStatus)

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"id": t.ID, "status": t.Status},
		})
	}
}

// logStatusChange records task_completed / task_uncompleted transitions.
func (h Handlers) logStatusChange(r *http.Request, uid int, t Task, prev Status) {
	if prev == t.Status {
		return
	}

	env := analytics.FromRequest(r)
	env.UserID = uid

	switch {
	case t.Status == StatusDone:
		props := map[string]any{
			"task_id":                t.ID,
			"priority_at_completion": t.Priority,
			"time_since_created_sec": int(time.Since(t.CreatedAt).Seconds()),
			"completed_from":         "board",
		}
		_ = h.Analytics.Log(r.Context(), env, "task_completed", props, analytics.SourceEventKeyFromRequest(r))
	case prev == StatusDone:
		props := map[string]any{
			"task_id":                t.ID,
			"priority_at_uncomplete": t.Priority,
		}
		_ = h.Analytics.Log(r.Context(), env, "task_uncompleted", props, analytics.SourceEventKeyFromRequest(r))
	}
}
