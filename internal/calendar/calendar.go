package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"ocastro-backend/internal/auth"
	"ocastro-backend/internal/dates"
	"ocastro-backend/internal/tasks"
)

type TaskLister interface {
	List(ctx context.Context, userID int, f tasks.Filter) ([]tasks.Task, error)
}

type DayEntry struct {
	ID       int            `json:"id"`
	Title    string         `json:"title"`
	Status   tasks.Status   `json:"status"`
	Priority tasks.Priority `json:"priority"`
}

type Day struct {
	Date  string     `json:"date"`
	Tasks []DayEntry `json:"tasks"`
}

type Service struct {
	Tasks TaskLister
}

// Summary groups the tasks due in [start, end] by day, earliest first.
// Days without tasks are omitted.
func (s Service) Summary(ctx context.Context, userID int, start, end time.Time) ([]Day, error) {
	list, err := s.Tasks.List(ctx, userID, tasks.Filter{
		DueFrom: &start,
		DueTo:   &end,
		Order:   tasks.OrderDueDate,
	})
	if err != nil {
		return nil, err
	}

	result := []Day{}
	for _, t := range list {
		if t.DueDate == nil {
			continue
		}
		key := dates.ISO(*t.DueDate)
		if len(result) == 0 || result[len(result)-1].Date != key {
			result = append(result, Day{Date: key})
		}
		last := &result[len(result)-1]
		last.Tasks = append(last.Tasks, DayEntry{ID: t.ID, Title: t.Title, Status: t.Status, Priority: t.Priority})
	}
	return result, nil
}

func (s Service) TasksOn(ctx context.Context, userID int, day time.Time) ([]tasks.Task, error) {
	return s.Tasks.List(ctx, userID, tasks.Filter{DueOn: &day, Order: tasks.OrderNewest})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func SummaryHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		startStr, endStr := r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date")
		if startStr == "" || endStr == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Start and End date required"})
			return
		}
		start, err1 := dates.ParseISO(startStr)
		end, err2 := dates.ParseISO(endStr)
		if err1 != nil || err2 != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid date format. Use YYYY-MM-DD"})
			return
		}

		summary, err := svc.Summary(r.Context(), uid, start, end)
		if err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": summary})
	}
}

func DayHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		day, err := dates.ParseISO(r.PathValue("date"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid date format. Use YYYY-MM-DD"})
			return
		}

		list, err := svc.TasksOn(r.Context(), uid, day)
		if err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []tasks.Task{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": list})
	}
}
