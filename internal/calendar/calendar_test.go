package calendar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocastro-backend/internal/auth"
	"ocastro-backend/internal/tasks"
)

type listerFunc func(ctx context.Context, userID int, f tasks.Filter) ([]tasks.Task, error)

func (fn listerFunc) List(ctx context.Context, userID int, f tasks.Filter) ([]tasks.Task, error) {
	return fn(ctx, userID, f)
}

func d(day int) *time.Time {
	return tasks.Due(time.Date(2024, 6, day, 0, 0, 0, 0, time.UTC))
}

func TestSummary(t *testing.T) {
	var gotFilter tasks.Filter
	svc := Service{Tasks: listerFunc(func(_ context.Context, userID int, f tasks.Filter) ([]tasks.Task, error) {
		gotFilter = f
		return []tasks.Task{
			{ID: 1, Title: "a", DueDate: d(1), Status: tasks.StatusInbox, Priority: tasks.PriorityHigh},
			{ID: 2, Title: "b", DueDate: d(1), Status: tasks.StatusDone, Priority: tasks.PriorityLow},
			{ID: 3, Title: "c", DueDate: d(4), Status: tasks.StatusDoing, Priority: tasks.PriorityMedium},
		}, nil
	})}

	got, err := svc.Summary(context.Background(), 1, *d(1), *d(30))
	require.NoError(t, err)

	want := []Day{
		{Date: "2024-06-01", Tasks: []DayEntry{
			{ID: 1, Title: "a", Status: tasks.StatusInbox, Priority: tasks.PriorityHigh},
			{ID: 2, Title: "b", Status: tasks.StatusDone, Priority: tasks.PriorityLow},
		}},
		{Date: "2024-06-04", Tasks: []DayEntry{
			{ID: 3, Title: "c", Status: tasks.StatusDoing, Priority: tasks.PriorityMedium},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summary mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, tasks.OrderDueDate, gotFilter.Order)
	require.NotNil(t, gotFilter.DueFrom)
	require.NotNil(t, gotFilter.DueTo)
}

func TestHandlers(t *testing.T) {
	svc := Service{Tasks: listerFunc(func(context.Context, int, tasks.Filter) ([]tasks.Task, error) {
		return nil, nil
	})}

	tests := []struct {
		name    string
		handler http.HandlerFunc
		target  string
		date    string
		code    int
	}{
		{"summary ok", SummaryHandler(svc), "/api/calendar/summary?start_date=2024-06-01&end_date=2024-06-30", "", http.StatusOK},
		{"summary missing", SummaryHandler(svc), "/api/calendar/summary?start_date=2024-06-01", "", http.StatusBadRequest},
		{"summary invalid", SummaryHandler(svc), "/api/calendar/summary?start_date=01/06&end_date=2024-06-30", "", http.StatusBadRequest},
		{"day ok", DayHandler(svc), "/api/calendar/day/2024-06-01", "2024-06-01", http.StatusOK},
		{"day invalid", DayHandler(svc), "/api/calendar/day/hoje", "hoje", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			r.SetPathValue("date", tt.date)
			r = r.WithContext(auth.WithUserID(r.Context(), 1))
			w := httptest.NewRecorder()
			tt.handler(w, r)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestSummaryHandler_StoreError(t *testing.T) {
	svc := Service{Tasks: listerFunc(func(context.Context, int, tasks.Filter) ([]tasks.Task, error) {
		return nil, errors.New("down")
	})}
	r := httptest.NewRequest(http.MethodGet, "/api/calendar/summary?start_date=2024-06-01&end_date=2024-06-30", nil)
	r = r.WithContext(auth.WithUserID(r.Context(), 1))
	w := httptest.NewRecorder()
	SummaryHandler(svc)(w, r)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
