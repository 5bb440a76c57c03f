package interpreter

import (
	"context"
	"sort"
	"time"

	"ocastro-backend/internal/tasks"
)

// memRepo is an in-memory TaskRepository with the same filter semantics as
// tasks.SQLRepository. Err fields inject storage failures.
type memRepo struct {
	tasks  []tasks.Task
	nextID int
	clock  time.Time

	ListErr      error
	DeleteAllErr error
}

func newMemRepo(seed ...tasks.Task) *memRepo {
	r := &memRepo{nextID: 1, clock: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	for _, t := range seed {
		_ = r.Create(context.Background(), &t)
	}
	return r
}

func (r *memRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Minute)
	return r.clock
}

func matches(t tasks.Task, userID int, f tasks.Filter) bool {
	if t.UserID != userID {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.NotStatus != "" && t.Status == f.NotStatus {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.DueOn != nil && (t.DueDate == nil || !t.DueDate.Equal(*f.DueOn)) {
		return false
	}
	if f.DueFrom != nil && (t.DueDate == nil || t.DueDate.Before(*f.DueFrom)) {
		return false
	}
	if f.DueTo != nil && (t.DueDate == nil || t.DueDate.After(*f.DueTo)) {
		return false
	}
	return true
}

func (r *memRepo) List(_ context.Context, userID int, f tasks.Filter) ([]tasks.Task, error) {
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	var out []tasks.Task
	for _, t := range r.tasks {
		if matches(t, userID, f) {
			out = append(out, t)
		}
	}

	switch f.Order {
	case tasks.OrderDueDate:
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i].DueDate, out[j].DueDate
			switch {
			case a == nil && b == nil:
				return out[i].ID < out[j].ID
			case a == nil:
				return false
			case b == nil:
				return true
			case !a.Equal(*b):
				return a.Before(*b)
			}
			return out[i].ID < out[j].ID
		})
	case tasks.OrderCreatedDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	}

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *memRepo) Count(ctx context.Context, userID int, f tasks.Filter) (int, error) {
	f.Limit = 0
	list, err := r.List(ctx, userID, f)
	return len(list), err
}

func (r *memRepo) Create(_ context.Context, t *tasks.Task) error {
	t.ID = r.nextID
	r.nextID++
	if t.Status == "" {
		t.Status = tasks.StatusInbox
	}
	if t.Priority == "" {
		t.Priority = tasks.PriorityMedium
	}
	t.CreatedAt = r.tick()
	t.UpdatedAt = t.CreatedAt
	r.tasks = append(r.tasks, *t)
	return nil
}

func (r *memRepo) Update(_ context.Context, t *tasks.Task) error {
	for k := range r.tasks {
		if r.tasks[k].ID == t.ID && r.tasks[k].UserID == t.UserID {
			t.UpdatedAt = r.tick()
			r.tasks[k] = *t
			return nil
		}
	}
	return tasks.ErrNotFound
}

func (r *memRepo) Delete(_ context.Context, userID, id int) (int, error) {
	for k, t := range r.tasks {
		if t.ID == id && t.UserID == userID {
			r.tasks = append(r.tasks[:k], r.tasks[k+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (r *memRepo) DeleteAll(_ context.Context, userID int) (int, error) {
	if r.DeleteAllErr != nil {
		return 0, r.DeleteAllErr
	}
	kept := r.tasks[:0]
	n := 0
	for _, t := range r.tasks {
		if t.UserID == userID {
			n++
			continue
		}
		kept = append(kept, t)
	}
	r.tasks = kept
	return n, nil
}

func (r *memRepo) byTitle(title string) (tasks.Task, bool) {
	for _, t := range r.tasks {
		if t.Title == title {
			return t, true
		}
	}
	return tasks.Task{}, false
}
