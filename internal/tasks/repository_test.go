package tasks

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocastro-backend/internal/db"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestRepo(t *testing.T) *SQLRepository {
	t.Helper()
	dbx, err := db.OpenSQLite(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbx.Close() })

	repo := NewSQLRepository(dbx)
	clock := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return repo
}

func seed(t *testing.T, repo *SQLRepository, tasks ...Task) []Task {
	t.Helper()
	out := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		require.NoError(t, repo.Create(context.Background(), &task))
		out = append(out, task)
	}
	return out
}

func titles(ts []Task) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Title
	}
	return out
}

func TestSQLRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	task := Task{UserID: 1, Title: "Comprar pão", DueDate: Due(day(2024, 6, 2))}
	require.NoError(t, repo.Create(ctx, &task))
	assert.NotZero(t, task.ID)
	assert.Equal(t, StatusInbox, task.Status)
	assert.Equal(t, PriorityMedium, task.Priority)

	got, err := repo.Get(ctx, 1, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Comprar pão", got.Title)
	require.NotNil(t, got.DueDate)
	assert.True(t, got.DueDate.Equal(day(2024, 6, 2)))
	assert.True(t, got.CreatedAt.Equal(task.CreatedAt))

	_, err = repo.Get(ctx, 2, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	seed(t, repo,
		Task{UserID: 1, Title: "a", DueDate: Due(day(2024, 6, 3))},
		Task{UserID: 1, Title: "b", DueDate: Due(day(2024, 6, 1)), Status: StatusDone},
		Task{UserID: 1, Title: "c"},
		Task{UserID: 1, Title: "d", DueDate: Due(day(2024, 6, 1)), Priority: PriorityHigh},
		Task{UserID: 2, Title: "other", DueDate: Due(day(2024, 6, 1))},
	)

	all, err := repo.List(ctx, 1, Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "c", "b", "a"}, titles(all))

	byDue, err := repo.List(ctx, 1, Filter{Order: OrderDueDate})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "d", "a", "c"}, titles(byDue))

	open, err := repo.List(ctx, 1, Filter{NotStatus: StatusDone, Order: OrderDueDate, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "a"}, titles(open))

	today, err := repo.List(ctx, 1, Filter{DueOn: Due(day(2024, 6, 1))})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "d"}, titles(today))

	ranged, err := repo.List(ctx, 1, Filter{DueFrom: Due(day(2024, 6, 2)), DueTo: Due(day(2024, 6, 30))})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, titles(ranged))

	high, err := repo.List(ctx, 1, Filter{Priority: PriorityHigh})
	require.NoError(t, err)
	assert.Equal(t, []string{"d"}, titles(high))

	newest, err := repo.List(ctx, 1, Filter{Order: OrderCreatedDesc, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"d"}, titles(newest))

	n, err := repo.Count(ctx, 1, Filter{NotStatus: StatusDone})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSQLRepository_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	created := seed(t, repo, Task{UserID: 1, Title: "Revisar código", DueDate: Due(day(2024, 6, 5))})

	task := created[0]
	task.Status = StatusDoing
	task.Title = "Revisar código do projeto"
	task.DueDate = nil
	require.NoError(t, repo.Update(ctx, &task))
	assert.True(t, task.UpdatedAt.After(task.CreatedAt))

	got, err := repo.Get(ctx, 1, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDoing, got.Status)
	assert.Equal(t, "Revisar código do projeto", got.Title)
	assert.Nil(t, got.DueDate)

	foreign := task
	foreign.UserID = 2
	assert.ErrorIs(t, repo.Update(ctx, &foreign), ErrNotFound)

	n, err := repo.Delete(ctx, 2, task.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.Delete(ctx, 1, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLRepository_DeleteAll(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seed(t, repo,
		Task{UserID: 1, Title: "a"},
		Task{UserID: 1, Title: "b"},
		Task{UserID: 1, Title: "c"},
		Task{UserID: 2, Title: "keep"},
	)

	n, err := repo.DeleteAll(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = repo.DeleteAll(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, n)

	left, err := repo.List(ctx, 2, Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, titles(left))
}

func TestParseHelpers(t *testing.T) {
	st, ok := ParseStatus("fazendo")
	assert.True(t, ok)
	assert.Equal(t, StatusDoing, st)
	_, ok = ParseStatus("pendente")
	assert.False(t, ok)

	p, ok := ParsePriority("Média")
	assert.True(t, ok)
	assert.Equal(t, PriorityMedium, p)
	_, ok = ParsePriority("urgente")
	assert.False(t, ok)

	assert.Equal(t, "Concluída", StatusDone.Label())
}
