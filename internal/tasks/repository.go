package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ocastro-backend/internal/dates"
	"ocastro-backend/internal/db"
)

var ErrNotFound = errors.New("task not found")

type Order int

const (
	// OrderNewest sorts by id, newest first.
	OrderNewest Order = iota
	// OrderDueDate sorts by due date ascending with undated tasks last.
	OrderDueDate
	// OrderCreatedDesc sorts by creation time, newest first.
	OrderCreatedDesc
)

// Filter narrows a query to one user's tasks. Zero fields are ignored.
type Filter struct {
	Status    Status
	NotStatus Status
	Priority  Priority
	DueOn     *time.Time
	DueFrom   *time.Time
	DueTo     *time.Time
	Order     Order
	Limit     int
}

// Repository is the task store used by the HTTP handlers and the interpreter.
type Repository interface {
	List(ctx context.Context, userID int, f Filter) ([]Task, error)
	Count(ctx context.Context, userID int, f Filter) (int, error)
	Get(ctx context.Context, userID, id int) (Task, error)
	Create(ctx context.Context, t *Task) error
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, userID, id int) (int, error)
	DeleteAll(ctx context.Context, userID int) (int, error)
}

type SQLRepository struct {
	db  *db.DB
	now func() time.Time
}

func NewSQLRepository(dbx *db.DB) *SQLRepository {
	return &SQLRepository{db: dbx, now: time.Now}
}

const taskColumns = `id, user_id, title, description, status, priority, due_date, created_at, updated_at`

func (f Filter) where(userID int) (string, []any) {
	conds := []string{"user_id = ?"}
	args := []any{userID}

	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.NotStatus != "" {
		conds = append(conds, "status <> ?")
		args = append(args, string(f.NotStatus))
	}
	if f.Priority != "" {
		conds = append(conds, "priority = ?")
		args = append(args, string(f.Priority))
	}
	if f.DueOn != nil {
		conds = append(conds, "due_date = ?")
		args = append(args, dates.ISO(*f.DueOn))
	}
	if f.DueFrom != nil {
		conds = append(conds, "due_date >= ?")
		args = append(args, dates.ISO(*f.DueFrom))
	}
	if f.DueTo != nil {
		conds = append(conds, "due_date <= ?")
		args = append(args, dates.ISO(*f.DueTo))
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (f Filter) orderBy() string {
	switch f.Order {
	case OrderDueDate:
		return " ORDER BY due_date IS NULL, due_date ASC, id ASC"
	case OrderCreatedDesc:
		return " ORDER BY created_at DESC, id DESC"
	default:
		return " ORDER BY id DESC"
	}
}

func (r *SQLRepository) List(ctx context.Context, userID int, f Filter) ([]Task, error) {
	where, args := f.where(userID)
	q := "SELECT " + taskColumns + " FROM tasks" + where + f.orderBy()
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var result []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (r *SQLRepository) Count(ctx context.Context, userID int, f Filter) (int, error) {
	where, args := f.where(userID)
	var n int
	err := r.db.QueryRowContext(ctx, r.db.Rebind("SELECT COUNT(*) FROM tasks"+where), args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) Get(ctx context.Context, userID, id int) (Task, error) {
	row := r.db.QueryRowContext(ctx,
		r.db.Rebind("SELECT "+taskColumns+" FROM tasks WHERE id = ? AND user_id = ?"),
		id, userID,
	)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	return t, err
}

// Create inserts t and fills in its ID and timestamps.
func (r *SQLRepository) Create(ctx context.Context, t *Task) error {
	now := r.now().UTC().Truncate(time.Millisecond)
	if t.Status == "" {
		t.Status = StatusInbox
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}

	err := r.db.QueryRowContext(ctx, r.db.Rebind(`
		INSERT INTO tasks (user_id, title, description, status, priority, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`), t.UserID, t.Title, t.Description, string(t.Status), string(t.Priority),
		dueArg(t.DueDate), now.UnixMilli(), now.UnixMilli(),
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	t.CreatedAt = now
	t.UpdatedAt = now
	return nil
}

// Update writes every mutable field of t. The task must belong to t.UserID.
func (r *SQLRepository) Update(ctx context.Context, t *Task) error {
	now := r.now().UTC().Truncate(time.Millisecond)

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE tasks
		SET title = ?, description = ?, status = ?, priority = ?, due_date = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`), t.Title, t.Description, string(t.Status), string(t.Priority),
		dueArg(t.DueDate), now.UnixMilli(), t.ID, t.UserID,
	)
	if err != nil {
		return fmt.Errorf("update task %d: %w", t.ID, err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}

	t.UpdatedAt = now
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, userID, id int) (int, error) {
	res, err := r.db.ExecContext(ctx,
		r.db.Rebind(`DELETE FROM tasks WHERE id = ? AND user_id = ?`),
		id, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete task %d: %w", id, err)
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}

// DeleteAll removes every task of the user atomically and reports how many
// were removed.
func (r *SQLRepository) DeleteAll(ctx context.Context, userID int) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx,
		r.db.Rebind(`SELECT COUNT(*) FROM tasks WHERE user_id = ?`), userID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		r.db.Rebind(`DELETE FROM tasks WHERE user_id = ?`), userID,
	); err != nil {
		return 0, fmt.Errorf("delete tasks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (Task, error) {
	var (
		t                  Task
		status, priority   string
		due                sql.NullString
		createdMs, updated int64
	)
	if err := s.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &status, &priority, &due, &createdMs, &updated); err != nil {
		return Task{}, err
	}
	t.Status = Status(status)
	t.Priority = Priority(priority)
	if due.Valid {
		if d, err := dates.ParseISO(due.String); err == nil {
			t.DueDate = &d
		}
	}
	t.CreatedAt = time.UnixMilli(createdMs).UTC()
	t.UpdatedAt = time.UnixMilli(updated).UTC()
	return t, nil
}

func dueArg(d *time.Time) any {
	if d == nil {
		return nil
	}
	return dates.ISO(*d)
}
