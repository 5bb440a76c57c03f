package tasks

import (
	"encoding/json"
	"strings"
	"time"

	"ocastro-backend/internal/dates"
)

type Status string

const (
	StatusInbox Status = "ENTRADA"
	StatusDoing Status = "FAZENDO"
	StatusDone  Status = "CONCLUIDA"
)

func (s Status) Valid() bool {
	switch s {
	case StatusInbox, StatusDoing, StatusDone:
		return true
	}
	return false
}

// Label is the name the board shows for a status.
func (s Status) Label() string {
	switch s {
	case StatusInbox:
		return "Entrada"
	case StatusDoing:
		return "Fazendo"
	case StatusDone:
		return "Concluída"
	}
	return string(s)
}

type Priority string

const (
	PriorityLow    Priority = "baixa"
	PriorityMedium Priority = "media"
	PriorityHigh   Priority = "alta"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ParseStatus accepts a status in any case.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}

// ParsePriority accepts "média" as an alias of "media".
func ParsePriority(s string) (Priority, bool) {
	p := strings.ToLower(strings.TrimSpace(s))
	if p == "média" {
		p = string(PriorityMedium)
	}
	return Priority(p), Priority(p).Valid()
}

// Task is one item on a user's board. DueDate is a calendar date at
// midnight UTC, or nil.
type Task struct {
	ID          int
	UserID      int
	Title       string
	Description string
	Status      Status
	Priority    Priority
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type taskJSON struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority"`
	DueDate     *string  `json:"due_date"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

func (t Task) MarshalJSON() ([]byte, error) {
	out := taskJSON{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if t.DueDate != nil {
		s := dates.ISO(*t.DueDate)
		out.DueDate = &s
	}
	return json.Marshal(out)
}

// Due returns a pointer to the calendar day of d.
func Due(d time.Time) *time.Time {
	day := dates.Day(d)
	return &day
}
