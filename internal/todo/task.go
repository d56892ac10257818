package todo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority ranks a task. The zero value means no priority was chosen.
type Priority string

const (
	PriorityNone   Priority = ""
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

var (
	ErrEmptyText       = errors.New("task text cannot be empty")
	ErrInvalidPriority = errors.New("invalid priority")
)

// ParsePriority accepts high, medium, low (any case) or an empty string.
func ParsePriority(v string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(v))); p {
	case PriorityNone, PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	default:
		return PriorityNone, fmt.Errorf("%w: %q", ErrInvalidPriority, v)
	}
}

// rank orders priorities for display; tasks without a priority sort last.
func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Next cycles none -> high -> medium -> low -> none.
func (p Priority) Next() Priority {
	switch p {
	case PriorityNone:
		return PriorityHigh
	case PriorityHigh:
		return PriorityMedium
	case PriorityMedium:
		return PriorityLow
	default:
		return PriorityNone
	}
}

// Task is a single todo record.
type Task struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	Priority  Priority   `json:"priority,omitempty"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
	Category  string     `json:"category,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Validate checks the fields the store relies on before a task is persisted.
func (t Task) Validate() error {
	if t.ID == "" {
		return errors.New("task id is empty")
	}
	if strings.TrimSpace(t.Text) == "" {
		return ErrEmptyText
	}
	if _, err := ParsePriority(string(t.Priority)); err != nil {
		return err
	}
	if t.CreatedAt.IsZero() {
		return fmt.Errorf("task %s has no creation time", t.ID)
	}
	return nil
}

// HasDue reports whether the task carries a due date.
func (t Task) HasDue() bool {
	return t.DueDate != nil && !t.DueDate.IsZero()
}

func (t Task) clone() Task {
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	return t
}

// NewID returns a time-ordered identifier. UUIDv7 is monotonic within a process,
// so ids created in the same session never collide or go backwards.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
