package todo

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// Filter selects which tasks the view shows.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

func ParseFilter(v string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(v))); f {
	case FilterAll, FilterActive, FilterCompleted:
		return f, nil
	case "":
		return FilterAll, nil
	default:
		return FilterAll, fmt.Errorf("unknown filter %q", v)
	}
}

// Next cycles all -> active -> completed -> all.
func (f Filter) Next() Filter {
	switch f {
	case FilterAll:
		return FilterActive
	case FilterActive:
		return FilterCompleted
	default:
		return FilterAll
	}
}

func (f Filter) match(t Task) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// Row is one displayable line of the task list.
type Row struct {
	Task     Task
	DueLabel string
}

type Stats struct {
	Completed int
	Total     int
	Percent   int
}

func (s Stats) String() string {
	return fmt.Sprintf("%d/%d tasks completed", s.Completed, s.Total)
}

// View is the derived, display-ready state of the list.
type View struct {
	Rows  []Row
	Empty bool
	Stats Stats
}

// Render filters, searches and sorts tasks for display. It never mutates its input.
// Stats always cover the whole list, not just the visible rows.
func Render(tasks []Task, filter Filter, query string) View {
	query = strings.ToLower(strings.TrimSpace(query))

	visible := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if !filter.match(t) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(t.Text), query) {
			continue
		}
		visible = append(visible, t.clone())
	}
	slices.SortStableFunc(visible, func(a, b Task) int {
		if d := a.Priority.rank() - b.Priority.rank(); d != 0 {
			return d
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	rows := make([]Row, len(visible))
	for i, t := range visible {
		rows[i] = Row{Task: t, DueLabel: dueLabel(t)}
	}
	return View{
		Rows:  rows,
		Empty: len(rows) == 0,
		Stats: ComputeStats(tasks),
	}
}

func ComputeStats(tasks []Task) Stats {
	st := Stats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			st.Completed++
		}
	}
	if st.Total > 0 {
		st.Percent = int(math.Round(float64(st.Completed) / float64(st.Total) * 100))
	}
	return st
}

func dueLabel(t Task) string {
	if !t.HasDue() {
		return ""
	}
	return t.DueDate.In(time.Local).Format("Jan 2")
}
