package todo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
)

var (
	// ErrPersist wraps every failed write to the persistent store. The in-memory
	// mutation that preceded it is kept.
	ErrPersist       = errors.New("persist tasks")
	ErrUnavailable   = errors.New("task storage unavailable")
	ErrNothingToUndo = errors.New("nothing to undo")
)

// Persister is the key-value object store backing the task list, keyed by task id.
// The bulk methods must each run as a single transaction.
type Persister interface {
	All(ctx context.Context) ([]Task, error)
	Put(ctx context.Context, t Task) error
	PutMany(ctx context.Context, tasks []Task) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) error
	DeleteAll(ctx context.Context) error
	ReplaceAll(ctx context.Context, tasks []Task) error
}

// Reminders arms a one-shot reminder for a task's due date.
type Reminders interface {
	Schedule(t Task) bool
}

type Options struct {
	Persister Persister
	Reminders Reminders
	Logger    *slog.Logger
	Now       func() time.Time
	NewID     func() string
}

// AddParams describes a task to create.
type AddParams struct {
	Text     string
	Priority Priority
	DueDate  *time.Time
	Category string
}

// Store owns the canonical task list and keeps the persistent store in step
// with it. Every mutation records its inverse in the undo log before the write.
// A Store is not safe for concurrent use; callers dispatch one operation at a time.
type Store struct {
	persister Persister
	reminders Reminders
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string

	tasks         []Task
	undo          Log
	notifications bool
	available     bool
}

// New builds a store. Without a Persister the store is unavailable and every
// operation fails with ErrUnavailable.
func New(opts Options) *Store {
	s := &Store{
		persister:     opts.Persister,
		reminders:     opts.Reminders,
		logger:        opts.Logger,
		now:           opts.Now,
		newID:         opts.NewID,
		notifications: true,
		available:     opts.Persister != nil,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = NewID
	}
	return s
}

// Load hydrates the in-memory list from the persistent store. A failure here is
// fatal for the session: the list stays empty and the store becomes unavailable.
func (s *Store) Load(ctx context.Context) ([]Task, error) {
	if !s.available {
		return nil, ErrUnavailable
	}
	loaded, err := s.persister.All(ctx)
	if err != nil {
		s.available = false
		s.tasks = nil
		s.logger.Error("load tasks failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	seen := make(map[string]struct{}, len(loaded))
	tasks := make([]Task, 0, len(loaded))
	for _, t := range loaded {
		if err := t.Validate(); err != nil {
			s.logger.Warn("skipping invalid stored task", "id", t.ID, "error", err)
			continue
		}
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		tasks = append(tasks, t)
	}
	slices.SortStableFunc(tasks, func(a, b Task) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	s.tasks = tasks
	s.undo.Reset()
	s.logger.Info("tasks loaded", "count", len(tasks))
	return s.Tasks(), nil
}

// Close drops in-memory state. The persister is owned and closed by the caller.
func (s *Store) Close() {
	s.tasks = nil
	s.undo.Reset()
	s.available = false
}

func (s *Store) Available() bool {
	return s.available
}

func (s *Store) SetNotifications(enabled bool) {
	s.notifications = enabled
}

func (s *Store) NotificationsEnabled() bool {
	return s.notifications
}

// Tasks returns a copy of the in-memory list in insertion order.
func (s *Store) Tasks() []Task {
	out := make([]Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.clone()
	}
	return out
}

func (s *Store) Get(id string) (Task, bool) {
	i := s.index(id)
	if i < 0 {
		return Task{}, false
	}
	return s.tasks[i].clone(), true
}

func (s *Store) CanUndo() bool {
	return s.undo.Len() > 0
}

func (s *Store) Add(ctx context.Context, p AddParams) (Task, error) {
	if !s.available {
		return Task{}, ErrUnavailable
	}
	text := strings.TrimSpace(p.Text)
	if text == "" {
		return Task{}, ErrEmptyText
	}
	prio, err := ParsePriority(string(p.Priority))
	if err != nil {
		return Task{}, err
	}

	t := Task{
		ID:        s.newID(),
		Text:      text,
		Priority:  prio,
		Category:  strings.TrimSpace(p.Category),
		CreatedAt: normalize(s.now()),
	}
	if p.DueDate != nil && !p.DueDate.IsZero() {
		due := normalize(*p.DueDate)
		t.DueDate = &due
	}
	if s.index(t.ID) >= 0 {
		return Task{}, fmt.Errorf("duplicate task id %s", t.ID)
	}

	s.tasks = append(s.tasks, t)
	s.undo.Push(Entry{Kind: KindAdd, ID: t.ID})
	if err := s.persist("add", func() error { return s.persister.Put(ctx, t) }); err != nil {
		return t.clone(), err
	}

	if s.notifications && t.HasDue() && s.reminders != nil {
		s.reminders.Schedule(t.clone())
	}
	return t.clone(), nil
}

// Toggle flips the completion flag. Unknown ids are ignored.
func (s *Store) Toggle(ctx context.Context, id string) error {
	if !s.available {
		return ErrUnavailable
	}
	i := s.index(id)
	if i < 0 {
		return nil
	}
	prior := s.tasks[i].Completed
	s.tasks[i].Completed = !prior
	s.undo.Push(Entry{Kind: KindToggle, ID: id, Completed: prior})
	t := s.tasks[i].clone()
	return s.persist("toggle", func() error { return s.persister.Put(ctx, t) })
}

// Edit replaces the task text. Unknown ids are ignored.
func (s *Store) Edit(ctx context.Context, id, text string) error {
	if !s.available {
		return ErrUnavailable
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}
	i := s.index(id)
	if i < 0 {
		return nil
	}
	prior := s.tasks[i].Text
	s.tasks[i].Text = text
	s.undo.Push(Entry{Kind: KindEdit, ID: id, Text: prior})
	t := s.tasks[i].clone()
	return s.persist("edit", func() error { return s.persister.Put(ctx, t) })
}

// Delete removes a task. Unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, id string) error {
	if !s.available {
		return ErrUnavailable
	}
	i := s.index(id)
	if i < 0 {
		return nil
	}
	removed := s.tasks[i]
	s.tasks = slices.Delete(s.tasks, i, i+1)
	s.undo.Push(Entry{Kind: KindDelete, ID: id, Removed: []Removed{{Index: i, Task: removed}}})
	return s.persist("delete", func() error { return s.persister.Delete(ctx, id) })
}

// ClearCompleted removes every completed task and reports how many went.
func (s *Store) ClearCompleted(ctx context.Context) (int, error) {
	if !s.available {
		return 0, ErrUnavailable
	}
	var (
		removed []Removed
		kept    = make([]Task, 0, len(s.tasks))
		ids     []string
	)
	for i, t := range s.tasks {
		if t.Completed {
			removed = append(removed, Removed{Index: i, Task: t})
			ids = append(ids, t.ID)
			continue
		}
		kept = append(kept, t)
	}
	if len(removed) == 0 {
		return 0, nil
	}
	s.tasks = kept
	s.undo.Push(Entry{Kind: KindClearCompleted, Removed: removed})
	return len(removed), s.persist("clear completed", func() error { return s.persister.DeleteMany(ctx, ids) })
}

// ClearAll empties the list.
func (s *Store) ClearAll(ctx context.Context) (int, error) {
	if !s.available {
		return 0, ErrUnavailable
	}
	if len(s.tasks) == 0 {
		return 0, nil
	}
	snapshot := s.tasks
	s.tasks = nil
	s.undo.Push(Entry{Kind: KindClearAll, Snapshot: snapshot})
	return len(snapshot), s.persist("clear all", func() error { return s.persister.DeleteAll(ctx) })
}

// Undo pops the newest entry and reverses it. Reversals are not recorded.
func (s *Store) Undo(ctx context.Context) (Entry, error) {
	if !s.available {
		return Entry{}, ErrUnavailable
	}
	e, ok := s.undo.Pop()
	if !ok {
		return Entry{}, ErrNothingToUndo
	}
	s.logger.Debug("undo", "kind", e.Kind.String(), "id", e.ID)
	return e, s.revert(ctx, e)
}

func (s *Store) revert(ctx context.Context, e Entry) error {
	switch e.Kind {
	case KindAdd:
		i := s.index(e.ID)
		if i < 0 {
			return nil
		}
		s.tasks = slices.Delete(s.tasks, i, i+1)
		return s.persist("undo add", func() error { return s.persister.Delete(ctx, e.ID) })
	case KindToggle:
		i := s.index(e.ID)
		if i < 0 {
			return nil
		}
		s.tasks[i].Completed = e.Completed
		t := s.tasks[i].clone()
		return s.persist("undo toggle", func() error { return s.persister.Put(ctx, t) })
	case KindEdit:
		i := s.index(e.ID)
		if i < 0 {
			return nil
		}
		s.tasks[i].Text = e.Text
		t := s.tasks[i].clone()
		return s.persist("undo edit", func() error { return s.persister.Put(ctx, t) })
	case KindDelete, KindClearCompleted:
		restored := s.reinsert(e.Removed)
		if len(restored) == 0 {
			return nil
		}
		return s.persist("undo "+e.Kind.String(), func() error { return s.persister.PutMany(ctx, restored) })
	case KindClearAll:
		s.tasks = make([]Task, len(e.Snapshot))
		for i, t := range e.Snapshot {
			s.tasks[i] = t.clone()
		}
		snapshot := s.Tasks()
		return s.persist("undo clear all", func() error { return s.persister.ReplaceAll(ctx, snapshot) })
	default:
		return fmt.Errorf("unknown undo kind %d", e.Kind)
	}
}

// reinsert puts removed tasks back at their recorded positions. Entries are
// expected in ascending index order so earlier inserts don't shift later ones.
func (s *Store) reinsert(removed []Removed) []Task {
	restored := make([]Task, 0, len(removed))
	for _, r := range removed {
		if s.index(r.Task.ID) >= 0 {
			continue
		}
		at := min(max(r.Index, 0), len(s.tasks))
		t := r.Task.clone()
		s.tasks = slices.Insert(s.tasks, at, t)
		restored = append(restored, t.clone())
	}
	return restored
}

func (s *Store) persist(op string, write func() error) error {
	if err := write(); err != nil {
		s.logger.Error("persist failed", "op", op, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrPersist, op, err)
	}
	return nil
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.tasks, func(t Task) bool { return t.ID == id })
}

// normalize drops the monotonic clock reading and pins the zone to UTC so
// timestamps compare equal after a trip through storage.
func normalize(t time.Time) time.Time {
	return t.Round(0).UTC()
}
