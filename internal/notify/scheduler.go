package notify

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"taskpad/internal/todo"
)

// Permission is the host's answer to "may we show reminders".
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

func ParsePermission(v string) (Permission, error) {
	switch p := Permission(strings.ToLower(strings.TrimSpace(v))); p {
	case PermissionDefault, PermissionGranted, PermissionDenied:
		return p, nil
	default:
		return PermissionDefault, fmt.Errorf("unknown notification permission %q", v)
	}
}

// Reminder is what gets delivered when a task falls due.
type Reminder struct {
	TaskID string
	Title  string
	Body   string
	At     time.Time
}

type Notifier interface {
	Notify(r Reminder)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(r Reminder)

func (f NotifierFunc) Notify(r Reminder) { f(r) }

type Config struct {
	Notifier   Notifier
	Permission func() Permission
	Now        func() time.Time
	Logger     *slog.Logger
}

// Scheduler arms one-shot reminders. Reminders are not retracted when a task
// is deleted; Stop disarms everything at teardown.
type Scheduler struct {
	notifier   Notifier
	permission func() Permission
	now        func() time.Time
	logger     *slog.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

func New(cfg Config) *Scheduler {
	s := &Scheduler{
		notifier:   cfg.Notifier,
		permission: cfg.Permission,
		now:        cfg.Now,
		logger:     cfg.Logger,
		timers:     make(map[string]*time.Timer),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.permission == nil {
		s.permission = func() Permission { return PermissionDefault }
	}
	return s
}

// Schedule arms a reminder for t's due time. It reports false, without error,
// when there is nothing to arm: no due date, already past, no permission or no notifier.
func (s *Scheduler) Schedule(t todo.Task) bool {
	if s.notifier == nil || !t.HasDue() {
		return false
	}
	if s.permission() != PermissionGranted {
		return false
	}
	wait := t.DueDate.Sub(s.now())
	if wait <= 0 {
		return false
	}

	r := Reminder{
		TaskID: t.ID,
		Title:  "Task Due!",
		Body:   fmt.Sprintf("Your task %q is due now!", t.Text),
		At:     *t.DueDate,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	key := fmt.Sprintf("%s@%d", t.ID, t.DueDate.UnixNano())
	if _, armed := s.timers[key]; armed {
		return true
	}
	s.timers[key] = time.AfterFunc(wait, func() {
		s.mu.Lock()
		_, live := s.timers[key]
		delete(s.timers, key)
		s.mu.Unlock()
		if !live {
			return
		}
		s.logger.Info("reminder fired", "id", r.TaskID)
		s.notifier.Notify(r)
	})
	s.logger.Debug("reminder scheduled", "id", t.ID, "in", wait.String())
	return true
}

// Pending counts armed reminders.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, tm := range s.timers {
		tm.Stop()
		delete(s.timers, key)
	}
	s.stopped = true
}
