package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"taskpad/internal/notify"
)

// ReminderMsg carries a fired reminder into the program.
type ReminderMsg notify.Reminder

// Notifier delivers reminders to the running program. Reminders that fire
// before the program starts are held until it does.
type Notifier struct {
	mu      sync.Mutex
	program *tea.Program
	queued  []notify.Reminder
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) Notify(r notify.Reminder) {
	n.mu.Lock()
	p := n.program
	if p == nil {
		n.queued = append(n.queued, r)
		n.mu.Unlock()
		return
	}
	n.mu.Unlock()
	p.Send(ReminderMsg(r))
}

func (n *Notifier) attach(p *tea.Program) []notify.Reminder {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.program = p
	queued := n.queued
	n.queued = nil
	return queued
}

func (n *Notifier) detach() {
	n.mu.Lock()
	n.program = nil
	n.mu.Unlock()
}

// Queued returns reminders waiting for a program.
func (n *Notifier) Queued() []notify.Reminder {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Reminder(nil), n.queued...)
}
