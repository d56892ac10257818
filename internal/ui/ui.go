package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskpad/internal/app"
	"taskpad/internal/config"
	"taskpad/internal/notify"
	"taskpad/internal/settings"
	"taskpad/internal/todo"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeAddMeta
	modeEdit
	modeSearch
	modeConfirmDelete
	modeConfirmClearAll
	modeSettings
	modePermission
)

type statusKind int

const (
	statusKindInfo statusKind = iota
	statusKindSuccess
	statusKindError
)

const dueLayout = "2006-01-02 15:04"

// draft collects the fields of a task being added.
type draft struct {
	text     string
	priority string
	due      string
	category string
	index    int
}

type Model struct {
	app  *app.App
	keys config.Keymap
	now  func() time.Time

	filter todo.Filter
	query  string
	view   todo.View
	cursor int

	mode     mode
	input    textinput.Model
	draft    *draft
	editID   string
	pending  *todo.Task
	prefs    settings.Settings
	prefsIdx int

	status string
	kind   statusKind
}

// New builds the root model over an opened app.
func New(a *app.App) Model {
	ti := textinput.New()
	ti.Placeholder = "Task text"
	ti.CharLimit = 256
	ti.Width = 40

	m := Model{
		app:    a,
		keys:   a.Config.Keys,
		now:    time.Now,
		filter: a.Config.Filter(),
		input:  ti,
		mode:   modeList,
	}
	m.refresh("")
	m.setStatus(statusKindInfo, fmt.Sprintf("Press '%s' to add, '%s' to toggle, '%s' to delete.",
		m.keys.Add, keyLabel(m.keys.Toggle), m.keys.Delete))

	switch {
	case a.StartErr != nil:
		m.setStatus(statusKindError, "Failed to initialize storage: task operations are disabled")
	case a.Prefs.Get().Permission == notify.PermissionDefault:
		m.mode = modePermission
		m.setStatus(statusKindInfo, "Allow due-date reminders? y/n")
	}
	return m
}

// Run starts the program and blocks until it exits.
func Run(a *app.App, n *Notifier) error {
	p := tea.NewProgram(New(a))
	if n != nil {
		queued := n.attach(p)
		defer n.detach()
		if len(queued) > 0 {
			go func() {
				for _, r := range queued {
					p.Send(ReminderMsg(r))
				}
			}()
		}
	}
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeAdd:
			return m.updateAddMode(key, msg)
		case modeAddMeta:
			return m.updateAddMetaMode(key, msg)
		case modeEdit:
			return m.updateEditMode(key, msg)
		case modeSearch:
			return m.updateSearchMode(key, msg)
		case modeConfirmDelete:
			return m.updateDeleteConfirm(key)
		case modeConfirmClearAll:
			return m.updateClearAllConfirm(key)
		case modeSettings:
			return m.updateSettingsMode(key)
		case modePermission:
			return m.updatePermissionPrompt(key)
		default:
			return m.updateListMode(key)
		}
	case tea.WindowSizeMsg:
		m.input.Width = max(msg.Width-10, 10)
	case ReminderMsg:
		m.setStatus(statusKindInfo, fmt.Sprintf("%s %s", msg.Title, msg.Body))
	}
	return m, nil
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	k := m.keys
	switch key {
	case k.Quit:
		return m, tea.Quit
	case k.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(m.view.Rows))
	case k.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(m.view.Rows))
	case k.Add:
		return m.startAdd()
	case k.Toggle:
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		err := m.app.Tasks.Toggle(ctx, t.ID)
		msg := "Task completed!"
		if t.Completed {
			msg = "Task reopened!"
		}
		m.report(err, msg, "Failed to update task")
		m.refresh(t.ID)
	case k.Delete:
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.pending = &t
		m.mode = modeConfirmDelete
		m.setStatus(statusKindInfo, fmt.Sprintf("Delete %q? y/n", t.Text))
	case k.Edit:
		t, ok := m.selected()
		if !ok {
			m.setStatus(statusKindInfo, "No task to edit")
			return m, nil
		}
		m.editID = t.ID
		m.mode = modeEdit
		m.input.SetValue(t.Text)
		m.input.CursorEnd()
		m.input.Placeholder = "Task text"
		m.setStatus(statusKindInfo, "Edit task: Enter to save, Esc to cancel")
		return m, m.input.Focus()
	case k.Undo, "u":
		id := m.selectedID()
		_, err := m.app.Tasks.Undo(ctx)
		if errors.Is(err, todo.ErrNothingToUndo) {
			m.setStatus(statusKindInfo, "Nothing to undo")
			return m, nil
		}
		m.report(err, "Action undone!", "Failed to save undo")
		m.refresh(id)
	case k.Filter:
		m.filter = m.filter.Next()
		m.refresh(m.selectedID())
		m.setStatus(statusKindInfo, fmt.Sprintf("Showing %s tasks", m.filter))
	case k.Search:
		m.mode = modeSearch
		m.input.SetValue(m.query)
		m.input.CursorEnd()
		m.input.Placeholder = "Search tasks"
		m.setStatus(statusKindInfo, "Search: type to filter, Enter to keep, Esc to clear")
		return m, m.input.Focus()
	case k.ClearCompleted:
		n, err := m.app.Tasks.ClearCompleted(ctx)
		if err == nil && n == 0 {
			m.setStatus(statusKindInfo, "No completed tasks")
			return m, nil
		}
		m.report(err, "Completed tasks cleared!", "Failed to clear tasks")
		m.refresh(m.selectedID())
	case k.ClearAll:
		if len(m.app.Tasks.Tasks()) == 0 {
			m.setStatus(statusKindInfo, "No tasks to clear")
			return m, nil
		}
		m.mode = modeConfirmClearAll
		m.setStatus(statusKindInfo, "Clear all tasks? y/n")
	case k.Export:
		path, err := todo.ExportFile(m.app.Config.ExportDir, m.app.Tasks.Tasks(), m.now())
		if err != nil {
			m.setStatus(statusKindError, fmt.Sprintf("Export failed: %v", err))
			return m, nil
		}
		m.setStatus(statusKindSuccess, "Tasks exported to "+path)
	case k.Settings:
		m.prefs = m.app.Prefs.Get()
		m.prefsIdx = 0
		m.mode = modeSettings
		m.setStatus(statusKindInfo, "Settings: up/down to move, space to change, Enter to save, Esc to cancel")
	}
	return m, nil
}

func (m Model) startAdd() (tea.Model, tea.Cmd) {
	m.mode = modeAdd
	m.input.SetValue("")
	m.input.Placeholder = "Task text"
	m.setStatus(statusKindInfo, "Add mode: type the task and press Enter")
	return m, m.input.Focus()
}

func (m Model) updateAddMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.keys.Cancel, "esc":
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.setStatus(statusKindInfo, "Cancelled")
		return m, nil
	case m.keys.Confirm, "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			m.setStatus(statusKindError, "Task cannot be empty")
			return m, nil
		}
		m.draft = &draft{
			text:     text,
			priority: string(m.app.Prefs.Get().DefaultPriority),
			category: "general",
		}
		m.mode = modeAddMeta
		m.input.SetValue(m.draft.currentValue())
		m.input.Placeholder = m.draft.currentLabel()
		m.setStatus(statusKindInfo, m.draftPrompt())
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) updateAddMetaMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.draft == nil {
		m.mode = modeList
		return m, nil
	}
	switch key {
	case m.keys.Cancel, "esc":
		m.draft = nil
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.setStatus(statusKindInfo, "Cancelled")
		return m, nil
	case "tab", "down":
		m.draft.setCurrentValue(m.input.Value())
		m.draft.index = wrapIndex(m.draft.index+1, len(draftFields()))
		m.input.SetValue(m.draft.currentValue())
		m.input.Placeholder = m.draft.currentLabel()
		m.setStatus(statusKindInfo, m.draftPrompt())
		return m, nil
	case "shift+tab", "up":
		m.draft.setCurrentValue(m.input.Value())
		m.draft.index = wrapIndex(m.draft.index-1, len(draftFields()))
		m.input.SetValue(m.draft.currentValue())
		m.input.Placeholder = m.draft.currentLabel()
		m.setStatus(statusKindInfo, m.draftPrompt())
		return m, nil
	case m.keys.Confirm, "enter":
		m.draft.setCurrentValue(m.input.Value())
		if m.draft.index >= len(draftFields())-1 {
			return m.saveDraft()
		}
		m.draft.index++
		m.input.SetValue(m.draft.currentValue())
		m.input.Placeholder = m.draft.currentLabel()
		m.setStatus(statusKindInfo, m.draftPrompt())
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) saveDraft() (tea.Model, tea.Cmd) {
	d := m.draft
	prio, err := todo.ParsePriority(d.priority)
	if err != nil {
		m.setStatus(statusKindError, "priority must be high, medium or low")
		return m, nil
	}
	due, err := parseDue(d.due)
	if err != nil {
		m.setStatus(statusKindError, fmt.Sprintf("due date invalid: %v", err))
		return m, nil
	}

	t, err := m.app.Tasks.Add(context.Background(), todo.AddParams{
		Text:     d.text,
		Priority: prio,
		DueDate:  due,
		Category: d.category,
	})
	m.draft = nil
	m.mode = modeList
	m.input.SetValue("")
	m.input.Blur()
	m.report(err, "Task added!", "Failed to add task")
	m.refresh(t.ID)
	return m, nil
}

func (m Model) updateEditMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.keys.Cancel, "esc":
		m.mode = modeList
		m.editID = ""
		m.input.Blur()
		m.setStatus(statusKindInfo, "Edit cancelled")
		return m, nil
	case m.keys.Confirm, "enter":
		err := m.app.Tasks.Edit(context.Background(), m.editID, m.input.Value())
		if errors.Is(err, todo.ErrEmptyText) {
			m.setStatus(statusKindError, "Task cannot be empty")
			return m, nil
		}
		id := m.editID
		m.mode = modeList
		m.editID = ""
		m.input.SetValue("")
		m.input.Blur()
		m.report(err, "Task updated!", "Failed to update task")
		m.refresh(id)
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) updateSearchMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.keys.Cancel, "esc":
		m.query = ""
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.refresh(m.selectedID())
		m.setStatus(statusKindInfo, "Search cleared")
		return m, nil
	case m.keys.Confirm, "enter":
		m.mode = modeList
		m.input.Blur()
		m.setStatus(statusKindInfo, fmt.Sprintf("%d matching tasks", len(m.view.Rows)))
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.query = m.input.Value()
		m.refresh(m.selectedID())
		return m, cmd
	}
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", "esc":
		m.setStatus(statusKindInfo, "Delete cancelled")
		m.mode = modeList
		m.pending = nil
		return m, nil
	case "y", "Y":
		if m.pending == nil {
			m.setStatus(statusKindInfo, "Nothing to delete")
			m.mode = modeList
			return m, nil
		}
		err := m.app.Tasks.Delete(context.Background(), m.pending.ID)
		m.report(err, "Task deleted!", "Failed to delete task")
		m.mode = modeList
		m.pending = nil
		m.refresh("")
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) updateClearAllConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", "esc":
		m.setStatus(statusKindInfo, "Clear cancelled")
		m.mode = modeList
		return m, nil
	case "y", "Y":
		_, err := m.app.Tasks.ClearAll(context.Background())
		m.report(err, "All tasks cleared!", "Failed to clear tasks")
		m.mode = modeList
		m.refresh("")
		return m, nil
	default:
		return m, nil
	}
}

func settingsFields() []string {
	return []string{"default priority", "notifications", "reminder permission"}
}

func (m Model) updateSettingsMode(key string) (tea.Model, tea.Cmd) {
	n := len(settingsFields())
	switch key {
	case m.keys.Cancel, "esc":
		m.mode = modeList
		m.setStatus(statusKindInfo, "Settings unchanged")
	case "down", "tab", m.keys.Down:
		m.prefsIdx = wrapIndex(m.prefsIdx+1, n)
	case "up", "shift+tab", m.keys.Up:
		m.prefsIdx = wrapIndex(m.prefsIdx-1, n)
	case " ", "left", "right", "h", "l":
		switch m.prefsIdx {
		case 0:
			m.prefs.DefaultPriority = nextDefaultPriority(m.prefs.DefaultPriority)
		case 1:
			m.prefs.NotificationsEnabled = !m.prefs.NotificationsEnabled
		case 2:
			if m.prefs.Permission == notify.PermissionGranted {
				m.prefs.Permission = notify.PermissionDenied
			} else {
				m.prefs.Permission = notify.PermissionGranted
			}
		}
	case m.keys.Confirm, "enter":
		wasGranted := m.app.Prefs.Get().Permission == notify.PermissionGranted
		if err := m.app.SaveSettings(context.Background(), m.prefs); err != nil {
			m.setStatus(statusKindError, fmt.Sprintf("Failed to save settings: %v", err))
		} else {
			m.setStatus(statusKindSuccess, "Settings saved!")
		}
		if !wasGranted && m.prefs.Permission == notify.PermissionGranted {
			m.app.RearmReminders()
		}
		m.mode = modeList
	}
	return m, nil
}

func (m Model) updatePermissionPrompt(key string) (tea.Model, tea.Cmd) {
	prefs := m.app.Prefs.Get()
	switch key {
	case "y", "Y":
		prefs.Permission = notify.PermissionGranted
	case "n", "N", "esc":
		prefs.Permission = notify.PermissionDenied
	default:
		return m, nil
	}
	m.mode = modeList
	if err := m.app.SaveSettings(context.Background(), prefs); err != nil {
		m.setStatus(statusKindError, fmt.Sprintf("Failed to save settings: %v", err))
		return m, nil
	}
	if prefs.Permission == notify.PermissionGranted {
		m.app.RearmReminders()
		m.setStatus(statusKindSuccess, "Notifications enabled!")
	} else {
		m.setStatus(statusKindInfo, "Reminders stay off. Change this in settings.")
	}
	return m, nil
}

// report turns a store error into the transient notice shown to the user.
func (m *Model) report(err error, ok, failed string) {
	switch {
	case err == nil:
		m.setStatus(statusKindSuccess, ok)
	case errors.Is(err, todo.ErrEmptyText):
		m.setStatus(statusKindError, "Task cannot be empty")
	case errors.Is(err, todo.ErrUnavailable):
		m.setStatus(statusKindError, "Task storage is unavailable")
	case errors.Is(err, todo.ErrPersist):
		m.setStatus(statusKindError, failed)
	default:
		m.setStatus(statusKindError, fmt.Sprintf("%s: %v", failed, err))
	}
}

func (m *Model) setStatus(kind statusKind, msg string) {
	m.kind = kind
	m.status = msg
}

// refresh re-derives the view from the store and keeps the cursor on keepID
// when that task is still visible.
func (m *Model) refresh(keepID string) {
	m.view = todo.Render(m.app.Tasks.Tasks(), m.filter, m.query)
	if keepID != "" {
		for i, r := range m.view.Rows {
			if r.Task.ID == keepID {
				m.cursor = i
				return
			}
		}
	}
	m.cursor = clampCursor(m.cursor, len(m.view.Rows))
}

func (m Model) selected() (todo.Task, bool) {
	if len(m.view.Rows) == 0 {
		return todo.Task{}, false
	}
	return m.view.Rows[clampCursor(m.cursor, len(m.view.Rows))].Task, true
}

func (m Model) selectedID() string {
	t, ok := m.selected()
	if !ok {
		return ""
	}
	return t.ID
}

func draftFields() []string {
	return []string{"priority (high/medium/low)", "due (YYYY-MM-DD [HH:MM])", "category"}
}

func (d draft) currentLabel() string {
	return draftFields()[d.index]
}

func (d draft) currentValue() string {
	switch d.index {
	case 0:
		return d.priority
	case 1:
		return d.due
	case 2:
		return d.category
	default:
		return ""
	}
}

func (d *draft) setCurrentValue(v string) {
	switch d.index {
	case 0:
		d.priority = v
	case 1:
		d.due = v
	case 2:
		d.category = v
	}
}

func (m Model) draftPrompt() string {
	if m.draft == nil {
		return ""
	}
	return fmt.Sprintf("Editing %s (field %d of %d). Enter to advance, Esc to cancel, tab to move.",
		m.draft.currentLabel(), m.draft.index+1, len(draftFields()))
}

// parseDue accepts a date or a date and time in the local zone.
func parseDue(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{dueLayout, "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("want YYYY-MM-DD or YYYY-MM-DD HH:MM, got %q", v)
}

func nextDefaultPriority(p todo.Priority) todo.Priority {
	switch p {
	case todo.PriorityHigh:
		return todo.PriorityMedium
	case todo.PriorityMedium:
		return todo.PriorityLow
	default:
		return todo.PriorityHigh
	}
}

func keyLabel(k string) string {
	if k == " " {
		return "space"
	}
	return k
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
