package ui

import (
	"fmt"
	"strings"

	"taskpad/internal/config"
	"taskpad/internal/notify"
	"taskpad/internal/todo"
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("taskpad"))
	b.WriteString("\n")
	b.WriteString(m.renderFilterLine())
	b.WriteString("\n\n")

	if m.view.Empty {
		b.WriteString(emptyStyle.Render(m.emptyText()))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderTaskList())
	}

	st := m.view.Stats
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s • %d%% complete", st, st.Percent))
	b.WriteString("\n---\n")

	switch m.mode {
	case modeAdd:
		b.WriteString("Add Task: ")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	case modeAddMeta:
		b.WriteString(m.renderDraftBox())
		b.WriteString("\n")
		b.WriteString("Field: " + m.draft.currentLabel())
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	case modeEdit:
		b.WriteString("Edit Task: ")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	case modeSearch:
		b.WriteString("Search: ")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	case modeSettings:
		b.WriteString(m.renderSettingsBox())
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(renderHelp(m.keys)))
	return b.String()
}

func (m Model) emptyText() string {
	switch {
	case !m.app.Tasks.Available():
		return "Task storage is unavailable."
	case m.query != "":
		return "No tasks match your search."
	default:
		return fmt.Sprintf("No tasks here. Press '%s' to add one.", m.keys.Add)
	}
}

func (m Model) renderFilterLine() string {
	line := "Filter: " + string(m.filter)
	if m.query != "" {
		line += fmt.Sprintf(" • Search: %q", m.query)
	}
	if m.app.Tasks.CanUndo() {
		line += fmt.Sprintf(" • %s to undo", m.keys.Undo)
	}
	return badgeStyle.Render(line)
}

func (m Model) renderTaskList() string {
	var b strings.Builder
	for i, r := range m.view.Rows {
		cursor := " "
		if m.cursor == i && m.mode == modeList {
			cursor = ">"
		}
		checkbox := "[ ]"
		text := r.Task.Text
		if r.Task.Completed {
			checkbox = "[x]"
			text = completedStyle.Render(text)
		} else if m.cursor == i {
			text = selectedStyle.Render(text)
		}

		line := fmt.Sprintf("%s %s %s", cursor, checkbox, text)
		if badges := renderBadges(r); badges != "" {
			line += " " + badges
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func renderBadges(r todo.Row) string {
	var parts []string
	if r.Task.Priority != todo.PriorityNone {
		parts = append(parts, priorityStyle(r.Task.Priority).Render(string(r.Task.Priority)))
	}
	if r.DueLabel != "" {
		parts = append(parts, badgeStyle.Render("Due: "+r.DueLabel))
	}
	if r.Task.Category != "" {
		parts = append(parts, badgeStyle.Render("#"+r.Task.Category))
	}
	return strings.Join(parts, " ")
}

func (m Model) renderDraftBox() string {
	if m.draft == nil {
		return ""
	}
	values := []string{m.draft.priority, m.draft.due, m.draft.category}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("New task: %s\n", m.draft.text))
	for i, name := range draftFields() {
		prefix := " "
		if i == m.draft.index {
			prefix = ">"
		}
		b.WriteString(fmt.Sprintf("%s %-28s : %s\n", prefix, name, emptyPlaceholder(values[i])))
	}
	return b.String()
}

func (m Model) renderSettingsBox() string {
	values := []string{
		string(m.prefs.DefaultPriority),
		onOff(m.prefs.NotificationsEnabled),
		permissionLabel(m.prefs.Permission),
	}
	var b strings.Builder
	b.WriteString("Settings\n")
	for i, name := range settingsFields() {
		prefix := " "
		if i == m.prefsIdx {
			prefix = ">"
		}
		b.WriteString(fmt.Sprintf("%s %-20s : %s\n", prefix, name, values[i]))
	}
	return b.String()
}

func (m Model) renderStatus() string {
	switch m.kind {
	case statusKindSuccess:
		return statusSuccess.Render(m.status)
	case statusKindError:
		return statusError.Render(m.status)
	default:
		return statusInfo.Render(m.status)
	}
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • %s toggle • %s edit • %s delete • %s undo • %s filter • %s search • %s clear done • %s clear all • %s export • %s settings • %s quit",
		k.Up, k.Down, k.Add, keyLabel(k.Toggle), k.Edit, k.Delete, k.Undo, k.Filter, k.Search,
		k.ClearCompleted, k.ClearAll, k.Export, k.Settings, k.Quit)
}

func emptyPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(empty)"
	}
	return v
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func permissionLabel(p notify.Permission) string {
	if p == notify.PermissionGranted {
		return "granted"
	}
	if p == notify.PermissionDenied {
		return "denied"
	}
	return "not decided"
}
