package todo

// Kind tags an undo entry with the mutation it reverses.
type Kind int

const (
	KindAdd Kind = iota
	KindToggle
	KindEdit
	KindDelete
	KindClearCompleted
	KindClearAll
)

func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindToggle:
		return "toggle"
	case KindEdit:
		return "edit"
	case KindDelete:
		return "delete"
	case KindClearCompleted:
		return "clear-completed"
	case KindClearAll:
		return "clear-all"
	default:
		return "unknown"
	}
}

// Removed is a task taken out of the list together with the index it held.
type Removed struct {
	Index int
	Task  Task
}

// Entry captures exactly what is needed to reverse one mutation.
//
//	add              ID
//	toggle           ID, Completed (value before the toggle)
//	edit             ID, Text (value before the edit)
//	delete           Removed[0]
//	clear-completed  Removed, in ascending index order
//	clear-all        Snapshot
type Entry struct {
	Kind      Kind
	ID        string
	Completed bool
	Text      string
	Removed   []Removed
	Snapshot  []Task
}

// Log is the undo stack. Only the newest entry can be reversed and there is no redo.
type Log struct {
	entries []Entry
}

func (l *Log) Push(e Entry) {
	l.entries = append(l.entries, e)
}

// Pop removes and returns the newest entry.
func (l *Log) Pop() (Entry, bool) {
	if len(l.entries) == 0 {
		return Entry{}, false
	}
	last := l.entries[len(l.entries)-1]
	l.entries[len(l.entries)-1] = Entry{}
	l.entries = l.entries[:len(l.entries)-1]
	return last, true
}

func (l *Log) Len() int {
	return len(l.entries)
}

func (l *Log) Reset() {
	l.entries = nil
}
