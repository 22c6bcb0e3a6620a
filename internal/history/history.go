// Package history records submitted command lines and recalls them with
// Up/Down navigation.
package history

// noCursor marks that no entry is being recalled.
const noCursor = -1

// Log is an append-only list of lines with a recall cursor.
type Log struct {
	entries []string
	cursor  int
}

func New() *Log {
	return &Log{cursor: noCursor}
}

// Add appends line and ends any recall in progress.
func (l *Log) Add(line string) {
	l.entries = append(l.entries, line)
	l.cursor = noCursor
}

// Up moves to the previous entry, starting from the newest and stopping at
// the oldest. It reports false only when the log is empty.
func (l *Log) Up() (string, bool) {
	if len(l.entries) == 0 {
		return "", false
	}
	switch {
	case l.cursor == noCursor:
		l.cursor = len(l.entries) - 1
	case l.cursor > 0:
		l.cursor--
	}
	return l.entries[l.cursor], true
}

// Down moves to the next entry. Moving past the newest ends the recall and
// yields an empty line. It reports false when no recall is in progress.
func (l *Log) Down() (string, bool) {
	if l.cursor == noCursor {
		return "", false
	}
	l.cursor++
	if l.cursor >= len(l.entries) {
		l.cursor = noCursor
		return "", true
	}
	return l.entries[l.cursor], true
}

// Entries returns a copy of the log, oldest first.
func (l *Log) Entries() []string {
	return append([]string(nil), l.entries...)
}

func (l *Log) Len() int { return len(l.entries) }

// Cursor returns the index being recalled, if any.
func (l *Log) Cursor() (int, bool) {
	return l.cursor, l.cursor != noCursor
}

// Clear drops every entry.
func (l *Log) Clear() {
	l.entries = nil
	l.cursor = noCursor
}
