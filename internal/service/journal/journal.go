package journal

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level уровень записи журнала.
type Level string

const (
	LevelInfo    Level = "INFO"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

// TimeLayout формат времени в экспорте.
const TimeLayout = "2006-01-02 15:04:05.000"

// Entry запись журнала.
type Entry struct {
	ID      uuid.UUID `json:"id"`
	At      time.Time `json:"at"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
}

// String строка экспорта: [время] [УРОВЕНЬ] сообщение.
func (e Entry) String() string {
	return "[" + e.At.Format(TimeLayout) + "] [" + string(e.Level) + "] " + e.Message
}

// Journal: потокобезопасный журнал в памяти фиксированной ёмкости, только добавление.
// При переполнении удаляется самая старая запись.
type Journal struct {
	cap     int
	entries []Entry
	mu      sync.Mutex
	now     func() time.Time
}

func New(capacity int) *Journal {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Journal{cap: capacity, entries: make([]Entry, 0, capacity), now: time.Now}
}

// Append добавляет запись и возвращает её.
func (j *Journal) Append(level Level, message string) Entry {
	e := Entry{ID: uuid.New(), At: j.now(), Level: level, Message: message}
	j.mu.Lock()
	if len(j.entries) == j.cap {
		// удалить самую старую
		copy(j.entries, j.entries[1:])
		j.entries = j.entries[:j.cap-1]
	}
	j.entries = append(j.entries, e)
	j.mu.Unlock()
	return e
}

// Entries возвращает копию записей, от старых к новым.
func (j *Journal) Entries() []Entry {
	j.mu.Lock()
	out := make([]Entry, len(j.entries))
	copy(out, j.entries)
	j.mu.Unlock()
	return out
}

// Clear очищает журнал.
func (j *Journal) Clear() {
	j.mu.Lock()
	j.entries = j.entries[:0]
	j.mu.Unlock()
}

// Export весь журнал текстом, по записи на строку.
func (j *Journal) Export() string {
	entries := j.Entries()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n")
}

func (j *Journal) Len() int {
	j.mu.Lock()
	l := len(j.entries)
	j.mu.Unlock()
	return l
}
