package stream

import (
	"sync"

	"github.com/gabe/consultant/internal/models"
)

// EventLog is an ordered set of events keyed by id. An id keeps the position
// of its first arrival; a later copy replaces its content.
type EventLog struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]models.Event
}

func NewEventLog() *EventLog {
	return &EventLog{byID: make(map[string]models.Event)}
}

// Merge adds ev. It reports whether the id was new and whether the stored
// content changed.
func (l *EventLog) Merge(ev models.Event) (added, changed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := ev.EventID()
	existing, ok := l.byID[id]
	if !ok {
		l.order = append(l.order, id)
		l.byID[id] = ev
		return true, true
	}
	if existing == ev {
		return false, false
	}
	l.byID[id] = ev
	return false, true
}

// Events returns a snapshot in arrival order
func (l *EventLog) Events() []models.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.Event, len(l.order))
	for i, id := range l.order {
		out[i] = l.byID[id]
	}
	return out
}

func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}
