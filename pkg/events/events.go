// Package events provides an in-process event manager with a recorded
// history, so observers can both subscribe to live governance facts and
// reconstruct full history without re-executing anything.
package events

import (
	"sync"
	"time"
)

// Entry is a recorded event.
type Entry struct {
	Seq  uint64      `json:"seq"`
	Time time.Time   `json:"time"`
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Manager manages event listeners for different event types and records
// every emitted event in an append-only history.
type Manager struct {
	sync.Mutex
	listeners map[string][]chan Entry
	history   []Entry
	seq       uint64
}

// NewManager returns a new Manager context.
func NewManager() *Manager {
	return &Manager{
		listeners: make(map[string][]chan Entry),
	}
}

// Register registers an event listener (channel) to listen for the provided
// event type.
func (m *Manager) Register(event string, listener chan Entry) {
	m.Lock()
	defer m.Unlock()

	m.listeners[event] = append(m.listeners[event], listener)
}

// Emit records an event and passes it to all channels that have been
// registered to listen for the event.
func (m *Manager) Emit(event string, data interface{}) {
	m.Lock()
	defer m.Unlock()

	m.seq++
	entry := Entry{
		Seq:  m.seq,
		Time: time.Now(),
		Type: event,
		Data: data,
	}
	m.history = append(m.history, entry)
	log.Tracef("Event %d %s", entry.Seq, event)

	for _, ch := range m.listeners[event] {
		ch <- entry
	}
}

// History returns a copy of all recorded events in emission order.
func (m *Manager) History() []Entry {
	m.Lock()
	defer m.Unlock()

	history := make([]Entry, len(m.history))
	copy(history, m.history)
	return history
}

// HistorySince returns all recorded events with sequence numbers greater
// than seq.
func (m *Manager) HistorySince(seq uint64) []Entry {
	m.Lock()
	defer m.Unlock()

	var history []Entry
	for _, entry := range m.history {
		if entry.Seq > seq {
			history = append(history, entry)
		}
	}
	return history
}
