// Package eventlog provides the append-only visibility ledger that every
// other game component announces through. Each observer has an ordered
// stream containing exactly the entries it was allowed to see, and a
// moderator stream receives everything regardless of visibility.
package eventlog

import (
	"strings"
	"sync"
	"time"
)

// ModeratorStream is the reserved observer name for the omniscient stream.
// It receives every entry, including restricted ones.
const ModeratorStream = "_moderator"

// Entry is a single recorded announcement. Entries are immutable once
// appended, and their visibility is fixed at write time.
type Entry struct {
	Seq       int       `json:"seq"`
	Message   string    `json:"message"`
	VisibleTo []string  `json:"visible_to,omitempty"` // nil means everyone
	Timestamp time.Time `json:"timestamp"`
}

// Public reports whether the entry was visible to all observers.
func (e Entry) Public() bool {
	return e.VisibleTo == nil
}

// Sink receives every append, fire-and-forget. Used to relay announcements
// to connected transports. Implementations must not block.
type Sink interface {
	EventRecorded(entry Entry)
}

// Persister durably stores entries per observer stream. The in-memory log
// writes through to it when configured, after releasing its own lock;
// persistence failures do not affect the in-memory ledger.
type Persister interface {
	AppendEntry(observer string, entry Entry) error
}

// Log is the in-memory append-only visibility ledger for one session.
type Log struct {
	mu        sync.RWMutex
	observers []string
	streams   map[string][]Entry
	seq       int
	sink      Sink
	persister Persister
}

// New creates a ledger for the given observers. The moderator stream is
// always present in addition to the named observers.
func New(observers []string) *Log {
	l := &Log{
		observers: append([]string(nil), observers...),
		streams:   make(map[string][]Entry, len(observers)+1),
	}
	for _, o := range observers {
		l.streams[o] = nil
	}
	l.streams[ModeratorStream] = nil
	return l
}

// SetSink attaches a relay sink. Pass nil to detach.
func (l *Log) SetSink(s Sink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sink = s
}

// SetPersister attaches a write-through persister. Pass nil to detach.
func (l *Log) SetPersister(p Persister) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.persister = p
}

// Record appends a public announcement visible to every observer.
func (l *Log) Record(message string) {
	l.record(message, nil)
}

// RecordFor appends an announcement visible only to the named observers.
// An empty visibleTo set is treated as public rather than invisible, so a
// caller can pass a scope through unconditionally.
func (l *Log) RecordFor(message string, visibleTo []string) {
	if len(visibleTo) == 0 {
		l.record(message, nil)
		return
	}
	l.record(message, visibleTo)
}

func (l *Log) record(message string, visibleTo []string) {
	l.mu.Lock()
	l.seq++
	entry := Entry{
		Seq:       l.seq,
		Message:   message,
		VisibleTo: append([]string(nil), visibleTo...),
		Timestamp: time.Now(),
	}
	var appended []string
	if visibleTo == nil {
		entry.VisibleTo = nil
		for _, o := range l.observers {
			l.streams[o] = append(l.streams[o], entry)
			appended = append(appended, o)
		}
	} else {
		for _, o := range visibleTo {
			if _, known := l.streams[o]; known {
				l.streams[o] = append(l.streams[o], entry)
				appended = append(appended, o)
			}
		}
	}
	l.streams[ModeratorStream] = append(l.streams[ModeratorStream], entry)
	appended = append(appended, ModeratorStream)
	sink := l.sink
	persister := l.persister
	l.mu.Unlock()

	// A slow persister must not stall concurrent reads or appends, so
	// write-through and fan-out both run after the unlock.
	if persister != nil {
		for _, o := range appended {
			// Best effort; the in-memory ledger is authoritative.
			_ = persister.AppendEntry(o, entry)
		}
	}
	if sink != nil {
		sink.EventRecorded(entry)
	}
}

// Stream returns a copy of an observer's entries in append order.
func (l *Log) Stream(observer string) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entries := l.streams[observer]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// History renders an observer's stream as plain text, one entry per line.
// This is the view handed to automated participants as game context.
func (l *Log) History(observer string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var b strings.Builder
	for _, e := range l.streams[observer] {
		b.WriteString(e.Message)
		b.WriteByte('\n')
	}
	return b.String()
}

// Observers returns the named observers, excluding the moderator stream.
func (l *Log) Observers() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.observers...)
}
