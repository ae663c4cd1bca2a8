package eventlog

import (
	"sync"
	"testing"
	"time"
)

func TestLog_PublicVisibleToEveryone(t *testing.T) {
	log := New([]string{"alice", "bob", "carol"})

	log.Record("game started")
	log.Record("night falls")

	for _, observer := range []string{"alice", "bob", "carol", ModeratorStream} {
		entries := log.Stream(observer)
		if len(entries) != 2 {
			t.Fatalf("Stream(%q) = %d entries, want 2", observer, len(entries))
		}
		if entries[0].Message != "game started" || entries[1].Message != "night falls" {
			t.Errorf("Stream(%q) out of order: %v", observer, entries)
		}
	}
}

func TestLog_RestrictedVisibility(t *testing.T) {
	log := New([]string{"alice", "bob", "carol"})

	log.Record("public one")
	log.RecordFor("wolves only", []string{"alice", "bob"})
	log.Record("public two")
	log.RecordFor("seer only", []string{"carol"})

	tests := []struct {
		observer string
		want     []string
	}{
		{"alice", []string{"public one", "wolves only", "public two"}},
		{"bob", []string{"public one", "wolves only", "public two"}},
		{"carol", []string{"public one", "public two", "seer only"}},
		{ModeratorStream, []string{"public one", "wolves only", "public two", "seer only"}},
	}

	for _, tt := range tests {
		entries := log.Stream(tt.observer)
		if len(entries) != len(tt.want) {
			t.Fatalf("Stream(%q) = %d entries, want %d", tt.observer, len(entries), len(tt.want))
		}
		for i, want := range tt.want {
			if entries[i].Message != want {
				t.Errorf("Stream(%q)[%d] = %q, want %q", tt.observer, i, entries[i].Message, want)
			}
		}
	}
}

func TestLog_EmptyVisibleToIsPublic(t *testing.T) {
	log := New([]string{"alice", "bob"})
	log.RecordFor("hello", nil)

	if got := len(log.Stream("bob")); got != 1 {
		t.Errorf("empty scope should reach everyone, bob got %d entries", got)
	}
}

func TestLog_UnknownObserverIgnored(t *testing.T) {
	log := New([]string{"alice"})
	log.RecordFor("ghost message", []string{"nobody"})

	if got := len(log.Stream("alice")); got != 0 {
		t.Errorf("alice should not see message for unknown observer, got %d", got)
	}
	// Moderator still sees everything.
	if got := len(log.Stream(ModeratorStream)); got != 1 {
		t.Errorf("moderator stream got %d entries, want 1", got)
	}
}

func TestLog_HistoryRendersInOrder(t *testing.T) {
	log := New([]string{"alice"})
	log.Record("first")
	log.RecordFor("second", []string{"alice"})

	want := "first\nsecond\n"
	if got := log.History("alice"); got != want {
		t.Errorf("History(alice) = %q, want %q", got, want)
	}
}

type captureSink struct {
	mu      sync.Mutex
	entries []Entry
}

func (c *captureSink) EventRecorded(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
}

func TestLog_SinkReceivesEveryAppend(t *testing.T) {
	log := New([]string{"alice", "bob"})
	sink := &captureSink{}
	log.SetSink(sink)

	log.Record("public")
	log.RecordFor("private", []string{"alice"})

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.entries) != 2 {
		t.Fatalf("sink got %d entries, want 2", len(sink.entries))
	}
	if sink.entries[0].Seq >= sink.entries[1].Seq {
		t.Errorf("sink entries not in sequence order: %d, %d", sink.entries[0].Seq, sink.entries[1].Seq)
	}
	if sink.entries[1].Public() {
		t.Error("restricted entry reported as public")
	}
}

// readbackPersister reads the ledger from inside the write-through path,
// which only works when the log calls it without holding its lock.
type readbackPersister struct {
	log  *Log
	mu   sync.Mutex
	seen map[string][]Entry
}

func (p *readbackPersister) AppendEntry(observer string, e Entry) error {
	streamed := p.log.Stream(observer)
	if len(streamed) == 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen[observer] = append(p.seen[observer], e)
	return nil
}

func TestLog_PersisterRunsOutsideLock(t *testing.T) {
	log := New([]string{"alice", "bob"})
	persister := &readbackPersister{log: log, seen: make(map[string][]Entry)}
	log.SetPersister(persister)

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Record("public")
		log.RecordFor("private", []string{"alice"})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on the write-through persister")
	}

	persister.mu.Lock()
	defer persister.mu.Unlock()
	if got := len(persister.seen["alice"]); got != 2 {
		t.Errorf("alice stream persisted %d entries, want 2", got)
	}
	if got := len(persister.seen["bob"]); got != 1 {
		t.Errorf("bob stream persisted %d entries, want 1", got)
	}
	if got := len(persister.seen[ModeratorStream]); got != 2 {
		t.Errorf("moderator stream persisted %d entries, want 2", got)
	}
}

func TestLog_ConcurrentRecords(t *testing.T) {
	log := New([]string{"alice"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Record("msg")
		}()
	}
	wg.Wait()

	entries := log.Stream("alice")
	if len(entries) != 50 {
		t.Fatalf("got %d entries, want 50", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Seq <= entries[i-1].Seq {
			t.Fatalf("sequence not strictly increasing at %d", i)
		}
	}
}
