package state

import (
	"sync"
	"time"

	"github.com/etd-wiki/dungeon/internal/characters"
)

// Status is the coarse data status shown to the user.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusOffline Status = "offline"
	StatusError   Status = "error"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Records      []characters.Record
	SelectedID   string
	Status       Status
	Message      string // transient success/info text
	LastError    string // user-facing error text
	Disconnected bool   // connectivity, tracked independently of Status
	Saving       bool
	Generation   uint64 // id of the most recent refresh
	LastUpdated  time.Time
}

// Selected returns the selected record, if any.
func (s Snapshot) Selected() (characters.Record, bool) {
	idx := characters.IndexOf(s.Records, s.SelectedID)
	if idx < 0 {
		return characters.Record{}, false
	}
	return s.Records[idx], true
}

// IsOffline reports whether the user should see the offline badge.
func (s Snapshot) IsOffline() bool {
	return s.Status == StatusOffline || s.Disconnected
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	dup := s
	dup.Records = characters.CloneRecords(s.Records)
	return dup
}

// Store coordinates concurrent access to the snapshot. The zero value is
// ready to use and reports StatusLoading.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	subs     map[int]chan Snapshot
	nextSub  int
}

// NewStore returns a Store seeded with initial.
func NewStore(initial Snapshot) *Store {
	return &Store{snapshot: initial.Clone()}
}

func (s *Store) currentLocked() Snapshot {
	snap := s.snapshot.Clone()
	if snap.Status == "" {
		snap.Status = StatusLoading
	}
	return snap
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentLocked()
}

// Apply runs fn against the current snapshot under the write lock. When fn
// returns true its result replaces the snapshot and subscribers are notified.
func (s *Store) Apply(fn func(Snapshot) (Snapshot, bool)) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed := fn(s.currentLocked())
	if !changed {
		return s.currentLocked(), false
	}
	next.LastUpdated = time.Now()
	s.snapshot = next.Clone()
	s.broadcastLocked()
	return s.currentLocked(), true
}

// Subscribe returns a channel receiving the latest snapshot after each change
// and a cancel func that closes it.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		s.subs = make(map[int]chan Snapshot)
	}
	id := s.nextSub
	s.nextSub++
	ch := make(chan Snapshot, 1)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

// broadcastLocked delivers the current snapshot, replacing any unread one.
func (s *Store) broadcastLocked() {
	for _, ch := range s.subs {
		snap := s.currentLocked()
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
