package store

import (
	"log/slog"
	"sync"
)

// Notice is fanned out to watchers after every applied action. It carries the
// action label only; watchers pull a fresh snapshot if they need state.
type Notice struct {
	Action string `json:"action"`
}

// Store is the single holder of mutable state. All writes go through
// Dispatch, single-writer style; readers get deep-copied snapshots.
type Store struct {
	mu       sync.RWMutex
	state    State
	watchers map[int]chan Notice
	nextID   int
}

func New() *Store {
	return &Store{
		watchers: make(map[int]chan Notice),
	}
}

// Dispatch applies one action and notifies watchers. It returns the new
// state snapshot.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Reduce(s.state, a)
	notice := Notice{Action: Name(a)}
	for _, ch := range s.watchers {
		select {
		case ch <- notice:
		default:
			// Slow watchers miss notices rather than blocking the writer.
			slog.Debug("dropped store notice",
				slog.String("action", notice.Action),
				slog.String("module", "store"),
			)
		}
	}
	return s.state.Clone()
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Watch registers a watcher. The returned cancel func unregisters it and
// closes the channel.
func (s *Store) Watch() (<-chan Notice, func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	ch := make(chan Notice, 16)
	s.watchers[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}
