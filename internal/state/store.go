package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/nezhatop/nezhatop/internal/nezha"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Servers             []nezha.Server
	State               LoadingState
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
	// Generation is the newest fetch generation applied to this snapshot.
	Generation uint64
}

// IsOffline returns true when the dashboard has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Online counts servers that reported within window of now.
func (s Snapshot) Online(now time.Time, window time.Duration) int {
	n := 0
	for _, srv := range s.Servers {
		if srv.Online(now, window) {
			n++
		}
	}
	return n
}

// Store coordinates concurrent updates to the snapshot. Writers tag each
// result with a generation; results older than the newest applied generation
// are dropped.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Reset raises the generation floor to gen and moves the state with e. Any
// completion tagged below gen is dropped afterwards. Servers are kept.
func (s *Store) Reset(gen uint64, e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen > s.snapshot.Generation {
		s.snapshot.Generation = gen
	}
	s.snapshot.State = s.snapshot.State.Next(e)
}

// Begin marks a fetch tagged gen as started. It has no effect on a stopped
// store or for a superseded generation.
func (s *Store) Begin(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current(gen) {
		s.snapshot.State = s.snapshot.State.Next(Event{Kind: EventFetch})
	}
}

// Succeed replaces the server list wholesale. It reports whether the result
// was applied.
func (s *Store) Succeed(gen uint64, servers []nezha.Server, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current(gen) {
		return false
	}
	s.snapshot.Generation = gen
	s.snapshot.Servers = cloneServers(servers)
	s.snapshot.State = s.snapshot.State.Next(Event{Kind: EventSucceeded})
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = at
	s.snapshot.ConsecutiveFailures = 0
	return true
}

// Fail records err and keeps the previous servers. It reports whether the
// result was applied.
func (s *Store) Fail(gen uint64, err error, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current(gen) {
		return false
	}
	s.snapshot.Generation = gen
	s.snapshot.State = s.snapshot.State.Next(Event{Kind: EventFailed, Message: nezha.UserMessage(err)})
	s.snapshot.LastError = err
	s.snapshot.LastUpdated = at
	s.snapshot.ConsecutiveFailures++
	return true
}

func (s *Store) current(gen uint64) bool {
	return gen >= s.snapshot.Generation && s.snapshot.State.Phase != PhaseIdle
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Servers = cloneServers(s.snapshot.Servers)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneServers(items []nezha.Server) []nezha.Server {
	if len(items) == 0 {
		return nil
	}
	dup := make([]nezha.Server, len(items))
	for i, srv := range items {
		srv.Host.CPU = cloneSlice(srv.Host.CPU)
		srv.Host.GPU = cloneSlice(srv.Host.GPU)
		srv.State.Temperatures = cloneSlice(srv.State.Temperatures)
		srv.State.GPU = cloneSlice(srv.State.GPU)
		dup[i] = srv
	}
	return dup
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
