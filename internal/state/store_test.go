package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/nezhatop/nezhatop/internal/nezha"
)

func startedStore(gen uint64) *Store {
	s := &Store{}
	s.Reset(gen, Event{Kind: EventFetch})
	return s
}

func TestStore_SucceedAndSnapshotClone(t *testing.T) {
	s := startedStore(1)

	servers := []nezha.Server{
		{ID: 1, Name: "a", Host: nezha.HostInfo{CPU: []string{"Xeon"}}},
		{ID: 2, Name: "b"},
	}
	at := time.Now()
	if !s.Succeed(1, servers, at) {
		t.Fatalf("Succeed returned false, want applied")
	}

	snap := s.Snapshot()
	if len(snap.Servers) != 2 || snap.Servers[0].ID != 1 {
		t.Fatalf("snapshot servers = %#v, want 2 items", snap.Servers)
	}
	if snap.State.Phase != PhaseLoaded {
		t.Fatalf("State = %v, want loaded", snap.State)
	}
	if !snap.LastUpdated.Equal(at) || snap.LastError != nil {
		t.Fatalf("LastUpdated=%v LastError=%v", snap.LastUpdated, snap.LastError)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Servers[0].ID = 999
	snap.Servers[0].Host.CPU[0] = "changed"
	servers[1].Name = "mutated by caller"
	snap2 := s.Snapshot()
	if snap2.Servers[0].ID != 1 || snap2.Servers[0].Host.CPU[0] != "Xeon" {
		t.Fatalf("Snapshot should deep-copy servers; got %#v", snap2.Servers[0])
	}
	if snap2.Servers[1].Name != "b" {
		t.Fatalf("Succeed should copy its input; got %q", snap2.Servers[1].Name)
	}
}

func TestStore_FailKeepsPreviousData(t *testing.T) {
	s := startedStore(1)
	s.Succeed(1, []nezha.Server{{ID: 1, Name: "a"}}, time.Now())
	before := s.Snapshot()

	origErr := &nezha.NetworkError{Err: errors.New("connection refused")}
	if !s.Fail(2, origErr, time.Now()) {
		t.Fatalf("Fail returned false, want applied")
	}

	snap := s.Snapshot()
	if !reflect.DeepEqual(snap.Servers, before.Servers) {
		t.Fatalf("servers changed on error: got %#v want %#v", snap.Servers, before.Servers)
	}
	if snap.State != Error("connection refused") {
		t.Fatalf("State = %v, want error with user message", snap.State)
	}
	var netErr *nezha.NetworkError
	if !errors.As(snap.LastError, &netErr) {
		t.Fatalf("LastError = %v, want wrapped NetworkError", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	s := startedStore(1)

	if s.Snapshot().IsOffline() {
		t.Fatal("IsOffline() = true, want false with 0 failures")
	}
	s.Fail(1, errors.New("fail 1"), time.Now())
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 1 || snap.IsOffline() {
		t.Fatalf("after 1 failure: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}
	s.Fail(2, errors.New("fail 2"), time.Now())
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 2 || !snap.IsOffline() {
		t.Fatalf("after 2 failures: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}
	s.Succeed(3, nil, time.Now())
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("after success: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}
}

func TestStore_DropsStaleGenerations(t *testing.T) {
	s := startedStore(1)

	if !s.Succeed(3, []nezha.Server{{ID: 3, Name: "new"}}, time.Now()) {
		t.Fatalf("gen 3 should apply")
	}
	if s.Succeed(2, []nezha.Server{{ID: 2, Name: "old"}}, time.Now()) {
		t.Fatalf("gen 2 applied after gen 3")
	}
	if s.Fail(2, errors.New("late"), time.Now()) {
		t.Fatalf("late failure of gen 2 applied after gen 3")
	}
	snap := s.Snapshot()
	if snap.Servers[0].ID != 3 || snap.State.Phase != PhaseLoaded {
		t.Fatalf("snapshot = %#v, want gen 3 data and loaded", snap)
	}
}

func TestStore_StopDropsInFlight(t *testing.T) {
	s := startedStore(1)
	s.Succeed(1, []nezha.Server{{ID: 1, Name: "a"}}, time.Now())

	s.Reset(2, Event{Kind: EventStop})
	if s.Succeed(2, []nezha.Server{{ID: 9, Name: "late"}}, time.Now()) {
		t.Fatalf("completion after stop applied")
	}
	s.Begin(2)
	snap := s.Snapshot()
	if snap.State != Idle {
		t.Fatalf("State = %v, want idle", snap.State)
	}
	if snap.Servers[0].ID != 1 {
		t.Fatalf("servers changed after stop: %#v", snap.Servers)
	}

	// A new run starts above the stop generation.
	s.Reset(3, Event{Kind: EventFetch})
	if s.Succeed(2, nil, time.Now()) {
		t.Fatalf("previous run's completion applied to new run")
	}
	if !s.Succeed(3, []nezha.Server{{ID: 4, Name: "fresh"}}, time.Now()) {
		t.Fatalf("new run completion dropped")
	}
}

func TestSnapshot_Online(t *testing.T) {
	now := time.Now()
	snap := Snapshot{Servers: []nezha.Server{
		{ID: 1, LastActive: now.Add(-5 * time.Second)},
		{ID: 2, LastActive: now.Add(-time.Hour)},
		{ID: 3},
	}}
	if got := snap.Online(now, 30*time.Second); got != 1 {
		t.Fatalf("Online = %d, want 1", got)
	}
}
