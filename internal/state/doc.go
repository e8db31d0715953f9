// Package state holds the dashboard snapshot shared between the monitor and
// the UI.
//
// # Overview
//
// The monitor writes fetch results into a Store; the UI reads copies with
// Snapshot on its own schedule. The lock is held only while copying, never
// during network I/O or rendering.
//
// # Loading State
//
// LoadingState is a small machine driven by Next:
//
//	Idle ──fetch──> Loading ──ok──> Loaded
//	                   │              │
//	                   └──failed──> Error(message)
//
// Loaded and Error return to Loading on the next tick or retry. Stop returns
// to Idle from anywhere, and completions arriving while idle are ignored.
//
// # Generations
//
// Every fetch carries the generation it was started under. Succeed and Fail
// apply a result only when its generation is not older than the newest one
// already applied and the store has not been stopped. Reset raises the floor
// when a run starts or stops, so results from an earlier run are dropped.
//
// # Update Semantics
//
//	store.Succeed(gen, servers, now)
//	→ Servers replaced wholesale, LastError cleared, failures reset
//
//	store.Fail(gen, err, now)
//	→ Servers unchanged, State = Error(nezha.UserMessage(err))
//
// Servers are deep-copied on the way in and out.
package state
