package state

// Phase is the coarse status of the data feed.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseError:
		return "error"
	default:
		return "idle"
	}
}

// LoadingState is the user-visible status. Message is set only in PhaseError.
type LoadingState struct {
	Phase   Phase
	Message string
}

// Idle is the state before the monitor starts and after it stops.
var Idle = LoadingState{Phase: PhaseIdle}

// Error builds an error state carrying a display message.
func Error(message string) LoadingState {
	return LoadingState{Phase: PhaseError, Message: message}
}

func (s LoadingState) String() string {
	if s.Phase == PhaseError {
		return "error: " + s.Message
	}
	return s.Phase.String()
}

// EventKind enumerates what can happen to the feed.
type EventKind int

const (
	// EventFetch is a tick or explicit retry starting a fetch.
	EventFetch EventKind = iota
	EventSucceeded
	EventFailed
	EventStop
)

// Event drives LoadingState transitions. Message is used by EventFailed.
type Event struct {
	Kind    EventKind
	Message string
}

// Next returns the state after e. Completions arriving while idle are
// ignored; a stopped feed only leaves Idle on the next fetch.
func (s LoadingState) Next(e Event) LoadingState {
	switch e.Kind {
	case EventStop:
		return Idle
	case EventFetch:
		return LoadingState{Phase: PhaseLoading}
	case EventSucceeded:
		if s.Phase == PhaseIdle {
			return s
		}
		return LoadingState{Phase: PhaseLoaded}
	case EventFailed:
		if s.Phase == PhaseIdle {
			return s
		}
		return Error(e.Message)
	default:
		return s
	}
}
