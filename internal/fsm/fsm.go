package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle      State = "idle"
	StatePreparing State = "preparing"
	StateRecording State = "recording"
	StateEncoding  State = "encoding"
	StateUploading State = "uploading"
	StateComplete  State = "complete"
	StateFailed    State = "failed"
)

const (
	EventStart      Event = "start"
	EventAcquired   Event = "acquired"
	EventStop       Event = "stop"
	EventEncoded    Event = "encoded"
	EventClassified Event = "classified"
	EventFail       Event = "fail"
	EventReset      Event = "reset"
)

// IsTerminal reports whether state ends a session.
func IsTerminal(state State) bool {
	return state == StateComplete || state == StateFailed
}

func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		switch current {
		case StateIdle, StatePreparing, StateRecording, StateEncoding, StateUploading, StateComplete, StateFailed:
			return StateFailed, nil
		default:
			return current, fmt.Errorf("unknown state %q", current)
		}
	}

	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StatePreparing, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StatePreparing:
		switch event {
		case EventAcquired:
			return StateRecording, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventStop:
			return StateEncoding, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateEncoding:
		switch event {
		case EventEncoded:
			return StateUploading, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateUploading:
		switch event {
		case EventClassified:
			return StateComplete, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateComplete, StateFailed:
		switch event {
		case EventReset:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
