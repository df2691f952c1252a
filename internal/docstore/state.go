package docstore

import (
	"context"

	"github.com/looplab/fsm"
)

// State is the adapter's readiness state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

func parseState(s string) State {
	switch s {
	case StateConnecting.String():
		return StateConnecting
	case StateConnected.String():
		return StateConnected
	default:
		return StateDisconnected
	}
}

// Event is a connection lifecycle notification.
type Event string

const (
	EventConnected       Event = "connected"
	EventConnectionError Event = "connection_error"
)

// Observer receives lifecycle events. err is non-nil only for
// EventConnectionError. Observers run on the goroutine that called Connect,
// after the state change is visible, and must not block.
type Observer func(ev Event, err error)

// Lifecycle transitions.
const (
	transitionDial  = "dial"
	transitionReady = "ready"
	transitionFail  = "fail"
	transitionClose = "close"
)

// lifecycle is the connection state machine. It is the single source of
// truth for State; the adapter never sets a state directly.
type lifecycle struct {
	machine *fsm.FSM
}

func newLifecycle() *lifecycle {
	disconnected := StateDisconnected.String()
	connecting := StateConnecting.String()
	connected := StateConnected.String()

	return &lifecycle{
		machine: fsm.NewFSM(
			disconnected,
			fsm.Events{
				{Name: transitionDial, Src: []string{disconnected}, Dst: connecting},
				{Name: transitionReady, Src: []string{connecting}, Dst: connected},
				{Name: transitionFail, Src: []string{connecting}, Dst: disconnected},
				{Name: transitionClose, Src: []string{connected}, Dst: disconnected},
			},
			fsm.Callbacks{},
		),
	}
}

func (l *lifecycle) current() State {
	return parseState(l.machine.Current())
}

func (l *lifecycle) is(s State) bool {
	return l.machine.Is(s.String())
}

// fire applies transition. The machine has no callbacks, so the only errors
// are transitions not allowed from the current state.
func (l *lifecycle) fire(transition string) error {
	return l.machine.Event(context.Background(), transition)
}
