package printing

import "fmt"

// State is one step of the print pipeline. Transitions are validated so a
// print can never, for example, start transmitting before rendering.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateConnecting
	StateTranslating
	StateRendering
	StateEncoding
	StateTransmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateConnecting:
		return "connecting"
	case StateTranslating:
		return "translating"
	case StateRendering:
		return "rendering"
	case StateEncoding:
		return "encoding"
	case StateTransmitting:
		return "transmitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// transitions lists every legal successor. Any state may fail; only the
// listed forward edges exist otherwise. The connect step is optional, so
// validation may jump straight to translating when the shared connection
// is already live.
var transitions = map[State][]State{
	StateIdle:         {StateValidating},
	StateValidating:   {StateConnecting, StateTranslating, StateFailed},
	StateConnecting:   {StateTranslating, StateFailed},
	StateTranslating:  {StateRendering, StateFailed},
	StateRendering:    {StateEncoding, StateFailed},
	StateEncoding:     {StateTransmitting, StateFailed},
	StateTransmitting: {StateSucceeded, StateFailed},
	StateSucceeded:    {},
	StateFailed:       {},
}

func canTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
