package lottery

import (
	"context"
	"fmt"
	"math/big"
)

// EventKind is the type of a raffle notification.
type EventKind int

const (
	// EventEntryRecorded is emitted for every accepted entry.
	EventEntryRecorded EventKind = iota
	// EventDrawStarted is emitted once a randomness request is issued.
	EventDrawStarted
	// EventWinnerPicked is emitted after the pot has been paid out.
	EventWinnerPicked
)

func (k EventKind) String() string {
	switch k {
	case EventEntryRecorded:
		return "EntryRecorded"
	case EventDrawStarted:
		return "DrawStarted"
	case EventWinnerPicked:
		return "WinnerPicked"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a notification about a committed transition. Fields which do not
// apply to Kind are zero.
type Event struct {
	Kind  EventKind
	Round uint64
	// Player is the entrant for EntryRecorded and the winner for
	// WinnerPicked.
	Player    Identity
	RequestID RequestID
	// Amount is the entry amount for EntryRecorded and the prize for
	// WinnerPicked.
	Amount      *big.Int
	RandomValue *big.Int
	NumPlayers  int
	Timestamp   int64
}

// Listener observes raffle events. OnEvent is called with the raffle locked
// and must not call back into the raffle.
type Listener interface {
	OnEvent(ctx context.Context, e Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, e Event)

// OnEvent calls f.
func (f ListenerFunc) OnEvent(ctx context.Context, e Event) {
	f(ctx, e)
}
