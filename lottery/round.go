package lottery

import (
	"fmt"
	"math/big"
	"time"

	"github.com/pkg/errors"
)

// State is the lifecycle state of a round.
type State int

const (
	// StateOpen accepts entries.
	StateOpen State = iota
	// StateCalculating waits for the randomness callback. Entries are
	// rejected.
	StateCalculating
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateCalculating:
		return "CALCULATING"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ParseState is the inverse of State.String.
func ParseState(s string) (State, error) {
	switch s {
	case "OPEN":
		return StateOpen, nil
	case "CALCULATING":
		return StateCalculating, nil
	}
	return 0, errors.Errorf("unknown raffle state %q", s)
}

// Identity identifies an entrant and is the destination of a payout.
type Identity string

// RequestID identifies a randomness request issued by a RandomnessProvider.
type RequestID uint64

// Round is the single mutable record of a raffle. It is reused across
// draws; Number counts the draws completed so far plus one.
type Round struct {
	Number      uint64
	State       State
	EntranceFee *big.Int
	Interval    time.Duration
	// LastDrawTimestamp is in unix nanos as read from the raffle's clock.
	LastDrawTimestamp int64
	// Players are in entry order. An identity appears once per entry.
	Players []Identity
	Pot     *big.Int
	// PendingRequestID is only meaningful while RequestPending is set.
	PendingRequestID RequestID
	RequestPending   bool
	RecentWinner     Identity
}

// Clone returns a deep copy of the round.
func (r *Round) Clone() *Round {
	c := *r
	c.EntranceFee = cloneInt(r.EntranceFee)
	c.Pot = cloneInt(r.Pot)
	if r.Players != nil {
		c.Players = make([]Identity, len(r.Players))
		copy(c.Players, r.Players)
	}
	return &c
}

func (r *Round) String() string {
	pending := "none"
	if r.RequestPending {
		pending = fmt.Sprint(r.PendingRequestID)
	}
	return fmt.Sprintf(
		"round:%d state:%s entrance_fee:%s interval:%s last_draw:%d players:%d pot:%s pending_request:%s recent_winner:%q",
		r.Number, r.State, r.EntranceFee, r.Interval, r.LastDrawTimestamp,
		len(r.Players), r.Pot, pending, r.RecentWinner,
	)
}

// Validate checks the structural invariants of a round. It is used on rounds
// restored from a Store.
func (r *Round) Validate() error {
	if r.EntranceFee == nil || r.EntranceFee.Sign() <= 0 {
		return errors.Errorf("entrance fee must be positive, got %v", r.EntranceFee)
	}
	if r.Interval < 0 {
		return errors.Errorf("interval must not be negative, got %v", r.Interval)
	}
	if r.Pot == nil || r.Pot.Sign() < 0 {
		return errors.Errorf("pot must not be negative, got %v", r.Pot)
	}
	switch r.State {
	case StateOpen:
		if r.RequestPending {
			return errors.Errorf("open round has pending request %d", r.PendingRequestID)
		}
	case StateCalculating:
		if !r.RequestPending {
			return errors.New("calculating round has no pending request")
		}
		if len(r.Players) == 0 {
			return errors.New("calculating round has no players")
		}
	default:
		return errors.Errorf("unknown state %v", r.State)
	}
	// Every entry pays at least the entrance fee.
	minPot := new(big.Int).Mul(r.EntranceFee, big.NewInt(int64(len(r.Players))))
	if r.Pot.Cmp(minPot) < 0 {
		return errors.Errorf("pot %v is less than %d entries at %v", r.Pot, len(r.Players), r.EntranceFee)
	}
	return nil
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
