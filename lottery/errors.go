package lottery

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"
)

// Kind classifies errors returned by a Raffle.
type Kind int

const (
	// KindUnknown is any error not produced by this package.
	KindUnknown Kind = iota
	// KindValidation means the caller supplied a bad argument.
	KindValidation
	// KindState means the operation is not allowed in the current state.
	KindState
	// KindProtocol means a callback did not match an outstanding request.
	KindProtocol
	// KindResource means a collaborator (payer, provider, store) failed.
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindState:
		return "StateError"
	case KindProtocol:
		return "ProtocolError"
	case KindResource:
		return "ResourceError"
	default:
		return "UnknownError"
	}
}

// ParseKind is the inverse of Kind.String. Unrecognized names map to
// KindUnknown.
func ParseKind(s string) Kind {
	for k := KindValidation; k <= KindResource; k++ {
		if k.String() == s {
			return k
		}
	}
	return KindUnknown
}

// kindError is a sentinel error with a Kind.
type kindError struct {
	kind Kind
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Kind() Kind { return e.kind }

type kinded interface {
	Kind() Kind
}

// KindOf returns the Kind of the first error in err's chain which has one.
func KindOf(err error) Kind {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindUnknown
}

var (
	// ErrInsufficientFee is returned when an entry pays less than the
	// entrance fee.
	ErrInsufficientFee error = &kindError{KindValidation, "insufficient entrance fee"}
	// ErrInvalidIdentity is returned for an empty entrant identity.
	ErrInvalidIdentity error = &kindError{KindValidation, "invalid identity"}
	// ErrInvalidRandomValue is returned for a nil or negative random value.
	ErrInvalidRandomValue error = &kindError{KindValidation, "invalid random value"}
	// ErrPlayerIndexOutOfRange is returned by Player for a bad index.
	ErrPlayerIndexOutOfRange error = &kindError{KindValidation, "player index out of range"}
	// ErrRoundNotOpen is returned when entering a round that is calculating.
	ErrRoundNotOpen error = &kindError{KindState, "raffle round is not open"}
	// ErrUpkeepNotNeeded is matched by every *UpkeepNotNeededError.
	ErrUpkeepNotNeeded error = &kindError{KindState, "upkeep not needed"}
	// ErrUnknownRequest is returned for callbacks with no matching
	// outstanding request.
	ErrUnknownRequest error = &kindError{KindProtocol, "unknown randomness request"}
	// ErrPayoutFailed is matched by every *PayoutFailedError.
	ErrPayoutFailed error = &kindError{KindResource, "payout failed"}
	// ErrRandomnessRequestFailed is returned when the provider refuses a
	// request.
	ErrRandomnessRequestFailed error = &kindError{KindResource, "randomness request failed"}
	// ErrPersistFailed is returned when the round could not be written to
	// the Store.
	ErrPersistFailed error = &kindError{KindResource, "persisting round failed"}
)

// UpkeepNotNeededError carries the round condition at the time StartDraw was
// refused.
type UpkeepNotNeededError struct {
	Pot        *big.Int
	NumPlayers int
	State      State
}

var _ error = &UpkeepNotNeededError{}

func (e *UpkeepNotNeededError) Error() string {
	return fmt.Sprintf(
		"%s: pot=%v players=%d state=%s", ErrUpkeepNotNeeded, e.Pot, e.NumPlayers, e.State,
	)
}

// Is reports whether target is ErrUpkeepNotNeeded.
func (e *UpkeepNotNeededError) Is(target error) bool { return target == ErrUpkeepNotNeeded }

// Kind implements kinded.
func (e *UpkeepNotNeededError) Kind() Kind { return KindState }

// PayoutFailedError is returned by Fulfill when the Payer could not transfer
// the pot. The round is left as it was before the callback.
type PayoutFailedError struct {
	RequestID RequestID
	Winner    Identity
	Amount    *big.Int
	Err       error
}

var _ error = &PayoutFailedError{}

func (e *PayoutFailedError) Error() string {
	return fmt.Sprintf(
		"%s: request=%d winner=%q amount=%v: %v", ErrPayoutFailed, e.RequestID, e.Winner, e.Amount, e.Err,
	)
}

// Is reports whether target is ErrPayoutFailed.
func (e *PayoutFailedError) Is(target error) bool { return target == ErrPayoutFailed }

// Unwrap returns the Payer's error.
func (e *PayoutFailedError) Unwrap() error { return e.Err }

// Kind implements kinded.
func (e *PayoutFailedError) Kind() Kind { return KindResource }
