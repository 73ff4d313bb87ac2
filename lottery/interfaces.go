package lottery

import (
	"context"
	"math/big"
)

// RandomnessRequest is the set of parameters a raffle sends with every
// randomness request.
type RandomnessRequest struct {
	// KeyHash selects the oracle's key, and with it the maximum gas price.
	KeyHash          string
	SubscriptionID   uint64
	MinConfirmations uint16
	CallbackGasLimit uint32
	NumWords         uint32
	// Consumer receives the random words.
	Consumer Consumer
}

// RandomnessProvider is the external randomness oracle.
type RandomnessProvider interface {
	// RequestRandomness registers a request and returns its id. The random
	// words are delivered later to req.Consumer, possibly on another
	// goroutine.
	RequestRandomness(ctx context.Context, req RandomnessRequest) (RequestID, error)
}

// Consumer receives random words from a RandomnessProvider.
type Consumer interface {
	FulfillRandomWords(ctx context.Context, id RequestID, words []*big.Int) error
}

// Payer transfers funds held for the pot to the winner.
type Payer interface {
	Pay(ctx context.Context, to Identity, amount *big.Int) error
}

// PayerFunc adapts a function to Payer.
type PayerFunc func(ctx context.Context, to Identity, amount *big.Int) error

// Pay calls f.
func (f PayerFunc) Pay(ctx context.Context, to Identity, amount *big.Int) error {
	return f(ctx, to, amount)
}
