package lottery

import (
	"context"
	"math/big"

	"github.com/pkg/errors"

	"github.com/rubrikinc/raffle/raffleutil/log"
)

// Fulfill completes the draw for requestID using randomValue. The winner is
// players[randomValue mod len(players)]. The pot is paid out before anything
// is changed; if the payment fails a *PayoutFailedError is returned and the
// round keeps waiting for requestID. Once paid the draw is complete: a round
// that cannot be saved afterwards is only logged and counted in
// PersistFailures, and Fulfill still returns nil.
func (r *Raffle) Fulfill(ctx context.Context, requestID RequestID, randomValue *big.Int) error {
	r.Lock()
	defer r.Unlock()
	if !r.round.RequestPending || r.round.PendingRequestID != requestID {
		r.metrics.UnknownCallbacks.Inc(1)
		log.Warningf(ctx, "Ignoring randomness for request %d, current round: %v", requestID, r.round)
		return errors.Wrapf(ErrUnknownRequest, "request %d", requestID)
	}
	if randomValue == nil || randomValue.Sign() < 0 {
		log.Warningf(ctx, "Ignoring random value %v for request %d", randomValue, requestID)
		return errors.Wrapf(ErrInvalidRandomValue, "value %v", randomValue)
	}
	if len(r.round.Players) == 0 {
		return errors.Errorf("round %d has no players to draw from", r.round.Number)
	}

	index := new(big.Int).Mod(randomValue, big.NewInt(int64(len(r.round.Players))))
	winner := r.round.Players[index.Int64()]
	prize := cloneInt(r.round.Pot)
	numPlayers := len(r.round.Players)

	next := r.round.Clone()
	next.Players = nil
	next.Pot = new(big.Int)
	next.LastDrawTimestamp = r.clock.Now()
	next.State = StateOpen
	next.PendingRequestID = 0
	next.RequestPending = false
	next.RecentWinner = winner
	next.Number++

	if err := r.payer.Pay(ctx, winner, prize); err != nil {
		r.metrics.PayoutFailures.Inc(1)
		log.Errorf(
			ctx, "Failed to pay %v to %q for request %d: %v, current round: %v",
			prize, winner, requestID, err, r.round,
		)
		return &PayoutFailedError{RequestID: requestID, Winner: winner, Amount: prize, Err: err}
	}

	finished := r.round.Number
	r.install(next)
	if err := r.save(ctx, next); err != nil {
		log.Warningf(ctx, "Round %d was paid out but is not durable: %v", finished, err)
	}
	r.metrics.WinnersPicked.Inc(1)
	log.Infof(
		ctx, "Round %d won by %q (index %v of %d) for %v, %v",
		finished, winner, index, numPlayers, prize, r.round,
	)
	r.emit(ctx, Event{
		Kind:        EventWinnerPicked,
		Round:       finished,
		Player:      winner,
		RequestID:   requestID,
		Amount:      prize,
		RandomValue: cloneInt(randomValue),
		NumPlayers:  numPlayers,
		Timestamp:   next.LastDrawTimestamp,
	})
	return nil
}

// FulfillRandomWords implements Consumer. The first word decides the winner.
func (r *Raffle) FulfillRandomWords(ctx context.Context, id RequestID, words []*big.Int) error {
	if len(words) == 0 {
		return errors.Wrapf(ErrInvalidRandomValue, "no random words for request %d", id)
	}
	return r.Fulfill(ctx, id, words[0])
}
