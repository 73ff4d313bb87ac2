package lottery

import (
	"context"
	"math/big"

	"github.com/pkg/errors"

	"github.com/rubrikinc/raffle/raffleutil/log"
)

// Enter records an entry for identity paying amount. The fee is checked
// before the round state, so an underpaying entry into a calculating round
// fails with ErrInsufficientFee. On error the round is unchanged.
func (r *Raffle) Enter(ctx context.Context, identity Identity, amount *big.Int) error {
	r.Lock()
	defer r.Unlock()
	if identity == "" {
		return r.rejectEntry(ctx, identity, amount, ErrInvalidIdentity)
	}
	if amount == nil || amount.Sign() < 0 {
		return r.rejectEntry(ctx, identity, amount, errors.Wrapf(ErrInsufficientFee, "amount %v", amount))
	}
	if amount.Cmp(r.round.EntranceFee) < 0 {
		return r.rejectEntry(
			ctx, identity, amount,
			errors.Wrapf(ErrInsufficientFee, "paid %v, entrance fee is %v", amount, r.round.EntranceFee),
		)
	}
	if r.round.State != StateOpen {
		return r.rejectEntry(ctx, identity, amount, errors.Wrapf(ErrRoundNotOpen, "state %s", r.round.State))
	}
	next := r.round.Clone()
	next.Players = append(next.Players, identity)
	next.Pot.Add(next.Pot, amount)
	if err := r.save(ctx, next); err != nil {
		return err
	}
	r.install(next)
	r.metrics.Entries.Inc(1)
	if log.V(1) {
		log.Infof(ctx, "Recorded entry of %q paying %v, %v", identity, amount, r.round)
	}
	r.emit(ctx, Event{
		Kind:       EventEntryRecorded,
		Player:     identity,
		Amount:     cloneInt(amount),
		NumPlayers: len(r.round.Players),
	})
	return nil
}

func (r *Raffle) rejectEntry(ctx context.Context, identity Identity, amount *big.Int, err error) error {
	r.metrics.RejectedEntries.Inc(1)
	log.Infof(ctx, "Entry of %q paying %v rejected: %v, current round: %v", identity, amount, err, r.round)
	return err
}
