package lottery

import (
	"context"

	"github.com/pkg/errors"

	"github.com/rubrikinc/raffle/raffleutil/log"
)

// StartDraw moves an eligible round to CALCULATING and requests randomness
// for it. It returns an *UpkeepNotNeededError if CheckUpkeep would report
// false. If the provider fails the round stays open.
//
// The request is issued before the CALCULATING round is saved, since the
// saved round must carry the request id. If that save fails StartDraw returns
// ErrPersistFailed with the round still open, and the provider is left with
// an orphaned request. A later StartDraw issues a new request; the orphaned
// one is rejected with ErrUnknownRequest when its callback arrives.
func (r *Raffle) StartDraw(ctx context.Context) (RequestID, error) {
	r.Lock()
	defer r.Unlock()
	u := evaluateUpkeep(r.round, r.clock.Now())
	if !u.Needed() {
		err := &UpkeepNotNeededError{
			Pot:        cloneInt(r.round.Pot),
			NumPlayers: len(r.round.Players),
			State:      r.round.State,
		}
		log.Infof(ctx, "Draw rejected: %v, upkeep: %+v, current round: %v", err, u, r.round)
		return 0, err
	}
	next := r.round.Clone()
	next.State = StateCalculating
	id, err := r.provider.RequestRandomness(ctx, RandomnessRequest{
		KeyHash:          r.cfg.KeyHash,
		SubscriptionID:   r.cfg.SubscriptionID,
		MinConfirmations: r.cfg.MinConfirmations,
		CallbackGasLimit: r.cfg.CallbackGasLimit,
		NumWords:         r.cfg.NumWords,
		Consumer:         r,
	})
	if err != nil {
		r.metrics.DrawRequestFailures.Inc(1)
		log.Warningf(ctx, "Randomness request failed: %v, current round: %v", err, r.round)
		return 0, errors.WithMessage(ErrRandomnessRequestFailed, err.Error())
	}
	next.PendingRequestID = id
	next.RequestPending = true
	if err := r.save(ctx, next); err != nil {
		return 0, err
	}
	r.install(next)
	r.metrics.DrawsStarted.Inc(1)
	log.Infof(ctx, "Requested randomness, request id: %d, %v", id, r.round)
	r.emit(ctx, Event{
		Kind:       EventDrawStarted,
		RequestID:  id,
		Amount:     cloneInt(r.round.Pot),
		NumPlayers: len(r.round.Players),
	})
	return id, nil
}
