// Package keeper polls a raffle and starts a draw whenever one is needed.
package keeper

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/rubrikinc/raffle/lottery"
	"github.com/rubrikinc/raffle/rafflestats"
	"github.com/rubrikinc/raffle/raffleutil/log"
)

// Upkeeper is the part of a raffle the keeper drives. *lottery.Raffle
// implements it.
type Upkeeper interface {
	CheckUpkeep(ctx context.Context) (bool, lottery.UpkeepContext)
	StartDraw(ctx context.Context) (lottery.RequestID, error)
	PendingRequest() (lottery.RequestID, bool)
	Now() int64
}

var _ Upkeeper = &lottery.Raffle{}

// Keeper triggers draws on a raffle.
type Keeper struct {
	raffle  Upkeeper
	metrics *rafflestats.RaffleMetrics
	// StallThreshold is how long a randomness request may stay outstanding
	// before the keeper reports it. Zero disables the check.
	StallThreshold time.Duration
	// StopC is closed to stop Run.
	StopC chan struct{}
	// pending is the request last seen outstanding and seenAt when it was
	// first seen.
	pending  lottery.RequestID
	seenAt   int64
	tracking bool
	draws    atomic.Int64
}

// New returns a Keeper for raffle.
func New(raffle Upkeeper, metrics *rafflestats.RaffleMetrics, stallThreshold time.Duration) *Keeper {
	if metrics == nil {
		metrics = rafflestats.NewMetrics()
	}
	return &Keeper{
		raffle:         raffle,
		metrics:        metrics,
		StallThreshold: stallThreshold,
		StopC:          make(chan struct{}),
	}
}

// Run performs upkeep on every tick of tickCh until Stop is called.
// tickCallback is called after processing each tick.
func (k *Keeper) Run(tickCh <-chan time.Time, tickCallback func()) {
	ctx := log.WithLogTag(context.Background(), "keeper", nil)
	if tickCallback == nil {
		tickCallback = func() {}
	}
	for {
		select {
		case <-k.StopC:
			return
		case <-tickCh:
			k.Tick(ctx)
			tickCallback()
		}
	}
}

// Tick performs one round of upkeep. It returns the id of the request
// started, if any.
func (k *Keeper) Tick(ctx context.Context) (lottery.RequestID, bool) {
	k.checkStalled(ctx)
	needed, u := k.raffle.CheckUpkeep(ctx)
	if !needed {
		if log.V(1) {
			log.Infof(ctx, "Upkeep not needed: %+v", u)
		}
		return 0, false
	}
	id, err := k.raffle.StartDraw(ctx)
	if err != nil {
		// Another trigger may have started the draw between the check and
		// the call.
		if errors.Is(err, lottery.ErrUpkeepNotNeeded) {
			log.Infof(ctx, "Draw not started: %v", err)
		} else {
			log.Warningf(ctx, "Failed to start draw: %v", err)
		}
		return 0, false
	}
	k.draws.Inc()
	log.Infof(ctx, "Started draw, request id: %d, upkeep: %+v", id, u)
	return id, true
}

// Draws returns the number of draws started by the keeper.
func (k *Keeper) Draws() int64 {
	return k.draws.Load()
}

func (k *Keeper) checkStalled(ctx context.Context) {
	id, pending := k.raffle.PendingRequest()
	if !pending {
		k.tracking = false
		k.metrics.StalledDraw.Update(0)
		return
	}
	now := k.raffle.Now()
	if !k.tracking || k.pending != id {
		k.pending, k.seenAt, k.tracking = id, now, true
	}
	waited := time.Duration(now - k.seenAt)
	if k.StallThreshold <= 0 || waited < k.StallThreshold {
		k.metrics.StalledDraw.Update(0)
		return
	}
	k.metrics.StalledDraw.Update(int64(waited))
	log.Warningf(
		ctx, "Randomness request %d has been outstanding for %v, the raffle stays closed "+
			"until the callback for it is delivered", id, waited,
	)
}

// Stop stops Run.
func (k *Keeper) Stop() {
	close(k.StopC)
}
