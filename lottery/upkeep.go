package lottery

import (
	"context"
	"time"
)

// UpkeepContext lists the conditions evaluated by CheckUpkeep. A draw is
// needed only when all four hold.
type UpkeepContext struct {
	IsOpen     bool
	HasPlayers bool
	HasBalance bool
	TimePassed bool
	// Elapsed is the time since the last draw.
	Elapsed time.Duration
}

// Needed reports whether every condition holds.
func (u UpkeepContext) Needed() bool {
	return u.IsOpen && u.HasPlayers && u.HasBalance && u.TimePassed
}

func evaluateUpkeep(round *Round, now int64) UpkeepContext {
	elapsed := time.Duration(now - round.LastDrawTimestamp)
	return UpkeepContext{
		IsOpen:     round.State == StateOpen,
		HasPlayers: len(round.Players) > 0,
		HasBalance: round.Pot.Sign() > 0,
		TimePassed: elapsed >= round.Interval,
		Elapsed:    elapsed,
	}
}

// CheckUpkeep reports whether a draw should be started now. It does not
// modify the round.
func (r *Raffle) CheckUpkeep(ctx context.Context) (bool, UpkeepContext) {
	r.RLock()
	defer r.RUnlock()
	r.metrics.UpkeepChecks.Inc(1)
	u := evaluateUpkeep(r.round, r.clock.Now())
	return u.Needed(), u
}
