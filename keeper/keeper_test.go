package keeper

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubrikinc/raffle/lottery"
	"github.com/rubrikinc/raffle/rafflestats"
	"github.com/rubrikinc/raffle/tm"
)

type sequentialProvider struct {
	next lottery.RequestID
	err  error
}

func (p *sequentialProvider) RequestRandomness(
	context.Context, lottery.RandomnessRequest,
) (lottery.RequestID, error) {
	if p.err != nil {
		return 0, p.err
	}
	p.next++
	return p.next, nil
}

func newRaffle(
	t *testing.T, clock tm.Clock, provider lottery.RandomnessProvider, metrics *rafflestats.RaffleMetrics,
) *lottery.Raffle {
	r, err := lottery.New(context.Background(), lottery.Config{
		EntranceFee: big.NewInt(10),
		Interval:    5 * time.Second,
		NumWords:    1,
	}, lottery.Deps{
		Provider: provider,
		Payer: lottery.PayerFunc(func(context.Context, lottery.Identity, *big.Int) error {
			return nil
		}),
		Clock:   clock,
		Metrics: metrics,
	})
	require.NoError(t, err)
	return r
}

func TestTick(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	clock := tm.NewManualClockAt(time.Unix(1700000000, 0))
	provider := &sequentialProvider{}
	r := newRaffle(t, clock, provider, nil)
	k := New(r, r.Metrics(), time.Minute)

	_, started := k.Tick(ctx)
	a.False(started)
	require.NoError(t, r.Enter(ctx, "alice", big.NewInt(10)))
	_, started = k.Tick(ctx)
	a.False(started)

	clock.AdvanceTime(5 * time.Second)
	id, started := k.Tick(ctx)
	a.True(started)
	a.Equal(lottery.RequestID(1), id)
	a.Equal(lottery.StateCalculating, r.State())

	_, started = k.Tick(ctx)
	a.False(started)
	a.Equal(int64(1), k.Draws())

	require.NoError(t, r.Fulfill(ctx, id, big.NewInt(0)))
	a.Equal(lottery.StateOpen, r.State())
}

func TestTickProviderFailure(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	clock := tm.NewManualClock()
	provider := &sequentialProvider{err: errors.New("unavailable")}
	r := newRaffle(t, clock, provider, nil)
	k := New(r, nil, 0)
	require.NoError(t, r.Enter(ctx, "alice", big.NewInt(10)))
	clock.AdvanceTime(time.Hour)
	_, started := k.Tick(ctx)
	a.False(started)
	a.Equal(lottery.StateOpen, r.State())

	provider.err = nil
	_, started = k.Tick(ctx)
	a.True(started)
}

func TestStalledDraw(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	clock := tm.NewManualClock()
	metrics := rafflestats.NewMetrics()
	r := newRaffle(t, clock, &sequentialProvider{}, metrics)
	k := New(r, metrics, time.Minute)
	require.NoError(t, r.Enter(ctx, "alice", big.NewInt(10)))
	clock.AdvanceTime(5 * time.Second)
	id, started := k.Tick(ctx)
	require.True(t, started)

	k.Tick(ctx)
	a.Equal(int64(0), metrics.StalledDraw.Value())
	clock.AdvanceTime(2 * time.Minute)
	k.Tick(ctx)
	a.Equal(int64(2*time.Minute), metrics.StalledDraw.Value())

	require.NoError(t, r.Fulfill(ctx, id, big.NewInt(3)))
	k.Tick(ctx)
	a.Equal(int64(0), metrics.StalledDraw.Value())
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	clock := tm.NewManualClock()
	r := newRaffle(t, clock, &sequentialProvider{}, nil)
	require.NoError(t, r.Enter(ctx, "alice", big.NewInt(10)))
	clock.AdvanceTime(5 * time.Second)

	k := New(r, nil, 0)
	tickCh := make(chan time.Time)
	ticked := make(chan struct{}, 1)
	go k.Run(tickCh, func() { ticked <- struct{}{} })
	tickCh <- time.Now()
	<-ticked
	k.Stop()
	assert.Equal(t, lottery.StateCalculating, r.State())
	assert.Equal(t, int64(1), k.Draws())
}
