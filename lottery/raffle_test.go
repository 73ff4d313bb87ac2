package lottery

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRaffle(t *testing.T) {
	a := assert.New(t)
	tr := newTestRaffle(t)
	a.Equal(StateOpen, tr.State())
	a.Equal(testEntranceFee, tr.EntranceFee())
	a.Equal(testInterval, tr.Interval())
	a.Equal(testStart.UnixNano(), tr.LastDrawTimestamp())
	a.Equal(0, tr.NumPlayers())
	a.Equal(int64(0), tr.Pot().Int64())
	a.Equal(Identity(""), tr.RecentWinner())
	_, pending := tr.PendingRequest()
	a.False(pending)
	a.Equal(uint64(1), tr.Snapshot().Number)
}

func TestNewRaffleValidation(t *testing.T) {
	testCases := []struct {
		name     string
		cfg      Config
		deps     Deps
		errRegex string
	}{
		{
			name:     "zero fee",
			cfg:      Config{EntranceFee: big.NewInt(0), NumWords: 1},
			deps:     Deps{Provider: &fakeProvider{}, Payer: &fakePayer{}},
			errRegex: "entrance fee must be positive",
		},
		{
			name:     "no words",
			cfg:      Config{EntranceFee: big.NewInt(1)},
			deps:     Deps{Provider: &fakeProvider{}, Payer: &fakePayer{}},
			errRegex: "at least one random word",
		},
		{
			name:     "no provider",
			cfg:      Config{EntranceFee: big.NewInt(1), NumWords: 1},
			deps:     Deps{Payer: &fakePayer{}},
			errRegex: "randomness provider is required",
		},
		{
			name:     "no payer",
			cfg:      Config{EntranceFee: big.NewInt(1), NumWords: 1},
			deps:     Deps{Provider: &fakeProvider{}},
			errRegex: "payer is required",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(context.Background(), tc.cfg, tc.deps)
			require.Error(t, err)
			assert.Regexp(t, tc.errRegex, err.Error())
		})
	}
}

func TestRaffleResumesFromStore(t *testing.T) {
	a := assert.New(t)
	store := NewMemStore()
	tr := newTestRaffleWithStore(t, store)
	id := tr.startDraw(t, "alice", "bob")

	resumed := newTestRaffleWithStore(t, store)
	a.Equal(StateCalculating, resumed.State())
	a.Equal(2, resumed.NumPlayers())
	pendingID, pending := resumed.PendingRequest()
	a.True(pending)
	a.Equal(id, pendingID)

	require.NoError(t, resumed.Fulfill(context.Background(), id, big.NewInt(1)))
	a.Equal(Identity("bob"), resumed.RecentWinner())
}

func TestRaffleRejectsMismatchedStoredRound(t *testing.T) {
	store := NewMemStore()
	require.NoError(t, store.Save(context.Background(), &Round{
		Number:      1,
		State:       StateOpen,
		EntranceFee: big.NewInt(1),
		Interval:    testInterval,
		Pot:         new(big.Int),
	}))
	_, err := New(context.Background(), Config{
		EntranceFee: testEntranceFee, Interval: testInterval, NumWords: 1,
	}, Deps{Provider: &fakeProvider{}, Payer: &fakePayer{}, Store: store})
	require.Error(t, err)
	assert.Regexp(t, "stored round has entrance fee", err.Error())
}

// Scenario A: a single entrant wins the whole pot.
func TestSingleEntrantWins(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	tr := newTestRaffle(t)
	tr.enterAll(t, "alice")

	tr.clock.AdvanceTime(testInterval)
	needed, _ := tr.CheckUpkeep(ctx)
	a.True(needed)
	id, err := tr.StartDraw(ctx)
	require.NoError(t, err)
	a.Equal(StateCalculating, tr.State())

	drawTime := tr.clock.Now() + int64(time.Second)
	tr.clock.SetTime(drawTime)
	require.NoError(t, tr.Fulfill(ctx, id, big.NewInt(42)))

	a.Equal([]payment{{to: "alice", amount: testEntranceFee}}, tr.payer.payments)
	a.Equal(Identity("alice"), tr.RecentWinner())
	a.Equal(StateOpen, tr.State())
	a.Equal(0, tr.NumPlayers())
	a.Equal(int64(0), tr.Pot().Int64())
	a.Equal(drawTime, tr.LastDrawTimestamp())
	a.Equal(uint64(2), tr.Snapshot().Number)
	a.Equal(
		[]EventKind{EventEntryRecorded, EventDrawStarted, EventWinnerPicked},
		tr.events.kinds(),
	)
	winnerPicked := tr.events.events[2]
	a.Equal(uint64(1), winnerPicked.Round)
	a.Equal(id, winnerPicked.RequestID)
	a.Equal(int64(42), winnerPicked.RandomValue.Int64())
}

// Scenario B: the winner index is the random value modulo the entries.
func TestWinnerIndex(t *testing.T) {
	testCases := []struct {
		name        string
		players     []Identity
		randomValue *big.Int
		winner      Identity
	}{
		{
			name:        "seven of four",
			players:     []Identity{"p0", "p1", "p2", "p3"},
			randomValue: big.NewInt(7),
			winner:      "p3",
		},
		{
			name:        "zero",
			players:     []Identity{"p0", "p1", "p2", "p3"},
			randomValue: big.NewInt(0),
			winner:      "p0",
		},
		{
			name:        "duplicate entries count separately",
			players:     []Identity{"p0", "p1", "p0"},
			randomValue: big.NewInt(5),
			winner:      "p0",
		},
		{
			name:    "uint256 value",
			players: []Identity{"p0", "p1", "p2"},
			// 2^256 - 1 is divisible by 3.
			randomValue: new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)),
			winner:      "p0",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := assert.New(t)
			tr := newTestRaffle(t)
			id := tr.startDraw(t, tc.players...)
			require.NoError(t, tr.Fulfill(context.Background(), id, tc.randomValue))
			a.Equal(tc.winner, tr.RecentWinner())
			require.Len(t, tr.payer.payments, 1)
			a.Equal(tc.winner, tr.payer.payments[0].to)
			a.Equal(fees(int64(len(tc.players))), tr.payer.payments[0].amount)
		})
	}
}

// Scenario C: entries are refused while a winner is calculated.
func TestEnterWhileCalculating(t *testing.T) {
	a := assert.New(t)
	tr := newTestRaffle(t)
	tr.startDraw(t, "alice")
	before := tr.Snapshot()

	err := tr.Enter(context.Background(), "bob", testEntranceFee)
	a.True(errors.Is(err, ErrRoundNotOpen))
	a.Equal(KindState, KindOf(err))
	a.Equal(before, tr.Snapshot())
}

// Scenario D: callbacks for unknown or consumed requests are refused.
func TestFulfillUnknownRequest(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	tr := newTestRaffle(t)

	err := tr.Fulfill(ctx, 0, big.NewInt(1))
	a.True(errors.Is(err, ErrUnknownRequest))
	a.Equal(KindProtocol, KindOf(err))

	id := tr.startDraw(t, "alice", "bob")
	err = tr.Fulfill(ctx, id+1, big.NewInt(1))
	a.True(errors.Is(err, ErrUnknownRequest))
	a.Equal(StateCalculating, tr.State())

	require.NoError(t, tr.Fulfill(ctx, id, big.NewInt(1)))
	err = tr.Fulfill(ctx, id, big.NewInt(0))
	a.True(errors.Is(err, ErrUnknownRequest))
	a.Len(tr.payer.payments, 1)
	a.Equal(Identity("bob"), tr.RecentWinner())
	a.Equal(int64(3), tr.Metrics().UnknownCallbacks.Count())
}

func TestFulfillInvalidRandomValue(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	tr := newTestRaffle(t)
	id := tr.startDraw(t, "alice")

	for _, v := range []*big.Int{nil, big.NewInt(-1)} {
		err := tr.Fulfill(ctx, id, v)
		a.True(errors.Is(err, ErrInvalidRandomValue))
		a.Equal(KindValidation, KindOf(err))
	}
	err := tr.FulfillRandomWords(ctx, id, nil)
	a.True(errors.Is(err, ErrInvalidRandomValue))
	a.Equal(StateCalculating, tr.State())

	require.NoError(t, tr.FulfillRandomWords(ctx, id, []*big.Int{big.NewInt(9), big.NewInt(3)}))
	a.Equal(Identity("alice"), tr.RecentWinner())
}

func TestPayoutFailureKeepsRound(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	tr := newTestRaffle(t)
	id := tr.startDraw(t, "alice", "bob", "carol")
	before := tr.Snapshot()

	tr.payer.err = errTransfer
	err := tr.Fulfill(ctx, id, big.NewInt(2))
	a.True(errors.Is(err, ErrPayoutFailed))
	a.True(errors.Is(err, errTransfer))
	a.Equal(KindResource, KindOf(err))
	var payoutErr *PayoutFailedError
	require.True(t, errors.As(err, &payoutErr))
	a.Equal(Identity("carol"), payoutErr.Winner)
	a.Equal(fees(3), payoutErr.Amount)
	a.Equal(id, payoutErr.RequestID)

	a.Equal(before, tr.Snapshot())
	a.Equal([]EventKind{
		EventEntryRecorded, EventEntryRecorded, EventEntryRecorded, EventDrawStarted,
	}, tr.events.kinds())
	a.Equal(int64(1), tr.Metrics().PayoutFailures.Count())

	// Redelivering the callback completes the draw.
	tr.payer.err = nil
	require.NoError(t, tr.Fulfill(ctx, id, big.NewInt(2)))
	a.Equal(Identity("carol"), tr.RecentWinner())
	a.Equal(StateOpen, tr.State())
}

func TestPersistFailure(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	store := &failingStore{}
	tr := newTestRaffleWithStore(t, store)
	tr.enterAll(t, "alice")

	store.err = errors.New("disk full")
	err := tr.Enter(ctx, "bob", testEntranceFee)
	a.True(errors.Is(err, ErrPersistFailed))
	a.Equal(1, tr.NumPlayers())

	tr.clock.AdvanceTime(testInterval)
	_, err = tr.StartDraw(ctx)
	a.True(errors.Is(err, ErrPersistFailed))
	a.Equal(StateOpen, tr.State())

	store.err = nil
	id, err := tr.StartDraw(ctx)
	require.NoError(t, err)

	// Once paid, the draw completes even though the round cannot be saved.
	store.err = errors.New("disk full")
	a.NoError(tr.Fulfill(ctx, id, big.NewInt(0)))
	a.Equal(StateOpen, tr.State())
	a.Equal(uint64(2), tr.Snapshot().Number)
	a.Equal([]EventKind{
		EventEntryRecorded, EventDrawStarted, EventWinnerPicked,
	}, tr.events.kinds())
	a.Equal(Identity("alice"), tr.RecentWinner())
	a.Len(tr.payer.payments, 1)
	a.Equal(int64(3), tr.Metrics().PersistFailures.Count())
}

func TestStartDrawSaveFailureOrphansRequest(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	store := &failingStore{}
	tr := newTestRaffleWithStore(t, store)
	tr.enterAll(t, "alice", "bob")
	tr.clock.AdvanceTime(testInterval)

	store.err = errors.New("disk full")
	_, err := tr.StartDraw(ctx)
	a.True(errors.Is(err, ErrPersistFailed))
	a.Equal(StateOpen, tr.State())
	_, pending := tr.PendingRequest()
	a.False(pending)
	a.Len(tr.provider.requests, 1)
	orphan := tr.provider.nextID

	store.err = nil
	id, err := tr.StartDraw(ctx)
	require.NoError(t, err)
	a.NotEqual(orphan, id)
	a.Len(tr.provider.requests, 2)

	err = tr.Fulfill(ctx, orphan, big.NewInt(0))
	a.True(errors.Is(err, ErrUnknownRequest))
	a.Equal(StateCalculating, tr.State())
	a.Empty(tr.payer.payments)

	require.NoError(t, tr.Fulfill(ctx, id, big.NewInt(1)))
	a.Equal(Identity("bob"), tr.RecentWinner())
}

func TestPlayerIndex(t *testing.T) {
	a := assert.New(t)
	tr := newTestRaffle(t)
	tr.enterAll(t, "alice", "bob")
	p, err := tr.Player(1)
	require.NoError(t, err)
	a.Equal(Identity("bob"), p)
	for _, i := range []int{-1, 2} {
		_, err := tr.Player(i)
		a.True(errors.Is(err, ErrPlayerIndexOutOfRange))
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	a := assert.New(t)
	tr := newTestRaffle(t)
	tr.enterAll(t, "alice")
	s := tr.Snapshot()
	s.Players[0] = "mallory"
	s.Pot.SetInt64(0)
	p, err := tr.Player(0)
	require.NoError(t, err)
	a.Equal(Identity("alice"), p)
	a.Equal(testEntranceFee, tr.Pot())
}

func TestConcurrentEntries(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	tr := newTestRaffle(t)
	const numEntrants = 50
	var wg sync.WaitGroup
	for i := 0; i < numEntrants; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, tr.Enter(ctx, "entrant", testEntranceFee))
		}()
	}
	wg.Wait()
	a.Equal(numEntrants, tr.NumPlayers())
	a.Equal(fees(numEntrants), tr.Pot())
}

func TestConcurrentFulfillPaysOnce(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	tr := newTestRaffle(t)
	id := tr.startDraw(t, "alice", "bob")

	const callbacks = 10
	errs := make(chan error, callbacks)
	var wg sync.WaitGroup
	for i := 0; i < callbacks; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- tr.Fulfill(ctx, id, big.NewInt(int64(i)))
		}(i)
	}
	wg.Wait()
	close(errs)
	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		a.True(errors.Is(err, ErrUnknownRequest))
	}
	a.Equal(1, succeeded)
	a.Len(tr.payer.payments, 1)
	a.Equal(fees(2), tr.payer.payments[0].amount)
}
