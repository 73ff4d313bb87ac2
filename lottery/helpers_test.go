package lottery

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/rubrikinc/raffle/tm"
)

var (
	testEntranceFee = big.NewInt(20000000000000000) // 0.02 ether
	testInterval    = 5 * time.Second
	testStart       = time.Unix(1700000000, 0)
)

type fakeProvider struct {
	sync.Mutex
	nextID   RequestID
	requests []RandomnessRequest
	err      error
}

func (p *fakeProvider) RequestRandomness(
	ctx context.Context, req RandomnessRequest,
) (RequestID, error) {
	p.Lock()
	defer p.Unlock()
	if p.err != nil {
		return 0, p.err
	}
	p.nextID++
	p.requests = append(p.requests, req)
	return p.nextID, nil
}

type payment struct {
	to     Identity
	amount *big.Int
}

type fakePayer struct {
	sync.Mutex
	payments []payment
	err      error
}

func (p *fakePayer) Pay(ctx context.Context, to Identity, amount *big.Int) error {
	p.Lock()
	defer p.Unlock()
	if p.err != nil {
		return p.err
	}
	p.payments = append(p.payments, payment{to: to, amount: new(big.Int).Set(amount)})
	return nil
}

type failingStore struct {
	MemStore
	err error
}

func (s *failingStore) Save(ctx context.Context, r *Round) error {
	if s.err != nil {
		return s.err
	}
	return s.MemStore.Save(ctx, r)
}

type eventRecorder struct {
	sync.Mutex
	events []Event
}

func (e *eventRecorder) OnEvent(_ context.Context, ev Event) {
	e.Lock()
	defer e.Unlock()
	e.events = append(e.events, ev)
}

func (e *eventRecorder) kinds() []EventKind {
	e.Lock()
	defer e.Unlock()
	var kinds []EventKind
	for _, ev := range e.events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

type testRaffle struct {
	*Raffle
	clock    *tm.ManualClock
	provider *fakeProvider
	payer    *fakePayer
	events   *eventRecorder
	store    Store
}

func newTestRaffleWithStore(t *testing.T, store Store) *testRaffle {
	tr := &testRaffle{
		clock:    tm.NewManualClockAt(testStart),
		provider: &fakeProvider{},
		payer:    &fakePayer{},
		events:   &eventRecorder{},
		store:    store,
	}
	r, err := New(context.Background(), Config{
		EntranceFee:      testEntranceFee,
		Interval:         testInterval,
		KeyHash:          "0x474e34a077df58807dbe9c96d3c009b23b3c6d0cce433e59bbf5b34f823bc56c",
		SubscriptionID:   1,
		MinConfirmations: DefaultMinConfirmations,
		CallbackGasLimit: 500000,
		NumWords:         DefaultNumWords,
	}, Deps{
		Provider:  tr.provider,
		Payer:     tr.payer,
		Clock:     tr.clock,
		Store:     store,
		Listeners: []Listener{tr.events},
	})
	require.NoError(t, err)
	tr.Raffle = r
	return tr
}

func newTestRaffle(t *testing.T) *testRaffle {
	return newTestRaffleWithStore(t, NewMemStore())
}

// enterAll enters each identity paying the entrance fee.
func (tr *testRaffle) enterAll(t *testing.T, ids ...Identity) {
	for _, id := range ids {
		require.NoError(t, tr.Enter(context.Background(), id, testEntranceFee))
	}
}

// startDraw enters ids, waits out the interval and starts a draw.
func (tr *testRaffle) startDraw(t *testing.T, ids ...Identity) RequestID {
	tr.enterAll(t, ids...)
	tr.clock.AdvanceTime(testInterval)
	id, err := tr.StartDraw(context.Background())
	require.NoError(t, err)
	return id
}

func fees(n int64) *big.Int {
	return new(big.Int).Mul(testEntranceFee, big.NewInt(n))
}

var errTransfer = errors.New("recipient rejected transfer")
