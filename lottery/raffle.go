package lottery

import (
	"context"
	"math/big"
	"time"

	"github.com/cockroachdb/cockroach/pkg/util/syncutil"
	"github.com/pkg/errors"

	"github.com/rubrikinc/raffle/rafflestats"
	"github.com/rubrikinc/raffle/raffleutil/log"
	"github.com/rubrikinc/raffle/tm"
)

const (
	// DefaultMinConfirmations is the number of blocks the oracle waits before
	// answering a request.
	DefaultMinConfirmations = 3
	// DefaultNumWords is the number of random words requested per draw.
	DefaultNumWords = 1
)

// Config holds the parameters fixed for the lifetime of a raffle.
type Config struct {
	EntranceFee *big.Int
	Interval    time.Duration
	// KeyHash, SubscriptionID, MinConfirmations, CallbackGasLimit and
	// NumWords are forwarded unchanged in every RandomnessRequest.
	KeyHash          string
	SubscriptionID   uint64
	MinConfirmations uint16
	CallbackGasLimit uint32
	NumWords         uint32
}

func (c *Config) validate() error {
	if c.EntranceFee == nil || c.EntranceFee.Sign() <= 0 {
		return errors.Errorf("entrance fee must be positive, got %v", c.EntranceFee)
	}
	if c.Interval < 0 {
		return errors.Errorf("interval must not be negative, got %v", c.Interval)
	}
	if c.NumWords == 0 {
		return errors.New("at least one random word must be requested")
	}
	return nil
}

// Deps are the collaborators of a raffle. Provider and Payer are required.
type Deps struct {
	Provider RandomnessProvider
	Payer    Payer
	// Clock defaults to a monotonic clock.
	Clock tm.Clock
	// Store defaults to a MemStore.
	Store Store
	// Metrics defaults to a fresh rafflestats.RaffleMetrics.
	Metrics   *rafflestats.RaffleMetrics
	Listeners []Listener
}

// Raffle is a recurring lottery. All mutations are serialized; readers get
// copies of the round.
type Raffle struct {
	syncutil.RWMutex
	cfg       Config
	round     *Round
	provider  RandomnessProvider
	payer     Payer
	clock     tm.Clock
	store     Store
	metrics   *rafflestats.RaffleMetrics
	listeners []Listener
}

var _ Consumer = &Raffle{}

// New returns a raffle for cfg. If deps.Store holds a round it is resumed,
// otherwise a new open round starts at the current time.
func New(ctx context.Context, cfg Config, deps Deps) (*Raffle, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if deps.Provider == nil {
		return nil, errors.New("randomness provider is required")
	}
	if deps.Payer == nil {
		return nil, errors.New("payer is required")
	}
	if deps.Clock == nil {
		deps.Clock = tm.NewMonotonicClock()
	}
	if deps.Store == nil {
		deps.Store = NewMemStore()
	}
	if deps.Metrics == nil {
		deps.Metrics = rafflestats.NewMetrics()
	}
	cfg.EntranceFee = cloneInt(cfg.EntranceFee)
	r := &Raffle{
		cfg:       cfg,
		provider:  deps.Provider,
		payer:     deps.Payer,
		clock:     deps.Clock,
		store:     deps.Store,
		metrics:   deps.Metrics,
		listeners: append([]Listener(nil), deps.Listeners...),
	}
	round, err := r.store.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load round")
	}
	if round != nil {
		if err := round.Validate(); err != nil {
			return nil, errors.Wrap(err, "stored round is invalid")
		}
		if round.EntranceFee.Cmp(cfg.EntranceFee) != 0 || round.Interval != cfg.Interval {
			return nil, errors.Errorf(
				"stored round has entrance fee %v and interval %v, configured %v and %v",
				round.EntranceFee, round.Interval, cfg.EntranceFee, cfg.Interval,
			)
		}
		log.Infof(ctx, "Resuming raffle, %v", round)
		r.round = round
	} else {
		r.round = &Round{
			Number:            1,
			State:             StateOpen,
			EntranceFee:       cloneInt(cfg.EntranceFee),
			Interval:          cfg.Interval,
			LastDrawTimestamp: r.clock.Now(),
			Pot:               new(big.Int),
		}
		if err := r.store.Save(ctx, r.round); err != nil {
			return nil, errors.Wrap(err, "failed to save initial round")
		}
		log.Infof(ctx, "Starting raffle, %v", r.round)
	}
	r.updateGauges()
	return r, nil
}

// AddListener registers l for all subsequent events.
func (r *Raffle) AddListener(l Listener) {
	r.Lock()
	defer r.Unlock()
	r.listeners = append(r.listeners, l)
}

// Config returns the raffle's fixed parameters.
func (r *Raffle) Config() Config {
	c := r.cfg
	c.EntranceFee = cloneInt(r.cfg.EntranceFee)
	return c
}

// Metrics returns the metrics the raffle records into.
func (r *Raffle) Metrics() *rafflestats.RaffleMetrics {
	return r.metrics
}

// Snapshot returns a copy of the current round.
func (r *Raffle) Snapshot() *Round {
	r.RLock()
	defer r.RUnlock()
	return r.round.Clone()
}

// EntranceFee returns the minimum entry amount.
func (r *Raffle) EntranceFee() *big.Int {
	return cloneInt(r.cfg.EntranceFee)
}

// Interval returns the minimum time between draws.
func (r *Raffle) Interval() time.Duration {
	return r.cfg.Interval
}

// State returns the current round state.
func (r *Raffle) State() State {
	r.RLock()
	defer r.RUnlock()
	return r.round.State
}

// Player returns the entrant at index i.
func (r *Raffle) Player(i int) (Identity, error) {
	r.RLock()
	defer r.RUnlock()
	if i < 0 || i >= len(r.round.Players) {
		return "", errors.Wrapf(ErrPlayerIndexOutOfRange, "index %d, players %d", i, len(r.round.Players))
	}
	return r.round.Players[i], nil
}

// NumPlayers returns the number of entries in the current round.
func (r *Raffle) NumPlayers() int {
	r.RLock()
	defer r.RUnlock()
	return len(r.round.Players)
}

// Pot returns the sum of entries in the current round.
func (r *Raffle) Pot() *big.Int {
	r.RLock()
	defer r.RUnlock()
	return cloneInt(r.round.Pot)
}

// LastDrawTimestamp returns the time of the last completed draw, or of the
// raffle's creation, in unix nanos.
func (r *Raffle) LastDrawTimestamp() int64 {
	r.RLock()
	defer r.RUnlock()
	return r.round.LastDrawTimestamp
}

// RecentWinner returns the winner of the last completed draw.
func (r *Raffle) RecentWinner() Identity {
	r.RLock()
	defer r.RUnlock()
	return r.round.RecentWinner
}

// PendingRequest returns the outstanding randomness request, if any.
func (r *Raffle) PendingRequest() (RequestID, bool) {
	r.RLock()
	defer r.RUnlock()
	return r.round.PendingRequestID, r.round.RequestPending
}

// Now returns the current time of the raffle's clock in unix nanos.
func (r *Raffle) Now() int64 {
	return r.clock.Now()
}

// save persists next. It must be called with the lock held.
func (r *Raffle) save(ctx context.Context, next *Round) error {
	if err := r.store.Save(ctx, next); err != nil {
		r.metrics.PersistFailures.Inc(1)
		log.Errorf(ctx, "Failed to persist round, %v: %v", next, err)
		return errors.WithMessage(ErrPersistFailed, err.Error())
	}
	return nil
}

// install makes next the current round. It must be called with the lock
// held.
func (r *Raffle) install(next *Round) {
	r.round = next
	r.updateGauges()
}

// emit must be called with the lock held.
func (r *Raffle) emit(ctx context.Context, e Event) {
	if e.Round == 0 {
		e.Round = r.round.Number
	}
	if e.Timestamp == 0 {
		e.Timestamp = r.clock.Now()
	}
	for _, l := range r.listeners {
		l.OnEvent(ctx, e)
	}
}

func (r *Raffle) updateGauges() {
	r.metrics.Players.Update(int64(len(r.round.Players)))
	r.metrics.UpdatePot(r.round.Pot)
	if r.round.State == StateCalculating {
		r.metrics.Calculating.Update(1)
	} else {
		r.metrics.Calculating.Update(0)
	}
}
