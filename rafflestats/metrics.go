package rafflestats

import (
	"math/big"

	"go.uber.org/atomic"
)

// Gauge records the latest value of a measurement.
type Gauge struct {
	Metadata
	value atomic.Int64
}

// NewGauge creates a Gauge.
func NewGauge(metadata Metadata) *Gauge {
	return &Gauge{Metadata: metadata}
}

// Update sets the gauge to v.
func (g *Gauge) Update(v int64) {
	g.value.Store(v)
}

// Value returns the current value of the gauge.
func (g *Gauge) Value() int64 {
	return g.value.Load()
}

// Counter records a monotonically increasing count.
type Counter struct {
	Metadata
	count atomic.Int64
}

// NewCounter creates a Counter.
func NewCounter(metadata Metadata) *Counter {
	return &Counter{Metadata: metadata}
}

// Inc increments the counter by i.
func (c *Counter) Inc(i int64) {
	c.count.Add(i)
}

// Count returns the current count.
func (c *Counter) Count() int64 {
	return c.count.Load()
}

var weiPerGwei = big.NewInt(1e9)

// RaffleMetrics is used to record metrics of a raffle
type RaffleMetrics struct {
	// Entries is the number of accepted entries.
	Entries *Counter
	// RejectedEntries is the number of rejected entries.
	RejectedEntries *Counter
	// Players is the number of players in the current round.
	Players *Gauge
	// PotGwei is the pot of the current round in gwei.
	PotGwei *Gauge
	// Calculating is 1 while a randomness request is outstanding.
	Calculating  *Gauge
	UpkeepChecks *Counter
	DrawsStarted *Counter
	// DrawRequestFailures is the number of randomness requests the provider
	// refused.
	DrawRequestFailures *Counter
	WinnersPicked      *Counter
	PayoutFailures     *Counter
	UnknownCallbacks   *Counter
	PersistFailures    *Counter
	// StalledDraw is how long the outstanding request has been pending once it
	// crosses the keeper's stall threshold.
	StalledDraw *Gauge
}

// NewMetrics returns RaffleMetrics which can be used to record metrics
func NewMetrics() *RaffleMetrics {
	return &RaffleMetrics{
		Entries:             NewCounter(MetaRaffleEntries),
		RejectedEntries:     NewCounter(MetaRaffleRejectedEntries),
		Players:             NewGauge(MetaRafflePlayers),
		PotGwei:             NewGauge(MetaRafflePotGwei),
		Calculating:         NewGauge(MetaRaffleCalculating),
		UpkeepChecks:        NewCounter(MetaRaffleUpkeepChecks),
		DrawsStarted:        NewCounter(MetaRaffleDrawsStarted),
		DrawRequestFailures: NewCounter(MetaRaffleDrawRequestFailures),
		WinnersPicked:       NewCounter(MetaRaffleWinnersPicked),
		PayoutFailures:      NewCounter(MetaRafflePayoutFailures),
		UnknownCallbacks:    NewCounter(MetaRaffleUnknownCallbacks),
		PersistFailures:     NewCounter(MetaRafflePersistFailures),
		StalledDraw:         NewGauge(MetaRaffleStalledDraw),
	}
}

// UpdatePot records a wei amount in the pot gauge, truncated to gwei.
func (m *RaffleMetrics) UpdatePot(wei *big.Int) {
	if wei == nil {
		m.PotGwei.Update(0)
		return
	}
	gwei := new(big.Int).Quo(wei, weiPerGwei)
	if !gwei.IsInt64() {
		return
	}
	m.PotGwei.Update(gwei.Int64())
}

// Snapshot returns the current value of every metric keyed by name.
func (m *RaffleMetrics) Snapshot() map[string]int64 {
	out := make(map[string]int64)
	for _, c := range []*Counter{
		m.Entries, m.RejectedEntries, m.UpkeepChecks, m.DrawsStarted,
		m.DrawRequestFailures, m.WinnersPicked, m.PayoutFailures,
		m.UnknownCallbacks, m.PersistFailures,
	} {
		out[c.Name] = c.Count()
	}
	for _, g := range []*Gauge{m.Players, m.PotGwei, m.Calculating, m.StalledDraw} {
		out[g.Name] = g.Value()
	}
	return out
}
