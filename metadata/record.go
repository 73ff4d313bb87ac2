package metadata

import (
	"math/big"
	"time"

	"github.com/pkg/errors"

	"github.com/rubrikinc/raffle/lottery"
)

//go:generate protoc --gogo_out=. record.proto

// NewRoundRecord converts r to its persisted form.
func NewRoundRecord(r *lottery.Round) *RoundRecord {
	rec := &RoundRecord{
		Number:            r.Number,
		State:             int32(r.State),
		EntranceFee:       intString(r.EntranceFee),
		IntervalNanos:     int64(r.Interval),
		LastDrawTimestamp: r.LastDrawTimestamp,
		Pot:               intString(r.Pot),
		PendingRequestId:  uint64(r.PendingRequestID),
		RequestPending:    r.RequestPending,
		RecentWinner:      string(r.RecentWinner),
	}
	for _, p := range r.Players {
		rec.Players = append(rec.Players, string(p))
	}
	return rec
}

// Round converts the record back to a lottery.Round.
func (m *RoundRecord) Round() (*lottery.Round, error) {
	fee, err := parseInt("entrance fee", m.EntranceFee)
	if err != nil {
		return nil, err
	}
	pot, err := parseInt("pot", m.Pot)
	if err != nil {
		return nil, err
	}
	r := &lottery.Round{
		Number:            m.Number,
		State:             lottery.State(m.State),
		EntranceFee:       fee,
		Interval:          time.Duration(m.IntervalNanos),
		LastDrawTimestamp: m.LastDrawTimestamp,
		Pot:               pot,
		PendingRequestID:  lottery.RequestID(m.PendingRequestId),
		RequestPending:    m.RequestPending,
		RecentWinner:      lottery.Identity(m.RecentWinner),
	}
	for _, p := range m.Players {
		r.Players = append(r.Players, lottery.Identity(p))
	}
	return r, nil
}

func intString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func parseInt(field, s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Errorf("invalid %s %q", field, s)
	}
	return v, nil
}
