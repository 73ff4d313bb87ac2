package rafflehttp

import (
	"encoding/json"
	"io"
	"io/ioutil"
	"math/big"

	"github.com/pkg/errors"

	"github.com/rubrikinc/raffle/lottery"
)

// Status is the response of /raffle/status. Amounts are decimal wei strings.
type Status struct {
	InstanceID  string `json:"instance_id"`
	Network     string `json:"network"`
	Round       uint64 `json:"round"`
	State       string `json:"state"`
	EntranceFee string `json:"entrance_fee"`
	// Interval is the minimum time between draws in nanoseconds.
	Interval          int64  `json:"interval"`
	LastDrawTimestamp int64  `json:"last_draw_timestamp"`
	NumPlayers        int    `json:"num_players"`
	Pot               string `json:"pot"`
	PendingRequestID  uint64 `json:"pending_request_id,omitempty"`
	RecentWinner      string `json:"recent_winner,omitempty"`
	// EscrowBalance is only set when entries are backed by a treasury.
	EscrowBalance string `json:"escrow_balance,omitempty"`
}

func newStatus(r *lottery.Round) Status {
	s := Status{
		Round:             r.Number,
		State:             r.State.String(),
		EntranceFee:       r.EntranceFee.String(),
		Interval:          int64(r.Interval),
		LastDrawTimestamp: r.LastDrawTimestamp,
		NumPlayers:        len(r.Players),
		Pot:               r.Pot.String(),
		RecentWinner:      string(r.RecentWinner),
	}
	if r.RequestPending {
		s.PendingRequestID = uint64(r.PendingRequestID)
	}
	return s
}

// Upkeep is the response of /raffle/upkeep.
type Upkeep struct {
	Needed     bool  `json:"needed"`
	IsOpen     bool  `json:"is_open"`
	HasPlayers bool  `json:"has_players"`
	HasBalance bool  `json:"has_balance"`
	TimePassed bool  `json:"time_passed"`
	Elapsed    int64 `json:"elapsed"`
}

// EnterRequest asks the server to enter Identity into the open round with
// Amount, a decimal ether string.
type EnterRequest struct {
	Identity string `json:"identity"`
	Amount   string `json:"amount"`
}

// FundRequest deposits Amount (decimal ether) into the treasury account of
// Identity. Only development servers accept it.
type FundRequest struct {
	Identity string `json:"identity"`
	Amount   string `json:"amount"`
}

// DrawResponse is the response of /raffle/draw.
type DrawResponse struct {
	RequestID uint64 `json:"request_id"`
}

// FulfillRequest delivers RandomValue, a decimal integer, for RequestID.
type FulfillRequest struct {
	RequestID   uint64 `json:"request_id"`
	RandomValue string `json:"random_value"`
}

// Player is the response of /raffle/players/{i}.
type Player struct {
	Index    int    `json:"index"`
	Identity string `json:"identity"`
}

// Balance is the response of /raffle/balance/{identity}.
type Balance struct {
	Identity string `json:"identity"`
	Balance  string `json:"balance"`
}

func parseRandomValue(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Wrapf(lottery.ErrInvalidRandomValue, "%q", s)
	}
	return v, nil
}

func decodeRequest(r io.Reader, v interface{}) error {
	requestJSON, err := ioutil.ReadAll(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(requestJSON, v)
}
