package history

import (
	"context"
	"io/ioutil"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubrikinc/raffle/lottery"
)

func openTestStore(t *testing.T) (*Store, func()) {
	dir, err := ioutil.TempDir("", "history")
	require.NoError(t, err)
	s, err := Open(filepath.Join(dir, DBFileName))
	require.NoError(t, err)
	return s, func() {
		_ = s.Close()
		_ = os.RemoveAll(dir)
	}
}

func TestAppendGetList(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	s, cleanup := openTestStore(t)
	defer cleanup()

	recs, err := s.List(ctx, 0)
	require.NoError(t, err)
	a.Empty(recs)

	for i := uint64(1); i <= 300; i++ {
		require.NoError(t, s.Append(ctx, DrawRecord{Round: i, RequestID: i, Winner: "alice", Amount: "1"}))
	}
	rec, err := s.Get(ctx, 256)
	require.NoError(t, err)
	a.Equal(uint64(256), rec.RequestID)

	_, err = s.Get(ctx, 301)
	a.True(errors.Is(err, ErrNotFound))

	recs, err = s.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	a.Equal([]uint64{300, 299, 298}, []uint64{recs[0].Round, recs[1].Round, recs[2].Round})

	recs, err = s.List(ctx, 0)
	require.NoError(t, err)
	a.Len(recs, 300)
}

func TestOnEvent(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	s, cleanup := openTestStore(t)
	defer cleanup()

	s.OnEvent(ctx, lottery.Event{Kind: lottery.EventEntryRecorded, Round: 1, Player: "alice"})
	s.OnEvent(ctx, lottery.Event{
		Kind:        lottery.EventWinnerPicked,
		Round:       1,
		Player:      "alice",
		RequestID:   4,
		Amount:      big.NewInt(20000000000000000),
		RandomValue: big.NewInt(42),
		NumPlayers:  1,
		Timestamp:   1700000000000000000,
	})
	recs, err := s.List(ctx, 0)
	require.NoError(t, err)
	a.Equal([]DrawRecord{{
		Round:       1,
		RequestID:   4,
		Winner:      "alice",
		Amount:      "20000000000000000",
		NumPlayers:  1,
		RandomValue: "42",
		Timestamp:   1700000000000000000,
	}}, recs)
}

func TestOnEventCancelledContext(t *testing.T) {
	a := assert.New(t)
	s, cleanup := openTestStore(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a.Error(s.Append(ctx, DrawRecord{Round: 1}))
	s.OnEvent(ctx, lottery.Event{
		Kind:      lottery.EventWinnerPicked,
		Round:     2,
		Player:    "bob",
		RequestID: 2,
		Amount:    big.NewInt(10),
	})
	rec, err := s.Get(context.Background(), 2)
	require.NoError(t, err)
	a.Equal("bob", rec.Winner)
	a.Equal("10", rec.Amount)
	_, err = s.Get(context.Background(), 1)
	a.True(errors.Is(err, ErrNotFound))
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(" ")
	assert.Error(t, err)
}
