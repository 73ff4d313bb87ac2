package server

import (
	"context"
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/scaledata/etcd/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubrikinc/raffle/config"
	"github.com/rubrikinc/raffle/lottery"
	"github.com/rubrikinc/raffle/rafflehttp"
	"github.com/rubrikinc/raffle/raffleutil"
	"github.com/rubrikinc/raffle/tm"
)

var testStart = time.Unix(1700000000, 0)

func localNetwork() config.Network {
	return config.Defaults()[config.LocalChainID]
}

func testConfig(t *testing.T, dataDir string, clock tm.Clock) Config {
	return Config{
		Network:  localNetwork(),
		DataDir:  dataDir,
		HTTPAddr: "127.0.0.1:0",
		// The loops are driven by hand through Keeper.Tick and MineBlock.
		KeeperTickInterval: time.Hour,
		BlockInterval:      time.Hour,
		Clock:              clock,
	}
}

func tempDir(t *testing.T) (string, func()) {
	dir, err := ioutil.TempDir("", "raffle-server")
	require.NoError(t, err)
	return dir, func() { _ = os.RemoveAll(dir) }
}

func TestNewValidation(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	sepolia := config.Defaults()[config.SepoliaChainID]
	badFee := localNetwork()
	badFee.EntranceFee = "0"
	testCases := []struct {
		name   string
		cfg    Config
		expErr string
	}{
		{
			name:   "no data dir",
			cfg:    Config{Network: localNetwork()},
			expErr: "data directory is required",
		},
		{
			name:   "live network without provider",
			cfg:    Config{Network: sepolia, DataDir: dir},
			expErr: "network sepolia is not a development network and no randomness provider is configured",
		},
		{
			name:   "bad fee",
			cfg:    Config{Network: badFee, DataDir: dir},
			expErr: "network localhost: entrance fee must be positive",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := assert.New(t)
			_, err := New(context.Background(), tc.cfg)
			a.EqualError(err, tc.expErr)
		})
	}
}

func TestDevelopmentBootstrap(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	dir, cleanup := tempDir(t)
	defer cleanup()
	s, err := New(ctx, testConfig(t, dir, tm.NewManualClockAt(testStart)))
	require.NoError(t, err)
	defer s.Close(ctx)

	require.NotNil(t, s.Coordinator)
	sub, err := s.Coordinator.GetSubscription(s.SubscriptionID)
	a.NoError(err)
	a.Equal(DevSubscriptionFund.String(), sub.Balance.String())
	a.Equal(1, sub.Consumers)
	a.Equal(s.SubscriptionID, s.Raffle.Config().SubscriptionID)
	a.Equal(lottery.StateOpen, s.Raffle.State())
	fee, err := raffleutil.ParseEther("0.02")
	a.NoError(err)
	a.Equal(fee.String(), s.Raffle.EntranceFee().String())
	a.Equal(5*time.Second, s.Raffle.Interval())
	a.NotEmpty(s.ID())
}

// TestSingleEntrantRound runs a full round over the HTTP API: one entry, a
// keeper triggered draw and fulfilment by the development coordinator.
func TestSingleEntrantRound(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	dir, cleanup := tempDir(t)
	defer cleanup()
	clock := tm.NewManualClockAt(testStart)
	s, err := New(ctx, testConfig(t, dir, clock))
	require.NoError(t, err)
	defer s.Close(ctx)
	require.NoError(t, s.Start(ctx))

	c, err := rafflehttp.NewClient(s.Addr().String(), transport.TLSInfo{}, 10*time.Second)
	require.NoError(t, err)
	defer c.Close()
	status, err := c.WaitForServer(ctx, 10*time.Second)
	require.NoError(t, err)
	a.Equal(s.ID(), status.InstanceID)
	a.Equal("localhost", status.Network)

	_, err = c.Fund(ctx, "alice", "1")
	a.NoError(err)
	status, err = c.Enter(ctx, "alice", "0.02")
	a.NoError(err)
	a.Equal(1, status.NumPlayers)

	_, started := s.Keeper.Tick(ctx)
	a.False(started)
	clock.AdvanceTime(5 * time.Second)
	id, started := s.Keeper.Tick(ctx)
	a.True(started)
	a.Equal(lottery.RequestID(1), id)

	// The request needs three confirmations.
	a.Equal(0, s.MineBlock(ctx))
	a.Equal(0, s.MineBlock(ctx))
	a.Equal(1, s.MineBlock(ctx))

	status, err = c.Status(ctx)
	a.NoError(err)
	a.Equal("OPEN", status.State)
	a.Equal("alice", status.RecentWinner)
	a.Equal(uint64(2), status.Round)
	a.Equal(0, status.NumPlayers)
	a.Equal("0", status.Pot)
	a.Equal(clock.Now(), status.LastDrawTimestamp)

	b, err := c.Balance(ctx, "alice")
	a.NoError(err)
	a.Equal("1000000000000000000", b.Balance)

	recs, err := c.History(ctx, 0)
	a.NoError(err)
	if a.Len(recs, 1) {
		a.Equal("alice", recs[0].Winner)
		a.Equal("20000000000000000", recs[0].Amount)
	}

	sub, err := s.Coordinator.GetSubscription(s.SubscriptionID)
	a.NoError(err)
	a.Equal("29749900000000000000", sub.Balance.String())

	s.Stop()
	a.NoError(s.Wait())
	s.Stop()
}

func TestRestartResumesRound(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	dir, cleanup := tempDir(t)
	defer cleanup()
	clock := tm.NewManualClockAt(testStart)

	s, err := New(ctx, testConfig(t, dir, clock))
	require.NoError(t, err)
	id := s.ID()
	fee := s.Raffle.EntranceFee()
	for _, p := range []lottery.Identity{"alice", "bob"} {
		require.NoError(t, s.Treasury.Deposit(ctx, p, fee))
		require.NoError(t, s.Escrow.Enter(ctx, s.Raffle, p, fee))
	}
	s.Close(ctx)

	s, err = New(ctx, testConfig(t, dir, clock))
	require.NoError(t, err)
	defer s.Close(ctx)
	a.Equal(id, s.ID())
	a.Equal(2, s.Raffle.NumPlayers())
	a.Equal(s.Raffle.Pot().String(), s.Escrow.Balance().String())

	clock.AdvanceTime(5 * time.Second)
	_, started := s.Keeper.Tick(ctx)
	a.True(started)
	for i := 0; i < 3; i++ {
		s.MineBlock(ctx)
	}
	a.Equal(lottery.StateOpen, s.Raffle.State())
	a.NotEmpty(s.Raffle.RecentWinner())
	a.Equal(0, s.Escrow.Balance().Sign())
}

func TestRunStopsOnContextCancel(t *testing.T) {
	a := assert.New(t)
	dir, cleanup := tempDir(t)
	defer cleanup()
	s, err := New(context.Background(), testConfig(t, dir, tm.NewManualClockAt(testStart)))
	require.NoError(t, err)
	defer s.Close(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	errC := make(chan error, 1)
	go func() { errC <- s.Run(ctx) }()
	cancel()
	select {
	case err := <-errC:
		a.NoError(err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
