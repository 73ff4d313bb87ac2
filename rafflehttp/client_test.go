package rafflehttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/scaledata/etcd/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubrikinc/raffle/lottery"
)

func newTestClient(t *testing.T, h http.Handler) (*Client, func()) {
	srv := httptest.NewServer(h)
	c, err := NewClient(strings.TrimPrefix(srv.URL, "http://"), transport.TLSInfo{}, 10*time.Second)
	require.NoError(t, err)
	return c, func() {
		c.Close()
		srv.Close()
	}
}

func TestClient(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	env, cleanup := newTestEnv(t)
	defer cleanup()
	c, closeClient := newTestClient(t, env.handler)
	defer closeClient()

	s, err := c.WaitForServer(ctx, time.Second)
	a.NoError(err)
	a.Equal("OPEN", s.State)

	for _, id := range []string{"alice", "bob"} {
		b, err := c.Fund(ctx, id, "0.5")
		a.NoError(err)
		a.Equal("500000000000000000", b.Balance)
		_, err = c.Enter(ctx, id, "0.01")
		a.NoError(err)
	}
	p, err := c.Player(ctx, 1)
	a.NoError(err)
	a.Equal("bob", p)

	_, err = c.Draw(ctx)
	a.Equal(lottery.KindState, lottery.KindOf(err))
	var apiErr *APIError
	if a.True(errors.As(err, &apiErr)) {
		a.Equal(http.StatusConflict, apiErr.StatusCode)
	}

	env.clock.AdvanceTime(testInterval)
	u, err := c.Upkeep(ctx)
	a.NoError(err)
	a.True(u.Needed)
	id, err := c.Draw(ctx)
	a.NoError(err)
	a.Equal(uint64(1), id)

	_, err = c.Fulfill(ctx, id+1, "3")
	a.Equal(lottery.KindProtocol, lottery.KindOf(err))

	s, err = c.Fulfill(ctx, id, "3")
	a.NoError(err)
	a.Equal("bob", s.RecentWinner)

	b, err := c.Balance(ctx, "bob")
	a.NoError(err)
	a.Equal("510000000000000000", b.Balance)

	recs, err := c.History(ctx, 10)
	a.NoError(err)
	if a.Len(recs, 1) {
		a.Equal(uint64(1), recs[0].Round)
	}

	m, err := c.Metrics(ctx)
	a.NoError(err)
	a.Equal(int64(1), m["raffle.winner.count"])
}

func TestClientWaitForServerTimeout(t *testing.T) {
	a := assert.New(t)
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "starting", http.StatusServiceUnavailable)
	})
	c, closeClient := newTestClient(t, h)
	defer closeClient()
	_, err := c.WaitForServer(context.Background(), 100*time.Millisecond)
	var apiErr *APIError
	if a.True(errors.As(err, &apiErr)) {
		a.Equal(http.StatusServiceUnavailable, apiErr.StatusCode)
		a.Equal("starting", apiErr.Msg)
		a.Equal(lottery.KindUnknown, apiErr.Kind())
	}
}
