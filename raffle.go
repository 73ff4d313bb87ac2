package raffle

import (
	"context"
	"math/big"

	"github.com/pkg/errors"

	"github.com/rubrikinc/raffle/lottery"
	"github.com/rubrikinc/raffle/rafflestats"
	"github.com/rubrikinc/raffle/raffleutil/log"
	"github.com/rubrikinc/raffle/server"
)

var raffleServer *server.Server

// ErrNotInitialized is returned by operations called before Initialize.
var ErrNotInitialized = errors.New("raffle server is not initialized")

// Initialize starts an in-process raffle server for config. A server started
// by a previous call is stopped first.
func Initialize(ctx context.Context, config server.Config) error {
	Stop()

	s, err := server.New(ctx, config)
	if err != nil {
		return err
	}
	if err := s.Start(ctx); err != nil {
		s.Close(ctx)
		return err
	}
	raffleServer = s

	go func() {
		if err := s.Wait(); err != nil {
			log.Errorf(ctx, "Raffle server stopped, err: %v", err)
		}
	}()

	log.Infof(ctx, "Raffle server %s initialized on %s", s.ID(), s.Addr())
	return nil
}

// Stop stops the raffle server and releases its data directory.
func Stop() {
	if raffleServer == nil {
		return
	}
	ctx := context.TODO()
	raffleServer.Stop()
	raffleServer.Close(ctx)
	raffleServer = nil
	log.Info(ctx, "Raffle server stopped")
}

// IsActive returns whether a raffle server is running.
func IsActive() bool {
	return raffleServer != nil
}

// Status returns a copy of the current round.
func Status() (*lottery.Round, error) {
	if raffleServer == nil {
		return nil, ErrNotInitialized
	}
	return raffleServer.Raffle.Snapshot(), nil
}

// Enter enters identity into the open round paying amount wei from its
// treasury account.
func Enter(ctx context.Context, identity lottery.Identity, amount *big.Int) error {
	if raffleServer == nil {
		return ErrNotInitialized
	}
	return raffleServer.Escrow.Enter(ctx, raffleServer.Raffle, identity, amount)
}

// InstanceID returns the id of the data directory of the running server, or
// an empty string if none is running.
func InstanceID() string {
	if raffleServer == nil {
		return ""
	}
	return raffleServer.ID()
}

// Metrics returns the metrics of the running server.
func Metrics() *rafflestats.RaffleMetrics {
	if raffleServer == nil {
		return nil
	}
	return raffleServer.Metrics
}
