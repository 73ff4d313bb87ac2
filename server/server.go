package server

import (
	"context"
	"math/big"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/cockroach/pkg/util/syncutil"
	"github.com/pkg/errors"
	"github.com/scaledata/etcd/pkg/types"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/rubrikinc/raffle/config"
	"github.com/rubrikinc/raffle/history"
	"github.com/rubrikinc/raffle/keeper"
	"github.com/rubrikinc/raffle/lottery"
	"github.com/rubrikinc/raffle/metadata"
	"github.com/rubrikinc/raffle/mock"
	"github.com/rubrikinc/raffle/rafflehttp"
	"github.com/rubrikinc/raffle/rafflestats"
	"github.com/rubrikinc/raffle/raffleutil"
	"github.com/rubrikinc/raffle/raffleutil/log"
	"github.com/rubrikinc/raffle/tm"
	"github.com/rubrikinc/raffle/treasury"
)

const (
	// DefaultHTTPPort is the default port of the raffle HTTP API.
	DefaultHTTPPort = "5766"
	// DefaultKeeperTickInterval is how often the keeper checks for upkeep.
	DefaultKeeperTickInterval = time.Second
	// DefaultBlockInterval is how often the development coordinator mines a
	// block.
	DefaultBlockInterval = time.Second
	// DefaultStallThreshold is how long a draw may wait for randomness
	// before the keeper reports it.
	DefaultStallThreshold = 5 * time.Minute
	// EscrowAccount is the treasury account which holds the pot.
	EscrowAccount lottery.Identity = "raffle-escrow"
)

var (
	// DevBaseFee is the flat LINK fee charged by the development
	// coordinator per fulfilment (0.25 LINK).
	DevBaseFee = big.NewInt(250000000000000000)
	// DevGasPriceLink is the LINK price of a unit of gas on the development
	// coordinator.
	DevGasPriceLink = big.NewInt(1e9)
	// DevSubscriptionFund is the LINK deposited into the development
	// subscription (30 LINK).
	DevSubscriptionFund = new(big.Int).Mul(big.NewInt(30), big.NewInt(1e18))
)

// Config is used to initialize a raffle server.
type Config struct {
	Network config.Network
	// DataDir holds the persisted round, the instance id and the history
	// database.
	DataDir string
	// HTTPAddr is the host:port the API listens on.
	HTTPAddr string
	// CertsDir contains the server certificates. The API is served in plain
	// text when it is empty.
	CertsDir           string
	KeeperTickInterval time.Duration
	// BlockInterval is how often the development coordinator mines a block
	// and delivers ready requests.
	BlockInterval  time.Duration
	StallThreshold time.Duration
	// Provider serves randomness on non development networks. Development
	// networks use a mock coordinator when it is nil.
	Provider lottery.RandomnessProvider
	Clock    tm.Clock
	// Fs is the filesystem of DataDir. It defaults to the OS filesystem.
	Fs afero.Fs
}

// Server runs a raffle behind the HTTP API together with its keeper and, on
// development networks, a mock coordinator.
type Server struct {
	Raffle *lottery.Raffle
	// Coordinator is nil unless the server bootstrapped a development
	// coordinator.
	Coordinator    *mock.Coordinator
	SubscriptionID uint64
	Treasury       *treasury.Treasury
	Escrow         *treasury.Escrow
	History        *history.Store
	Keeper         *keeper.Keeper
	Metrics        *rafflestats.RaffleMetrics
	Handler        *rafflehttp.RaffleHandler
	// StopC is used to trigger cleanup functions
	StopC chan struct{}

	cfg        Config
	instanceID types.ID
	roundFile  *metadata.RoundFile
	httpServer *http.Server
	group      *errgroup.Group
	stopOnce   sync.Once

	mu struct {
		syncutil.Mutex
		addr net.Addr
	}
}

// New returns a Server for cfg. For development networks without a provider
// it deploys a mock coordinator, creates and funds a subscription and adds
// the raffle as its consumer.
func New(ctx context.Context, cfg Config) (_ *Server, retErr error) {
	if cfg.DataDir == "" {
		return nil, errors.New("data directory is required")
	}
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.Clock == nil {
		cfg.Clock = tm.NewMonotonicClock()
	}
	if cfg.KeeperTickInterval <= 0 {
		cfg.KeeperTickInterval = DefaultKeeperTickInterval
	}
	if cfg.BlockInterval <= 0 {
		cfg.BlockInterval = DefaultBlockInterval
	}
	if cfg.StallThreshold == 0 {
		cfg.StallThreshold = DefaultStallThreshold
	}
	raffleCfg, err := cfg.Network.RaffleConfig()
	if err != nil {
		return nil, err
	}
	dev := cfg.Network.Development()
	if cfg.Provider == nil && !dev {
		return nil, errors.Errorf(
			"network %s is not a development network and no randomness provider is configured",
			cfg.Network.Name,
		)
	}

	s := &Server{
		cfg:      cfg,
		StopC:    make(chan struct{}),
		Treasury: treasury.New(),
		Metrics:  rafflestats.NewMetrics(),
	}
	s.Escrow = treasury.NewEscrow(s.Treasury, EscrowAccount)

	s.roundFile, err = metadata.OpenRoundFile(cfg.Fs, cfg.DataDir, false /* readOnly */)
	if err != nil {
		return nil, err
	}
	defer func() {
		if retErr != nil {
			s.Close(ctx)
		}
	}()
	s.instanceID = metadata.FetchOrAssignInstanceID(ctx, cfg.Fs, cfg.DataDir)
	ctx = log.WithLogTag(ctx, "instance", s.instanceID)

	s.History, err = history.Open(filepath.Join(cfg.DataDir, history.DBFileName))
	if err != nil {
		return nil, err
	}

	provider := cfg.Provider
	if provider == nil {
		s.Coordinator = mock.NewCoordinator(DevBaseFee, DevGasPriceLink)
		s.SubscriptionID = s.Coordinator.CreateSubscription(ctx)
		if err := s.Coordinator.FundSubscription(ctx, s.SubscriptionID, DevSubscriptionFund); err != nil {
			return nil, err
		}
		raffleCfg.SubscriptionID = s.SubscriptionID
		provider = s.Coordinator
		log.Infof(ctx, "Deployed development coordinator, subscription %d", s.SubscriptionID)
	}

	s.Raffle, err = lottery.New(ctx, raffleCfg, lottery.Deps{
		Provider:  provider,
		Payer:     s.Escrow,
		Clock:     cfg.Clock,
		Store:     s.roundFile,
		Metrics:   s.Metrics,
		Listeners: []lottery.Listener{s.History},
	})
	if err != nil {
		return nil, err
	}
	if s.Coordinator != nil {
		if err := s.Coordinator.AddConsumer(ctx, s.SubscriptionID, s.Raffle); err != nil {
			return nil, err
		}
	}
	if dev {
		if err := s.restoreEscrow(ctx); err != nil {
			return nil, err
		}
	}

	s.Keeper = keeper.New(s.Raffle, s.Metrics, cfg.StallThreshold)
	s.Handler = rafflehttp.NewRaffleHandler(rafflehttp.HandlerConfig{
		Raffle:     s.Raffle,
		Escrow:     s.Escrow,
		Treasury:   s.Treasury,
		AllowFund:  dev,
		History:    s.History,
		InstanceID: s.instanceID.String(),
		Network:    cfg.Network.Name,
	})
	return s, nil
}

// restoreEscrow credits the escrow with the pot of a resumed round. The
// development treasury lives in memory only.
func (s *Server) restoreEscrow(ctx context.Context) error {
	pot := s.Raffle.Pot()
	if pot.Sign() == 0 {
		return nil
	}
	missing := new(big.Int).Sub(pot, s.Escrow.Balance())
	if missing.Sign() <= 0 {
		return nil
	}
	log.Warningf(ctx, "Restoring %v to escrow for pot of resumed round", missing)
	return s.Treasury.Deposit(ctx, EscrowAccount, missing)
}

// ID returns the persisted instance id of the server.
func (s *Server) ID() string {
	return s.instanceID.String()
}

// Addr returns the address the API is listening on, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mu.addr
}

// MineBlock advances the development coordinator by one block and delivers
// every request which reached its confirmation depth. It returns the number
// of requests delivered.
func (s *Server) MineBlock(ctx context.Context) int {
	if s.Coordinator == nil {
		return 0
	}
	s.Coordinator.AdvanceBlock(1)
	return len(s.Coordinator.FulfillReady(ctx))
}

// mineBlocks calls MineBlock on every tick of tickCh until the server is
// stopped.
func (s *Server) mineBlocks(tickCh <-chan time.Time, tickCallback func()) {
	ctx := log.WithLogTag(context.Background(), "block-producer", nil)
	if tickCallback == nil {
		tickCallback = func() {}
	}
	for {
		select {
		case <-s.StopC:
			return
		case <-tickCh:
			if n := s.MineBlock(ctx); n > 0 {
				log.Infof(ctx, "Block %d delivered %d randomness requests", s.Coordinator.Block(), n)
			}
			tickCallback()
		}
	}
}

// Start starts serving the API and the background loops. It returns once
// the listener is bound.
func (s *Server) Start(ctx context.Context) error {
	if s.group != nil {
		return errors.New("server already running")
	}
	tlsConfig, err := raffleutil.ServerTLSConfig(ctx, s.cfg.CertsDir)
	if err != nil {
		return err
	}
	ln, err := raffleutil.NewStoppableListener(s.cfg.HTTPAddr, s.StopC)
	if err != nil {
		return errors.Wrapf(err, "could not listen on %s", s.cfg.HTTPAddr)
	}
	s.mu.Lock()
	s.mu.addr = ln.Addr()
	s.mu.Unlock()

	mux := http.NewServeMux()
	mux.Handle("/"+rafflehttp.RafflePath+"/", s.Handler)
	s.httpServer = &http.Server{Handler: mux, TLSConfig: tlsConfig}

	g, gCtx := errgroup.WithContext(ctx)
	s.group = g
	g.Go(func() error {
		var err error
		if tlsConfig != nil {
			err = s.httpServer.ServeTLS(ln, "", "")
		} else {
			err = s.httpServer.Serve(ln)
		}
		select {
		case <-s.StopC:
			return nil
		default:
			return errors.Wrap(err, "http server failed")
		}
	})
	g.Go(func() error {
		t := time.NewTicker(s.cfg.KeeperTickInterval)
		defer t.Stop()
		s.Keeper.Run(t.C, nil)
		return nil
	})
	if s.Coordinator != nil {
		g.Go(func() error {
			t := time.NewTicker(s.cfg.BlockInterval)
			defer t.Stop()
			s.mineBlocks(t.C, nil)
			return nil
		})
	}
	g.Go(func() error {
		select {
		case <-gCtx.Done():
			s.Stop()
		case <-s.StopC:
		}
		return nil
	})
	log.Infof(ctx, "Raffle server %s listening on %v, network %s", s.ID(), ln.Addr(), s.cfg.Network.Name)
	return nil
}

// Wait blocks until the server stops and returns the first error of its
// loops.
func (s *Server) Wait() error {
	if s.group == nil {
		return errors.New("server not started")
	}
	return s.group.Wait()
}

// Run starts the server and blocks until it stops.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	return s.Wait()
}

// Stop the raffle server. It is safe to call more than once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.StopC)
		s.Keeper.Stop()
		if s.httpServer != nil {
			if err := s.httpServer.Close(); err != nil {
				log.Errorf(context.Background(), "Failed to close http server: %v", err)
			}
		}
	})
}

// Close releases the data directory. It should be called after Stop, or
// instead of it if the server was never started.
func (s *Server) Close(ctx context.Context) {
	if s.History != nil {
		raffleutil.CloseWithErrorLog(ctx, s.History)
	}
	if s.roundFile != nil {
		raffleutil.CloseWithErrorLog(ctx, s.roundFile)
	}
}
