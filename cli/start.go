package cli

import (
	"context"
	"net"
	"net/http"
	// net/http/pprof is included for profiling
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rubrikinc/raffle/config"
	"github.com/rubrikinc/raffle/raffleutil/log"
	"github.com/rubrikinc/raffle/server"
)

const (
	networkFlag            = "network"
	configFlag             = "config"
	dataDirFlag            = "data-dir"
	httpAddrFlag           = "http-addr"
	keeperTickIntervalFlag = "keeper-tick-interval"
	blockIntervalFlag      = "block-interval"
	stallThresholdFlag     = "stall-threshold"
)

var startCtx struct {
	network            string
	configFile         string
	dataDir            string
	httpAddr           string
	keeperTickInterval time.Duration
	blockInterval      time.Duration
	stallThreshold     time.Duration
	pprofAddr          string
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a raffle server",
	Long: `
Start a raffle server which serves the raffle HTTP API and runs the keeper.
On development networks (hardhat, localhost) a mock randomness coordinator is
deployed and funded, and blocks are mined every block-interval.
Network parameters come from the built-in defaults, overridden by the config
file and then by RAFFLE_* environment variables.
`,
	Run: func(cmd *cobra.Command, args []string) { runStart() },
}

func init() {
	startCmd.Flags().StringVar(
		&startCtx.network,
		networkFlag,
		"localhost",
		"network to run on, by name or chain id",
	)

	startCmd.Flags().StringVar(
		&startCtx.configFile,
		configFlag,
		"",
		"TOML file with network overrides",
	)

	startCmd.Flags().StringVar(
		&startCtx.dataDir,
		dataDirFlag,
		"./",
		"Data directory for storing the round, instance id and draw history",
	)

	startCmd.Flags().StringVar(
		&startCtx.httpAddr,
		httpAddrFlag,
		net.JoinHostPort("", server.DefaultHTTPPort),
		"Address to serve the raffle HTTP API on",
	)

	startCmd.Flags().DurationVar(
		&startCtx.keeperTickInterval,
		keeperTickIntervalFlag,
		server.DefaultKeeperTickInterval,
		"Period at which the keeper checks whether a draw is needed",
	)

	startCmd.Flags().DurationVar(
		&startCtx.blockInterval,
		blockIntervalFlag,
		server.DefaultBlockInterval,
		"Period at which the development coordinator mines a block",
	)

	startCmd.Flags().DurationVar(
		&startCtx.stallThreshold,
		stallThresholdFlag,
		server.DefaultStallThreshold,
		"Time after which an outstanding randomness request is reported. "+
			"Negative values disable the check",
	)

	startCmd.Flags().StringVar(
		&startCtx.pprofAddr,
		"pprof-addr",
		"",
		"Address to enable pprof on. Empty string disables pprof",
	)
}

func initHTTPPprof(ctx context.Context) {
	if startCtx.pprofAddr == "" {
		return
	}
	log.Infof(ctx, "Starting http pprof. To see debug info go to http://%s/debug/pprof", startCtx.pprofAddr)
	go func() {
		if err := http.ListenAndServe(startCtx.pprofAddr, nil); err != nil {
			log.Fatal(ctx, "HTTP pprof ListenAndServer error", err)
		}
	}()
}

// loadNetwork resolves the network to run on from the defaults, the config
// file and the environment.
func loadNetwork(name, configFile string, environ map[string]string) (config.Network, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return config.Network{}, err
	}
	n, err := cfg.Lookup(name)
	if err != nil {
		return config.Network{}, err
	}
	return config.ApplyEnv(n, environ)
}

func runStart() {
	ctx := context.Background()
	network, err := loadNetwork(startCtx.network, startCtx.configFile, nil)
	if err != nil {
		log.Fatal(ctx, err)
	}
	initHTTPPprof(ctx)

	srv, err := server.New(ctx, server.Config{
		Network:            network,
		DataDir:            startCtx.dataDir,
		HTTPAddr:           startCtx.httpAddr,
		CertsDir:           raffleCertsDir(),
		KeeperTickInterval: startCtx.keeperTickInterval,
		BlockInterval:      startCtx.blockInterval,
		StallThreshold:     startCtx.stallThreshold,
	})
	if err != nil {
		log.Fatal(ctx, err)
	}
	defer srv.Close(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigC
		log.Infof(ctx, "Received %v, stopping", sig)
		cancel()
	}()

	if err := srv.Run(ctx); err != nil {
		log.Fatal(ctx, err)
	}
	log.Flush()
}
