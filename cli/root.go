package cli

import (
	"context"
	"flag"
	"net"
	"os"
	"time"

	"github.com/cockroachdb/cockroach/pkg/util/log/logflags"
	"github.com/spf13/cobra"

	"github.com/rubrikinc/raffle/rafflehttp"
	"github.com/rubrikinc/raffle/raffleutil"
	"github.com/rubrikinc/raffle/server"
)

const (
	addrFlag    = "addr"
	timeoutFlag = "timeout"
	formatFlag  = "format"
)

var rootCtx struct {
	certsDir string
	addr     string
	timeout  time.Duration
}

// RootCmd is the main command which contains all the raffle subcommands
var RootCmd = &cobra.Command{
	Use:   "raffle",
	Short: "recurring raffle service",
	Long: `
Raffle runs a recurring lottery. Entrants pay an entrance fee into the open
round, a keeper closes the round once the interval has passed and a verifiable
random number picks the winner of the pot.
`,
}

// raffleCertsDir returns the certificates directory passed as a flag
// If an empty certificates directory is passed as a flag, it returns
// the value of the environment variable RAFFLE_CERTS_DIR
func raffleCertsDir() string {
	if len(rootCtx.certsDir) > 0 {
		return rootCtx.certsDir
	}
	return os.Getenv("RAFFLE_CERTS_DIR")
}

// newClient returns a client for the server at --addr. Close should be
// called once done.
func newClient() (*rafflehttp.Client, error) {
	return rafflehttp.NewClient(
		rootCtx.addr, raffleutil.TLSInfo(raffleCertsDir()), rootCtx.timeout,
	)
}

// clientContext returns the context for a client command, bounded by
// --timeout.
func clientContext() (context.Context, context.CancelFunc) {
	if rootCtx.timeout == 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), rootCtx.timeout)
}

// quietLogs stops client commands from logging to stderr.
func quietLogs() {
	if f := flag.Lookup(logflags.LogToStderrName); f != nil {
		if err := f.Value.Set("false"); err != nil {
			panic(err)
		}
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(
		&rootCtx.certsDir,
		"certs-dir",
		"",
		"Certificates directory for the HTTP server / client",
	)
	RootCmd.PersistentFlags().StringVar(
		&rootCtx.addr,
		addrFlag,
		net.JoinHostPort("localhost", server.DefaultHTTPPort),
		"host:port of the raffle HTTP API",
	)
	RootCmd.PersistentFlags().DurationVar(
		&rootCtx.timeout,
		timeoutFlag,
		30*time.Second,
		"timeout for client commands",
	)

	RootCmd.AddCommand(
		startCmd,
		statusCmd,
		enterCmd,
		upkeepCmd,
		drawCmd,
		fulfillCmd,
		historyCmd,
		fundCmd,
		balanceCmd,
		roundInfoCmd,
	)
}
