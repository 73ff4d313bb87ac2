package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rubrikinc/raffle/rafflehttp"
	"github.com/rubrikinc/raffle/raffleutil"
	"github.com/rubrikinc/raffle/raffleutil/log"
)

var statusCtx struct {
	format string
	all    bool
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Status of the raffle",
	Long: `
Returns the current round of the raffle served at --addr: its state, players,
pot and the most recent winner.
`,
	Run: func(cmd *cobra.Command, args []string) {
		runStatus()
	},
}

func init() {
	statusCmd.Flags().StringVar(
		&statusCtx.format,
		formatFlag,
		"pretty",
		"format to print status in. Supported values are: json, pretty",
	)

	statusCmd.Flags().BoolVar(
		&statusCtx.all,
		"all",
		false,
		"show all fields in status",
	)
}

func runStatus() {
	quietLogs()
	ctx, cancel := clientContext()
	defer cancel()
	c, err := newClient()
	if err != nil {
		log.Fatal(ctx, err)
	}
	defer c.Close()
	status, err := c.Status(ctx)
	if err != nil {
		log.Fatal(ctx, err)
	}
	if err := printStatus(os.Stdout, status, statusCtx.format, statusCtx.all); err != nil {
		log.Fatal(ctx, err)
	}
}

func printStatus(w io.Writer, status *rafflehttp.Status, format string, allFields bool) error {
	switch format {
	case "pretty":
		return prettyPrintStatus(w, status, allFields)
	case "json":
		serialized, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(serialized))
		return err
	default:
		return errors.Errorf("format %s not supported for status", format)
	}
}

const (
	instanceHeader      = "Instance"
	networkHeader       = "Network"
	roundHeader         = "Round"
	stateHeader         = "State"
	entranceFeeHeader   = "Entrance Fee"
	intervalHeader      = "Interval"
	lastDrawHeader      = "Last Draw"
	playersHeader       = "Players"
	potHeader           = "Pot"
	pendingHeader       = "Pending Request"
	recentWinnerHeader  = "Recent Winner"
	escrowBalanceHeader = "Escrow"
)

// ether formats a decimal wei string in ether.
func ether(wei string) string {
	v, ok := new(big.Int).SetString(wei, 10)
	if !ok {
		return noValue
	}
	return raffleutil.FormatEther(v)
}

const noValue = "N/A"

func prettyPrintStatus(outputStream io.Writer, s *rafflehttp.Status, allFields bool) error {
	valueFn := map[string]func(s *rafflehttp.Status) string{
		instanceHeader:    func(s *rafflehttp.Status) string { return s.InstanceID },
		networkHeader:     func(s *rafflehttp.Status) string { return s.Network },
		roundHeader:       func(s *rafflehttp.Status) string { return fmt.Sprint(s.Round) },
		stateHeader:       func(s *rafflehttp.Status) string { return s.State },
		entranceFeeHeader: func(s *rafflehttp.Status) string { return ether(s.EntranceFee) },
		intervalHeader:    func(s *rafflehttp.Status) string { return time.Duration(s.Interval).String() },
		lastDrawHeader: func(s *rafflehttp.Status) string {
			return time.Unix(0, s.LastDrawTimestamp).UTC().Format(time.RFC3339)
		},
		playersHeader: func(s *rafflehttp.Status) string { return fmt.Sprint(s.NumPlayers) },
		potHeader:     func(s *rafflehttp.Status) string { return ether(s.Pot) },
		pendingHeader: func(s *rafflehttp.Status) string {
			if s.PendingRequestID == 0 {
				return noValue
			}
			return fmt.Sprint(s.PendingRequestID)
		},
		recentWinnerHeader: func(s *rafflehttp.Status) string {
			if s.RecentWinner == "" {
				return noValue
			}
			return s.RecentWinner
		},
		escrowBalanceHeader: func(s *rafflehttp.Status) string {
			if s.EscrowBalance == "" {
				return noValue
			}
			return ether(s.EscrowBalance)
		},
	}

	var fields []string
	if allFields {
		fields = []string{
			instanceHeader,
			networkHeader,
			roundHeader,
			stateHeader,
			entranceFeeHeader,
			intervalHeader,
			lastDrawHeader,
			playersHeader,
			potHeader,
			pendingHeader,
			recentWinnerHeader,
			escrowBalanceHeader,
		}
	} else {
		fields = []string{
			roundHeader,
			stateHeader,
			playersHeader,
			potHeader,
			recentWinnerHeader,
		}
	}
	row := make([]string, len(fields))
	for i, field := range fields {
		row[i] = valueFn[field](s)
	}
	return writeTable(outputStream, fields, [][]string{row})
}

// writeTable writes headers and rows as space aligned columns.
func writeTable(outputStream io.Writer, headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(
		outputStream,
		2,   /* minWidth */
		2,   /* tabWidth */
		2,   /* padding */
		' ', /* padChar */
		0,   /* flags */
	)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
