package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rubrikinc/raffle/history"
	"github.com/rubrikinc/raffle/rafflehttp"
)

var historyCtx struct {
	limit  int
	format string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Completed draws",
	Long: `
Lists completed draws, most recent first, with their winner and prize.
`,
	Run: func(cmd *cobra.Command, args []string) {
		withClient(func(ctx context.Context, c *rafflehttp.Client) error {
			recs, err := c.History(ctx, historyCtx.limit)
			if err != nil {
				return err
			}
			return printHistory(os.Stdout, recs, historyCtx.format)
		})
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyCtx.limit, "limit", 10, "maximum number of draws, 0 for all")
	historyCmd.Flags().StringVar(
		&historyCtx.format,
		formatFlag,
		"pretty",
		"format to print history in. Supported values are: json, pretty",
	)
}

func printHistory(w io.Writer, recs []history.DrawRecord, format string) error {
	switch format {
	case "pretty":
		rows := make([][]string, 0, len(recs))
		for _, r := range recs {
			rows = append(rows, []string{
				fmt.Sprint(r.Round),
				r.Winner,
				ether(r.Amount),
				fmt.Sprint(r.NumPlayers),
				fmt.Sprint(r.RequestID),
				time.Unix(0, r.Timestamp).UTC().Format(time.RFC3339),
			})
		}
		return writeTable(w, []string{"Round", "Winner", "Prize", "Players", "Request", "Time"}, rows)
	case "json":
		serialized, err := json.MarshalIndent(recs, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(serialized))
		return err
	default:
		return errors.Errorf("format %s not supported for history", format)
	}
}
