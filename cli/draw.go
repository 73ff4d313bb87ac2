package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rubrikinc/raffle/rafflehttp"
	"github.com/rubrikinc/raffle/raffleutil/log"
)

var upkeepCmd = &cobra.Command{
	Use:   "upkeep",
	Short: "Whether a draw can be started",
	Long: `
Reports whether the open round needs a draw, along with each of the conditions
for one: the round is open, it has players, it holds a balance and the
interval has passed since the last draw.
`,
	Run: func(cmd *cobra.Command, args []string) {
		withClient(func(ctx context.Context, c *rafflehttp.Client) error {
			return runUpkeep(ctx, c, os.Stdout)
		})
	},
}

var drawCmd = &cobra.Command{
	Use:   "draw",
	Short: "Start a draw",
	Long: `
Closes the open round and requests randomness for it. The keeper does this on
its own once upkeep is needed.
`,
	Run: func(cmd *cobra.Command, args []string) {
		withClient(func(ctx context.Context, c *rafflehttp.Client) error {
			return runDraw(ctx, c, os.Stdout)
		})
	},
}

var fulfillCtx struct {
	requestID   uint64
	randomValue string
}

var fulfillCmd = &cobra.Command{
	Use:   "fulfill",
	Short: "Deliver randomness for an outstanding draw",
	Long: `
Delivers --random-value for --request-id. The winner is the player at index
random-value mod number of players. Used to redeliver a callback when a draw
is stuck waiting for randomness.
`,
	Run: func(cmd *cobra.Command, args []string) {
		withClient(func(ctx context.Context, c *rafflehttp.Client) error {
			return runFulfill(ctx, c, os.Stdout, fulfillCtx.requestID, fulfillCtx.randomValue)
		})
	},
}

func init() {
	ctx := context.TODO()
	fulfillCmd.Flags().Uint64Var(&fulfillCtx.requestID, "request-id", 0, "randomness request id")
	fulfillCmd.Flags().StringVar(&fulfillCtx.randomValue, "random-value", "", "decimal random value")
	for _, f := range []string{"request-id", "random-value"} {
		if err := fulfillCmd.MarkFlagRequired(f); err != nil {
			log.Fatal(ctx, err)
		}
	}
}

func runUpkeep(ctx context.Context, c *rafflehttp.Client, w io.Writer) error {
	u, err := c.Upkeep(ctx)
	if err != nil {
		return err
	}
	return writeTable(
		w,
		[]string{"Needed", "Open", "Players", "Balance", "Time Passed", "Elapsed"},
		[][]string{{
			fmt.Sprint(u.Needed),
			fmt.Sprint(u.IsOpen),
			fmt.Sprint(u.HasPlayers),
			fmt.Sprint(u.HasBalance),
			fmt.Sprint(u.TimePassed),
			time.Duration(u.Elapsed).String(),
		}},
	)
}

func runDraw(ctx context.Context, c *rafflehttp.Client, w io.Writer) error {
	id, err := c.Draw(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "draw started, request id: %d\n", id)
	return err
}

func runFulfill(ctx context.Context, c *rafflehttp.Client, w io.Writer, id uint64, value string) error {
	s, err := c.Fulfill(ctx, id, value)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "round %d won by %s\n", s.Round-1, s.RecentWinner)
	return err
}
