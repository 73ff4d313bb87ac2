package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rubrikinc/raffle/rafflehttp"
	"github.com/rubrikinc/raffle/raffleutil/log"
)

const (
	idFlag     = "id"
	amountFlag = "amount"
)

var entrantCtx struct {
	id     string
	amount string
}

var enterCmd = &cobra.Command{
	Use:   "enter",
	Short: "Enter the open round",
	Long: `
Enters --id into the open round paying --amount ether from its treasury
account. The entry is refused if the amount is below the entrance fee or a
draw is in progress.
`,
	Run: func(cmd *cobra.Command, args []string) {
		withClient(func(ctx context.Context, c *rafflehttp.Client) error {
			return runEnter(ctx, c, os.Stdout, entrantCtx.id, entrantCtx.amount)
		})
	},
}

var fundCmd = &cobra.Command{
	Use:   "fund",
	Short: "Deposit into a treasury account",
	Long: `
Deposits --amount ether into the treasury account of --id. Only development
networks accept deposits.
`,
	Run: func(cmd *cobra.Command, args []string) {
		withClient(func(ctx context.Context, c *rafflehttp.Client) error {
			return runFund(ctx, c, os.Stdout, entrantCtx.id, entrantCtx.amount)
		})
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Treasury balance of an account",
	Run: func(cmd *cobra.Command, args []string) {
		withClient(func(ctx context.Context, c *rafflehttp.Client) error {
			return runBalance(ctx, c, os.Stdout, entrantCtx.id)
		})
	},
}

func init() {
	ctx := context.TODO()
	for _, cmd := range []*cobra.Command{enterCmd, fundCmd, balanceCmd} {
		cmd.Flags().StringVar(&entrantCtx.id, idFlag, "", "identity of the account")
		if err := cmd.MarkFlagRequired(idFlag); err != nil {
			log.Fatal(ctx, err)
		}
	}
	for _, cmd := range []*cobra.Command{enterCmd, fundCmd} {
		cmd.Flags().StringVar(&entrantCtx.amount, amountFlag, "", "amount in ether, e.g. 0.02")
		if err := cmd.MarkFlagRequired(amountFlag); err != nil {
			log.Fatal(ctx, err)
		}
	}
}

// withClient runs fn with a client for --addr and exits on error.
func withClient(fn func(ctx context.Context, c *rafflehttp.Client) error) {
	quietLogs()
	ctx, cancel := clientContext()
	defer cancel()
	c, err := newClient()
	if err != nil {
		log.Fatal(ctx, err)
	}
	defer c.Close()
	if err := fn(ctx, c); err != nil {
		log.Fatal(ctx, err)
	}
}

func runEnter(ctx context.Context, c *rafflehttp.Client, w io.Writer, id, amount string) error {
	s, err := c.Enter(ctx, id, amount)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s entered round %d, players: %d, pot: %s\n", id, s.Round, s.NumPlayers, ether(s.Pot))
	return err
}

func runFund(ctx context.Context, c *rafflehttp.Client, w io.Writer, id, amount string) error {
	b, err := c.Fund(ctx, id, amount)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s balance: %s\n", b.Identity, ether(b.Balance))
	return err
}

func runBalance(ctx context.Context, c *rafflehttp.Client, w io.Writer, id string) error {
	b, err := c.Balance(ctx, id)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s balance: %s\n", b.Identity, ether(b.Balance))
	return err
}
