package cli

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/rubrikinc/raffle/metadata"
	"github.com/rubrikinc/raffle/raffleutil/log"
)

var roundInfoCtx struct {
	dataDir string
}

var roundInfoCmd = &cobra.Command{
	Use:   "round-info",
	Short: "Persisted round of a data directory",
	Long: `
Prints the round persisted in --data-dir without contacting a server. It can
be run while the server is stopped.
`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		s, err := roundInfo(ctx, afero.NewOsFs(), roundInfoCtx.dataDir)
		if err != nil {
			log.Fatal(ctx, err)
		}
		fmt.Print(s)
	},
}

func init() {
	roundInfoCmd.Flags().StringVar(
		&roundInfoCtx.dataDir,
		dataDirFlag,
		"./",
		"Data directory of the raffle server",
	)
}

func roundInfo(ctx context.Context, fs afero.Fs, dataDir string) (string, error) {
	r, err := metadata.LoadRound(ctx, fs, dataDir)
	if err != nil {
		return "", err
	}
	return metadata.PrettyPrint(r)
}
