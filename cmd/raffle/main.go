package main

import (
	"context"
	"flag"
	"os"

	"github.com/rubrikinc/raffle/cli"
	"github.com/rubrikinc/raffle/raffleutil/log"
)

func main() {
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "help")
	}

	flag.Parse()

	cli.RootCmd.SetArgs(flag.Args())
	if err := cli.RootCmd.Execute(); err != nil {
		log.Fatal(context.Background(), err)
	}
}
