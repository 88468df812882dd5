package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "fleetctl",
		Short:        "Fleet compliance operator tool",
		SilenceUsage: true,
	}
	root.AddCommand(newClassifyCmd(), newMigrateCmd())
	return root
}
