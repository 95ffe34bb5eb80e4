package main

import (
	"os"

	"github.com/aretw0/stategraph/internal/cli"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <graph-file>",
	Short: "List a graph definition's nodes and outgoing edges",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Inspect(args[0], os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
