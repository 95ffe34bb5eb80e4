package main

import (
	"os"

	"github.com/aretw0/stategraph/internal/cli"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render <graph-file>",
	Short: "Print a graph definition's flowchart or PlantUML diagram",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		title, _ := cmd.Flags().GetString("title")
		withConditional, _ := cmd.Flags().GetBool("conditional-labels")

		return cli.Render(cli.RenderOptions{
			GraphFile:        args[0],
			Format:           format,
			Title:            title,
			PrintConditional: withConditional,
		}, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().String("format", "flowchart", "diagram format: flowchart or plantuml")
	renderCmd.Flags().String("title", "", "diagram title")
	renderCmd.Flags().Bool("conditional-labels", true, "print conditional edge labels")
}
