package main

import (
	"context"
	"os"

	"github.com/aretw0/stategraph/internal/cli"
	tui "github.com/aretw0/stategraph/pkg/render/tui"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <graph-file>",
	Short: "Run a graph definition to completion, streaming each step",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		if !cfg.Metrics.Enabled {
			// Only show the banner in plain interactive runs; keep scripted
			// invocations (metrics-enabled, presumably supervised) quiet.
			tui.PrintBanner()
		}

		store, err := cli.BuildStore(cfg.Checkpoint)
		if err != nil {
			return err
		}

		thread, _ := cmd.Flags().GetString("thread")
		input, _ := cmd.Flags().GetString("input")
		interruptBefore, _ := cmd.Flags().GetStringSlice("interrupt-before")

		return cli.Run(context.Background(), cli.RunOptions{
			GraphFile:       args[0],
			ThreadID:        thread,
			InterruptBefore: interruptBefore,
			InputJSON:       input,
		}, store, logger, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("thread", "default", "thread id used for checkpointing")
	runCmd.Flags().String("input", "", "initial state as a JSON object")
	runCmd.Flags().StringSlice("interrupt-before", nil, "node ids to interrupt before running")
}
