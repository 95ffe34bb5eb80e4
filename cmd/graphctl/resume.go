package main

import (
	"context"
	"os"

	"github.com/aretw0/stategraph/internal/cli"
	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <graph-file>",
	Short: "Resume a paused thread from its latest checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		store, err := cli.BuildStore(cfg.Checkpoint)
		if err != nil {
			return err
		}

		thread, _ := cmd.Flags().GetString("thread")
		interruptBefore, _ := cmd.Flags().GetStringSlice("interrupt-before")

		return cli.Resume(context.Background(), cli.ResumeOptions{
			GraphFile:       args[0],
			ThreadID:        thread,
			InterruptBefore: interruptBefore,
		}, store, logger, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)
	resumeCmd.Flags().String("thread", "default", "thread id to resume")
	resumeCmd.Flags().StringSlice("interrupt-before", nil, "node ids to interrupt before running")
}
