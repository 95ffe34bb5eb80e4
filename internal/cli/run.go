package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/stategraph/pkg/checkpoint"
	"github.com/aretw0/stategraph/pkg/engine"
	"github.com/aretw0/stategraph/pkg/graph"
)

// RunOptions configures graphctl run.
type RunOptions struct {
	GraphFile       string
	ThreadID        string
	InterruptBefore []string
	InputJSON       string
}

// Run compiles the graph file and invokes it to completion, streaming each
// step's snapshot to out as it is produced.
func Run(ctx context.Context, opts RunOptions, store checkpoint.Store, logger *slog.Logger, out io.Writer) error {
	cg, err := CompileFile(opts.GraphFile, store, opts.InterruptBefore)
	if err != nil {
		return err
	}

	input, err := decodeInput(opts.InputJSON)
	if err != nil {
		return err
	}

	r := engine.New(cg, engine.WithLogger(nopIfNil(logger)))
	stream, err := r.Stream(ctx, input, graph.RunnableConfig{ThreadID: opts.ThreadID})
	if err != nil {
		return err
	}

	for output := range stream {
		if output.Err != nil {
			return output.Err
		}
		if err := printSnapshot(out, output.Snapshot); err != nil {
			return err
		}
	}
	return nil
}

func decodeInput(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var input map[string]any
	if err := json.Unmarshal([]byte(raw), &input); err != nil {
		return nil, fmt.Errorf("cli: invalid --input JSON: %w", err)
	}
	return input, nil
}

func printSnapshot(out io.Writer, snap engine.Snapshot) error {
	line, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(line))
	return err
}

func nopIfNil(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
