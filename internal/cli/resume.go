package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/aretw0/stategraph/pkg/checkpoint"
	"github.com/aretw0/stategraph/pkg/engine"
	"github.com/aretw0/stategraph/pkg/graph"
)

// ResumeOptions configures graphctl resume.
type ResumeOptions struct {
	GraphFile       string
	ThreadID        string
	InterruptBefore []string
}

// Resume continues a paused thread from its latest checkpoint, streaming
// remaining steps to out.
func Resume(ctx context.Context, opts ResumeOptions, store checkpoint.Store, logger *slog.Logger, out io.Writer) error {
	if store == nil {
		return checkpoint.ErrNotFound
	}
	cg, err := CompileFile(opts.GraphFile, store, opts.InterruptBefore)
	if err != nil {
		return err
	}

	r := engine.New(cg, engine.WithLogger(nopIfNil(logger)))
	stream, err := r.Stream(ctx, nil, graph.RunnableConfig{ThreadID: opts.ThreadID})
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
