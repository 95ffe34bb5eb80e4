// Package cli implements graphctl's command bodies, kept separate from the
// cobra command tree in cmd/graphctl so they can be unit tested without
// invoking cobra itself, mirroring the teacher's cli/cmd split.
package cli

import (
	"fmt"

	"github.com/aretw0/stategraph/pkg/checkpoint"
	"github.com/aretw0/stategraph/pkg/dsl"
	"github.com/aretw0/stategraph/pkg/graph"
)

// CompileFile loads a graph definition file and compiles it with the given
// checkpoint store and interrupt configuration.
func CompileFile(path string, store checkpoint.Store, interruptBefore []string) (*graph.CompiledGraph, error) {
	g, err := dsl.Load(path, dsl.NewRegistry())
	if err != nil {
		return nil, err
	}
	cg, err := g.Compile(graph.CompileConfig{
		CheckpointStore: store,
		InterruptBefore: interruptBefore,
	})
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}
	return cg, nil
}
