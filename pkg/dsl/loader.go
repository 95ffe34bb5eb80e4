package dsl

import (
	"fmt"
	"os"

	"github.com/aretw0/stategraph/pkg/graph"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// FileNode is one node entry of a graph file, decoded via mapstructure the
// same way the corpus decodes frontmatter metadata into typed structs.
type FileNode struct {
	Action string         `mapstructure:"action"`
	Params map[string]any `mapstructure:"params"`
}

// FileEdge is one edge entry: From/To are node ids (or __START__/__END__).
// A conditional edge sets Mapping instead of To, resolved at runtime against
// the state key named by On.
type FileEdge struct {
	From    string            `mapstructure:"from"`
	To      string            `mapstructure:"to"`
	On      string            `mapstructure:"on"`
	Mapping map[string]string `mapstructure:"mapping"`
}

// File is the top-level shape of a graph definition file.
type File struct {
	Nodes []FileNodeEntry `mapstructure:"nodes"`
	Edges []FileEdge      `mapstructure:"edges"`
}

// FileNodeEntry names a node alongside its FileNode definition. The
// embedded FileNode is squashed so a YAML node entry is flat:
// {id: A, action: set, params: {...}}.
type FileNodeEntry struct {
	ID       string `mapstructure:"id"`
	FileNode `mapstructure:",squash"`
}

// Load reads path as YAML and builds a *graph.StateGraph from it, resolving
// each node's action against reg.
func Load(path string, reg *Registry) (*graph.StateGraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dsl: read %s: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("dsl: parse %s: %w", path, err)
	}

	var f File
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: &f, WeaklyTypedInput: true})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("dsl: decode %s: %w", path, err)
	}

	return Build(f, reg)
}

// Build constructs a *graph.StateGraph from an already-decoded File.
func Build(f File, reg *Registry) (*graph.StateGraph, error) {
	g := graph.New(nil)

	for _, n := range f.Nodes {
		action, err := reg.Build(n.Action, n.Params)
		if err != nil {
			return nil, fmt.Errorf("dsl: node %q: %w", n.ID, err)
		}
		if err := g.AddNode(n.ID, action); err != nil {
			return nil, err
		}
	}

	for _, e := range f.Edges {
		if len(e.Mapping) > 0 {
			cond := conditionalOn(e.On)
			if err := g.AddConditionalEdges(e.From, cond, e.Mapping); err != nil {
				return nil, err
			}
			continue
		}
		if err := g.AddEdge(e.From, e.To); err != nil {
			return nil, err
		}
	}

	return g, nil
}
