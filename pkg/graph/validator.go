package graph

import "strings"

// ValidationErrors collects every structural violation found by Validate,
// rather than failing on the first one — the same collect-all-diagnostics
// approach the wider example corpus uses for graph validation.
type ValidationErrors struct {
	Errors []*ConfigurationError
}

func (v *ValidationErrors) Error() string {
	msgs := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func (v *ValidationErrors) add(e *ConfigurationError) { v.Errors = append(v.Errors, e) }

// InterruptConfig names the nodes an engine should pause before or after
// dispatching, validated against the graph's node set at compile time.
type InterruptConfig struct {
	Before []string
	After  []string
}

// Validate runs the pre-compile structural checks described in
// SPEC_FULL.md §4.3, returning a *ValidationErrors (never a bare
// *ConfigurationError) when any check fails.
func (g *StateGraph) Validate(interrupts InterruptConfig) error {
	verrs := &ValidationErrors{}

	startEdge, hasStart := g.edges[Start]
	if !hasStart {
		verrs.add(newConfigErr(errMissingEntryPoint, "graph has no entry point (no edge from START)"))
	} else if startEdge.IsFanout() {
		verrs.add(newConfigErr(errMultiTargetOnParallel, "START cannot fan out to multiple targets"))
	}

	exists := func(id string) bool {
		if id == End {
			return true
		}
		_, ok := g.nodes[id]
		return ok
	}

	for _, source := range g.edgeOrder {
		edge := g.edges[source]
		if source != Start {
			if !exists(source) {
				verrs.add(newConfigErr(errMissingNodeForEdge, "edge source %q does not reference an existing node", source))
			}
		}

		if edge.IsFanout() {
			seen := map[string]bool{}
			for _, t := range edge.Targets {
				if t.IsConditional() {
					verrs.add(newConfigErr(errConditionalOnParallel, "source %q mixes a parallel fanout with a conditional edge", source))
					continue
				}
				if seen[t.Target] {
					verrs.add(newConfigErr(errDuplicateEdgeTarget, "source %q declares target %q more than once", source, t.Target))
				}
				seen[t.Target] = true
				if !exists(t.Target) {
					verrs.add(newConfigErr(errInvalidEdgeTarget, "edge target %q does not reference an existing node or END", t.Target))
				}
			}
			continue
		}

		single := edge.Targets[0]
		if single.IsConditional() {
			for label, target := range single.Mapping {
				if !exists(target) {
					verrs.add(newConfigErr(errMissingNodeInMapping, "conditional edge from %q maps label %q to unknown node %q", source, label, target))
				}
			}
			continue
		}
		if !exists(single.Target) {
			verrs.add(newConfigErr(errInvalidEdgeTarget, "edge target %q does not reference an existing node or END", single.Target))
		}
	}

	for _, id := range interrupts.Before {
		if !exists(id) || id == End {
			verrs.add(newConfigErr(errInterruptionNodeMissing, "interrupt-before node %q does not exist", id))
		}
	}
	for _, id := range interrupts.After {
		if !exists(id) || id == End {
			verrs.add(newConfigErr(errInterruptionNodeMissing, "interrupt-after node %q does not exist", id))
		}
	}

	if len(verrs.Errors) > 0 {
		return verrs
	}
	return nil
}
