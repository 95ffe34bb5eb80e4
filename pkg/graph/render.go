package graph

import (
	"fmt"
	"sort"
	"strings"
)

// RenderKind selects the textual diagram syntax Render produces.
type RenderKind int

const (
	// RenderFlowchart emits Mermaid flowchart syntax.
	RenderFlowchart RenderKind = iota
	// RenderPlantUML emits PlantUML activity-diagram syntax.
	RenderPlantUML
)

// Render projects the compiled graph into a textual diagram. This is a
// pure function of the graph model: node/edge labels are exactly the
// caller-supplied ids, and no runtime state is consulted.
func (cg *CompiledGraph) Render(kind RenderKind, title string, printConditional bool) (string, error) {
	switch kind {
	case RenderFlowchart:
		return cg.renderFlowchart(title, printConditional), nil
	case RenderPlantUML:
		return cg.renderPlantUML(title, printConditional), nil
	default:
		return "", fmt.Errorf("graph: unknown render kind %d", kind)
	}
}

func (cg *CompiledGraph) sortedSources() []string {
	sources := make([]string, 0, len(cg.outgoing))
	for src := range cg.outgoing {
		sources = append(sources, src)
	}
	sort.Slice(sources, func(i, j int) bool {
		return renderRank(sources[i]) < renderRank(sources[j]) ||
			(renderRank(sources[i]) == renderRank(sources[j]) && sources[i] < sources[j])
	})
	return sources
}

func renderRank(id string) int {
	switch id {
	case Start:
		return 0
	case End:
		return 2
	default:
		return 1
	}
}

func (cg *CompiledGraph) renderFlowchart(title string, printConditional bool) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")
	if title != "" {
		fmt.Fprintf(&b, "  %%%% %s\n", title)
	}
	for _, source := range cg.sortedSources() {
		edge := cg.outgoing[source]
		for _, tv := range edge.Targets {
			if tv.IsConditional() {
				labels := sortedMapKeys(tv.Mapping)
				for _, label := range labels {
					target := tv.Mapping[label]
					if printConditional {
						fmt.Fprintf(&b, "  %s -- %s --> %s\n", nodeLabel(source), label, nodeLabel(target))
					} else {
						fmt.Fprintf(&b, "  %s -.-> %s\n", nodeLabel(source), nodeLabel(target))
					}
				}
				continue
			}
			fmt.Fprintf(&b, "  %s --> %s\n", nodeLabel(source), nodeLabel(tv.Target))
		}
	}
	return b.String()
}

func (cg *CompiledGraph) renderPlantUML(title string, printConditional bool) string {
	var b strings.Builder
	b.WriteString("@startuml\n")
	if title != "" {
		fmt.Fprintf(&b, "title %s\n", title)
	}
	for _, source := range cg.sortedSources() {
		edge := cg.outgoing[source]
		for _, tv := range edge.Targets {
			if tv.IsConditional() {
				labels := sortedMapKeys(tv.Mapping)
				for _, label := range labels {
					target := tv.Mapping[label]
					if printConditional {
						fmt.Fprintf(&b, "%s --> %s : %s\n", plantLabel(source), plantLabel(target), label)
					} else {
						fmt.Fprintf(&b, "%s --> %s\n", plantLabel(source), plantLabel(target))
					}
				}
				continue
			}
			fmt.Fprintf(&b, "%s --> %s\n", plantLabel(source), plantLabel(tv.Target))
		}
	}
	b.WriteString("@enduml\n")
	return b.String()
}

func nodeLabel(id string) string {
	if id == Start {
		return "START((START))"
	}
	if id == End {
		return "END((END))"
	}
	return id
}

func plantLabel(id string) string {
	if id == Start {
		return "[*]"
	}
	if id == End {
		return "[*]"
	}
	return id
}

func sortedMapKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
