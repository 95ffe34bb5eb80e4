package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/aretw0/stategraph/pkg/dsl"
	"github.com/aretw0/stategraph/pkg/graph"
	tuirender "github.com/aretw0/stategraph/pkg/render/tui"
	"golang.org/x/term"
)

// RenderOptions configures graphctl render.
type RenderOptions struct {
	GraphFile        string
	Format           string // "flowchart" or "plantuml"
	Title            string
	PrintConditional bool
}

// Render compiles the graph file and writes its diagram projection to out,
// piping it through glamour for a colorized preview when out is a
// terminal.
func Render(opts RenderOptions, out io.Writer) error {
	g, err := dsl.Load(opts.GraphFile, dsl.NewRegistry())
	if err != nil {
		return err
	}
	cg, err := g.Compile(graph.CompileConfig{})
	if err != nil {
		return err
	}

	kind := graph.RenderFlowchart
	lang := "mermaid"
	if opts.Format == "plantuml" {
		kind = graph.RenderPlantUML
		lang = "plantuml"
	}

	text, err := cg.Render(kind, opts.Title, opts.PrintConditional)
	if err != nil {
		return err
	}

	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pretty, err := tuirender.RenderDiagram(lang, text)
		if err == nil {
			_, err = fmt.Fprint(out, pretty)
			return err
		}
	}

	_, err = fmt.Fprint(out, text)
	return err
}
