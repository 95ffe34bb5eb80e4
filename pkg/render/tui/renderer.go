// Package tui renders graph diagrams and CLI chrome for the terminal,
// grounded on the teacher's internal/presentation/tui package (glamour for
// markdown, termenv for direct ANSI color).
package tui

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// NewMarkdownRenderer returns a function that renders markdown-formatted
// text (including fenced diagram source) for the current terminal, using
// glamour's auto light/dark detection.
func NewMarkdownRenderer() (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

// RenderDiagram wraps a rendered graph diagram (Mermaid or PlantUML source)
// in a fenced code block and runs it through the markdown renderer, so
// `graphctl render` prints a readable, syntax-hinted block instead of raw
// text.
func RenderDiagram(lang, source string) (string, error) {
	render, err := NewMarkdownRenderer()
	if err != nil {
		return "", err
	}
	fenced := fmt.Sprintf("```%s\n%s```\n", lang, source)
	return render(fenced)
}
