package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner prints graphctl's startup banner in a violet-to-rose
// gradient, mirroring the teacher's PrintBanner.
func PrintBanner() {
	p := termenv.ColorProfile()
	lines := []string{
		" ____  _        _       ____                 _     ",
		"/ ___|| |_ __ _| |_ ___/ ___|_ __ __ _ _ __ | |__  ",
		"\\___ \\| __/ _` | __/ _ \\ |  _| '__/ _` | '_ \\| '_ \\ ",
		" ___) | || (_| | ||  __/ |_| | | | (_| | |_) | | | |",
		"|____/ \\__\\__,_|\\__\\___|\\____|_|  \\__,_| .__/|_| |_|",
		"                                        |_|          ",
	}
	colors := []string{"#818cf8", "#a78bfa", "#c084fc", "#e879f9", "#f472b6", "#fb7185"}

	fmt.Println()
	for i, line := range lines {
		fmt.Println(termenv.String(line).Foreground(p.Color(colors[i%len(colors)])))
	}
	fmt.Println()
}
