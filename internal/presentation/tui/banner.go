package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Greeter ASCII art banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"   ____                _            ", "#34d399"},
		{"  / ___|_ __ ___  ___| |_ ___ _ __ ", "#2dd4bf"},
		{" | |  _| '__/ _ \\/ _ \\ __/ _ \\ '__|", "#22d3ee"},
		{" | |_| | | |  __/  __/ ||  __/ |   ", "#38bdf8"},
		{"  \\____|_|  \\___|\\___|\\__\\___|_|   ", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
