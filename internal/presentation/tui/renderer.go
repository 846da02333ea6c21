package tui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/aretw0/greeter/pkg/usecase"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}, nil
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// GreetingsMarkdown formats greetings as a markdown table.
func GreetingsMarkdown(list []usecase.GreetingResponse) string {
	if len(list) == 0 {
		return "_No greetings yet._\n"
	}

	var sb strings.Builder
	sb.WriteString("| Name | Message | Created | ID |\n")
	sb.WriteString("|------|---------|---------|----|\n")
	for _, g := range list {
		fmt.Fprintf(&sb, "| %s | %s | %s | `%s` |\n",
			escapeCell(g.Name),
			escapeCell(g.Message),
			g.CreatedAt.Format(time.RFC3339),
			g.ID,
		)
	}
	return sb.String()
}

// escapeCell keeps a value on one table row. Control characters are dropped so stored
// names cannot inject ANSI sequences into the terminal.
func escapeCell(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '|':
			b.WriteString("\\|")
		case r == '\n' || r == '\t' || r == '\r':
			b.WriteRune(' ')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RenderGreetings writes list to w: styled through glamour on a terminal, plain markdown
// otherwise so output stays pipeable.
func RenderGreetings(w io.Writer, list []usecase.GreetingResponse) error {
	md := GreetingsMarkdown(list)
	if !IsTerminal(w) {
		_, err := io.WriteString(w, md)
		return err
	}

	render, err := NewRenderer()
	if err != nil {
		return err
	}
	out, err := render(md)
	if err != nil {
		return fmt.Errorf("failed to render greetings: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
