package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/asynkron/aipatch/pkg/patch"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	failedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// Console renders report lines for humans, in color when the writer is a
// color-capable terminal and plain otherwise.
type Console struct {
	out    io.Writer
	styled bool
}

// NewConsole wraps out for report rendering.
func NewConsole(out io.Writer) *Console {
	return &Console{
		out:    out,
		styled: termenv.NewOutput(out).ColorProfile() != termenv.Ascii,
	}
}

// Header writes a bold section line.
func (c *Console) Header(text string) {
	c.println(headerStyle, text)
}

// Result writes the report line for one block result.
func (c *Console) Result(res patch.Result) {
	switch {
	case res.Failed():
		c.println(failedStyle, res.String())
	case res.Outcome == patch.OutcomeSkipped:
		c.println(skippedStyle, res.String())
	default:
		c.println(successStyle, res.String())
	}
}

// Summary writes the closing count line for a run.
func (c *Console) Summary(results []patch.Result) {
	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	line := fmt.Sprintf("%d block(s), %d failed", len(results), failed)
	if failed > 0 {
		c.println(failedStyle, line)
		return
	}
	c.println(successStyle, line)
}

// Raw writes preformatted text such as diff previews without styling.
func (c *Console) Raw(text string) {
	if text == "" {
		return
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	io.WriteString(c.out, text)
}

func (c *Console) println(style lipgloss.Style, text string) {
	if c.styled {
		text = style.Render(text)
	}
	fmt.Fprintln(c.out, text)
}
