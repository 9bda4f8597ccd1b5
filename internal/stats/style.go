package stats

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const terminalWidthBackup = 80

var headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))

// Style controls terminal decoration of rendered reports.
type Style struct {
	Color bool
}

// StyleFor enables color when w is a terminal and noColor is false.
func StyleFor(w io.Writer, noColor bool) Style {
	if noColor {
		return Style{}
	}
	file, ok := w.(*os.File)
	if !ok {
		return Style{}
	}
	return Style{Color: term.IsTerminal(int(file.Fd()))}
}

// Heading styles a section title.
func (s Style) Heading(text string) string {
	if !s.Color {
		return text
	}
	return headingStyle.Render(text)
}

// TerminalWidth returns the stdout width or a fallback.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}
