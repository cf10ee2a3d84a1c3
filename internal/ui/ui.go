// Package ui provides styled terminal output for the txreplay CLI.
// Output is styled with lipgloss on a terminal and falls back to plain
// text when stdout is redirected or colors are disabled.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// UI holds the terminal state and provides styled output methods.
type UI struct {
	out     io.Writer
	IsTTY   bool
	Width   int
	NoColor bool
}

// KV represents a key-value pair for summary displays.
type KV struct {
	Key   string
	Value string
}

// noColorEnv is the standard environment variable to disable colors.
var noColorEnv = os.Getenv("NO_COLOR") != ""

// New creates a UI on stdout with TTY detection.
func New() *UI {
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	width := 80
	if isTTY {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
	}

	return &UI{
		out:     os.Stdout,
		IsTTY:   isTTY,
		Width:   width,
		NoColor: noColorEnv,
	}
}

// NewWithWriter creates a plain-text UI writing to w.
func NewWithWriter(w io.Writer) *UI {
	return &UI{out: w, Width: 80}
}

// SetNoColor disables colors and animations.
func (u *UI) SetNoColor(noColor bool) {
	u.NoColor = noColor
}

// Println writes a line to the UI output.
func (u *UI) Println(a ...any) {
	fmt.Fprintln(u.out, a...)
}

// shouldStyle returns true if we should use styled output.
func (u *UI) shouldStyle() bool {
	return u.IsTTY && !u.NoColor
}

// Header renders a bordered header box.
func (u *UI) Header(title string) string {
	if !u.shouldStyle() {
		return fmt.Sprintf("=== %s ===", title)
	}

	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(0, 2)

	return style.Render(title)
}

// KeyValue renders a styled key-value pair.
func (u *UI) KeyValue(key, value string) string {
	if !u.shouldStyle() {
		return fmt.Sprintf("%-12s %s", key+":", value)
	}

	keyStyle := lipgloss.NewStyle().
		Foreground(ColorMuted).
		Width(14)

	return "  " + keyStyle.Render(key) + " " + lipgloss.NewStyle().Bold(true).Render(value)
}

// Success renders a success message with a green checkmark.
func (u *UI) Success(msg string) string {
	if !u.shouldStyle() {
		return "[OK] " + msg
	}
	return StyleSuccess.Render(SymbolSuccess+" ") + msg
}

// Error renders an error message with a red X.
func (u *UI) Error(msg string) string {
	if !u.shouldStyle() {
		return "[FAILED] " + msg
	}
	return StyleError.Render(SymbolError + " " + msg)
}

// Warning renders a warning message.
func (u *UI) Warning(msg string) string {
	if !u.shouldStyle() {
		return "[WARN] " + msg
	}
	return StyleWarning.Render(SymbolWarning + " " + msg)
}

// Muted renders dim text.
func (u *UI) Muted(msg string) string {
	if !u.shouldStyle() {
		return msg
	}
	return StyleMuted.Render(msg)
}

// List renders up to limit items under a title, noting how many were left out.
func (u *UI) List(title string, items []string, limit int) string {
	if len(items) == 0 {
		return ""
	}

	shown := items
	if limit > 0 && len(items) > limit {
		shown = items[:limit]
	}

	var sb strings.Builder
	sb.WriteString(u.Warning(title))
	for _, item := range shown {
		sb.WriteString("\n    " + u.Muted(item))
	}
	if rest := len(items) - len(shown); rest > 0 {
		sb.WriteString("\n    " + u.Muted(fmt.Sprintf("... and %d more", rest)))
	}
	return sb.String()
}

// SummaryBox renders a bordered summary section. A "Status" item is colored
// by its value.
func (u *UI) SummaryBox(title string, items []KV) string {
	if !u.shouldStyle() {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("\n=== %s ===\n", title))
		for _, item := range items {
			sb.WriteString(fmt.Sprintf("%-16s %s\n", item.Key+":", item.Value))
		}
		return sb.String()
	}

	maxKeyWidth := 0
	for _, item := range items {
		if len(item.Key) > maxKeyWidth {
			maxKeyWidth = len(item.Key)
		}
	}

	keyStyle := lipgloss.NewStyle().Foreground(ColorMuted).Width(maxKeyWidth + 2)
	valueStyle := lipgloss.NewStyle().Bold(true)

	border := ColorSuccess
	var lines []string
	for _, item := range items {
		value := valueStyle.Render(item.Value)
		if item.Key == "Status" {
			switch status := strings.ToLower(item.Value); {
			case strings.Contains(status, "success"):
				value = StyleSuccess.Render(SymbolSuccess + " " + item.Value)
			case strings.Contains(status, "fail"):
				value = StyleError.Render(SymbolError + " " + item.Value)
				border = ColorError
			default:
				value = StyleWarning.Render(SymbolWarning + " " + item.Value)
				border = ColorWarning
			}
		}
		lines = append(lines, "  "+keyStyle.Render(item.Key)+" "+value)
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(border)
	boxStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)

	return "\n" + titleStyle.Render("  "+title) + "\n" + boxStyle.Render(strings.Join(lines, "\n"))
}
