package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Spinner animates a label while an operation of unknown length runs.
type Spinner struct {
	ui       *UI
	label    string
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	stopped bool
}

// Spinner animation frames (braille pattern).
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewSpinner creates a new animated spinner.
func (u *UI) NewSpinner(label string) *Spinner {
	return &Spinner{
		ui:    u,
		label: label,
		done:  make(chan struct{}),
	}
}

// Start begins the animation. Without a styled terminal the label is printed
// once instead.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	if !s.ui.shouldStyle() {
		fmt.Fprintf(s.ui.out, "%s...", s.label)
		return
	}

	s.wg.Add(1)
	go s.animate()
}

func (s *Spinner) animate() {
	defer s.wg.Done()

	style := lipgloss.NewStyle().Foreground(ColorPrimary)
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for frame := 0; ; frame = (frame + 1) % len(spinnerFrames) {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			fmt.Fprintf(s.ui.out, "\r%s %s...", style.Render(spinnerFrames[frame]), s.label)
		}
	}
}

// halt stops the animation. It reports false if the spinner never started
// or was already stopped, so only the first final status is printed.
func (s *Spinner) halt() bool {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return false
	}
	s.stopped = true
	s.mu.Unlock()

	close(s.done)
	s.wg.Wait()
	return true
}

// Stop clears the spinner without a final status.
func (s *Spinner) Stop() {
	if s.halt() && s.ui.shouldStyle() {
		fmt.Fprint(s.ui.out, "\r\033[K")
	}
}

// Success stops the spinner and shows a success message.
func (s *Spinner) Success(msg string) {
	s.finish(StyleSuccess.Render(SymbolSuccess), lipgloss.NewStyle(), msg)
}

// Error stops the spinner and shows an error message.
func (s *Spinner) Error(msg string) {
	s.finish(StyleError.Render(SymbolError), StyleError, msg)
}

func (s *Spinner) finish(symbol string, style lipgloss.Style, msg string) {
	if !s.halt() {
		return
	}

	if !s.ui.shouldStyle() {
		fmt.Fprintf(s.ui.out, " %s\n", msg)
		return
	}
	fmt.Fprintf(s.ui.out, "\r\033[K%s %s... %s\n", symbol, s.label, style.Render(msg))
}
