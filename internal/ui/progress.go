package ui

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ProgressBar draws a determinate progress bar on one line. The total may be
// unknown when the bar is created and is taken from the first update.
type ProgressBar struct {
	ui       *UI
	bar      progress.Model
	label    string
	total    int
	current  int
	mu       sync.Mutex
	rendered bool
}

// NewProgressBar creates a new progress bar.
func (u *UI) NewProgressBar(label string) *ProgressBar {
	return &ProgressBar{
		ui:    u,
		label: label,
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		),
	}
}

// Update records done of total and redraws. It is safe to call from the
// simulation's committer goroutine.
func (p *ProgressBar) Update(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = done
	p.total = total
	p.render()
}

// render draws the bar; callers hold p.mu.
func (p *ProgressBar) render() {
	if !p.ui.shouldStyle() {
		if !p.rendered {
			fmt.Fprintf(p.ui.out, "%s: ", p.label)
			p.rendered = true
		}
		return
	}

	pct := 0.0
	if p.total > 0 {
		pct = float64(p.current) / float64(p.total)
	}
	if pct > 1 {
		pct = 1
	}

	fmt.Fprintf(p.ui.out, "\r\033[K  %s %s %s",
		lipgloss.NewStyle().Width(18).Render(p.label),
		p.bar.ViewAs(pct),
		StyleMuted.Render(fmt.Sprintf("%d/%d", p.current, p.total)),
	)
}

// Complete finishes the bar. A run that stopped short of the total is shown
// as a warning rather than a success.
func (p *ProgressBar) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.ui.shouldStyle() {
		if !p.rendered {
			fmt.Fprintf(p.ui.out, "%s: ", p.label)
		}
		fmt.Fprintf(p.ui.out, "%d/%d done\n", p.current, p.total)
		return
	}

	labelStyle := lipgloss.NewStyle().Width(18)
	if p.current < p.total {
		fmt.Fprintf(p.ui.out, "\r\033[K  %s %s %s\n",
			StyleWarning.Render(SymbolWarning),
			labelStyle.Render(p.label),
			StyleWarning.Render(fmt.Sprintf("%d/%d committed", p.current, p.total)),
		)
		return
	}

	fmt.Fprintf(p.ui.out, "\r\033[K  %s %s %s\n",
		StyleSuccess.Render(SymbolSuccess),
		labelStyle.Render(p.label),
		StyleSuccess.Render(fmt.Sprintf("%d/%d complete", p.total, p.total)),
	)
}

// Fail finishes the bar with an error indicator.
func (p *ProgressBar) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.ui.shouldStyle() {
		fmt.Fprintf(p.ui.out, "FAILED: %v\n", err)
		return
	}

	fmt.Fprintf(p.ui.out, "\r\033[K  %s %s %s\n",
		StyleError.Render(SymbolError),
		lipgloss.NewStyle().Width(18).Render(p.label),
		StyleError.Render(err.Error()),
	)
}
