// Package cliui provides reusable terminal UI helpers (spinners, step
// indicators, confidence tier styling) for rewind CLI commands.
package cliui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	SuccessMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	StepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	HeaderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	NameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	KeyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	ValueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	DimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	WarnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

// Tier colors: strong attributions render green, weak ones drift toward red,
// unattributed lines are dimmed.
var (
	tierStyles = map[int]lipgloss.Style{
		1: lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true),
		2: lipgloss.NewStyle().Foreground(lipgloss.Color("76")),
		3: lipgloss.NewStyle().Foreground(lipgloss.Color("112")),
		4: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		5: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		6: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
	}
	noTierStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// spinnerFrames matches bubbletea's spinner.Dot pattern.
var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// Step prints an animated spinner while fn runs, then replaces it with
// a ✓ or ✗ checkmark and elapsed time.
func Step(w io.Writer, msg string, fn func() error) error {
	done := make(chan struct{})
	var mu sync.Mutex

	// Run spinner animation in background
	go func() {
		frame := 0
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			mu.Lock()
			fmt.Fprintf(w, "\r  %s %s",
				spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]),
				msg,
			)
			mu.Unlock()

			select {
			case <-done:
				return
			case <-ticker.C:
				frame++
			}
		}
	}()

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	close(done)

	// Clear the spinner line and print final result
	mu.Lock()
	fmt.Fprintf(w, "\r  %s %s %s\n",
		Mark(err),
		msg,
		StepStyle.Render(fmt.Sprintf("(%s)", FormatDuration(elapsed))),
	)
	mu.Unlock()

	return err
}

// Mark returns a ✓ for nil errors or ✗ for non-nil errors.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// FormatDuration formats a duration for display (e.g. "12ms" or "3.2s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// TierStyle returns the display style for a confidence tier (1 strongest,
// 6 weakest). Anything outside 1-6 gets the unattributed style.
func TierStyle(tier int) lipgloss.Style {
	if s, ok := tierStyles[tier]; ok {
		return s
	}
	return noTierStyle
}

// TierBadge renders a short tier marker, "T1" through "T6", or "--" for
// unattributed lines, in the tier's style.
func TierBadge(tier int) string {
	if tier < 1 || tier > 6 {
		return noTierStyle.Render("--")
	}
	return TierStyle(tier).Render(fmt.Sprintf("T%d", tier))
}
