// Package ui holds the terminal styles shared by all protonbuild output.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	ColorBlue   = lipgloss.Color("63")  // step banners
	ColorCyan   = lipgloss.Color("86")  // informational detail
	ColorGreen  = lipgloss.Color("42")  // success
	ColorYellow = lipgloss.Color("220") // advisory warnings
	ColorRed    = lipgloss.Color("196") // fatal failures
	ColorGray   = lipgloss.Color("240") // subtle text

	StepStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBlue)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	IconStep    = "🔧"
	IconSuccess = "✅"
	IconWarning = "⚠️ "
	IconError   = "❌"
	IconPackage = "📦"
	IconRocket  = "🚀"
)

// Step renders a step banner line.
func Step(name string) string {
	return StepStyle.Render("=== " + name + " ===")
}

// Success renders a success status line.
func Success(msg string) string {
	return IconSuccess + " " + SuccessStyle.Render(msg)
}

// Warning renders an advisory status line.
func Warning(msg string) string {
	return IconWarning + WarningStyle.Render(msg)
}

// Error renders a fatal status line.
func Error(msg string) string {
	return IconError + " " + ErrorStyle.Render(msg)
}
