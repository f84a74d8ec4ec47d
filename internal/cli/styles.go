// Package cli renders operator-facing terminal output for aidctl.
package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// AccentColor is the main theme color.
	AccentColor = lipgloss.Color("#F4A261")
	// SuccessColor marks confirmed transactions.
	SuccessColor = lipgloss.Color("#2A9D8F")
	// WarningColor marks recoverable failures and cautions.
	WarningColor = lipgloss.Color("#E9C46A")
	// ErrorColor marks failures.
	ErrorColor = lipgloss.Color("#E76F51")
	// InfoColor marks progress.
	InfoColor = lipgloss.Color("#8ECAE6")
	// SubtleColor marks links and secondary detail.
	SubtleColor = lipgloss.Color("#6C757D")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(AccentColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().Foreground(ErrorColor)

	// InfoStyle formats informational messages.
	InfoStyle = lipgloss.NewStyle().Foreground(InfoColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().Foreground(SubtleColor)

	// LabelStyle formats the key column of a detail listing.
	LabelStyle = lipgloss.NewStyle().
			Bold(true).
			Width(18)

	// BoxStyle is used for bordered detail panels.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SubtleColor).
			Padding(0, 1)

	// PromptStyle is used for confirmation prompts.
	PromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(AccentColor)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "!"
	InfoIcon    = "•"
	LinkIcon    = "↗"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatLink formats an explorer link.
func FormatLink(url string) string {
	return SubtleStyle.Render(LinkIcon + " " + url)
}

// FormatTitle formats a section title.
func FormatTitle(title string) string {
	return TitleStyle.Render(title)
}

// FormatPrompt formats a yes/no question.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt + " [y/N] ")
}

// Field is one row of a detail panel.
type Field struct {
	Label string
	Value string
}

// RenderDetails renders labelled fields in a bordered panel.
func RenderDetails(title string, fields []Field) string {
	rows := make([]string, 0, len(fields)+1)
	rows = append(rows, TitleStyle.UnsetMargins().Render(title))
	for _, f := range fields {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, LabelStyle.Render(f.Label), f.Value))
	}
	return BoxStyle.Render(strings.Join(rows, "\n"))
}
