package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette shared by the editor and the CLI output
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - borders, highlights
	SuccessColor = lipgloss.Color("#43BF6D") // Green - success, checkmarks
	ErrorColor   = lipgloss.Color("#FF5555") // Red - errors, failed uploads
	WarningColor = lipgloss.Color("#FFA500") // Orange - warnings, uploads in flight
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
	SelectBg     = lipgloss.Color("#3C3470") // Selection background
)

// Layout constants
const (
	MinTerminalWidth = 60  // Minimum supported terminal width
	MaxContentWidth  = 100 // Maximum content width before capping
)

// CLI output styles
var (
	// HeaderTitleStyle is for the command title (e.g., "UPLOAD")
	HeaderTitleStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Bold(true).
				PaddingLeft(2)

	// HeaderCommandStyle is for the command path (e.g., "inkwell upload")
	HeaderCommandStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				PaddingLeft(2)

	// HeaderParamKeyStyle is for parameter keys (e.g., "Store:")
	HeaderParamKeyStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				PaddingLeft(2)

	HeaderParamValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	ProgressLabelStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				PaddingLeft(2)

	StepCompleteStyle = lipgloss.NewStyle().
				Foreground(SuccessColor)

	StepRunningStyle = lipgloss.NewStyle().
				Foreground(WarningColor)

	StepPendingStyle = lipgloss.NewStyle().
				Foreground(MutedColor)

	StepNoteStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	SuccessTitleStyle = lipgloss.NewStyle().
				Foreground(SuccessColor).
				Bold(true)

	WarningTitleStyle = lipgloss.NewStyle().
				Foreground(WarningColor).
				Bold(true)

	ErrorTitleStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	ErrorMessageStyle = lipgloss.NewStyle().
				Foreground(ErrorColor)

	ResultKeyStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(15)

	ResultValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	TroubleshootingTitleStyle = lipgloss.NewStyle().
					Foreground(MutedColor).
					Bold(true)

	TroubleshootingItemStyle = lipgloss.NewStyle().
					Foreground(MutedColor)

	TextBoxTitleStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true)

	TextBoxContentStyle = lipgloss.NewStyle().
				Foreground(TextColor)
)

// Editor styles
var (
	ParagraphStyle = lipgloss.NewStyle().Foreground(TextColor)

	QuoteStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	CodeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E6DB74"))

	ListMarkerStyle = lipgloss.NewStyle().Foreground(PrimaryColor)

	DividerStyle = lipgloss.NewStyle().Foreground(MutedColor)

	ImageStyle = lipgloss.NewStyle().Foreground(SuccessColor)

	// UploadingStyle is for image placeholders whose upload is in flight
	UploadingStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Italic(true)

	// FailedUploadStyle is for placeholders whose upload failed
	FailedUploadStyle = lipgloss.NewStyle().
				Foreground(ErrorColor).
				Bold(true)

	SelectionStyle = lipgloss.NewStyle().
			Background(SelectBg).
			Foreground(TextColor)

	CaretStyle = lipgloss.NewStyle().Reverse(true)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingLeft(1)

	StatusMessageStyle = lipgloss.NewStyle().
				Foreground(WarningColor).
				PaddingLeft(1)

	// AdvisoryStyle is the "AI assistance is off" tooltip
	AdvisoryStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(WarningColor).
			Foreground(TextColor).
			Padding(0, 1)
)

// Overlay styles for the palette, toolbar and dialog
var (
	PopupStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Padding(0, 1)

	MenuItemStyle = lipgloss.NewStyle().Foreground(TextColor)

	MenuSelectedStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Background(PrimaryColor).
				Bold(true)

	MenuDescStyle = lipgloss.NewStyle().Foreground(MutedColor)

	DialogTitleStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true)

	BannerStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(ErrorColor).
			Padding(0, 1)

	MutedStyle = lipgloss.NewStyle().Foreground(MutedColor)
)

// Step status markers
const (
	StepMarkerComplete = "✓"
	StepMarkerRunning  = "●"
	StepMarkerPending  = "·"
	StepMarkerSkipped  = "⊘"
	SuccessMarker      = "✓"
	FailureMarker      = "✗"
	WarningMarker      = "⚠"
)

// HeadingStyle returns the style for a heading of the given level.
func HeadingStyle(level int) lipgloss.Style {
	s := lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true)
	switch level {
	case 1:
		return s.Underline(true)
	case 2:
		return s
	default:
		return s.Foreground(TextColor)
	}
}

// DialogStyle returns the bordered dialog frame for an inner width.
func DialogStyle(width int) lipgloss.Style {
	return PopupStyle.Width(max(width-2, 10))
}

// GetTerminalWidth returns the current terminal width, with fallback
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}

// HeaderBorderStyle returns the border style for command headers
func HeaderBorderStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2) // Account for border characters
}

// SuccessBoxStyle returns the border style for success result boxes
func SuccessBoxStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(SuccessColor).
		Width(width-2).
		Padding(0, 2)
}

// ErrorBoxStyle returns the border style for error result boxes
func ErrorBoxStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(ErrorColor).
		Width(width-2).
		Padding(0, 2)
}

// WarningBoxStyle returns the border style for warning boxes
func WarningBoxStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(WarningColor).
		Width(width-2).
		Padding(0, 2)
}

// TroubleshootingBoxStyle returns the border style for troubleshooting sections
func TroubleshootingBoxStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(max(width-12, 40)). // Indented within error box
		Padding(0, 1).
		MarginLeft(3)
}

// RenderHorizontalDivider creates a horizontal line of the specified width
func RenderHorizontalDivider(width int, char string) string {
	return lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Render(strings.Repeat(char, max(width, 0)))
}
