package ui

import (
	"github.com/charmbracelet/lipgloss"
	tint "github.com/lrstanley/bubbletint"
)

// Theme registry for the application
var Theme *tint.Registry

// Common style elements used across all views
var (
	TitleStyle            lipgloss.Style
	TitleWithPaddingStyle lipgloss.Style
	SubtitleStyle         lipgloss.Style
	errorStyle            lipgloss.Style
	statusBarStyle        lipgloss.Style
	helpStyle             lipgloss.Style

	UserMessageLabelStyle        lipgloss.Style
	AssistantMessageLabelStyle   lipgloss.Style
	UserMessageContentStyle      lipgloss.Style
	AssistantMessageContentStyle lipgloss.Style
	TimestampStyle               lipgloss.Style
	EditedMarkerStyle            lipgloss.Style
	TypingIndicatorStyle         lipgloss.Style
	SelectedMarkerStyle          lipgloss.Style
	ActionBarStyle               lipgloss.Style
	SpinnerStyle                 lipgloss.Style
	ViewportBorderStyle          lipgloss.Style

	ConfirmBorderStyle lipgloss.Style
	ConfirmTitleStyle  lipgloss.Style
	ConfirmTextStyle   lipgloss.Style
	ConfirmKeysStyle   lipgloss.Style
)

func init() {
	// Initialize with Tint theme
	tint.NewDefaultRegistry()
	tint.SetTint(tint.TintChalk)
	Theme = tint.DefaultRegistry

	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(tint.Purple())

	TitleWithPaddingStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(tint.Purple()).
		Padding(0, 1)

	SubtitleStyle = lipgloss.NewStyle().
		Foreground(tint.Blue()).
		Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
		Foreground(tint.Red()).
		Bold(true).
		Padding(1)

	statusBarStyle = lipgloss.NewStyle().
		Foreground(tint.BrightBlack()).
		Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
		Foreground(tint.BrightBlack()).
		Padding(1, 0, 0, 1)

	UserMessageLabelStyle = lipgloss.NewStyle().
		Foreground(tint.Blue()).
		Bold(true)

	AssistantMessageLabelStyle = lipgloss.NewStyle().
		Foreground(tint.Purple()).
		Bold(true)

	UserMessageContentStyle = lipgloss.NewStyle().
		Foreground(tint.White())

	AssistantMessageContentStyle = lipgloss.NewStyle().
		Foreground(tint.BrightWhite())

	TimestampStyle = lipgloss.NewStyle().
		Foreground(tint.BrightBlack())

	EditedMarkerStyle = lipgloss.NewStyle().
		Foreground(tint.Yellow()).
		Italic(true)

	TypingIndicatorStyle = lipgloss.NewStyle().
		Foreground(tint.BrightBlack()).
		Italic(true)

	SelectedMarkerStyle = lipgloss.NewStyle().
		Foreground(tint.Green()).
		Bold(true)

	ActionBarStyle = lipgloss.NewStyle().
		Foreground(tint.BrightBlack()).
		Italic(true)

	SpinnerStyle = lipgloss.NewStyle().
		Foreground(tint.Purple())

	ViewportBorderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(tint.BrightBlack())

	ConfirmBorderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(tint.Yellow()).
		Padding(1, 2)

	ConfirmTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(tint.Yellow())

	ConfirmTextStyle = lipgloss.NewStyle().
		Foreground(tint.White())

	ConfirmKeysStyle = lipgloss.NewStyle().
		Foreground(tint.BrightBlack())
}
