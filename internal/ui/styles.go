package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color palette for the chat interface.
type Theme struct {
	// Brand colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	// Semantic colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Muted   lipgloss.Color

	// Text colors
	Text    lipgloss.Color
	TextDim lipgloss.Color
}

// DefaultTheme returns the default color theme.
func DefaultTheme() Theme {
	return Theme{
		Primary:   lipgloss.Color("#2DD4BF"), // Teal
		Secondary: lipgloss.Color("#818CF8"), // Indigo
		Accent:    lipgloss.Color("#FBBF24"), // Amber

		Success: lipgloss.Color("#34D399"), // Emerald
		Warning: lipgloss.Color("#FBBF24"), // Amber
		Error:   lipgloss.Color("#F87171"), // Red
		Muted:   lipgloss.Color("#6B7280"), // Gray

		Text:    lipgloss.Color("#F9FAFB"), // Near white
		TextDim: lipgloss.Color("#9CA3AF"), // Gray
	}
}

// Styles contains the styled components for the chat UI.
type Styles struct {
	App         lipgloss.Style
	BannerTitle lipgloss.Style

	Prompt lipgloss.Style
	Input  lipgloss.Style

	UserMessage      lipgloss.Style
	AssistantMessage lipgloss.Style
	SystemMessage    lipgloss.Style
	WarningMessage   lipgloss.Style
	ErrorMessage     lipgloss.Style

	ToolBox    lipgloss.Style
	ToolName   lipgloss.Style
	ToolParams lipgloss.Style

	ConfirmBox   lipgloss.Style
	ConfirmTitle lipgloss.Style

	Spinner    lipgloss.Style
	StatusText lipgloss.Style

	HelpKey   lipgloss.Style
	HelpValue lipgloss.Style
	HelpBar   lipgloss.Style
}

// NewStyles creates styled components from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		App: lipgloss.NewStyle().
			Padding(1, 2),

		BannerTitle: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		Prompt: lipgloss.NewStyle().
			Foreground(t.Secondary).
			Bold(true),

		Input: lipgloss.NewStyle().
			Foreground(t.Text),

		UserMessage: lipgloss.NewStyle().
			Foreground(t.Secondary).
			Bold(true).
			PaddingLeft(2),

		AssistantMessage: lipgloss.NewStyle().
			Foreground(t.Text).
			PaddingLeft(2),

		SystemMessage: lipgloss.NewStyle().
			Foreground(t.Muted).
			Italic(true).
			PaddingLeft(2),

		WarningMessage: lipgloss.NewStyle().
			Foreground(t.Warning).
			Bold(true).
			PaddingLeft(2),

		ErrorMessage: lipgloss.NewStyle().
			Foreground(t.Error).
			Bold(true).
			PaddingLeft(2),

		ToolBox: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Accent).
			Padding(0, 1).
			MarginLeft(2),

		ToolName: lipgloss.NewStyle().
			Foreground(t.Accent).
			Bold(true),

		ToolParams: lipgloss.NewStyle().
			Foreground(t.TextDim),

		ConfirmBox: lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(t.Warning).
			Padding(0, 1).
			MarginLeft(2),

		ConfirmTitle: lipgloss.NewStyle().
			Foreground(t.Warning).
			Bold(true),

		Spinner: lipgloss.NewStyle().
			Foreground(t.Primary),

		StatusText: lipgloss.NewStyle().
			Foreground(t.TextDim),

		HelpKey: lipgloss.NewStyle().
			Foreground(t.Muted),

		HelpValue: lipgloss.NewStyle().
			Foreground(t.TextDim),

		HelpBar: lipgloss.NewStyle().
			Foreground(t.Muted).
			MarginTop(1),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() Styles {
	return NewStyles(DefaultTheme())
}

// Banner returns the ASCII art banner.
func Banner() string {
	return `
 ██████╗ ██████╗  ██████╗ ███╗   ██╗ █████╗
 ██╔══██╗██╔══██╗██╔═══██╗████╗  ██║██╔══██╗
 ██║  ██║██████╔╝██║   ██║██╔██╗ ██║███████║
 ██║  ██║██╔══██╗██║   ██║██║╚██╗██║██╔══██║
 ██████╔╝██║  ██║╚██████╔╝██║ ╚████║██║  ██║
 ╚═════╝ ╚═╝  ╚═╝ ╚═════╝ ╚═╝  ╚═══╝╚═╝  ╚═╝

          AI pair programmer for your terminal`
}
