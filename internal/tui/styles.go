package tui

import "github.com/charmbracelet/lipgloss"

// Color palette for the watch dashboard
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - connected, power on
	ErrorColor   = lipgloss.Color("#FF5555") // Red - errors, disconnected
	WarningColor = lipgloss.Color("#FFA500") // Orange - moving, standby
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

var (
	// TitleStyle is for the dashboard header title
	TitleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true)

	// SubtitleStyle is for the device identity line under the title
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// SectionTitleStyle is for section headers ("Desk", "Monitors")
	SectionTitleStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true)

	// LabelStyle is for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(12)

	// ValueStyle is for field values
	ValueStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	// ConnectedStyle marks a live connection
	ConnectedStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	// DisconnectedStyle marks a lost connection
	DisconnectedStyle = lipgloss.NewStyle().
				Foreground(ErrorColor).
				Bold(true)

	// MovingStyle marks a desk in motion
	MovingStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// FooterStyle is for the key hint line
	FooterStyle = lipgloss.NewStyle().
			Foreground(MutedColor)
)

// BoxStyle returns the border style for the dashboard frame
func BoxStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2).
		Padding(0, 1)
}
