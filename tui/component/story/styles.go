package story

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/safedep/covenant/core/policy"
)

var (
	colorGreen  = lipgloss.Color("#6BCB77")
	colorRed    = lipgloss.Color("#E74C3C")
	colorAmber  = lipgloss.Color("#F0AD4E")
	colorViolet = lipgloss.Color("#9B59B6")
	colorBlue   = lipgloss.Color("#5B9BD5")
	colorWhite  = lipgloss.Color("#ECF0F1")
	colorDim    = lipgloss.Color("#7F8C8D")
	colorBg     = lipgloss.Color("#1E1E2E")

	titleStyle = lipgloss.NewStyle().
			Background(colorBg).
			Foreground(colorWhite).
			Bold(true).
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Background(colorBg).
			Foreground(colorDim).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)

	activePanelStyle = panelStyle.
				BorderForeground(colorBlue)

	panelTitleStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Bold(true).
			Underline(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Width(10)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorWhite)

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(colorWhite).
				Background(lipgloss.Color("#2E3440")).
				Bold(true)

	choiceKeyStyle = lipgloss.NewStyle().
			Foreground(colorAmber).
			Bold(true)

	explanationStyle = lipgloss.NewStyle().
				Foreground(colorDim).
				Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	helpOverlayStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorViolet).
				Padding(1, 2).
				Foreground(colorWhite)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorAmber).
			Bold(true).
			Width(14)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(colorWhite)
)

func outcomeColor(o policy.Outcome) lipgloss.Color {
	switch o {
	case policy.OutcomeAllow:
		return colorGreen
	case policy.OutcomeWarn:
		return colorAmber
	case policy.OutcomeDeny:
		return colorRed
	default:
		return colorDim
	}
}

// badge renders an outcome as a filled label.
func badge(o policy.Outcome) string {
	return lipgloss.NewStyle().
		Background(outcomeColor(o)).
		Foreground(colorBg).
		Bold(true).
		Padding(0, 1).
		Render(o.String())
}

// mark renders an outcome as a single colored letter for list rows.
func mark(o policy.Outcome) string {
	letter := "?"
	switch o {
	case policy.OutcomeAllow:
		letter = "A"
	case policy.OutcomeWarn:
		letter = "W"
	case policy.OutcomeDeny:
		letter = "D"
	}
	return lipgloss.NewStyle().Foreground(outcomeColor(o)).Bold(true).Render(letter)
}
