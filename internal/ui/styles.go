package ui

import (
	"github.com/charmbracelet/lipgloss"
)

const (
	WHITE       = lipgloss.Color("#FFFFFF")
	BLUE        = lipgloss.Color("#0043a8")
	GREY        = lipgloss.Color("#626262")
	LAVENDER    = lipgloss.Color("#B8B8FF")
	GREEN       = lipgloss.Color("#50FA7B")
	LIGHT_GREEN = lipgloss.Color("#B9FBC0")
	PINK        = lipgloss.Color("#FFD1DC")
	RED         = lipgloss.Color("#FF5555")
	YELLOW      = lipgloss.Color("#F1FA8C")
	LIGHT_BLUE  = lipgloss.Color("#8BE9FD")
	TURQUOISE   = lipgloss.Color("#98F5E1")
	SILVER      = lipgloss.Color("#A9B2D8")
)

var gradeColors = map[string]lipgloss.Color{
	"A+": GREEN,
	"A":  LIGHT_GREEN,
	"B+": TURQUOISE,
	"B":  LIGHT_BLUE,
	"C+": YELLOW,
	"C":  PINK,
	"F":  RED,
}

// GradeColor is the display colour for a letter grade. Unknown grades are grey.
func GradeColor(grade string) lipgloss.Color {
	if c, ok := gradeColors[grade]; ok {
		return c
	}
	return GREY
}

func inputBox(focused bool) lipgloss.Style {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(WHITE).
		Padding(0, 1).
		Width(30)
	if focused {
		style = style.BorderForeground(BLUE)
	}
	return style
}

func button(label string, focused bool) string {
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(WHITE).
		Padding(0, 2).
		Margin(1, 0).
		Border(lipgloss.RoundedBorder())
	if focused {
		style = style.Background(BLUE)
	}
	return style.Render(label)
}

func pane(content string, focused bool) string {
	border := GREY
	if focused {
		border = BLUE
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Render(content)
}
