package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	cornerTopLeft     = "╭"
	cornerTopRight    = "╮"
	cornerBottomLeft  = "╰"
	cornerBottomRight = "╯"
	edgeHorizontal    = "─"
	edgeVertical      = "│"
)

// RenderSection draws content inside a rounded box whose top edge carries
// the title and an optional hint: ╭─ Title (hint) ───╮. A focused section
// is drawn in the accent color. Rows wider than the box are left as is.
func RenderSection(content []string, title, hint string, width int, focused bool) string {
	var color lipgloss.TerminalColor = BorderDefaultColor
	if focused {
		color = AccentColor
	}
	edge := lipgloss.NewStyle().Foreground(color)
	inner := max(width-2, 1)

	var b strings.Builder
	if title == "" {
		b.WriteString(edge.Render(cornerTopLeft + strings.Repeat(edgeHorizontal, inner) + cornerTopRight))
	} else {
		label := lipgloss.NewStyle().Bold(true).Foreground(color).Render(title)
		used := lipgloss.Width(title)
		if hint != "" {
			label += " " + HintStyle.Render("("+hint+")")
			used += lipgloss.Width(hint) + 3
		}
		fill := max(inner-used-3, 0)
		b.WriteString(edge.Render(cornerTopLeft+edgeHorizontal+" ") + label +
			edge.Render(" "+strings.Repeat(edgeHorizontal, fill)+cornerTopRight))
	}

	for _, row := range content {
		pad := max(inner-lipgloss.Width(row), 0)
		b.WriteString("\n" + edge.Render(edgeVertical) + row + strings.Repeat(" ", pad) + edge.Render(edgeVertical))
	}

	b.WriteString("\n" + edge.Render(cornerBottomLeft+strings.Repeat(edgeHorizontal, inner)+cornerBottomRight))
	return b.String()
}
