package app

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"

	"github.com/nexusofthings/nexus/internal/ui/styles"
)

// Heading is the first row of the event list screen.
const Heading = "Nexus of Things"

const emptyListText = "No events are open for registration."

func rowZoneID(i int) string { return fmt.Sprintf("event-row-%d", i) }

// listView renders the heading, one row per event and the help footer.
func (m Model) listView() string {
	width := max(m.width, 20)
	inner := width - 2

	heading := lipgloss.NewStyle().Bold(true).Foreground(styles.AccentColor).Render(Heading)
	sub := styles.HintStyle.Render("Events")

	var rows []string
	if len(m.events) == 0 {
		rows = append(rows, styles.HintStyle.Render(" "+emptyListText))
	}
	for i, name := range m.events {
		rows = append(rows, zone.Mark(rowZoneID(i), m.renderRow(i, name, inner)))
	}
	section := styles.RenderSection(rows, "Events", fmt.Sprintf("%d", len(m.events)), width, true)

	footer := m.help.View(m.helpKeys())

	body := lipgloss.JoinVertical(lipgloss.Left, heading, sub, "", section)
	gap := max(m.height-lipgloss.Height(body)-lipgloss.Height(footer), 1)
	return body + strings.Repeat("\n", gap) + footer
}

func (m Model) renderRow(i int, name string, width int) string {
	cfg := m.teams.Lookup(name)
	hint := fmt.Sprintf("Team size: %d-%d", cfg.Min, cfg.Max)
	if cfg.NeedsIdea {
		hint += " · idea pitch"
	}

	indicator := "  "
	nameStyle := lipgloss.NewStyle()
	if i == m.cursor {
		indicator = styles.SelectionIndicatorStyle.Render("▸ ")
		nameStyle = nameStyle.Bold(true)
	}

	// Names give way to the hint when space runs out.
	room := max(width-2-runewidth.StringWidth(hint)-2, 4)
	label := runewidth.Truncate(name, room, "…")
	pad := max(width-2-runewidth.StringWidth(label)-runewidth.StringWidth(hint), 1)
	return indicator + nameStyle.Render(label) + strings.Repeat(" ", pad) + styles.HintStyle.Render(hint)
}

// rowAt returns the row under a click.
func (m Model) rowAt(msg tea.MouseMsg) (int, bool) {
	for i := range m.events {
		if z := zone.Get(rowZoneID(i)); z != nil && z.InBounds(msg) {
			return i, true
		}
	}
	return 0, false
}
