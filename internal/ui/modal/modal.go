// Package modal is the dialog frame shared by the event detail and
// registration views. A modal is either hidden or visible; its body is
// supplied by the owner and scrolls when taller than the screen.
package modal

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"

	"github.com/nexusofthings/nexus/internal/ui/overlay"
	"github.com/nexusofthings/nexus/internal/ui/styles"
)

// State is the visibility of a modal.
type State int

const (
	Hidden State = iota
	Visible
)

// ClosedMsg is sent when the user dismisses a modal with the close
// button, a click outside it, or esc.
type ClosedMsg struct {
	ID string
}

const (
	defaultMaxWidth = 72
	minWidth        = 24
	closeLabel      = "[x]"

	// Rows taken by the border, title and divider.
	chromeRows = 4
)

// Model is one dialog frame.
type Model struct {
	id       string
	title    string
	state    State
	maxWidth int

	body     viewport.Model
	bodyText string

	width  int
	height int
}

// New returns a hidden modal. id must be unique among live modals; it
// names the close button zone.
func New(id string) Model {
	vp := viewport.New(0, 0)
	vp.MouseWheelEnabled = true
	return Model{id: id, maxWidth: defaultMaxWidth, body: vp}
}

// ID returns the modal identifier.
func (m Model) ID() string { return m.id }

// Visible reports whether the modal is shown.
func (m Model) Visible() bool { return m.state == Visible }

// Show makes the modal visible and scrolls its body to the top.
func (m Model) Show() Model {
	m.state = Visible
	m.body.GotoTop()
	return m
}

// Hide hides the modal. The body is kept.
func (m Model) Hide() Model {
	m.state = Hidden
	return m
}

// SetTitle sets the text of the title row.
func (m Model) SetTitle(title string) Model {
	m.title = title
	return m
}

// Title returns the title text.
func (m Model) Title() string { return m.title }

// SetMaxWidth caps the frame width. Values below the minimum are ignored.
func (m Model) SetMaxWidth(w int) Model {
	if w >= minWidth {
		m.maxWidth = w
		m.resizeBody()
	}
	return m
}

// SetBody replaces the rendered body. The scroll offset is kept so a body
// that re-renders on every keystroke does not jump.
func (m Model) SetBody(body string) Model {
	m.bodyText = body
	m.resizeBody()
	return m
}

// EnsureVisible scrolls the body by the least amount that brings lines
// top through bottom into view. A range taller than the body shows its top.
func (m Model) EnsureVisible(top, bottom int) Model {
	h := m.body.Height
	if h <= 0 {
		return m
	}
	off := m.body.YOffset
	if bottom >= off+h {
		off = bottom - h + 1
	}
	if top < off {
		off = top
	}
	m.body.SetYOffset(off)
	return m
}

// ScrollOffset is the first body line shown.
func (m Model) ScrollOffset() int { return m.body.YOffset }

// Body returns the last body set.
func (m Model) Body() string { return m.bodyText }

// SetSize records the screen size the modal is centered in.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.resizeBody()
}

// ContentWidth is the width available to the body.
func (m Model) ContentWidth() int {
	return m.frameWidth() - 4
}

func (m Model) frameWidth() int {
	w := m.maxWidth
	if m.width > 0 {
		w = min(w, m.width-2)
	}
	return max(w, minWidth)
}

func (m *Model) resizeBody() {
	lines := strings.Count(m.bodyText, "\n") + 1
	h := lines
	if m.height > 0 {
		h = min(lines, max(m.height-chromeRows-2, 1))
	}
	m.body.Width = m.ContentWidth()
	m.body.Height = h
	m.body.SetContent(m.bodyText)
}

// Update handles esc, mouse clicks and body scrolling. Messages are
// ignored while hidden.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.state != Visible {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m.dismiss()
		case "pgup", "pgdown", "ctrl+u", "ctrl+d":
			var cmd tea.Cmd
			m.body, cmd = m.body.Update(msg)
			return m, cmd
		}

	case tea.MouseMsg:
		return m.handleMouse(msg)
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	if msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown {
		var cmd tea.Cmd
		m.body, cmd = m.body.Update(msg)
		return m, cmd
	}
	if msg.Button != tea.MouseButtonLeft || msg.Action != tea.MouseActionRelease {
		return m, nil
	}

	if z := zone.Get(m.closeZoneID()); z != nil && z.InBounds(msg) {
		return m.dismiss()
	}
	if !m.Bounds().Contains(msg.X, msg.Y) {
		return m.dismiss()
	}
	return m, nil
}

func (m Model) dismiss() (Model, tea.Cmd) {
	m.state = Hidden
	id := m.id
	return m, func() tea.Msg { return ClosedMsg{ID: id} }
}

func (m Model) closeZoneID() string {
	return "modal-close-" + m.id
}

// View renders the frame. It renders nothing while hidden.
func (m Model) View() string {
	if m.state != Visible {
		return ""
	}
	inner := m.ContentWidth()

	title := ansi.Truncate(m.title, max(inner-len(closeLabel)-1, 1), "…")
	gap := max(inner-lipgloss.Width(title)-len(closeLabel), 1)
	header := lipgloss.NewStyle().Bold(true).Foreground(styles.OverlayTitleColor).Render(title) +
		strings.Repeat(" ", gap) +
		zone.Mark(m.closeZoneID(), styles.HintStyle.Render(closeLabel))

	divider := lipgloss.NewStyle().Foreground(styles.OverlayBorderColor).Render(strings.Repeat("─", inner))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.OverlayBorderColor).
		Padding(0, 1).
		Width(inner + 2).
		Render(header + "\n" + divider + "\n" + m.body.View())
}

func (m Model) placement() overlay.Config {
	return overlay.Config{Width: m.width, Height: m.height, Position: overlay.Center}
}

// Bounds returns the screen region of the frame, empty while hidden.
func (m Model) Bounds() overlay.Rect {
	if m.state != Visible {
		return overlay.Rect{}
	}
	return overlay.Bounds(m.placement(), m.View())
}

// Overlay draws the frame centered over bg, or returns bg while hidden.
func (m Model) Overlay(bg string) string {
	if m.state != Visible {
		return bg
	}
	return overlay.Place(m.placement(), m.View(), bg)
}
