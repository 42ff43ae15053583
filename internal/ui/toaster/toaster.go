// Package toaster shows stacked, self-dismissing notifications.
package toaster

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/reflow/wordwrap"

	"github.com/nexusofthings/nexus/internal/ui/overlay"
	"github.com/nexusofthings/nexus/internal/ui/styles"
)

// Style picks the border color and icon of a toast.
type Style int

const (
	StyleSuccess Style = iota
	StyleError
	StyleInfo
)

func (s Style) String() string {
	switch s {
	case StyleError:
		return "error"
	case StyleInfo:
		return "info"
	default:
		return "success"
	}
}

const (
	// DefaultDuration is how long a toast stays up.
	DefaultDuration = 4 * time.Second
	// DefaultMax is how many toasts are kept at once.
	DefaultMax = 5

	toastWidth = 44
)

// Toast is one notification.
type Toast struct {
	ID      string
	Message string
	Style   Style
}

// DismissMsg removes the toast with the given id. Unknown ids are ignored,
// so a timer that fires after its toast was evicted does nothing.
type DismissMsg struct {
	ID string
}

// Model is the notification stack, oldest first.
type Model struct {
	toasts   []Toast
	duration time.Duration
	max      int
	width    int
	height   int
}

// New returns an empty stack. Zero or negative arguments select the
// defaults.
func New(duration time.Duration, maxToasts int) Model {
	if duration <= 0 {
		duration = DefaultDuration
	}
	if maxToasts <= 0 {
		maxToasts = DefaultMax
	}
	return Model{duration: duration, max: maxToasts}
}

// Push adds a toast and returns the command that dismisses it when its
// duration elapses. The oldest toasts are dropped beyond the cap.
func (m Model) Push(message string, style Style) (Model, tea.Cmd) {
	t := Toast{ID: uuid.NewString(), Message: message, Style: style}

	toasts := make([]Toast, 0, len(m.toasts)+1)
	toasts = append(toasts, m.toasts...)
	toasts = append(toasts, t)
	if over := len(toasts) - m.max; over > 0 {
		toasts = toasts[over:]
	}
	m.toasts = toasts

	return m, dismissAfter(t.ID, m.duration)
}

func dismissAfter(id string, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return DismissMsg{ID: id}
	})
}

// Success pushes a success toast.
func (m Model) Success(message string) (Model, tea.Cmd) { return m.Push(message, StyleSuccess) }

// Error pushes an error toast.
func (m Model) Error(message string) (Model, tea.Cmd) { return m.Push(message, StyleError) }

// Info pushes an info toast.
func (m Model) Info(message string) (Model, tea.Cmd) { return m.Push(message, StyleInfo) }

// Dismiss removes the toast with id.
func (m Model) Dismiss(id string) Model {
	kept := make([]Toast, 0, len(m.toasts))
	for _, t := range m.toasts {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	m.toasts = kept
	return m
}

// Update handles DismissMsg.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(DismissMsg); ok {
		return m.Dismiss(msg.ID), nil
	}
	return m, nil
}

// Toasts returns the visible toasts, oldest first.
func (m Model) Toasts() []Toast {
	return append([]Toast(nil), m.toasts...)
}

// Len is the number of visible toasts.
func (m Model) Len() int { return len(m.toasts) }

// SetSize records the screen size for placement.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}

// View renders the stack with the newest toast at the bottom.
func (m Model) View() string {
	if len(m.toasts) == 0 {
		return ""
	}
	width := toastWidth
	if m.width > 0 {
		width = min(width, m.width-2)
	}

	boxes := make([]string, 0, len(m.toasts))
	for _, t := range m.toasts {
		boxes = append(boxes, render(t, width))
	}
	return lipgloss.JoinVertical(lipgloss.Right, boxes...)
}

func render(t Toast, width int) string {
	style := lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder())

	var icon string
	switch t.Style {
	case StyleError:
		style = style.BorderForeground(styles.ToastBorderErrorColor)
		icon = "✗"
	case StyleInfo:
		style = style.BorderForeground(styles.ToastBorderInfoColor)
		icon = "i"
	default:
		style = style.BorderForeground(styles.ToastBorderSuccessColor)
		icon = "✓"
	}

	// Border and padding take four columns; the icon and its space two.
	text := wordwrap.String(t.Message, max(width-6, 8))
	text = strings.ReplaceAll(text, "\n", "\n  ")
	return style.Render(icon + " " + text)
}

// Overlay draws the stack in the top-right corner of bg.
func (m Model) Overlay(bg string) string {
	if len(m.toasts) == 0 {
		return bg
	}
	return overlay.Place(overlay.Config{
		Width:    m.width,
		Height:   m.height,
		Position: overlay.TopRight,
		PadX:     1,
		PadY:     1,
	}, m.View(), bg)
}
