// Package overlay draws one block of rendered text over another, used for
// the modals, the splash screen and the notification stack.
package overlay

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Position is the anchor of the foreground.
type Position int

const (
	// Center places the foreground in the middle of the screen.
	Center Position = iota
	// Top centers horizontally, PadY rows from the top.
	Top
	// TopRight anchors to the top-right corner, inset by PadX and PadY.
	TopRight
)

// Config describes the screen the foreground is placed on.
type Config struct {
	Width    int
	Height   int
	Position Position
	PadX     int
	PadY     int
}

// Rect is a screen region in cells. X and Y are the top-left corner.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Contains reports whether the cell (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Empty reports whether r covers no cells.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Bounds returns where fg would be drawn for cfg.
func Bounds(cfg Config, fg string) Rect {
	w := lipgloss.Width(fg)
	h := lipgloss.Height(fg)
	x, y := origin(cfg, w, h)
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// Place draws fg over bg. Styling of both is kept; the background is
// padded to cfg.Height rows when shorter.
func Place(cfg Config, fg, bg string) string {
	out, _ := PlaceWithBounds(cfg, fg, bg)
	return out
}

// PlaceWithBounds is Place that also returns the region fg covers, for
// mouse hit-testing.
func PlaceWithBounds(cfg Config, fg, bg string) (string, Rect) {
	rect := Bounds(cfg, fg)
	fgLines := strings.Split(fg, "\n")
	bgLines := strings.Split(bg, "\n")

	for len(bgLines) < cfg.Height {
		bgLines = append(bgLines, strings.Repeat(" ", cfg.Width))
	}

	for i, line := range fgLines {
		row := rect.Y + i
		if row >= len(bgLines) {
			break
		}
		bgLines[row] = splice(bgLines[row], line, rect.X)
	}

	return strings.Join(bgLines, "\n"), rect
}

// splice replaces the cells of bgLine starting at x with fgLine.
func splice(bgLine, fgLine string, x int) string {
	left := ansi.Truncate(bgLine, x, "")
	if w := ansi.StringWidth(left); w < x {
		left += strings.Repeat(" ", x-w)
	}

	var right string
	end := x + ansi.StringWidth(fgLine)
	if end < ansi.StringWidth(bgLine) {
		right = ansi.TruncateLeft(bgLine, end, "")
	}
	return left + fgLine + right
}

func origin(cfg Config, w, h int) (x, y int) {
	switch cfg.Position {
	case Top:
		x = (cfg.Width - w) / 2
		y = cfg.PadY
	case TopRight:
		x = cfg.Width - w - cfg.PadX
		y = cfg.PadY
	default:
		x = (cfg.Width - w) / 2
		y = (cfg.Height - h) / 2
	}
	return max(x, 0), max(y, 0)
}
