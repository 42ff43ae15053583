// Package markdown renders the event texts, which the site writes as
// light markdown, for the terminal.
package markdown

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/nexusofthings/nexus/internal/log"
)

// DefaultStyle picks dark or light from the terminal background.
const DefaultStyle = "auto"

// noMarginStyle drops glamour's document margins so rendered text lines
// up with the rest of the modal.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

// Renderer renders markdown with one glamour style. Renderers for each
// wrap width are built on first use and reused.
type Renderer struct {
	style    string
	byWidth  map[int]*glamour.TermRenderer
	disabled bool
}

// New returns a renderer for a glamour standard style ("auto", "dark",
// "light", "notty", "ascii", ...). An empty style means DefaultStyle;
// "plain" turns rendering off.
func New(style string) *Renderer {
	if style == "" {
		style = DefaultStyle
	}
	return &Renderer{
		style:    style,
		byWidth:  make(map[int]*glamour.TermRenderer),
		disabled: style == "plain",
	}
}

// Style returns the configured style name.
func (r *Renderer) Style() string {
	return r.style
}

func (r *Renderer) forWidth(width int) (*glamour.TermRenderer, error) {
	if tr, ok := r.byWidth[width]; ok {
		return tr, nil
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if r.style == DefaultStyle {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(r.style))
	}
	opts = append(opts, glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)))

	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	r.byWidth[width] = tr
	return tr, nil
}

// Render renders md wrapped to width. Trailing blank lines are trimmed.
func (r *Renderer) Render(md string, width int) (string, error) {
	tr, err := r.forWidth(max(width, 10))
	if err != nil {
		return "", err
	}
	out, err := tr.Render(md)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n "), nil
}

// RenderOrPlain renders md, falling back to the source text when
// rendering is off or fails.
func (r *Renderer) RenderOrPlain(md string, width int) string {
	if r == nil || r.disabled {
		return md
	}
	out, err := r.Render(md, width)
	if err != nil {
		log.Warn(log.CatUI, "markdown render failed", "style", r.style, "error", err)
		return md
	}
	return out
}
