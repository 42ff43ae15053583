package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_DefaultStyle(t *testing.T) {
	require.Equal(t, DefaultStyle, New("").Style())
	require.Equal(t, "dark", New("dark").Style())
}

func TestRender_ASCIIStyle(t *testing.T) {
	r := New("ascii")

	out, err := r.Render("Round 1: **MCQ**", 40)

	require.NoError(t, err)
	require.Contains(t, out, "Round 1:")
	require.Contains(t, out, "MCQ")
	require.False(t, strings.HasSuffix(out, "\n"))
}

func TestRender_ReusesRendererPerWidth(t *testing.T) {
	r := New("ascii")

	_, err := r.Render("a", 30)
	require.NoError(t, err)
	_, err = r.Render("b", 30)
	require.NoError(t, err)
	_, err = r.Render("c", 50)
	require.NoError(t, err)

	require.Len(t, r.byWidth, 2)
}

func TestRenderOrPlain_Plain(t *testing.T) {
	require.Equal(t, "**raw**", New("plain").RenderOrPlain("**raw**", 40))

	var nilRenderer *Renderer
	require.Equal(t, "x", nilRenderer.RenderOrPlain("x", 40))
}

func TestRenderOrPlain_UnknownStyleFallsBack(t *testing.T) {
	require.Equal(t, "Rules", New("no-such-style").RenderOrPlain("Rules", 40))
}
