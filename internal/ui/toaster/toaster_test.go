package toaster

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestNew_Defaults(t *testing.T) {
	m := New(0, 0)

	assert.Equal(t, DefaultDuration, m.duration)
	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.View())
	assert.Equal(t, "bg", m.Overlay("bg"))
}

func TestPush_ReturnsDismissCommand(t *testing.T) {
	m, cmd := New(time.Millisecond, 3).Success("Saved")

	require.NotNil(t, cmd)
	require.Equal(t, 1, m.Len())

	msg := cmd()
	dismiss, ok := msg.(DismissMsg)
	require.True(t, ok)
	require.Equal(t, m.Toasts()[0].ID, dismiss.ID)

	m, _ = m.Update(msg)
	require.Equal(t, 0, m.Len())
}

func TestPush_UniqueIDs(t *testing.T) {
	m := New(time.Second, 5)
	m, _ = m.Info("a")
	m, _ = m.Info("b")

	toasts := m.Toasts()
	require.Len(t, toasts, 2)
	require.NotEqual(t, toasts[0].ID, toasts[1].ID)
}

func TestDismiss_OnlyTargetsOneToast(t *testing.T) {
	m := New(time.Second, 5)
	m, _ = m.Success("first")
	m, _ = m.Error("second")
	m, _ = m.Info("third")
	second := m.Toasts()[1].ID

	m, _ = m.Update(DismissMsg{ID: second})

	var msgs []string
	for _, toast := range m.Toasts() {
		msgs = append(msgs, toast.Message)
	}
	require.Equal(t, []string{"first", "third"}, msgs)
}

func TestDismiss_UnknownIDIgnored(t *testing.T) {
	m, _ := New(time.Second, 5).Success("kept")

	m, _ = m.Update(DismissMsg{ID: "gone"})

	require.Equal(t, 1, m.Len())
}

func TestPush_EvictsOldestBeyondCap(t *testing.T) {
	m := New(time.Second, 2)
	m, _ = m.Info("one")
	m, _ = m.Info("two")
	m, _ = m.Info("three")

	toasts := m.Toasts()
	require.Len(t, toasts, 2)
	require.Equal(t, "two", toasts[0].Message)
	require.Equal(t, "three", toasts[1].Message)
}

func TestPush_DoesNotAliasPreviousModel(t *testing.T) {
	base := New(time.Second, 5)
	base, _ = base.Info("shared")

	a, _ := base.Info("a")
	b, _ := base.Info("b")

	require.Equal(t, "a", a.Toasts()[1].Message)
	require.Equal(t, "b", b.Toasts()[1].Message)
}

func TestView_NewestAtBottom(t *testing.T) {
	m := New(time.Second, 5)
	m, _ = m.Success("older")
	m, _ = m.Error("newer")

	view := m.View()
	require.Less(t, strings.Index(view, "older"), strings.Index(view, "newer"))
	require.Contains(t, view, "✓ older")
	require.Contains(t, view, "✗ newer")
}

func TestView_WrapsLongMessages(t *testing.T) {
	m := New(time.Second, 5).SetSize(30, 10)
	m, _ = m.Error("Something went wrong while submitting. Please try again.")

	lines := strings.Split(m.View(), "\n")
	require.Greater(t, len(lines), 3, "long message should wrap onto several rows")
	for _, line := range lines {
		require.LessOrEqual(t, lipgloss.Width(line), 28)
	}
}

func TestOverlay_TopRight(t *testing.T) {
	bg := strings.TrimSuffix(strings.Repeat(strings.Repeat(".", 60)+"\n", 10), "\n")
	m := New(time.Second, 5).SetSize(60, 10)
	m, _ = m.Info("hi")

	lines := strings.Split(m.Overlay(bg), "\n")

	require.Equal(t, strings.Repeat(".", 60), lines[0])
	require.True(t, strings.HasSuffix(lines[2], "│ i hi │."), lines[2])
}

func TestStyle_String(t *testing.T) {
	assert.Equal(t, "success", StyleSuccess.String())
	assert.Equal(t, "error", StyleError.String())
	assert.Equal(t, "info", StyleInfo.String())
}
