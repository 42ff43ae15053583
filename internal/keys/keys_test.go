package keys

import (
	"testing"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

var (
	_ help.KeyMap = ListKeyMap{}
	_ help.KeyMap = DetailKeyMap{}
	_ help.KeyMap = FormKeyMap{}
)

func TestList_Bindings(t *testing.T) {
	require.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyEnter}, List.Details))
	require.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")}, List.Register))
	require.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlC}, List.Quit))
	require.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}, List.Quit))
	require.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyDown}, List.Down))
}

func TestForm_Bindings(t *testing.T) {
	require.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyTab}, Form.Next))
	require.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyShiftTab}, Form.Prev))
	require.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlS}, Form.Submit))
	require.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyEsc}, Form.Close))
	require.False(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}, Form.Close),
		"q must reach the text inputs")
}

func TestBindings_HaveHelp(t *testing.T) {
	for _, group := range [][][]key.Binding{List.FullHelp(), Detail.FullHelp(), Form.FullHelp()} {
		for _, col := range group {
			for _, b := range col {
				require.NotEmpty(t, b.Help().Key)
				require.NotEmpty(t, b.Help().Desc)
			}
		}
	}
}
