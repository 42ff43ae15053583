package regform

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/nexusofthings/nexus/internal/site"
	"github.com/nexusofthings/nexus/internal/teams"
)

func TestMain(m *testing.M) {
	zone.NewGlobal()
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

func typeText(m Model, s string) Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func filled(m Model) Model {
	return m.
		SetValue(KeyTeamName, "Gophers").
		SetValue(KeyLeadName, "Ada").
		SetValue(KeyCollege, "RVR&JC").
		SetValue(KeyPhone, "9000000000").
		SetValue(KeyEmail, "ada@example.com")
}

// submitMsg runs the command returned by a successful Submit and returns
// the SubmitMsg inside it.
func submitMsg(t *testing.T, cmd tea.Cmd) SubmitMsg {
	t.Helper()
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	for _, c := range batch {
		if c == nil {
			continue
		}
		if msg, ok := c().(SubmitMsg); ok {
			return msg
		}
	}
	t.Fatal("no SubmitMsg in batch")
	return SubmitMsg{}
}

func TestNew_IdeaArenaLayout(t *testing.T) {
	m := New("IdeaArena", teams.Config{Min: 1, Max: 4, NeedsIdea: true})

	require.Equal(t, "Register for IdeaArena", m.Title())
	require.Equal(t, "Team size: 1-4 members.", m.Hint())
	require.Equal(t, []string{
		KeyTeamName, KeyLeadName, KeyCollege, KeyPhone, KeyEmail,
		"teammate1_name", "teammate1_reg_no",
		"teammate2_name", "teammate2_reg_no",
		"teammate3_name", "teammate3_reg_no",
		"teammate4_name", "teammate4_reg_no",
		KeyIdeaDescription, KeyIdeaFile,
	}, m.Keys())
	require.True(t, m.Required(KeyIdeaDescription))
	require.True(t, m.Required(KeyIdeaFile))
}

func TestNew_NoIdeaBlock(t *testing.T) {
	m := New("InnovWEB", teams.Config{Min: 1, Max: 2})

	require.NotContains(t, m.Keys(), KeyIdeaDescription)
	require.NotContains(t, m.Keys(), KeyIdeaFile)
	require.NotContains(t, m.Keys(), "teammate3_name")
	require.Contains(t, m.Keys(), "teammate2_reg_no")
}

func TestNew_TeammatesRequiredBelowMin(t *testing.T) {
	m := New("Hackathon", teams.Config{Min: 3, Max: 4})

	require.True(t, m.Required(TeammateNameKey(1)))
	require.True(t, m.Required(TeammateNameKey(2)))
	require.False(t, m.Required(TeammateNameKey(3)))
	require.False(t, m.Required(TeammateRegNoKey(1)))
}

func TestNew_FocusesFirstField(t *testing.T) {
	m := New("InnovWEB", teams.Default)

	require.Equal(t, KeyTeamName, m.Focused())
	m = typeText(m, "Gophers")
	require.Equal(t, "Gophers", m.Value(KeyTeamName))
}

func TestUpdate_TabCyclesThroughSubmit(t *testing.T) {
	m := New("InnovWEB", teams.Config{Min: 1, Max: 1})
	// five lead fields, one teammate pair, then the button
	for range 7 {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	}
	require.Equal(t, "", m.Focused())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, KeyTeamName, m.Focused())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	require.Equal(t, "", m.Focused())
}

func TestUpdate_EnterAdvances(t *testing.T) {
	m := New("InnovWEB", teams.Default)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, KeyLeadName, m.Focused())
}

func TestSubmit_EmptyFormRefused(t *testing.T) {
	m := New("InnovWEB", teams.Default)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})

	m, cmd := m.Submit()

	require.Nil(t, cmd)
	require.False(t, m.Busy())
	require.Equal(t, errRequired, m.Error(KeyTeamName))
	require.Equal(t, errRequired, m.Error(KeyEmail))
	require.Empty(t, m.Error(TeammateNameKey(1)))
	require.Equal(t, KeyTeamName, m.Focused(), "first invalid field gets focus")
	require.Contains(t, m.View(), errIncorrect)
}

func TestSubmit_EditingClearsError(t *testing.T) {
	m, _ := New("InnovWEB", teams.Default).Submit()
	require.NotEmpty(t, m.Error(KeyTeamName))

	m = typeText(m, "G")

	require.Empty(t, m.Error(KeyTeamName))
	require.NotEmpty(t, m.Error(KeyEmail))
}

func TestSubmit_InvalidEmail(t *testing.T) {
	m := filled(New("InnovWEB", teams.Default)).SetValue(KeyEmail, "not-an-email")

	m, cmd := m.Submit()

	require.Nil(t, cmd)
	require.Equal(t, errEmail, m.Error(KeyEmail))
	require.Equal(t, KeyEmail, m.Focused())
}

func TestSubmit_ValidFormEmitsSubmission(t *testing.T) {
	m := filled(New("InnovWEB", teams.Config{Min: 1, Max: 2})).
		SetValue(TeammateNameKey(1), "  Grace ").
		SetValue(TeammateRegNoKey(1), "Y21CS001")

	m, cmd := m.Submit()

	require.True(t, m.Busy())
	msg := submitMsg(t, cmd)
	require.Equal(t, site.Submission{
		EventName: "InnovWEB",
		TeamName:  "Gophers",
		LeadName:  "Ada",
		College:   "RVR&JC",
		Phone:     "9000000000",
		Email:     "ada@example.com",
		Teammates: []site.Teammate{{Name: "Grace", RegNo: "Y21CS001"}, {}},
	}, msg.Submission)
	require.Contains(t, m.View(), BusyLabel)
	require.NotContains(t, m.View(), SubmitLabel)
}

func TestSubmit_RequiredTeammates(t *testing.T) {
	m := filled(New("Hackathon", teams.Config{Min: 2, Max: 3}))

	m, cmd := m.Submit()
	require.Nil(t, cmd)
	require.Equal(t, errRequired, m.Error(TeammateNameKey(1)))
	require.Empty(t, m.Error(TeammateNameKey(2)))

	m, cmd = m.SetValue(TeammateNameKey(1), "Grace").Submit()
	require.NotNil(t, cmd)
	require.True(t, m.Busy())
}

func TestSubmit_IdeaBlock(t *testing.T) {
	cfg := teams.Config{Min: 1, Max: 4, NeedsIdea: true}
	dir := t.TempDir()
	deck := filepath.Join(dir, "deck.pdf")
	require.NoError(t, os.WriteFile(deck, []byte("%PDF"), 0o600))

	m, cmd := filled(New("IdeaArena", cfg)).Submit()
	require.Nil(t, cmd)
	require.Equal(t, errRequired, m.Error(KeyIdeaDescription))
	require.Equal(t, errRequired, m.Error(KeyIdeaFile))

	m, cmd = m.SetValue(KeyIdeaDescription, "Smart campus").SetValue(KeyIdeaFile, filepath.Join(dir, "deck.docx")).Submit()
	require.Nil(t, cmd)
	require.Equal(t, errFileType, m.Error(KeyIdeaFile))

	m, cmd = m.SetValue(KeyIdeaFile, filepath.Join(dir, "missing.pptx")).Submit()
	require.Nil(t, cmd)
	require.Equal(t, errFileRead, m.Error(KeyIdeaFile))

	m, cmd = m.SetValue(KeyIdeaFile, deck).Submit()
	msg := submitMsg(t, cmd)
	require.Equal(t, deck, msg.Submission.IdeaFile)
	require.Equal(t, "Smart campus", msg.Submission.IdeaDescription)
	require.Len(t, msg.Submission.Teammates, 4)
	require.True(t, m.Busy())
}

func TestBusy_IgnoresInputUntilDone(t *testing.T) {
	m, _ := filled(New("InnovWEB", teams.Default)).Submit()
	require.True(t, m.Busy())

	m = typeText(m, "x")
	require.Equal(t, "Gophers", m.Value(KeyTeamName))

	m, cmd := m.Submit()
	require.Nil(t, cmd, "a busy form does not submit twice")

	m = m.Done()
	require.False(t, m.Busy())
	require.Contains(t, m.View(), SubmitLabel)
}

func TestReset(t *testing.T) {
	m, _ := filled(New("InnovWEB", teams.Default)).Submit()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})

	m = m.Reset()

	require.False(t, m.Busy())
	require.Equal(t, KeyTeamName, m.Focused())
	for _, k := range m.Keys() {
		require.Empty(t, m.Value(k), k)
		require.Empty(t, m.Error(k), k)
	}
}

func TestSetValue_DoesNotLeakIntoOriginal(t *testing.T) {
	base := New("InnovWEB", teams.Default)
	changed := base.SetValue(KeyTeamName, "Gophers")

	require.Empty(t, base.Value(KeyTeamName))
	require.Equal(t, "Gophers", changed.Value(KeyTeamName))
}

func TestView_ShowsHintAndRequiredMarks(t *testing.T) {
	view := zone.Scan(New("IdeaArena", teams.Config{Min: 1, Max: 4, NeedsIdea: true}).View())

	require.Contains(t, view, "Team size: 1-4 members.")
	require.Contains(t, view, "Teammate 4")
	require.Contains(t, view, "Idea Description (required)")
	require.Contains(t, view, "Upload PPT / PDF (required)")
	require.Contains(t, view, SubmitLabel)
}
