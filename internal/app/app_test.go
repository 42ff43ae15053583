package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/exp/teatest"
	zone "github.com/lrstanley/bubblezone"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusofthings/nexus/internal/site"
	"github.com/nexusofthings/nexus/internal/teams"
	"github.com/nexusofthings/nexus/internal/ui/eventview"
	"github.com/nexusofthings/nexus/internal/ui/modal"
	"github.com/nexusofthings/nexus/internal/ui/regform"
	"github.com/nexusofthings/nexus/internal/ui/toaster"
)

func TestMain(m *testing.M) {
	zone.NewGlobal()
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

// fakeSite records submissions and answers with canned replies.
type fakeSite struct {
	mu          sync.Mutex
	details     map[string]site.EventDetails
	detailErr   error
	result      site.RegistrationResult
	registerErr error
	submissions []site.Submission
}

func (f *fakeSite) EventDetails(_ context.Context, name string) (site.EventDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.detailErr != nil {
		return site.EventDetails{}, f.detailErr
	}
	return f.details[name], nil
}

func (f *fakeSite) Register(_ context.Context, sub site.Submission) (site.RegistrationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions = append(f.submissions, sub)
	return f.result, f.registerErr
}

func newFakeSite() *fakeSite {
	return &fakeSite{details: map[string]site.EventDetails{
		"IdeaArena": {
			Title: "IdeaArena",
			Rules: "Pitch in five minutes.",
		},
		"InnovWEB": {Title: "InnovWEB"},
	}}
}

func createTestModel(t *testing.T, fake *fakeSite) Model {
	t.Helper()
	m := New(Options{
		Site:                 fake,
		Teams:                teams.Builtin(),
		NotificationDuration: 10 * time.Millisecond,
	})
	t.Cleanup(func() { _ = m.Close() })
	m, _ = update(m, tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// findMsg runs cmd, expanding batches, and returns the first message of
// type T.
func findMsg[T any](t *testing.T, cmd tea.Cmd) T {
	t.Helper()
	var zero T
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case T:
			return msg
		}
	}
	t.Fatalf("no %T produced", zero)
	return zero
}

func loaded(t *testing.T, m Model, name string) Model {
	t.Helper()
	m, cmd := m.OpenDetail(name)
	m, _ = update(m, findMsg[detailLoadedMsg](t, cmd))
	return m
}

func fillForm(m Model) Model {
	m.form = m.form.
		SetValue(regform.KeyTeamName, "Gophers").
		SetValue(regform.KeyLeadName, "Ada").
		SetValue(regform.KeyCollege, "RVR&JC").
		SetValue(regform.KeyPhone, "9000000000").
		SetValue(regform.KeyEmail, "ada@example.com")
	return m.refreshForm()
}

// submitForm presses ctrl+s and feeds the resulting request back.
func submitForm(t *testing.T, m Model) Model {
	t.Helper()
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.True(t, m.form.Busy())
	m, cmd = update(m, findMsg[regform.SubmitMsg](t, cmd))
	m, _ = update(m, findMsg[registeredMsg](t, cmd))
	return m
}

func toastMessages(m Model) []string {
	var out []string
	for _, toast := range m.toaster.Toasts() {
		out = append(out, toast.Message)
	}
	return out
}

func TestNew_EventsDefaultToTeamTable(t *testing.T) {
	m := createTestModel(t, newFakeSite())

	assert.Equal(t, teams.Builtin().Names(), m.events)
	view := m.View()
	for _, name := range m.events {
		assert.Contains(t, view, name)
	}
	assert.Contains(t, view, "Team size: 1-4 · idea pitch")
}

func TestSplash_HidesListUntilDone(t *testing.T) {
	m := New(Options{Site: newFakeSite(), Teams: teams.Builtin(), Splash: time.Hour})
	m, _ = update(m, tea.WindowSizeMsg{Width: 100, Height: 40})

	require.NotNil(t, m.Init())
	require.Contains(t, m.View(), "Loading events...")
	require.NotContains(t, m.View(), "IdeaArena")

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Nil(t, cmd, "keys are ignored during the splash")
	require.False(t, m.detail.Visible())

	m, _ = update(m, splashDoneMsg{})
	require.Contains(t, m.View(), "IdeaArena")
}

func TestOpenDetail_LoadingThenLoaded(t *testing.T) {
	m := createTestModel(t, newFakeSite())

	m, cmd := m.OpenDetail("IdeaArena")
	require.True(t, m.detail.Visible())
	require.Contains(t, m.detail.Body(), eventview.LoadingText)

	m, _ = update(m, findMsg[detailLoadedMsg](t, cmd))

	require.True(t, m.detail.Visible())
	require.Equal(t, "IdeaArena", m.detail.Title())
	body := m.detail.Body()
	require.Contains(t, body, "Pitch in five minutes.")
	require.Contains(t, body, eventview.DefaultPrizes)
	require.NotContains(t, body, eventview.LoadingText)
}

func TestOpenDetail_FailureKeepsModalOpen(t *testing.T) {
	fake := newFakeSite()
	fake.detailErr = &site.StatusError{Code: 500, URL: "http://example/get-event-details/IdeaArena/"}
	m := createTestModel(t, fake)

	m = loaded(t, m, "IdeaArena")

	require.True(t, m.detail.Visible())
	require.Contains(t, m.detail.Body(), eventview.LoadErrorText)

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.False(t, m.register.Visible(), "no register action without details")
}

func TestDetail_RegisterOpensFormAndClosesDetail(t *testing.T) {
	m := loaded(t, createTestModel(t, newFakeSite()), "IdeaArena")

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})

	require.False(t, m.detail.Visible())
	require.True(t, m.register.Visible())
	require.Equal(t, "Register for IdeaArena", m.register.Title())
	require.Contains(t, m.form.Keys(), regform.TeammateNameKey(4))
	require.True(t, m.form.Required(regform.KeyIdeaDescription))
	require.True(t, m.form.Required(regform.KeyIdeaFile))
	require.Contains(t, m.register.Body(), "Team size: 1-4 members.")
}

func TestDetail_RegisterFallsBackToRequestedName(t *testing.T) {
	m := loaded(t, createTestModel(t, newFakeSite()), "Error Erase")
	require.Equal(t, "Error Erase", m.detail.Title())

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, "Error Erase", m.form.Event())
	require.Equal(t, teams.Config{Min: 1, Max: 2}, m.form.Config())
}

func TestOpenRegistration_UnknownEventUsesDefaultRange(t *testing.T) {
	m, _ := createTestModel(t, newFakeSite()).OpenRegistration("Robo Race")

	require.Equal(t, teams.Default, m.form.Config())
	require.NotContains(t, m.form.Keys(), regform.KeyIdeaFile)
}

func TestDetailLoaded_LastWriteWins(t *testing.T) {
	m := createTestModel(t, newFakeSite())
	m, _ = m.OpenDetail("InnovWEB")

	m, _ = update(m, detailLoadedMsg{Name: "InnovWEB", Details: site.EventDetails{Title: "InnovWEB"}})
	m, _ = update(m, detailLoadedMsg{Name: "IdeaArena", Details: site.EventDetails{Title: "IdeaArena"}})
	require.Equal(t, "IdeaArena", m.detail.Title())

	m, _ = update(m, detailLoadedMsg{Name: "InnovWEB", Err: errors.New("boom")})
	require.Contains(t, m.detail.Body(), eventview.LoadErrorText)
}

func TestRegistration_Success(t *testing.T) {
	fake := newFakeSite()
	fake.result = site.RegistrationResult{Success: true}
	m, _ := createTestModel(t, fake).OpenRegistration("InnovWEB")
	m = fillForm(m)

	m = submitForm(t, m)

	require.Len(t, fake.submissions, 1)
	require.Equal(t, "Gophers", fake.submissions[0].TeamName)
	require.False(t, m.register.Visible())
	require.False(t, m.form.Busy())
	require.Empty(t, m.form.Value(regform.KeyTeamName), "form is reset")
	require.Equal(t, []string{MsgRegistered}, toastMessages(m))
	require.Equal(t, toaster.StyleSuccess, m.toaster.Toasts()[0].Style)
}

func TestRegistration_SuccessWithRedirect(t *testing.T) {
	fake := newFakeSite()
	fake.result = site.RegistrationResult{
		Success:     true,
		Message:     "Registration successful! Your team code is: NoT251019001",
		RedirectURL: "http://example/registration/NoT251019001/",
	}
	m, _ := createTestModel(t, fake).OpenRegistration("InnovWEB")

	m = submitForm(t, fillForm(m))

	require.Equal(t, []string{
		"Registration successful! Your team code is: NoT251019001",
		"Continue at http://example/registration/NoT251019001/",
	}, toastMessages(m))
	require.Equal(t, toaster.StyleInfo, m.toaster.Toasts()[1].Style)
}

func TestRegistration_RejectedKeepsForm(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"server message", "Email already registered for this event.", "Email already registered for this event."},
		{"no message", "", MsgRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeSite()
			fake.result = site.RegistrationResult{Success: false, Message: tt.message}
			fake.registerErr = &site.RejectedError{Status: 400, Message: tt.message}
			m, _ := createTestModel(t, fake).OpenRegistration("InnovWEB")

			m = submitForm(t, fillForm(m))

			require.True(t, m.register.Visible())
			require.False(t, m.form.Busy(), "submit is re-enabled")
			require.Equal(t, "Gophers", m.form.Value(regform.KeyTeamName))
			require.Equal(t, []string{tt.want}, toastMessages(m))
			require.Equal(t, toaster.StyleError, m.toaster.Toasts()[0].Style)
		})
	}
}

func TestRegistration_TransportFailure(t *testing.T) {
	fake := newFakeSite()
	fake.registerErr = &site.TransportError{Op: "request", URL: "http://example/register-participant/", Err: errors.New("connection refused")}
	m, _ := createTestModel(t, fake).OpenRegistration("InnovWEB")

	m = submitForm(t, fillForm(m))

	require.True(t, m.register.Visible())
	require.False(t, m.form.Busy())
	require.Equal(t, "ada@example.com", m.form.Value(regform.KeyEmail))
	require.Equal(t, []string{MsgSubmitFailed}, toastMessages(m))
}

func TestRegistration_InvalidFormNotSent(t *testing.T) {
	fake := newFakeSite()
	m, _ := createTestModel(t, fake).OpenRegistration("IdeaArena")
	m = fillForm(m)

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlS})

	require.Nil(t, cmd)
	require.False(t, m.form.Busy())
	require.Empty(t, fake.submissions)
	require.Contains(t, m.register.Body(), "Required")
}

func TestRegistration_TabFollowsFocus(t *testing.T) {
	m := createTestModel(t, newFakeSite())
	m, _ = update(m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = m.OpenRegistration("IdeaArena")
	require.NotContains(t, m.View(), regform.SubmitLabel, "submit starts below the fold")

	fields := len(m.form.Keys())
	for range fields {
		m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
	}
	require.Empty(t, m.form.Focused(), "focus is on the submit button")
	require.Contains(t, m.View(), regform.SubmitLabel)
	require.Positive(t, m.register.ScrollOffset())

	for range fields {
		m, _ = update(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	}
	require.Equal(t, regform.KeyTeamName, m.form.Focused())
	require.Zero(t, m.register.ScrollOffset())
	require.Contains(t, m.View(), m.form.Hint())
}

func TestRegistration_InvalidSubmitScrollsToField(t *testing.T) {
	m := createTestModel(t, newFakeSite())
	m, _ = update(m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = m.OpenRegistration("IdeaArena")
	m = fillForm(m)
	require.NotContains(t, m.View(), "Idea Description")

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyCtrlS})

	require.Equal(t, regform.KeyIdeaDescription, m.form.Focused())
	view := m.View()
	require.Contains(t, view, "Idea Description")
	require.Contains(t, view, "Required")
}

func TestOutsideClick_HidesVisibleModal(t *testing.T) {
	m := loaded(t, createTestModel(t, newFakeSite()), "InnovWEB")
	require.False(t, m.detail.Bounds().Contains(0, 0))

	m, cmd := update(m, tea.MouseMsg{X: 0, Y: 0, Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease})

	require.False(t, m.detail.Visible())
	require.Equal(t, modal.ClosedMsg{ID: detailModalID}, findMsg[modal.ClosedMsg](t, cmd))
}

func TestOutsideClick_RegistrationModal(t *testing.T) {
	m, _ := createTestModel(t, newFakeSite()).OpenRegistration("InnovWEB")

	m, _ = update(m, tea.MouseMsg{X: 0, Y: 0, Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease})

	require.False(t, m.register.Visible())
}

func TestOutsideClick_HiddenIsNoop(t *testing.T) {
	m := createTestModel(t, newFakeSite())

	m, cmd := update(m, tea.MouseMsg{X: 0, Y: 0, Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease})

	require.Nil(t, cmd)
	require.False(t, m.detail.Visible())
	require.False(t, m.register.Visible())
}

func TestEsc_ClosesRegistration(t *testing.T) {
	m, _ := createTestModel(t, newFakeSite()).OpenRegistration("InnovWEB")

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEsc})

	require.False(t, m.register.Visible())
}

func TestList_Navigation(t *testing.T) {
	m := createTestModel(t, newFakeSite())

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyUp})
	require.Equal(t, 1, m.cursor)

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.detail.Visible())
	require.Equal(t, m.events[1], m.detailName)
	require.NotNil(t, cmd)

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.True(t, m.register.Visible())
	require.Equal(t, m.events[1], m.form.Event())
}

func TestList_HelpAndQuit(t *testing.T) {
	m := createTestModel(t, newFakeSite())

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	require.True(t, m.help.ShowAll)

	_, cmd := update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	require.Equal(t, tea.QuitMsg{}, cmd())
}

func TestToastDismissedByID(t *testing.T) {
	m := createTestModel(t, newFakeSite())
	var cmd tea.Cmd
	m.toaster, cmd = m.toaster.Info("hello")

	m, _ = update(m, findMsg[toaster.DismissMsg](t, cmd))

	require.Zero(t, m.toaster.Len())
}

func TestTeamsReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teams.yaml")
	require.NoError(t, os.WriteFile(path, []byte("teams:\n  - name: Quiz\n    min: 1\n    max: 2\n"), 0o600))
	table, err := teams.LoadFile(path)
	require.NoError(t, err)

	m := New(Options{Site: newFakeSite(), Teams: table, TeamsFile: path, NotificationDuration: 10 * time.Millisecond})
	t.Cleanup(func() { _ = m.Close() })
	require.NotNil(t, m.teamsWatcher)
	require.Equal(t, []string{"Quiz"}, m.events)

	require.NoError(t, os.WriteFile(path, []byte("teams:\n  - name: Quiz\n    min: 2\n    max: 4\n"), 0o600))
	m, cmd := update(m, teamsChangedMsg{})
	require.NotNil(t, cmd)
	require.Equal(t, teams.Config{Min: 2, Max: 4}, m.teams.Lookup("Quiz"))
	require.Equal(t, []string{MsgTeamsReloaded}, toastMessages(m))

	require.NoError(t, os.WriteFile(path, []byte("teams: [unclosed"), 0o600))
	m, _ = update(m, teamsChangedMsg{})
	require.Equal(t, teams.Config{Min: 2, Max: 4}, m.teams.Lookup("Quiz"), "a bad file keeps the previous rules")
	require.Equal(t, MsgTeamsReloadError, toastMessages(m)[1])
}

func TestProgram_Smoke(t *testing.T) {
	m := New(Options{Site: newFakeSite(), Teams: teams.Builtin()})
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 40))

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("IdeaArena"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))

	final, ok := tm.FinalModel(t).(Model)
	require.True(t, ok)
	require.False(t, final.detail.Visible())
	require.True(t, strings.Contains(final.View(), Heading))
}
