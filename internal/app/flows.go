package app

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nexusofthings/nexus/internal/log"
	"github.com/nexusofthings/nexus/internal/site"
	"github.com/nexusofthings/nexus/internal/teams"
	"github.com/nexusofthings/nexus/internal/ui/eventview"
	"github.com/nexusofthings/nexus/internal/ui/regform"
)

// User-facing outcome texts.
const (
	MsgRegistered       = "Registration successful!"
	MsgRejected         = "Registration failed. Please try again."
	MsgSubmitFailed     = "Something went wrong while submitting. Please try again."
	MsgTeamsReloaded    = "Team rules reloaded."
	MsgTeamsReloadError = "Could not reload the teams file. Keeping the previous rules."
)

type splashDoneMsg struct{}

type detailLoadedMsg struct {
	Name    string
	Details site.EventDetails
	Err     error
}

type registeredMsg struct {
	Event  string
	Result site.RegistrationResult
	Err    error
}

type teamsChangedMsg struct{}

// OpenDetail shows the detail modal for name in its loading state and
// starts the fetch. Responses are not matched to requests: whichever
// arrives last fills the modal.
func (m Model) OpenDetail(name string) (Model, tea.Cmd) {
	log.Debug(log.CatUI, "Opening event details", "event", name)
	m.detailName = name
	m.view = nil
	m.status = eventview.LoadingText
	m.detail = m.detail.SetTitle(name).Show()
	m = m.refreshDetail()

	client, ctx := m.site, m.ctx
	fetch := func() tea.Msg {
		d, err := client.EventDetails(ctx, name)
		return detailLoadedMsg{Name: name, Details: d, Err: err}
	}
	return m, tea.Batch(fetch, m.spinner.Tick)
}

// OpenRegistration builds a fresh form for name from its team rule and
// shows it. The detail modal is closed.
func (m Model) OpenRegistration(name string) (Model, tea.Cmd) {
	cfg := m.teams.Lookup(name)
	log.Debug(log.CatUI, "Opening registration", "event", name, "min", cfg.Min, "max", cfg.Max, "idea", cfg.NeedsIdea)

	m.detail = m.detail.Hide()
	m.form = regform.New(name, cfg).SetWidth(m.register.ContentWidth())
	m.hasForm = true
	m.register = m.register.SetTitle(m.form.Title()).Show()
	m = m.refreshForm().followFocus()
	return m, m.form.Init()
}

func (m Model) loading() bool {
	return m.detail.Visible() && m.view == nil && m.status == eventview.LoadingText
}

func (m Model) handleDetailLoaded(msg detailLoadedMsg) Model {
	if msg.Err != nil {
		log.ErrorErr(log.CatHTTP, "Failed to load event details", msg.Err, "event", msg.Name)
		m.view = nil
		m.status = eventview.LoadErrorText
		return m.refreshDetail()
	}
	v := eventview.New(msg.Name, msg.Details)
	m.view = &v
	m.status = ""
	m.detailName = msg.Name
	m.detail = m.detail.SetTitle(v.Title)
	return m.refreshDetail()
}

func (m Model) refreshDetail() Model {
	width := m.detail.ContentWidth()
	switch {
	case m.view != nil:
		m.detail = m.detail.SetBody(m.view.Render(width, m.markdown, true))
	case m.status == eventview.LoadingText:
		m.detail = m.detail.SetBody(m.spinner.View() + " " + eventview.RenderStatus(m.status, width-2))
	case m.status != "":
		m.detail = m.detail.SetBody(eventview.RenderStatus(m.status, width))
	}
	return m
}

func (m Model) refreshForm() Model {
	if !m.hasForm {
		return m
	}
	m.register = m.register.SetBody(m.form.View())
	return m
}

// followFocus scrolls the registration body to the focused field. Only
// input paths call it; blink and spinner refreshes keep the offset.
func (m Model) followFocus() Model {
	if !m.hasForm {
		return m
	}
	top, bottom := m.form.FocusedLines()
	m.register = m.register.EnsureVisible(top, bottom)
	return m
}

func (m Model) submit(sub site.Submission) tea.Cmd {
	log.Info(log.CatUI, "Submitting registration", "event", sub.EventName, "team", sub.TeamName)
	client, ctx := m.site, m.ctx
	return func() tea.Msg {
		res, err := client.Register(ctx, sub)
		return registeredMsg{Event: sub.EventName, Result: res, Err: err}
	}
}

// handleRegistered applies a submission outcome. The form is re-enabled
// whatever happened.
func (m Model) handleRegistered(msg registeredMsg) (tea.Model, tea.Cmd) {
	if m.hasForm {
		m.form = m.form.Done()
	}

	var rejected *site.RejectedError
	switch {
	case msg.Err == nil:
		text := msg.Result.Message
		if text == "" {
			text = MsgRegistered
		}
		if m.hasForm {
			m.form = m.form.Reset()
		}
		m.register = m.register.Hide()
		m = m.refreshForm()

		var cmds []tea.Cmd
		var cmd tea.Cmd
		m.toaster, cmd = m.toaster.Success(text)
		cmds = append(cmds, cmd)
		if msg.Result.RedirectURL != "" {
			m.toaster, cmd = m.toaster.Info("Continue at " + msg.Result.RedirectURL)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case errors.As(msg.Err, &rejected):
		m = m.refreshForm().followFocus()
		var cmd tea.Cmd
		m.toaster, cmd = m.toaster.Error(site.UserMessage(msg.Err, MsgRejected))
		return m, cmd

	default:
		log.ErrorErr(log.CatUI, "Registration request failed", msg.Err, "event", msg.Event)
		m = m.refreshForm().followFocus()
		var cmd tea.Cmd
		m.toaster, cmd = m.toaster.Error(MsgSubmitFailed)
		return m, cmd
	}
}

// waitForTeams blocks on the watcher channel. A closed or missing channel
// ends the loop.
func (m Model) waitForTeams() tea.Cmd {
	ch := m.teamsChanged
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return teamsChangedMsg{}
	}
}

func (m Model) reloadTeams() (tea.Model, tea.Cmd) {
	table, err := teams.LoadFile(m.teamsFile)
	if err != nil {
		log.ErrorErr(log.CatWatcher, "Failed to reload teams file", err, "path", m.teamsFile)
		var cmd tea.Cmd
		m.toaster, cmd = m.toaster.Error(MsgTeamsReloadError)
		return m, tea.Batch(cmd, m.waitForTeams())
	}

	log.Info(log.CatWatcher, "Reloaded teams file", "path", m.teamsFile, "events", table.Len())
	m.teams = table
	var cmd tea.Cmd
	m.toaster, cmd = m.toaster.Info(MsgTeamsReloaded)
	return m, tea.Batch(cmd, m.waitForTeams())
}
