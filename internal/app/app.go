// Package app contains the root application model.
package app

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/nexusofthings/nexus/internal/keys"
	"github.com/nexusofthings/nexus/internal/log"
	"github.com/nexusofthings/nexus/internal/site"
	"github.com/nexusofthings/nexus/internal/teams"
	"github.com/nexusofthings/nexus/internal/ui/eventview"
	"github.com/nexusofthings/nexus/internal/ui/markdown"
	"github.com/nexusofthings/nexus/internal/ui/modal"
	"github.com/nexusofthings/nexus/internal/ui/regform"
	"github.com/nexusofthings/nexus/internal/ui/styles"
	"github.com/nexusofthings/nexus/internal/ui/toaster"
	"github.com/nexusofthings/nexus/internal/watcher"
)

// Site is the part of the site client the app uses.
type Site interface {
	EventDetails(ctx context.Context, name string) (site.EventDetails, error)
	Register(ctx context.Context, sub site.Submission) (site.RegistrationResult, error)
}

const (
	detailModalID   = "detail"
	registerModalID = "register"

	// The form's bordered fields read better wider than event text.
	registerMaxWidth = 80
)

// Options configures New.
type Options struct {
	Site   Site
	Teams  teams.Table
	Events []string

	// Splash is how long the loading screen stays up. Zero skips it.
	Splash               time.Duration
	NotificationDuration time.Duration
	MaxNotifications     int

	// Markdown renders event text; nil shows it as is.
	Markdown *markdown.Renderer

	// TeamsFile is reloaded whenever it changes. Empty disables watching.
	TeamsFile string

	// Context bounds every site request. Defaults to context.Background.
	Context context.Context
}

// Model is the root application state.
type Model struct {
	site   Site
	ctx    context.Context
	teams  teams.Table
	events []string
	cursor int

	splashing bool
	splash    time.Duration
	spinner   spinner.Model

	// Detail modal. view is nil while loading or after a failed load, when
	// status holds the text shown instead.
	detail     modal.Model
	detailName string
	view       *eventview.View
	status     string

	register modal.Model
	form     regform.Model
	hasForm  bool

	toaster  toaster.Model
	markdown *markdown.Renderer
	help     help.Model

	width  int
	height int

	teamsFile    string
	teamsWatcher *watcher.Watcher
	teamsChanged <-chan struct{}
}

// New creates the application model. When opts.TeamsFile is set a watcher
// is started; Close stops it.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	events := opts.Events
	if len(events) == 0 {
		events = opts.Teams.Names()
	}

	m := Model{
		site:      opts.Site,
		ctx:       ctx,
		teams:     opts.Teams,
		events:    events,
		splashing: opts.Splash > 0,
		splash:    opts.Splash,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.SpinnerColor)),
		),
		detail:    modal.New(detailModalID),
		register:  modal.New(registerModalID).SetMaxWidth(registerMaxWidth),
		toaster:   toaster.New(opts.NotificationDuration, opts.MaxNotifications),
		markdown:  opts.Markdown,
		help:      help.New(),
		teamsFile: opts.TeamsFile,
	}
	m = m.resize(80, 24)

	if opts.TeamsFile != "" {
		w, err := watcher.New(watcher.DefaultConfig(opts.TeamsFile))
		if err == nil {
			ch, startErr := w.Start()
			if startErr == nil {
				m.teamsWatcher = w
				m.teamsChanged = ch
			} else {
				_ = w.Stop()
				err = startErr
			}
		}
		// The app works without reloads.
		if err != nil {
			log.Warn(log.CatWatcher, "Teams file watcher disabled", "path", opts.TeamsFile, "error", err)
		}
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForTeams()}
	if m.splashing {
		cmds = append(cmds, m.spinner.Tick, tea.Tick(m.splash, func(time.Time) tea.Msg { return splashDoneMsg{} }))
	}
	return tea.Batch(cmds...)
}

func (m Model) resize(width, height int) Model {
	m.width = width
	m.height = height
	m.detail.SetSize(width, height)
	m.register.SetSize(width, height)
	m.toaster = m.toaster.SetSize(width, height)
	m.help.Width = width
	m = m.refreshDetail()
	if m.hasForm {
		m.form = m.form.SetWidth(m.register.ContentWidth())
		m = m.refreshForm().followFocus()
	}
	return m
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.resize(msg.Width, msg.Height), nil

	case splashDoneMsg:
		m.splashing = false
		log.Debug(log.CatUI, "Splash finished", "events", len(m.events))
		return m, nil

	case spinner.TickMsg:
		var cmds []tea.Cmd
		if m.splashing || m.loading() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			m = m.refreshDetail()
			cmds = append(cmds, cmd)
		}
		if m.hasForm {
			var cmd tea.Cmd
			m.form, cmd = m.form.Update(msg)
			m = m.refreshForm()
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case detailLoadedMsg:
		return m.handleDetailLoaded(msg), nil

	case regform.SubmitMsg:
		return m, m.submit(msg.Submission)

	case registeredMsg:
		return m.handleRegistered(msg)

	case teamsChangedMsg:
		return m.reloadTeams()

	case toaster.DismissMsg:
		var cmd tea.Cmd
		m.toaster, cmd = m.toaster.Update(msg)
		return m, cmd

	case modal.ClosedMsg:
		log.Debug(log.CatUI, "Modal closed", "modal", msg.ID)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.splashing {
			return m, nil
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.splashing {
			return m, nil
		}
		return m.handleMouse(msg)
	}

	// Cursor blink and other input plumbing.
	if m.hasForm && m.register.Visible() {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m.refreshForm(), cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case m.register.Visible():
		if key.Matches(msg, keys.Form.Close) || key.Matches(msg, keys.Detail.Scroll) {
			var cmd tea.Cmd
			m.register, cmd = m.register.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m.refreshForm().followFocus(), cmd

	case m.detail.Visible():
		if key.Matches(msg, keys.Detail.Register) {
			if m.view == nil {
				return m, nil
			}
			next, cmd := m.OpenRegistration(m.view.RegistrationTarget())
			return next, cmd
		}
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, keys.List.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.List.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.List.Down):
		if m.cursor < len(m.events)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.List.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, keys.List.Details):
		if name, ok := m.selected(); ok {
			next, cmd := m.OpenDetail(name)
			return next, cmd
		}
	case key.Matches(msg, keys.List.Register):
		if name, ok := m.selected(); ok {
			next, cmd := m.OpenRegistration(name)
			return next, cmd
		}
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch {
	case m.register.Visible():
		var cmd tea.Cmd
		m.register, cmd = m.register.Update(msg)
		if !m.register.Visible() || !isClick(msg) {
			return m, cmd
		}
		var formCmd tea.Cmd
		m.form, formCmd = m.form.Update(msg)
		return m.refreshForm().followFocus(), tea.Batch(cmd, formCmd)

	case m.detail.Visible():
		if m.view != nil && eventview.RegisterClicked(msg) {
			next, cmd := m.OpenRegistration(m.view.RegistrationTarget())
			return next, cmd
		}
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}

	if !isClick(msg) {
		return m, nil
	}
	if i, ok := m.rowAt(msg); ok {
		m.cursor = i
		next, cmd := m.OpenDetail(m.events[i])
		return next, cmd
	}
	return m, nil
}

func isClick(msg tea.MouseMsg) bool {
	return msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionRelease
}

func (m Model) selected() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.events) {
		return "", false
	}
	return m.events[m.cursor], true
}

// View implements tea.Model.
func (m Model) View() string {
	var view string
	if m.splashing {
		view = m.splashView()
	} else {
		view = m.listView()
	}

	view = m.detail.Overlay(view)
	view = m.register.Overlay(view)
	view = m.toaster.Overlay(view)
	return zone.Scan(view)
}

func (m Model) splashView() string {
	text := m.spinner.View() + " " + styles.HintStyle.Render("Loading events...")
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, text)
}

func (m Model) helpKeys() help.KeyMap {
	switch {
	case m.register.Visible():
		return keys.Form
	case m.detail.Visible():
		return keys.Detail
	default:
		return keys.List
	}
}

// Close releases resources held by the application.
func (m *Model) Close() error {
	if m.teamsWatcher != nil {
		w := m.teamsWatcher
		m.teamsWatcher = nil
		return w.Stop()
	}
	return nil
}
