// Package regform is the registration form. Its fields are derived from
// the event's team rule: fixed team-lead fields, one name and
// registration-number pair per teammate slot, and an idea block for
// events that take one.
package regform

import (
	"fmt"
	"net/mail"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/nexusofthings/nexus/internal/keys"
	"github.com/nexusofthings/nexus/internal/site"
	"github.com/nexusofthings/nexus/internal/teams"
	"github.com/nexusofthings/nexus/internal/ui/styles"
)

// Field keys. They double as the multipart names the site reads.
const (
	KeyTeamName        = "team_name"
	KeyLeadName        = "team_lead_name"
	KeyCollege         = "college_name"
	KeyPhone           = "phone_number"
	KeyEmail           = "email"
	KeyIdeaDescription = "idea_description"
	KeyIdeaFile        = "idea_file"
)

// TeammateNameKey is the key of teammate slot n, counting from 1.
func TeammateNameKey(n int) string { return fmt.Sprintf("teammate%d_name", n) }

// TeammateRegNoKey is the registration-number key of teammate slot n.
func TeammateRegNoKey(n int) string { return fmt.Sprintf("teammate%d_reg_no", n) }

const (
	SubmitLabel = "Submit Registration"
	BusyLabel   = "Processing..."

	errRequired  = "Required"
	errEmail     = "Enter a valid email address"
	errFileType  = "Only .pdf, .ppt or .pptx files are accepted"
	errFileRead  = "File not found"
	errIncorrect = "Please fix the highlighted fields."

	submitZoneID = "regform-submit"
)

// SubmitMsg carries a validated submission. The form is busy until the
// owner calls Done.
type SubmitMsg struct {
	Submission site.Submission
}

type fieldKind int

const (
	kindText fieldKind = iota
	kindArea
)

type field struct {
	key      string
	label    string
	required bool
	kind     fieldKind
	input    textinput.Model
	area     textarea.Model
}

func (f field) value() string {
	if f.kind == kindArea {
		return f.area.Value()
	}
	return f.input.Value()
}

// Model is the form state.
type Model struct {
	event  string
	config teams.Config
	fields []field

	// focus indexes fields; len(fields) is the submit button.
	focus   int
	errors  map[string]string
	summary string

	busy    bool
	spinner spinner.Model
	width   int
}

// New builds the form for event with the given team rule.
func New(event string, cfg teams.Config) Model {
	m := Model{
		event:   event,
		config:  cfg,
		errors:  map[string]string{},
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.SpinnerColor))),
		width:   60,
	}

	m.fields = append(m.fields,
		newText(KeyTeamName, "Team Name", "", true),
		newText(KeyLeadName, "Team Lead Name", "", true),
		newText(KeyCollege, "College", "", true),
		newText(KeyPhone, "Phone Number", "", true),
		newText(KeyEmail, "Email", "name@example.com", true),
	)
	for i := 1; i <= cfg.Max; i++ {
		required := i < cfg.Min
		m.fields = append(m.fields,
			newText(TeammateNameKey(i), fmt.Sprintf("Teammate %d", i), "Name", required),
			newText(TeammateRegNoKey(i), fmt.Sprintf("Teammate %d Reg. No.", i), "Registration number", false),
		)
	}
	if cfg.NeedsIdea {
		m.fields = append(m.fields,
			newArea(KeyIdeaDescription, "Idea Description", "Describe your idea clearly"),
			newText(KeyIdeaFile, "Upload PPT / PDF", "/path/to/pitch.pdf", true),
		)
	}

	m.fields[0].input.Focus()
	m.resize()
	return m
}

func newText(key, label, placeholder string, required bool) field {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	return field{key: key, label: label, required: required, kind: kindText, input: ti}
}

func newArea(key, label, placeholder string) field {
	ta := textarea.New()
	ta.Prompt = ""
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.SetHeight(4)
	return field{key: key, label: label, required: true, kind: kindArea, area: ta}
}

// Event returns the event the form registers for.
func (m Model) Event() string { return m.event }

// Config returns the team rule the form was built from.
func (m Model) Config() teams.Config { return m.config }

// Title is the modal title for the form.
func (m Model) Title() string { return "Register for " + m.event }

// Hint is the team size line.
func (m Model) Hint() string {
	return fmt.Sprintf("Team size: %d-%d members.", m.config.Min, m.config.Max)
}

// Keys returns the field keys in display order.
func (m Model) Keys() []string {
	out := make([]string, len(m.fields))
	for i, f := range m.fields {
		out[i] = f.key
	}
	return out
}

// Required reports whether the field named key must be filled.
func (m Model) Required(key string) bool {
	if i := m.index(key); i >= 0 {
		return m.fields[i].required
	}
	return false
}

func (m Model) index(key string) int {
	for i, f := range m.fields {
		if f.key == key {
			return i
		}
	}
	return -1
}

// Value returns the current text of the field named key.
func (m Model) Value(key string) string {
	if i := m.index(key); i >= 0 {
		return m.fields[i].value()
	}
	return ""
}

// SetValue sets the field named key. Unknown keys are ignored.
func (m Model) SetValue(key, value string) Model {
	i := m.index(key)
	if i < 0 {
		return m
	}
	m.fields = cloneFields(m.fields)
	if m.fields[i].kind == kindArea {
		m.fields[i].area.SetValue(value)
	} else {
		m.fields[i].input.SetValue(value)
	}
	return m
}

// Error returns the validation message of the field named key.
func (m Model) Error(key string) string { return m.errors[key] }

// Busy reports whether a submission is in flight.
func (m Model) Busy() bool { return m.busy }

// Focused returns the key of the focused field, or "" on the submit button.
func (m Model) Focused() string {
	if m.focus < len(m.fields) {
		return m.fields[m.focus].key
	}
	return ""
}

// SetWidth sets the width the form renders at.
func (m Model) SetWidth(w int) Model {
	m.width = max(w, 20)
	m.fields = cloneFields(m.fields)
	m.resize()
	return m
}

func (m *Model) resize() {
	inner := max(m.width-4, 8)
	for i := range m.fields {
		if m.fields[i].kind == kindArea {
			m.fields[i].area.SetWidth(inner)
		} else {
			m.fields[i].input.Width = inner
		}
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles navigation, submission and input.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		if m.busy || msg.Button != tea.MouseButtonLeft || msg.Action != tea.MouseActionRelease {
			return m, nil
		}
		if z := zone.Get(submitZoneID); z != nil && z.InBounds(msg) {
			return m.focusOn(len(m.fields)).Submit()
		}
		for i, f := range m.fields {
			if z := zone.Get(fieldZoneID(f.key)); z != nil && z.InBounds(msg) {
				return m.focusOn(i), nil
			}
		}
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		onArea := m.focus < len(m.fields) && m.fields[m.focus].kind == kindArea

		switch {
		case key.Matches(msg, keys.Form.Submit):
			return m.Submit()
		case msg.Type == tea.KeyTab || (!onArea && key.Matches(msg, keys.Form.Next)):
			return m.focusOn((m.focus + 1) % (len(m.fields) + 1)), nil
		case msg.Type == tea.KeyShiftTab || (!onArea && key.Matches(msg, keys.Form.Prev)):
			return m.focusOn((m.focus + len(m.fields)) % (len(m.fields) + 1)), nil
		case msg.Type == tea.KeyEnter && !onArea:
			if m.focus == len(m.fields) {
				return m.Submit()
			}
			return m.focusOn(m.focus + 1), nil
		}
	}

	if m.focus >= len(m.fields) {
		return m, nil
	}
	m.fields = cloneFields(m.fields)
	f := &m.fields[m.focus]
	var cmd tea.Cmd
	if f.kind == kindArea {
		f.area, cmd = f.area.Update(msg)
	} else {
		f.input, cmd = f.input.Update(msg)
	}
	// Editing a field clears its message.
	if _, bad := m.errors[f.key]; bad && isKey(msg) {
		errs := make(map[string]string, len(m.errors))
		for k, v := range m.errors {
			if k != f.key {
				errs[k] = v
			}
		}
		m.errors = errs
	}
	return m, cmd
}

func isKey(msg tea.Msg) bool {
	_, ok := msg.(tea.KeyMsg)
	return ok
}

func (m Model) focusOn(i int) Model {
	m.fields = cloneFields(m.fields)
	for j := range m.fields {
		f := &m.fields[j]
		switch {
		case f.kind == kindArea && j == i:
			f.area.Focus()
		case f.kind == kindArea:
			f.area.Blur()
		case j == i:
			f.input.Focus()
		default:
			f.input.Blur()
		}
	}
	m.focus = i
	return m
}

// cloneFields copies the slice so a returned Model never shares field
// state with the one it was derived from.
func cloneFields(fs []field) []field {
	return append([]field(nil), fs...)
}

// Validate checks every field and returns the messages keyed by field.
func (m Model) Validate() map[string]string {
	errs := map[string]string{}
	for _, f := range m.fields {
		v := strings.TrimSpace(f.value())
		if v == "" {
			if f.required {
				errs[f.key] = errRequired
			}
			continue
		}
		switch f.key {
		case KeyEmail:
			if _, err := mail.ParseAddress(v); err != nil || !strings.Contains(v, "@") {
				errs[f.key] = errEmail
			}
		case KeyIdeaFile:
			if !site.AcceptedIdeaFile(v) {
				errs[f.key] = errFileType
			} else if _, err := os.Stat(v); err != nil {
				errs[f.key] = errFileRead
			}
		}
	}
	return errs
}

// Submit validates the form. A valid form turns busy and emits SubmitMsg;
// an invalid one records the messages and focuses the first bad field.
func (m Model) Submit() (Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	errs := m.Validate()
	m.errors = errs
	if len(errs) > 0 {
		m.summary = errIncorrect
		for i, f := range m.fields {
			if _, bad := errs[f.key]; bad {
				return m.focusOn(i), nil
			}
		}
		return m, nil
	}

	m.summary = ""
	m.busy = true
	sub := m.Submission()
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg { return SubmitMsg{Submission: sub} })
}

// Done re-enables the form after a submission finished, whatever the
// outcome.
func (m Model) Done() Model {
	m.busy = false
	return m
}

// Submission builds the request payload from the current values.
func (m Model) Submission() site.Submission {
	v := func(k string) string { return strings.TrimSpace(m.Value(k)) }
	sub := site.Submission{
		EventName:       m.event,
		TeamName:        v(KeyTeamName),
		LeadName:        v(KeyLeadName),
		College:         v(KeyCollege),
		Phone:           v(KeyPhone),
		Email:           v(KeyEmail),
		IdeaDescription: v(KeyIdeaDescription),
		IdeaFile:        v(KeyIdeaFile),
	}
	for i := 1; i <= m.config.Max; i++ {
		sub.Teammates = append(sub.Teammates, site.Teammate{
			Name:  v(TeammateNameKey(i)),
			RegNo: v(TeammateRegNoKey(i)),
		})
	}
	return sub
}

// Reset clears every field and message and focuses the first field.
func (m Model) Reset() Model {
	m.fields = cloneFields(m.fields)
	for i := range m.fields {
		if m.fields[i].kind == kindArea {
			m.fields[i].area.Reset()
		} else {
			m.fields[i].input.Reset()
		}
	}
	m.errors = map[string]string{}
	m.summary = ""
	m.busy = false
	return m.focusOn(0)
}

func fieldZoneID(key string) string { return "regform-field-" + key }

// View renders the form body for the modal.
func (m Model) View() string {
	body, _, _ := m.layout()
	return body
}

// FocusedLines returns the first and last line of the focused part of
// View: a field with its error, or the submit row with the summary above
// it. The first field also covers the hint.
func (m Model) FocusedLines() (top, bottom int) {
	_, top, bottom = m.layout()
	return top, bottom
}

func (m Model) layout() (string, int, int) {
	var b strings.Builder
	line := 0
	write := func(s string) {
		b.WriteString(s)
		line += strings.Count(s, "\n")
	}
	top, bottom := 0, 0

	write(styles.HintStyle.Render(m.Hint()))
	write("\n\n")

	for i, f := range m.fields {
		first := line
		if i == 0 {
			first = 0
		}
		hint := ""
		if f.required {
			hint = "required"
		}
		input := f.input.View()
		if f.kind == kindArea {
			input = f.area.View()
		}
		section := styles.RenderSection(strings.Split(input, "\n"), f.label, hint, m.width, m.focus == i)
		write(zone.Mark(fieldZoneID(f.key), section))
		write("\n")
		if msg, bad := m.errors[f.key]; bad {
			write(styles.ErrorTextStyle.Render(" " + msg))
			write("\n")
		}
		if m.focus == i {
			top, bottom = first, line-1
		}
	}

	tail := line
	if m.summary != "" {
		write("\n" + styles.ErrorTextStyle.Render(m.summary) + "\n")
		tail++
	}
	write("\n")
	write(m.renderSubmit())
	if m.focus == len(m.fields) {
		top, bottom = tail, line
	}
	return b.String(), top, bottom
}

func (m Model) renderSubmit() string {
	if m.busy {
		return styles.DisabledButtonStyle.Render(m.spinner.View() + " " + BusyLabel)
	}
	style := styles.PrimaryButtonStyle
	if m.focus == len(m.fields) {
		style = styles.PrimaryButtonFocusedStyle
	}
	return zone.Mark(submitZoneID, style.Render(SubmitLabel))
}
