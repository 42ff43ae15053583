// Package eventview turns an event detail payload into the body of the
// detail modal. Missing fields are replaced with placeholder text once,
// when the view is built, so rendering never sees an empty field.
package eventview

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/nexusofthings/nexus/internal/site"
	"github.com/nexusofthings/nexus/internal/ui/markdown"
	"github.com/nexusofthings/nexus/internal/ui/styles"
)

// Placeholder texts for fields the site left empty.
const (
	DefaultDescription      = "Details will be updated soon."
	DefaultRoundsInfo       = "Structure will be shared soon."
	DefaultRules            = "Rules will be announced shortly."
	DefaultTeamRequirements = "Refer to rules for team size."
	DefaultPrizes           = "Prize details will be announced during the event."
	DefaultFacultyName      = "Faculty Coordinator"
	DefaultDesignation      = "TBD"
	DefaultStudentName      = "TBD"
	Unavailable             = "N/A"
	NoStudentCoordinators   = "Student coordinators will be updated shortly."
)

// Status texts shown in place of the details.
const (
	LoadingText   = "Loading event details..."
	LoadErrorText = "Could not load details. Please try again later."
)

// RegisterButtonLabel is the label of the action that opens registration.
const RegisterButtonLabel = "Register Now"

const registerZoneID = "eventview-register"

// Faculty is the faculty coordinator card.
type Faculty struct {
	Name        string
	Designation string
	Phone       string
}

// Student is one student coordinator card.
type Student struct {
	Name       string
	RollNumber string
	Phone      string
}

// View is the display form of an event. Every field is non-empty.
type View struct {
	Requested        string
	Title            string
	Description      string
	RoundsInfo       string
	Rules            string
	TeamRequirements string
	Prizes           string
	Faculty          Faculty
	Students         []Student
}

// New builds the view for the event requested as name.
func New(name string, d site.EventDetails) View {
	v := View{
		Requested:        name,
		Title:            orDefault(d.Title, name),
		Description:      orDefault(d.Description, DefaultDescription),
		RoundsInfo:       orDefault(d.RoundsInfo, DefaultRoundsInfo),
		Rules:            orDefault(d.Rules, DefaultRules),
		TeamRequirements: orDefault(d.TeamRequirements, DefaultTeamRequirements),
		Prizes:           orDefault(d.Prizes, DefaultPrizes),
		Faculty: Faculty{
			Name:        orDefault(d.FacultyCoordinatorName, DefaultFacultyName),
			Designation: orDefault(d.FacultyCoordinatorDesignation, DefaultDesignation),
			Phone:       orDefault(d.FacultyCoordinatorPhone, Unavailable),
		},
	}
	for _, c := range d.StudentCoordinators {
		v.Students = append(v.Students, Student{
			Name:       orDefault(c.Name, DefaultStudentName),
			RollNumber: orDefault(c.RollNumber, Unavailable),
			Phone:      orDefault(c.Phone, Unavailable),
		})
	}
	return v
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// RegistrationTarget is the event name registration opens for: the
// returned title, which New already defaults to the requested name.
func (v View) RegistrationTarget() string {
	return v.Title
}

// Render lays the view out for a body of the given width. Free text goes
// through md when it is non-nil.
func (v View) Render(width int, md *markdown.Renderer, registerFocused bool) string {
	heading := lipgloss.NewStyle().Bold(true).Foreground(styles.AccentColor)
	label := lipgloss.NewStyle().Bold(true)

	text := func(s string) string {
		return md.RenderOrPlain(s, width-2)
	}

	var b strings.Builder
	b.WriteString(heading.Render(v.Title) + "\n\n")

	sections := []struct{ title, body string }{
		{"Description", v.Description},
		{"Event Structure", v.RoundsInfo},
		{"Rules & Guidelines", v.Rules},
		{"Team Requirements", v.TeamRequirements},
		{"Prizes", v.Prizes},
	}
	for _, s := range sections {
		b.WriteString(styles.RenderSection(strings.Split(wrap(text(s.body), width-2), "\n"), s.title, "", width, false))
		b.WriteString("\n")
	}

	var cards []string
	cards = append(cards,
		label.Render("Faculty Coordinator"),
		"Name: "+v.Faculty.Name,
		"Designation: "+v.Faculty.Designation,
		"Phone: "+v.Faculty.Phone,
	)
	if len(v.Students) == 0 {
		cards = append(cards, "", NoStudentCoordinators)
	}
	for i, s := range v.Students {
		cards = append(cards, "",
			label.Render(fmt.Sprintf("Student Coordinator %d", i+1)),
			"Name: "+s.Name,
			"Roll No: "+s.RollNumber,
			"Phone: "+s.Phone,
		)
	}
	b.WriteString(styles.RenderSection(cards, "Coordinators", "", width, false))
	b.WriteString("\n\n")

	button := RegisterButton(registerFocused)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Right, button))
	return b.String()
}

func wrap(s string, width int) string {
	return lipgloss.NewStyle().Width(max(width, 1)).Render(s)
}

// RegisterButton renders the "Register Now" action as a clickable zone.
func RegisterButton(focused bool) string {
	style := styles.PrimaryButtonStyle
	if focused {
		style = styles.PrimaryButtonFocusedStyle
	}
	return zone.Mark(registerZoneID, style.Render(RegisterButtonLabel))
}

// RegisterClicked reports whether msg is a click on the register button.
func RegisterClicked(msg tea.MouseMsg) bool {
	if msg.Button != tea.MouseButtonLeft || msg.Action != tea.MouseActionRelease {
		return false
	}
	z := zone.Get(registerZoneID)
	return z != nil && z.InBounds(msg)
}

// RenderStatus renders the loading or error text that stands in for the
// details.
func RenderStatus(text string, width int) string {
	style := lipgloss.NewStyle().Width(width).Foreground(styles.TextDescriptionColor)
	if text == LoadErrorText {
		style = style.Foreground(styles.StatusErrorColor)
	}
	return style.Render(text)
}
