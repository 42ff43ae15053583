package eventview

import (
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/nexusofthings/nexus/internal/site"
	"github.com/nexusofthings/nexus/internal/ui/markdown"
)

func TestMain(m *testing.M) {
	zone.NewGlobal()
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

func TestNew_EmptyPayloadUsesPlaceholders(t *testing.T) {
	v := New("Error Erase", site.EventDetails{})

	require.Equal(t, View{
		Requested:        "Error Erase",
		Title:            "Error Erase",
		Description:      DefaultDescription,
		RoundsInfo:       DefaultRoundsInfo,
		Rules:            DefaultRules,
		TeamRequirements: DefaultTeamRequirements,
		Prizes:           DefaultPrizes,
		Faculty:          Faculty{Name: DefaultFacultyName, Designation: DefaultDesignation, Phone: Unavailable},
	}, v)
	require.Equal(t, "Error Erase", v.RegistrationTarget())
}

func TestNew_KeepsProvidedFields(t *testing.T) {
	v := New("idea", site.EventDetails{
		Title:                  "IdeaArena",
		Rules:                  "Be original.",
		FacultyCoordinatorName: "Dr. Rao",
		StudentCoordinators: []site.Coordinator{
			{Name: "Priya", Phone: "98765"},
			{},
		},
	})

	require.Equal(t, "IdeaArena", v.Title)
	require.Equal(t, "IdeaArena", v.RegistrationTarget())
	require.Equal(t, "Be original.", v.Rules)
	require.Equal(t, DefaultDescription, v.Description)
	require.Equal(t, "Dr. Rao", v.Faculty.Name)
	require.Equal(t, []Student{
		{Name: "Priya", RollNumber: Unavailable, Phone: "98765"},
		{Name: DefaultStudentName, RollNumber: Unavailable, Phone: Unavailable},
	}, v.Students)
}

func TestNew_BlankFieldsCountAsMissing(t *testing.T) {
	v := New("InnovWEB", site.EventDetails{Title: "  ", Prizes: "\n"})

	require.Equal(t, "InnovWEB", v.Title)
	require.Equal(t, DefaultPrizes, v.Prizes)
}

func TestRender_Sections(t *testing.T) {
	v := New("InnovWEB", site.EventDetails{
		Description: "Build a site.",
		StudentCoordinators: []site.Coordinator{
			{Name: "Kiran", RollNumber: "Y21CS010", Phone: "90000"},
		},
	})

	out := zone.Scan(v.Render(60, nil, false))

	for _, want := range []string{
		"InnovWEB",
		"Description", "Build a site.",
		"Event Structure", DefaultRoundsInfo,
		"Rules & Guidelines", DefaultRules,
		"Team Requirements", DefaultTeamRequirements,
		"Prizes",
		"Faculty Coordinator", "Designation: TBD",
		"Student Coordinator 1", "Name: Kiran", "Roll No: Y21CS010", "Phone: 90000",
		RegisterButtonLabel,
	} {
		require.Contains(t, out, want)
	}
	require.NotContains(t, out, NoStudentCoordinators)
}

func TestRender_NoStudents(t *testing.T) {
	out := zone.Scan(New("InnovWEB", site.EventDetails{}).Render(60, nil, false))

	require.Contains(t, out, NoStudentCoordinators)
}

func TestRender_FitsWidth(t *testing.T) {
	v := New("InnovWEB", site.EventDetails{
		Rules: "No internet search; IDEs allowed; solutions must be your own; partial credits for test-cases passed.",
	})

	out := zone.Scan(v.Render(40, markdown.New("plain"), true))

	for _, line := range strings.Split(out, "\n") {
		require.LessOrEqual(t, lipgloss.Width(line), 40, line)
	}
}

func TestRegisterClicked(t *testing.T) {
	v := New("InnovWEB", site.EventDetails{})

	var z *zone.ZoneInfo
	for retries := 0; retries < 10; retries++ {
		_ = zone.Scan(v.Render(60, nil, false))
		z = zone.Get(registerZoneID)
		if z != nil && !z.IsZero() {
			break
		}
		// Zone registration is asynchronous via a channel worker in bubblezone.
		time.Sleep(time.Millisecond)
	}
	require.NotNil(t, z)

	click := tea.MouseMsg{X: z.StartX + 1, Y: z.StartY, Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease}
	require.True(t, RegisterClicked(click))

	press := click
	press.Action = tea.MouseActionPress
	require.False(t, RegisterClicked(press))

	require.False(t, RegisterClicked(tea.MouseMsg{X: z.EndX + 5, Y: z.StartY, Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease}))
}

func TestRenderStatus(t *testing.T) {
	require.Contains(t, RenderStatus(LoadErrorText, 60), LoadErrorText)
	require.Contains(t, RenderStatus(LoadingText, 60), LoadingText)
}
