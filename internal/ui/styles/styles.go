// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Text hierarchy
	TextPrimaryColor     = lipgloss.AdaptiveColor{Light: "#2D3436", Dark: "#CCCCCC"}
	TextSecondaryColor   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"}
	TextMutedColor       = lipgloss.AdaptiveColor{Light: "#888888", Dark: "#696969"} // Hints, help text, footers
	TextDescriptionColor = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"}
	TextPlaceholderColor = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#777777"}

	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#BBBBBB", Dark: "#696969"}

	// Accent drives focus borders, the selection marker and the splash title.
	AccentColor = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#54A0FF"}

	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#DF8E1D", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#D20F39", Dark: "#FF8787"}

	// Button colors
	ButtonTextColor             = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FFFFFF"}
	ButtonPrimaryBgColor        = lipgloss.AdaptiveColor{Light: "#1A5276", Dark: "#1A5276"}
	ButtonPrimaryFocusBgColor   = lipgloss.AdaptiveColor{Light: "#3498DB", Dark: "#3498DB"}
	ButtonSecondaryBgColor      = lipgloss.AdaptiveColor{Light: "#2D3436", Dark: "#2D3436"}
	ButtonSecondaryFocusBgColor = lipgloss.AdaptiveColor{Light: "#636E72", Dark: "#636E72"}
	ButtonDisabledBgColor       = lipgloss.AdaptiveColor{Light: "#9E9E9E", Dark: "#2D2D2D"}

	SelectionIndicatorStyle = lipgloss.NewStyle().Bold(true).Foreground(AccentColor)

	baseButtonStyle = lipgloss.NewStyle().Padding(0, 2).Bold(true)

	PrimaryButtonStyle = baseButtonStyle.
				Foreground(ButtonTextColor).
				Background(ButtonPrimaryBgColor)

	PrimaryButtonFocusedStyle = baseButtonStyle.
					Foreground(ButtonTextColor).
					Background(ButtonPrimaryFocusBgColor).
					Underline(true).
					UnderlineSpaces(true)

	SecondaryButtonStyle = baseButtonStyle.
				Foreground(ButtonTextColor).
				Background(ButtonSecondaryBgColor)

	SecondaryButtonFocusedStyle = baseButtonStyle.
					Foreground(ButtonTextColor).
					Background(ButtonSecondaryFocusBgColor).
					Underline(true).
					UnderlineSpaces(true)

	DisabledButtonStyle = baseButtonStyle.
				Foreground(TextMutedColor).
				Background(ButtonDisabledBgColor)

	// Overlay colors
	OverlayTitleColor  = lipgloss.AdaptiveColor{Light: "#2D3436", Dark: "#C9C9C9"}
	OverlayBorderColor = lipgloss.AdaptiveColor{Light: "#BBBBBB", Dark: "#8C8C8C"}

	// Toast notification colors
	ToastBorderSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	ToastBorderErrorColor   = lipgloss.AdaptiveColor{Light: "#D20F39", Dark: "#FF8787"}
	ToastBorderInfoColor    = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#54A0FF"}

	// Field validation messages
	ErrorTextStyle = lipgloss.NewStyle().Foreground(StatusErrorColor)

	HintStyle = lipgloss.NewStyle().Foreground(TextMutedColor)

	SpinnerColor = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#FFF"}
)

// Theme holds color overrides from the config file. Empty fields keep the
// built-in color.
type Theme struct {
	Accent  string `mapstructure:"accent"`
	Muted   string `mapstructure:"muted"`
	Error   string `mapstructure:"error"`
	Success string `mapstructure:"success"`
}

// ApplyTheme replaces the package colors named in t and rebuilds the
// styles derived from them.
func ApplyTheme(t Theme) {
	if t.Accent != "" {
		AccentColor = lipgloss.AdaptiveColor{Light: t.Accent, Dark: t.Accent}
		ToastBorderInfoColor = AccentColor
	}
	if t.Muted != "" {
		TextMutedColor = lipgloss.AdaptiveColor{Light: t.Muted, Dark: t.Muted}
		BorderDefaultColor = TextMutedColor
	}
	if t.Error != "" {
		StatusErrorColor = lipgloss.AdaptiveColor{Light: t.Error, Dark: t.Error}
		ToastBorderErrorColor = StatusErrorColor
	}
	if t.Success != "" {
		StatusSuccessColor = lipgloss.AdaptiveColor{Light: t.Success, Dark: t.Success}
		ToastBorderSuccessColor = StatusSuccessColor
	}

	SelectionIndicatorStyle = lipgloss.NewStyle().Bold(true).Foreground(AccentColor)
	DisabledButtonStyle = baseButtonStyle.Foreground(TextMutedColor).Background(ButtonDisabledBgColor)
	ErrorTextStyle = lipgloss.NewStyle().Foreground(StatusErrorColor)
	HintStyle = lipgloss.NewStyle().Foreground(TextMutedColor)
}
