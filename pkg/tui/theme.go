package tui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the console palette.
type Theme struct {
	Name string

	Foreground  lipgloss.Color
	Dim         lipgloss.Color
	Accent      lipgloss.Color
	Border      lipgloss.Color
	BorderFocus lipgloss.Color
	ChartLine   lipgloss.Color
}

var themes = map[string]Theme{}

func init() {
	for _, t := range []Theme{
		{
			Name:        "default",
			Foreground:  "#E5E7EB",
			Dim:         "#6B7280",
			Accent:      "#7C3AED",
			Border:      "#6B7280",
			BorderFocus: "#7C3AED",
			ChartLine:   "#64B5F6",
		},
		{
			Name:        "gruvbox",
			Foreground:  "#ebdbb2",
			Dim:         "#928374",
			Accent:      "#fe8019",
			Border:      "#504945",
			BorderFocus: "#fe8019",
			ChartLine:   "#b8bb26",
		},
		{
			Name:        "nord",
			Foreground:  "#eceff4",
			Dim:         "#4c566a",
			Accent:      "#88c0d0",
			Border:      "#3b4252",
			BorderFocus: "#88c0d0",
			ChartLine:   "#a3be8c",
		},
		{
			Name:        "dracula",
			Foreground:  "#f8f8f2",
			Dim:         "#6272a4",
			Accent:      "#bd93f9",
			Border:      "#44475a",
			BorderFocus: "#bd93f9",
			ChartLine:   "#50fa7b",
		},
	} {
		themes[t.Name] = t
	}
}

// ThemeByName returns a built-in theme, falling back to "default" when the
// name is not recognized. Lookup is case-insensitive.
func ThemeByName(name string) Theme {
	if t, ok := themes[strings.ToLower(name)]; ok {
		return t
	}
	return themes["default"]
}

// ThemeNames returns the built-in theme names sorted alphabetically.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
