// Package tui is the terminal rendition of the console: a bubbletea program
// whose widgets refresh when bus events arrive. The package never ticks on
// its own; every refresh is driven by the application's update ticker via
// the Bridge.
package tui

import tea "github.com/charmbracelet/bubbletea"

// Widget is one panel of the console.
type Widget interface {
	// ID returns a unique identifier (e.g., "status", "host").
	ID() string

	// Title returns the text shown in the panel's border.
	Title() string

	// Update receives every message the root model sees, including BusMsg.
	Update(msg tea.Msg) tea.Cmd

	// View renders the widget into at most width x height cells.
	View(width, height int) string

	// MinSize returns the smallest useful width and height.
	MinSize() (int, int)

	// HandleKey receives key presses while the widget has focus.
	HandleKey(msg tea.KeyMsg) tea.Cmd
}
