package tui

import (
	"time"

	"gitlab.com/tinyland/lab/pulse-console/pkg/bus"
)

// BusMsg carries one bus event into the bubbletea update loop. Widgets
// switch on Event.Name and type-assert Event.Payload.
type BusMsg struct {
	Event    bus.Event
	Received time.Time
}

// WidgetFocusMsg requests that focus move to a specific widget.
type WidgetFocusMsg struct {
	WidgetID string
}

// WidgetExpandMsg focuses a widget and shows it fullscreen.
type WidgetExpandMsg struct {
	WidgetID string
}
