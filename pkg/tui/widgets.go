package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"gitlab.com/tinyland/lab/pulse-console/pkg/bus"
	"gitlab.com/tinyland/lab/pulse-console/pkg/config"
)

// StatusWidget shows the update cadence: the interval, how many updates
// have been seen, and when the last one arrived.
type StatusWidget struct {
	interval time.Duration
	updates  uint64
	last     time.Time
	stopping bool
}

// NewStatusWidget creates a status panel for the given update interval.
func NewStatusWidget(interval time.Duration) *StatusWidget {
	return &StatusWidget{interval: interval}
}

func (w *StatusWidget) ID() string    { return config.WidgetStatus }
func (w *StatusWidget) Title() string { return "Status" }

// Update counts update events and notes shutdown.
func (w *StatusWidget) Update(msg tea.Msg) tea.Cmd {
	bm, ok := msg.(BusMsg)
	if !ok {
		return nil
	}
	switch bm.Event.Name {
	case bus.EventUpdate:
		w.updates++
		w.last = bm.Received
	case bus.EventShutdown:
		w.stopping = true
	}
	return nil
}

func (w *StatusWidget) View(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	last := "never"
	if !w.last.IsZero() {
		last = w.last.Format("15:04:05")
	}
	state := "running"
	if w.stopping {
		state = "stopping"
	}
	lines := []string{
		kv("state   ", state),
		kv("interval", w.interval.String()),
		kv("updates ", humanize.Comma(int64(w.updates))),
		kv("last    ", last),
	}
	return fitBlock(strings.Join(lines, "\n"), width, height)
}

func (w *StatusWidget) MinSize() (int, int)            { return 20, 4 }
func (w *StatusWidget) HandleKey(_ tea.KeyMsg) tea.Cmd { return nil }

// Updates returns how many update events the widget has counted.
func (w *StatusWidget) Updates() uint64 { return w.updates }

// ModulesWidget lists the registered modules.
type ModulesWidget struct {
	list  func() []string
	names []string
}

// NewModulesWidget creates a panel that reads module names from list.
// The list is re-read when a module registers and on every update.
func NewModulesWidget(list func() []string) *ModulesWidget {
	w := &ModulesWidget{list: list}
	w.refresh()
	return w
}

func (w *ModulesWidget) refresh() {
	if w.list == nil {
		w.names = nil
		return
	}
	names := w.list()
	sort.Strings(names)
	w.names = names
}

func (w *ModulesWidget) ID() string    { return config.WidgetModules }
func (w *ModulesWidget) Title() string { return "Modules" }

func (w *ModulesWidget) Update(msg tea.Msg) tea.Cmd {
	if bm, ok := msg.(BusMsg); ok {
		switch bm.Event.Name {
		case bus.EventModuleRegistered, bus.EventUpdate:
			w.refresh()
		}
	}
	return nil
}

func (w *ModulesWidget) View(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	if len(w.names) == 0 {
		return dimStyle.Render("no modules")
	}
	lines := make([]string, 0, len(w.names))
	for _, n := range w.names {
		lines = append(lines, "• "+n)
	}
	return fitBlock(strings.Join(lines, "\n"), width, height)
}

func (w *ModulesWidget) MinSize() (int, int)            { return 16, 3 }
func (w *ModulesWidget) HandleKey(_ tea.KeyMsg) tea.Cmd { return nil }

// Names returns the module names last read.
func (w *ModulesWidget) Names() []string { return append([]string(nil), w.names...) }

// DefaultEventHistory is how many bus events the events panel keeps.
const DefaultEventHistory = 64

type eventEntry struct {
	name string
	at   time.Time
}

// EventsWidget is a rolling log of bus traffic, newest first.
type EventsWidget struct {
	entries []eventEntry
	limit   int
	counts  map[string]uint64
}

// NewEventsWidget creates an events panel keeping at most limit entries.
// A non-positive limit uses DefaultEventHistory.
func NewEventsWidget(limit int) *EventsWidget {
	if limit <= 0 {
		limit = DefaultEventHistory
	}
	return &EventsWidget{limit: limit, counts: make(map[string]uint64)}
}

func (w *EventsWidget) ID() string    { return config.WidgetEvents }
func (w *EventsWidget) Title() string { return "Events" }

func (w *EventsWidget) Update(msg tea.Msg) tea.Cmd {
	bm, ok := msg.(BusMsg)
	if !ok {
		return nil
	}
	w.counts[bm.Event.Name]++
	w.entries = append(w.entries, eventEntry{name: bm.Event.Name, at: bm.Received})
	if len(w.entries) > w.limit {
		w.entries = w.entries[len(w.entries)-w.limit:]
	}
	return nil
}

func (w *EventsWidget) View(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	if len(w.entries) == 0 {
		return dimStyle.Render("waiting for events")
	}
	lines := make([]string, 0, height)
	for i := len(w.entries) - 1; i >= 0 && len(lines) < height; i-- {
		e := w.entries[i]
		lines = append(lines, dimStyle.Render(e.at.Format("15:04:05"))+" "+e.name)
	}
	return fitBlock(strings.Join(lines, "\n"), width, height)
}

func (w *EventsWidget) MinSize() (int, int)            { return 24, 3 }
func (w *EventsWidget) HandleKey(_ tea.KeyMsg) tea.Cmd { return nil }

// Len returns the number of retained entries.
func (w *EventsWidget) Len() int { return len(w.entries) }

// Count returns how many events named name were seen in total.
func (w *EventsWidget) Count(name string) uint64 { return w.counts[name] }

// PlaceholderWidget displays its title and the size it was rendered at.
// The console uses it for widgets whose backing module is disabled.
type PlaceholderWidget struct {
	id    string
	title string
	note  string
}

// NewPlaceholder creates a placeholder with an optional note line.
func NewPlaceholder(id, title, note string) *PlaceholderWidget {
	return &PlaceholderWidget{id: id, title: title, note: note}
}

func (w *PlaceholderWidget) ID() string                     { return w.id }
func (w *PlaceholderWidget) Title() string                  { return w.title }
func (w *PlaceholderWidget) Update(_ tea.Msg) tea.Cmd       { return nil }
func (w *PlaceholderWidget) MinSize() (int, int)            { return 10, 3 }
func (w *PlaceholderWidget) HandleKey(_ tea.KeyMsg) tea.Cmd { return nil }

// View centers the title, the note, and the render size vertically.
func (w *PlaceholderWidget) View(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}

	body := []string{lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Render(w.title)}
	if w.note != "" {
		body = append(body, dimStyle.Render(w.note))
	}
	body = append(body, dimStyle.Render(fmt.Sprintf("%dx%d", width, height)))
	if len(body) > height {
		body = body[:height]
	}

	lines := make([]string, 0, height)
	for i := 0; i < (height-len(body))/2; i++ {
		lines = append(lines, "")
	}
	lines = append(lines, body...)
	for len(lines) < height {
		lines = append(lines, "")
	}
	return fitBlock(strings.Join(lines, "\n"), width, height)
}
