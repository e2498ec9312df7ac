package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"gitlab.com/tinyland/lab/pulse-console/pkg/bus"
)

// Options configures the root model.
type Options struct {
	// Title is shown in the header bar and the terminal window title.
	Title string

	// Theme names a built-in palette; see ThemeNames.
	Theme string
}

// Model is the root bubbletea model. It owns the widgets, routes keys to
// the focused one, and fans bus messages out to all of them.
type Model struct {
	title string
	theme Theme

	widgets        map[string]Widget
	widgetOrder    []string
	focusedWidget  string
	expandedWidget string

	width       int
	height      int
	layoutDirty bool

	keys     KeyMap
	help     help.Model
	showHelp bool

	// zones records where each panel was last drawn, for mouse hit tests.
	zones *zone.Manager

	updates  uint64
	quitting bool
}

// NewModel creates a model showing widgets in the given order. The first
// widget starts focused. Widgets with a duplicate ID are dropped.
func NewModel(opts Options, widgets ...Widget) Model {
	m := Model{
		title:       opts.Title,
		theme:       ThemeByName(opts.Theme),
		widgets:     make(map[string]Widget, len(widgets)),
		keys:        DefaultKeyMap(),
		help:        help.New(),
		zones:       zone.New(),
		layoutDirty: true,
	}
	for _, w := range widgets {
		if _, dup := m.widgets[w.ID()]; dup {
			continue
		}
		m.widgets[w.ID()] = w
		m.widgetOrder = append(m.widgetOrder, w.ID())
	}
	if len(m.widgetOrder) > 0 {
		m.focusedWidget = m.widgetOrder[0]
	}
	return m
}

// Init sets the terminal title. Refreshes arrive from the bus, so there is
// no tick command here.
func (m Model) Init() tea.Cmd {
	if m.title == "" {
		return nil
	}
	return tea.SetWindowTitle(m.title)
}

// Update handles a message and returns the updated model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.layoutDirty = true
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case WidgetFocusMsg:
		m.FocusWidget(msg.WidgetID)
		return m, nil

	case WidgetExpandMsg:
		if _, ok := m.widgets[msg.WidgetID]; ok {
			m.focusedWidget = msg.WidgetID
			m.expandedWidget = msg.WidgetID
		}
		return m, nil

	case BusMsg:
		if msg.Event.Name == bus.EventUpdate {
			m.updates++
		}
		return m, m.broadcast(msg)
	}

	return m, m.broadcast(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Next):
		m.CycleFocusForward()
		return m, nil
	case key.Matches(msg, m.keys.Prev):
		m.CycleFocusBackward()
		return m, nil
	case key.Matches(msg, m.keys.Expand):
		m.ToggleExpand()
		return m, nil
	case key.Matches(msg, m.keys.Back):
		m.expandedWidget = ""
		return m, nil
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil
	}

	if w, ok := m.widgets[m.focusedWidget]; ok {
		return m, w.HandleKey(msg)
	}
	return m, nil
}

// handleMouse turns a left click on a panel into a focus request, or an
// expand request when the panel already has focus.
func (m Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return nil
	}
	id := m.panelAt(msg)
	switch {
	case id == "":
		return nil
	case id != m.focusedWidget:
		return func() tea.Msg { return WidgetFocusMsg{WidgetID: id} }
	case id != m.expandedWidget:
		return func() tea.Msg { return WidgetExpandMsg{WidgetID: id} }
	}
	return nil
}

// panelAt returns the ID of the visible panel under the pointer, or "".
func (m Model) panelAt(msg tea.MouseMsg) string {
	ids := m.widgetOrder
	if m.expandedWidget != "" {
		ids = []string{m.expandedWidget}
	}
	for _, id := range ids {
		if z := m.zones.Get(panelZone(id)); z != nil && z.InBounds(msg) {
			return id
		}
	}
	return ""
}

// broadcast passes msg to every widget in order and batches their commands.
func (m Model) broadcast(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	for _, id := range m.widgetOrder {
		if cmd := m.widgets[id].Update(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

// Width returns the last known terminal width.
func (m Model) Width() int { return m.width }

// Height returns the last known terminal height.
func (m Model) Height() int { return m.height }

// LayoutDirty reports whether the terminal was resized since the last View.
func (m Model) LayoutDirty() bool { return m.layoutDirty }

// FocusedWidgetID returns the ID of the focused widget.
func (m Model) FocusedWidgetID() string { return m.focusedWidget }

// ExpandedWidgetID returns the ID of the fullscreen widget, or "".
func (m Model) ExpandedWidgetID() string { return m.expandedWidget }

// ThemeName returns the name of the active palette.
func (m Model) ThemeName() string { return m.theme.Name }

// Updates returns how many update events the model has seen.
func (m Model) Updates() uint64 { return m.updates }

// WidgetOrder returns the widget IDs in focus order.
func (m Model) WidgetOrder() []string {
	return append([]string(nil), m.widgetOrder...)
}
