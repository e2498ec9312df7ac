package tui

// CycleFocusForward moves focus to the next widget in the order list,
// wrapping around to the first widget after the last.
func (m *Model) CycleFocusForward() {
	if len(m.widgetOrder) == 0 {
		return
	}

	idx := m.focusedIndex()
	idx = (idx + 1) % len(m.widgetOrder)
	m.focusedWidget = m.widgetOrder[idx]
	m.followFocus()
}

// CycleFocusBackward moves focus to the previous widget in the order list,
// wrapping around to the last widget before the first.
func (m *Model) CycleFocusBackward() {
	if len(m.widgetOrder) == 0 {
		return
	}

	idx := m.focusedIndex()
	idx = (idx - 1 + len(m.widgetOrder)) % len(m.widgetOrder)
	m.focusedWidget = m.widgetOrder[idx]
	m.followFocus()
}

// FocusWidget directly sets focus to the widget with the given ID.
// If the ID is not found, focus does not change.
func (m *Model) FocusWidget(id string) {
	if _, ok := m.widgets[id]; ok {
		m.focusedWidget = id
		m.followFocus()
	}
}

// ToggleExpand toggles the focused widget between normal and fullscreen
// mode.
func (m *Model) ToggleExpand() {
	if m.focusedWidget == "" {
		return
	}

	if m.expandedWidget == m.focusedWidget {
		m.expandedWidget = ""
	} else {
		m.expandedWidget = m.focusedWidget
	}
}

// followFocus keeps fullscreen mode on the focused widget while cycling.
func (m *Model) followFocus() {
	if m.expandedWidget != "" {
		m.expandedWidget = m.focusedWidget
	}
}

// focusedIndex returns the index of the focused widget in the order list.
// Returns 0 if not found.
func (m *Model) focusedIndex() int {
	for i, id := range m.widgetOrder {
		if id == m.focusedWidget {
			return i
		}
	}
	return 0
}
