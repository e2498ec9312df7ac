package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const (
	colorAccent = lipgloss.Color("#7C3AED")
	colorDim    = lipgloss.Color("#6B7280")
	colorText   = lipgloss.Color("#E5E7EB")

	// gridColumns is the number of panels per row in the normal layout.
	gridColumns = 2
)

var (
	dimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	labelStyle = lipgloss.NewStyle().Foreground(colorDim)
	valueStyle = lipgloss.NewStyle().Foreground(colorText).Bold(true)
)

// View renders the header, the widget grid (or the expanded widget), and
// the help line.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width <= 0 || m.height <= 0 {
		return "Initializing..."
	}

	header := renderHeader(m.title, m.updates, m.width, m.theme)
	footer := m.help.View(m.keys)
	if footer == "" {
		footer = " "
	}
	footer = ansi.Truncate(footer, m.width, "")

	bodyH := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if bodyH < 3 {
		bodyH = 3
	}

	var body string
	if w, ok := m.widgets[m.expandedWidget]; ok {
		body = m.zones.Mark(panelZone(w.ID()), renderPanel(w, m.width, bodyH, true, m.theme))
	} else {
		body = m.renderGrid(m.width, bodyH)
	}

	return m.zones.Scan(lipgloss.JoinVertical(lipgloss.Left, header, body, footer))
}

// renderGrid lays widgets out in rows of gridColumns panels. The last
// column absorbs any leftover width and the last row any leftover height.
func (m Model) renderGrid(width, height int) string {
	n := len(m.widgetOrder)
	if n == 0 {
		return dimStyle.Render("no widgets configured")
	}

	cols := gridColumns
	if n < cols {
		cols = n
	}
	rows := (n + cols - 1) / cols

	rowH := height / rows
	var lines []string
	for r := 0; r < rows; r++ {
		h := rowH
		if r == rows-1 {
			h = height - rowH*(rows-1)
		}

		start := r * cols
		end := start + cols
		if end > n {
			end = n
		}
		inRow := end - start
		colW := width / inRow

		var panels []string
		for i, id := range m.widgetOrder[start:end] {
			w := colW
			if i == inRow-1 {
				w = width - colW*(inRow-1)
			}
			panel := renderPanel(m.widgets[id], w, h, id == m.focusedWidget, m.theme)
			panels = append(panels, m.zones.Mark(panelZone(id), panel))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, panels...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderPanel wraps a widget's view in a rounded border of exactly
// width x height cells. The title sits on the first inner line.
func renderPanel(w Widget, width, height int, focused bool, th Theme) string {
	innerW := width - 2
	innerH := height - 2
	if innerW < 1 {
		innerW = 1
	}
	if innerH < 1 {
		innerH = 1
	}

	border := th.Border
	if focused {
		border = th.BorderFocus
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(border).Render(ansi.Truncate(w.Title(), innerW, "…"))

	content := title
	if innerH > 1 {
		content += "\n" + fitBlock(w.View(innerW, innerH-1), innerW, innerH-1)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(innerW).
		Height(innerH).
		MaxHeight(height).
		Render(content)
}

// renderHeader renders the one-line title bar with the update counter.
func renderHeader(title string, updates uint64, width int, th Theme) string {
	if title == "" {
		title = "pulse console"
	}
	left := lipgloss.NewStyle().Bold(true).
		Foreground(th.Foreground).
		Background(th.Accent).
		Padding(0, 1).
		Render(title)
	right := lipgloss.NewStyle().Foreground(th.Dim).Render(fmt.Sprintf("updates %d", updates))

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return ansi.Truncate(left, width, "")
	}
	return left + strings.Repeat(" ", gap) + right
}

// panelZone is the mouse zone ID of a widget's panel.
func panelZone(id string) string {
	return "panel:" + id
}

// fitBlock truncates each line of s to width cells and drops lines past
// height.
func fitBlock(s string, width, height int) string {
	if height <= 0 || width <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, l := range lines {
		lines[i] = ansi.Truncate(l, width, "…")
	}
	return strings.Join(lines, "\n")
}

// kv renders a "label  value" row.
func kv(label, value string) string {
	return labelStyle.Render(label) + " " + valueStyle.Render(value)
}
