package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// sparkBlocks holds the 8 vertical levels of one sparkline cell.
var sparkBlocks = [8]rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

var sparkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#64B5F6"))

// series is a fixed-capacity history of samples, oldest first.
type series struct {
	cap  int
	data []float64
}

func newSeries(capacity int) *series {
	if capacity < 1 {
		capacity = 1
	}
	return &series{cap: capacity}
}

// Push appends v, dropping the oldest sample when full.
func (s *series) Push(v float64) {
	s.data = append(s.data, v)
	if len(s.data) > s.cap {
		s.data = s.data[len(s.data)-s.cap:]
	}
}

// Len returns the number of stored samples.
func (s *series) Len() int { return len(s.data) }

// Values returns a copy of the stored samples.
func (s *series) Values() []float64 {
	return append([]float64(nil), s.data...)
}

// sparkline renders the last width points of data on a fixed [lo, hi]
// scale. Values outside the range are clamped.
func sparkline(data []float64, width int, lo, hi float64) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}
	return sparkStyle.Render(sparkMap(data, lo, hi))
}

// sparkMap maps values to block characters. A flat range renders at
// mid-height.
func sparkMap(data []float64, lo, hi float64) string {
	var b strings.Builder
	span := hi - lo
	for _, v := range data {
		idx := 3
		if span > 0 {
			n := (v - lo) / span
			n = math.Max(0, math.Min(1, n))
			idx = int(math.Round(n * 7))
		}
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}
