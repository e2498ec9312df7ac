package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"gitlab.com/tinyland/lab/pulse-console/pkg/bus"
	"gitlab.com/tinyland/lab/pulse-console/pkg/config"
	"gitlab.com/tinyland/lab/pulse-console/pkg/hostinfo"
)

// cpuHistory is how many CPU samples the host panel keeps for its
// sparkline.
const cpuHistory = 120

// HostWidget renders the latest host metrics snapshot.
type HostWidget struct {
	latest *hostinfo.Metrics
	cpu    *series
}

// NewHostWidget creates an empty host panel.
func NewHostWidget() *HostWidget {
	return &HostWidget{cpu: newSeries(cpuHistory)}
}

func (w *HostWidget) ID() string    { return config.WidgetHost }
func (w *HostWidget) Title() string { return "Host" }

// Update stores host metrics snapshots. Other messages are ignored.
func (w *HostWidget) Update(msg tea.Msg) tea.Cmd {
	bm, ok := msg.(BusMsg)
	if !ok || bm.Event.Name != bus.EventHostMetrics {
		return nil
	}
	m, ok := bm.Event.Payload.(*hostinfo.Metrics)
	if !ok || m == nil {
		return nil
	}
	w.latest = m
	w.cpu.Push(m.CPU.Total)
	return nil
}

func (w *HostWidget) View(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	m := w.latest
	if m == nil {
		return dimStyle.Render("collecting...")
	}

	name := m.Hostname
	if m.Platform != "" {
		name += " (" + m.Platform + ")"
	}
	lines := []string{
		valueStyle.Render(name),
		kv("cpu   ", fmt.Sprintf("%5.1f%% of %d", m.CPU.Total, m.CPU.Count)),
		kv("mem   ", fmt.Sprintf("%s / %s (%.0f%%)",
			humanize.IBytes(m.Memory.Used), humanize.IBytes(m.Memory.Total), m.Memory.UsedPercent)),
		kv("load  ", fmt.Sprintf("%.2f %.2f %.2f", m.Load.Load1, m.Load.Load5, m.Load.Load15)),
		kv("uptime", m.Uptime.Truncate(time.Second).String()),
	}
	if w.cpu.Len() > 1 {
		lines = append(lines, sparkline(w.cpu.Values(), width, 0, 100))
	}
	return fitBlock(strings.Join(lines, "\n"), width, height)
}

func (w *HostWidget) MinSize() (int, int)            { return 28, 6 }
func (w *HostWidget) HandleKey(_ tea.KeyMsg) tea.Cmd { return nil }

// Latest returns the last snapshot received, or nil.
func (w *HostWidget) Latest() *hostinfo.Metrics { return w.latest }
