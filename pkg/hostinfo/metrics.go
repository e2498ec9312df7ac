// Package hostinfo is a console module that refreshes host metrics on every
// update broadcast. It gathers CPU, memory, load, and uptime data with
// gopsutil and republishes the snapshot on the bus for widgets to render.
package hostinfo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// CPUMetrics holds aggregate CPU utilisation.
type CPUMetrics struct {
	// Total is the overall CPU usage percentage (0-100).
	Total float64 `json:"total"`

	// Count is the number of logical CPUs.
	Count int `json:"count"`
}

// MemoryMetrics holds physical memory statistics.
type MemoryMetrics struct {
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	Available   uint64  `json:"available"`
	UsedPercent float64 `json:"used_percent"`
}

// LoadMetrics holds system load averages.
type LoadMetrics struct {
	Load1  float64 `json:"load1"`
	Load5  float64 `json:"load5"`
	Load15 float64 `json:"load15"`
}

// Metrics is one host snapshot.
type Metrics struct {
	Hostname  string        `json:"hostname"`
	Platform  string        `json:"platform"`
	CPU       CPUMetrics    `json:"cpu"`
	Memory    MemoryMetrics `json:"memory"`
	Load      LoadMetrics   `json:"load"`
	Uptime    time.Duration `json:"uptime"`
	Timestamp time.Time     `json:"timestamp"`
}

// Source produces a Metrics snapshot. A non-nil error together with a
// non-nil *Metrics means partial data.
type Source interface {
	Collect(ctx context.Context) (*Metrics, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (*Metrics, error)

// Collect calls f.
func (f SourceFunc) Collect(ctx context.Context) (*Metrics, error) { return f(ctx) }

// GopsutilSource reads metrics from the running host.
type GopsutilSource struct{}

// subCollectors is how many independent reads Collect attempts.
const subCollectors = 4

// Collect gathers all host metrics. If individual reads fail the method
// still returns as much data as possible; errors are aggregated. A
// cancelled context returns immediately with an error.
func (GopsutilSource) Collect(ctx context.Context) (*Metrics, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	m := &Metrics{Timestamp: time.Now()}
	var errs []string

	if err := collectHost(ctx, m); err != nil {
		errs = append(errs, fmt.Sprintf("host: %v", err))
	}
	if err := collectCPU(ctx, m); err != nil {
		errs = append(errs, fmt.Sprintf("cpu: %v", err))
	}
	if err := collectMemory(ctx, m); err != nil {
		errs = append(errs, fmt.Sprintf("memory: %v", err))
	}
	if err := collectLoad(ctx, m); err != nil {
		errs = append(errs, fmt.Sprintf("load: %v", err))
	}

	if len(errs) == subCollectors {
		return nil, fmt.Errorf("hostinfo: all reads failed: %s", strings.Join(errs, "; "))
	}
	if len(errs) > 0 {
		return m, fmt.Errorf("hostinfo: partial errors: %s", strings.Join(errs, "; "))
	}
	return m, nil
}

func collectHost(ctx context.Context, m *Metrics) error {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return err
	}
	m.Hostname = info.Hostname
	m.Platform = strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
	m.Uptime = time.Duration(info.Uptime) * time.Second
	return nil
}

func collectCPU(ctx context.Context, m *Metrics) error {
	// interval=0 compares against the previous call, which is exactly one
	// update period ago once the module is running.
	total, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return err
	}
	count, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return err
	}
	if len(total) > 0 {
		m.CPU.Total = total[0]
	}
	m.CPU.Count = count
	return nil
}

func collectMemory(ctx context.Context, m *Metrics) error {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return err
	}
	m.Memory.Total = vm.Total
	m.Memory.Used = vm.Used
	m.Memory.Available = vm.Available
	m.Memory.UsedPercent = vm.UsedPercent
	return nil
}

func collectLoad(ctx context.Context, m *Metrics) error {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return err
	}
	m.Load.Load1 = avg.Load1
	m.Load.Load5 = avg.Load5
	m.Load.Load15 = avg.Load15
	return nil
}
