// Package health publishes the console's liveness for outside observers
// when it runs headless: a JSON status document rewritten on every update
// and a PID file held for the life of the process.
package health

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ModuleState is the reported state of one registered module.
type ModuleState struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
}

// Status is the health document written to disk.
type Status struct {
	PID       int           `json:"pid"`
	StartedAt time.Time     `json:"started_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Ticks     uint64        `json:"ticks"`
	LastTick  time.Time     `json:"last_tick"`
	Interval  string        `json:"interval"`
	Modules   []ModuleState `json:"modules"`
	Stopped   bool          `json:"stopped,omitempty"`
}

// Healthy reports whether every module is healthy and the console has not
// stopped.
func (s *Status) Healthy() bool {
	if s.Stopped {
		return false
	}
	for _, m := range s.Modules {
		if !m.Healthy {
			return false
		}
	}
	return true
}

// WriteFile writes status as indented JSON to path. Content goes to a
// temporary file first and is renamed into place, so readers never see a
// partial document.
func WriteFile(path string, status *Status) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create health directory: %w", err)
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal health status: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp health file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename health file: %w", err)
	}
	return nil
}

// ReadFile reads and parses the health document at path.
func ReadFile(path string) (*Status, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read health file: %w", err)
	}

	var status Status
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("parse health file %s: %w", path, err)
	}
	return &status, nil
}
