package health

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// ErrAlreadyRunning is returned by AcquirePID while a live process holds
// the PID file.
var ErrAlreadyRunning = errors.New("health: console already running")

// Owner is the process named by a PID file.
type Owner struct {
	PID   int
	Alive bool
}

// Self reports whether the owner is the calling process.
func (o Owner) Self() bool { return o.PID == os.Getpid() }

// LookupOwner reads the PID file at path and asks the process table
// whether that PID still exists.
func LookupOwner(ctx context.Context, path string) (Owner, error) {
	pid, err := readPID(path)
	if err != nil {
		return Owner{}, err
	}
	alive, err := process.PidExistsWithContext(ctx, int32(pid))
	if err != nil {
		return Owner{PID: pid}, fmt.Errorf("check PID %d: %w", pid, err)
	}
	return Owner{PID: pid, Alive: alive}, nil
}

// AcquirePID writes the current PID to path. A file naming this process, a
// dead one, or nothing readable is replaced.
func AcquirePID(ctx context.Context, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create PID directory: %w", err)
	}

	if owner, err := LookupOwner(ctx, path); err == nil && owner.Alive && !owner.Self() {
		return fmt.Errorf("%w (PID %d)", ErrAlreadyRunning, owner.PID)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return fmt.Errorf("write temp PID file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename PID file: %w", err)
	}
	return nil
}

// ReleasePID removes the PID file if it still names this process. A file
// taken over by another console is left alone, and a missing file is not an
// error.
func ReleasePID(path string) error {
	pid, err := readPID(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err == nil && pid != os.Getpid():
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove PID file: %w", err)
	}
	return nil
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read PID file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse PID file %s: %w", path, err)
	}
	if pid <= 0 || pid > math.MaxInt32 {
		return 0, fmt.Errorf("parse PID file %s: PID %d out of range", path, pid)
	}
	return pid, nil
}
