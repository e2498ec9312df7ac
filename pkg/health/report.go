package health

import (
	"context"
	"errors"
	"os"
)

// Report is what an outside observer learns about a headless console from
// its health file and PID file.
type Report struct {
	Status *Status
	Owner  Owner

	// Running is true when the PID file names a live process.
	Running bool
}

// Healthy reports whether the console is running and its last status was
// healthy.
func (r *Report) Healthy() bool {
	return r.Running && r.Status != nil && r.Status.Healthy()
}

// Inspect reads the health file and checks whether the PID file owner is
// alive. A missing PID file means the console is not running; a missing
// health file is an error because there is nothing to report.
func Inspect(ctx context.Context, path, pidPath string) (*Report, error) {
	st, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	r := &Report{Status: st}
	if pidPath == "" {
		return r, nil
	}
	owner, err := LookupOwner(ctx, pidPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return r, nil
	case err != nil:
		return nil, err
	}
	r.Owner = owner
	r.Running = owner.Alive
	return r, nil
}
