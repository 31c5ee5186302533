package relay

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// DryRunner satisfies Runner without executing anything. Each would-be
// invocation is recorded and announced on the console so a dry run shows
// exactly which commands a real run would issue.
type DryRunner struct {
	Out io.Writer

	mu       sync.Mutex
	commands []string
}

func (d *DryRunner) console() io.Writer {
	if d.Out != nil {
		return d.Out
	}
	return os.Stdout
}

func (d *DryRunner) record(name string, args []string) string {
	cmdline := strings.Join(append([]string{name}, args...), " ")
	d.mu.Lock()
	d.commands = append(d.commands, cmdline)
	d.mu.Unlock()
	return cmdline
}

// Run announces the command and reports success.
func (d *DryRunner) Run(name string, args ...string) (Result, error) {
	cmdline := d.record(name, args)
	fmt.Fprintf(d.console(), "dry-run: would run %s\n", cmdline)
	return Result{Args: append([]string{name}, args...)}, nil
}

// RunUnchecked behaves like Run.
func (d *DryRunner) RunUnchecked(name string, args ...string) (Result, error) {
	return d.Run(name, args...)
}

// Output records the probe and returns empty output. Probes are read-only,
// so they are safe to skip entirely under dry run.
func (d *DryRunner) Output(name string, args ...string) (string, error) {
	d.record(name, args)
	return "", nil
}

// OutputWithInput records the probe and returns empty output. The input is
// not recorded; it may be key material.
func (d *DryRunner) OutputWithInput(input, name string, args ...string) (string, error) {
	d.record(name, args)
	return "", nil
}

// Commands returns the command lines recorded so far.
func (d *DryRunner) Commands() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.commands))
	copy(out, d.commands)
	return out
}
