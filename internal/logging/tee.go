package logging

import (
	"fmt"
	"io"
	"os"
)

// flusher is implemented by writers that can force buffered data out.
type flusher interface {
	Flush() error
}

// Tee duplicates every write onto a console stream and a log file. The
// console always wins: it is written and flushed first, and a failure on
// the log-file side is reduced to a single warning line on the console. A
// logging malfunction must never abort the operation being logged.
type Tee struct {
	console io.Writer
	logFile io.Writer
}

// NewTee wraps the given console stream and log file handle.
func NewTee(console, logFile io.Writer) *Tee {
	return &Tee{console: console, logFile: logFile}
}

// Write writes data to the console first for immediate feedback, then
// best-effort to the log file. The returned count and error reflect the
// console write only.
func (t *Tee) Write(p []byte) (int, error) {
	n, err := t.console.Write(p)
	t.flushConsole()

	if _, lerr := t.logFile.Write(p); lerr != nil {
		fmt.Fprintf(t.console, "\n[WARNING] Failed to write to log file: %v\n", lerr)
	} else {
		t.flushLog()
	}

	return n, err
}

// Flush flushes both streams. Log-file flush errors are ignored.
func (t *Tee) Flush() error {
	err := t.flushConsole()
	t.flushLog()
	return err
}

// Fd exposes the console's file descriptor so consumers that introspect
// the stream (terminal detection, ioctls) behave as if the tee were not
// installed. Returns ^uintptr(0) when the console is not an *os.File.
func (t *Tee) Fd() uintptr {
	if f, ok := t.console.(*os.File); ok {
		return f.Fd()
	}
	return ^uintptr(0)
}

// IsTerminal reports whether the underlying console is an interactive
// terminal.
func (t *Tee) IsTerminal() bool {
	f, ok := t.console.(*os.File)
	if !ok {
		return false
	}
	return isTerminal(f.Fd())
}

func (t *Tee) flushConsole() error {
	switch c := t.console.(type) {
	case *os.File:
		// Unbuffered; Sync would force a disk write, which is wrong for a
		// terminal. Nothing to do.
		return nil
	case flusher:
		return c.Flush()
	default:
		_ = c
		return nil
	}
}

func (t *Tee) flushLog() {
	// *os.File writes are unbuffered; only explicit buffering needs a kick.
	if l, ok := t.logFile.(flusher); ok {
		_ = l.Flush()
	}
}
