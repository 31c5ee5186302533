package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/ni/nilrt-snac/internal/brand"
	"github.com/ni/nilrt-snac/internal/clock"
	"github.com/ni/nilrt-snac/internal/snacerr"
)

// Log file and directory permissions. The file mode is applied at creation
// time so there is no window where the log is world-readable.
const (
	LogFileMode os.FileMode = 0o640 // owner: rw, group: r, others: none
	LogDirMode  os.FileMode = 0o750 // owner: rwx, group: rx, others: none
)

const separator = "================================================================================"

// Options controls how a log session is opened.
type Options struct {
	// Disabled skips capture entirely (--no-log). Begin returns a Session
	// whose End is a no-op.
	Disabled bool
	// LogDir overrides the log directory. Defaults to brand.GetLogDir().
	LogDir string
	// Group overrides the audit group. Defaults to brand.AuditGroup.
	Group string
	// Clock overrides the time source (timestamped filenames, header,
	// footer). Defaults to the real clock.
	Clock clock.Clock
}

// Session captures all process output for the duration of one configure or
// verify invocation. It installs a Tee over os.Stdout and os.Stderr and
// redirects the default structured logger through the tee'd stderr, so the
// log file holds a single interleaved record of everything the operator
// saw. End restores every stream it touched and is safe to defer on any
// exit path.
type Session struct {
	command  string
	id       uuid.UUID
	start    time.Time
	path     string
	file     *os.File
	clk      clock.Clock
	disabled bool
	ended    bool

	origStdout *os.File
	origStderr *os.File
	outW       *os.File
	errW       *os.File
	pumps      sync.WaitGroup
	prevSink   io.Writer
}

// At most one session may be active per process; nested capture would tee
// the tee and corrupt restoration order.
var (
	activeMu sync.Mutex
	active   bool
)

// Begin opens the log file, writes the header, and installs output capture.
// The caller must arrange for End to run on every exit path:
//
//	sess, err := logging.Begin("configure", os.Args[1:], opts)
//	if err != nil { return err }
//	defer func() { sess.End(code) }()
func Begin(command string, argv []string, opts Options) (*Session, error) {
	if opts.Disabled {
		return &Session{command: command, disabled: true}, nil
	}

	activeMu.Lock()
	if active {
		activeMu.Unlock()
		return nil, snacerr.New(snacerr.ExError, "a log session is already active")
	}
	active = true
	activeMu.Unlock()

	s := &Session{
		command: command,
		id:      uuid.New(),
		clk:     opts.Clock,
	}
	if s.clk == nil {
		s.clk = &clock.RealClock{}
	}
	s.start = s.clk.Now()

	logDir := opts.LogDir
	if logDir == "" {
		logDir = brand.GetLogDir()
	}
	group := opts.Group
	if group == "" {
		group = brand.AuditGroup
	}

	gid, gidOK := lookupGID(group)

	if err := ensureLogDir(logDir, gid, gidOK); err != nil {
		s.release()
		return nil, err
	}

	s.path = fmt.Sprintf("%s/%s-%s.log", logDir, command, s.start.Format("20060102-150405"))

	fd, err := unix.Open(s.path, unix.O_WRONLY|unix.O_CREAT|unix.O_EXCL, uint32(LogFileMode))
	if err != nil {
		s.release()
		switch {
		case errors.Is(err, unix.EEXIST):
			return nil, snacerr.Wrap(snacerr.ExError, err,
				"log file %s already exists; this may indicate a clock issue or rapid re-execution", s.path)
		case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
			return nil, snacerr.Wrap(snacerr.ExBadEnvironment, err, "permission denied creating log file %s", s.path)
		default:
			return nil, snacerr.Wrap(snacerr.ExBadEnvironment, err, "failed to create log file %s", s.path)
		}
	}
	s.file = os.NewFile(uintptr(fd), s.path)

	if gidOK {
		if err := unix.Fchown(fd, -1, gid); err != nil {
			Warn("Could not set log file group ownership", "group", group, "error", err)
		}
	}

	s.writeHeader(command, argv)

	if err := s.installCapture(); err != nil {
		s.file.Close()
		s.release()
		return nil, snacerr.Wrap(snacerr.ExError, err, "failed to install output capture")
	}

	return s, nil
}

// Path returns the log file location, or "" when logging is disabled.
func (s *Session) Path() string {
	if s == nil || s.disabled {
		return ""
	}
	return s.path
}

// ID returns the session identifier, or "" when logging is disabled.
func (s *Session) ID() string {
	if s == nil || s.disabled {
		return ""
	}
	return s.id.String()
}

// End restores the original streams and log sink, writes the footer, and
// closes the log file. It runs unconditionally on every exit path and
// swallows teardown errors so the finalizer itself cannot fail. Calling it
// more than once is harmless.
func (s *Session) End(exitCode int) {
	if s == nil || s.disabled || s.ended {
		return
	}
	s.ended = true

	// Restore the structured-log sink and the process streams before
	// composing the footer, so the footer write is not re-captured.
	SetOutput(s.prevSink)
	os.Stdout = s.origStdout
	os.Stderr = s.origStderr

	// Closing the write ends EOFs the pump goroutines; wait for them to
	// drain so no captured bytes are lost.
	s.outW.Close()
	s.errW.Close()
	s.pumps.Wait()

	s.writeFooter(exitCode)
	s.file.Close()

	s.release()

	fmt.Fprintf(s.origStdout, "\nLog saved to: %s\n", s.path)
}

func (s *Session) release() {
	activeMu.Lock()
	active = false
	activeMu.Unlock()
}

func (s *Session) installCapture() error {
	s.origStdout = os.Stdout
	s.origStderr = os.Stderr

	outR, outW, err := os.Pipe()
	if err != nil {
		return err
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		outR.Close()
		outW.Close()
		return err
	}
	s.outW = outW
	s.errW = errW

	teeOut := NewTee(s.origStdout, s.file)
	teeErr := NewTee(s.origStderr, s.file)

	s.pumps.Add(2)
	go s.pump(outR, teeOut)
	go s.pump(errR, teeErr)

	os.Stdout = outW
	os.Stderr = errW

	// Structured log output joins the same tee so logger lines interleave
	// with print-style output in chronological order.
	s.prevSink = SetOutput(teeErr)

	return nil
}

func (s *Session) pump(r *os.File, tee *Tee) {
	defer s.pumps.Done()
	defer r.Close()
	// Raw copy, not line-based: partial writes (prompts without trailing
	// newlines) must reach the console immediately.
	io.Copy(tee, r)
}

func (s *Session) writeHeader(command string, argv []string) {
	username := os.Getenv("USER")
	if username == "" {
		username = "unknown"
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	var uts unix.Utsname
	platform := runtime.GOOS + "/" + runtime.GOARCH
	if err := unix.Uname(&uts); err == nil {
		platform = fmt.Sprintf("%s %s (%s/%s)",
			unix.ByteSliceToString(uts.Sysname[:]),
			unix.ByteSliceToString(uts.Release[:]),
			runtime.GOOS, runtime.GOARCH)
	}

	lines := []string{
		separator,
		fmt.Sprintf("%s %s LOG", brand.Name, strings.ToUpper(command)),
		separator,
		"Timestamp: " + s.start.Format(time.RFC3339),
		"Session: " + s.id.String(),
		fmt.Sprintf("Command: %s %s", brand.BinaryName, strings.Join(argv, " ")),
		fmt.Sprintf("User: %s (UID: %d)", username, os.Getuid()),
		"Hostname: " + hostname,
		"Runtime: " + runtime.Version(),
		"Platform: " + platform,
		separator,
		"",
		"",
	}
	fmt.Fprint(s.file, strings.Join(lines, "\n"))
}

func (s *Session) writeFooter(exitCode int) {
	lines := []string{
		"",
		separator,
		"Execution completed at: " + s.clk.Now().Format(time.RFC3339),
		fmt.Sprintf("Exit code: %d", exitCode),
		separator,
		"",
	}
	// Best-effort; a footer failure must not surface during teardown.
	_, _ = fmt.Fprint(s.file, strings.Join(lines, "\n"))
}

func ensureLogDir(dir string, gid int, gidOK bool) error {
	if err := os.MkdirAll(dir, LogDirMode); err != nil {
		if errors.Is(err, os.ErrPermission) {
			return snacerr.Wrap(snacerr.ExBadEnvironment, err, "permission denied creating log directory %s", dir)
		}
		return snacerr.Wrap(snacerr.ExBadEnvironment, err, "failed to create log directory %s", dir)
	}
	// MkdirAll is umask-filtered and does nothing for a pre-existing
	// directory, so the mode is enforced explicitly either way.
	if err := os.Chmod(dir, LogDirMode); err != nil {
		return snacerr.Wrap(snacerr.ExBadEnvironment, err, "failed to set permissions on log directory %s", dir)
	}
	if gidOK {
		if err := unix.Chown(dir, -1, gid); err != nil {
			Warn("Could not set log directory group ownership", "dir", dir, "error", err)
		}
	}
	return nil
}

func lookupGID(group string) (int, bool) {
	g, err := user.LookupGroup(group)
	if err != nil {
		Warn("Group not found; logs will use the default group", "group", group)
		return -1, false
	}
	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return -1, false
	}
	return gid, true
}
