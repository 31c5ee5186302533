// Package relay runs external commands on behalf of the config modules.
// Mutating commands stream their combined stdout/stderr line-by-line to the
// process's (possibly tee'd) standard output, so long-running tools show
// live progress inside the audit log instead of dumping output after exit.
package relay

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Result is the completed-process record returned by every invocation.
type Result struct {
	Args     []string
	ExitCode int
	Output   string
}

// ExitError reports a must-succeed command that exited non-zero.
type ExitError struct {
	Args []string
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q failed with return code %d", strings.Join(e.Args, " "), e.Code)
}

// Runner abstracts command execution so modules can be driven by the real
// streaming runner, the dry-run recorder, or a mock in tests.
type Runner interface {
	// Run executes a command that must succeed. A non-zero exit yields an
	// *ExitError carrying the command and code.
	Run(name string, args ...string) (Result, error)
	// RunUnchecked executes a command, tolerating any exit code.
	RunUnchecked(name string, args ...string) (Result, error)
	// Output executes a read-only probe and returns its combined output
	// without echoing it to the console. The exit code is not an error.
	Output(name string, args ...string) (string, error)
	// OutputWithInput is Output with input supplied on the command's
	// stdin, for tools that refuse secrets on the command line.
	OutputWithInput(input, name string, args ...string) (string, error)
}

// StreamRunner is the production Runner. Writes go to Stdout, or to
// os.Stdout at call time when Stdout is nil, which is how relayed output
// transparently picks up an installed tee.
type StreamRunner struct {
	Stdout io.Writer
}

func (r *StreamRunner) console() io.Writer {
	if r.Stdout != nil {
		return r.Stdout
	}
	return os.Stdout
}

// Run executes the command, streaming combined output, and fails on a
// non-zero exit.
func (r *StreamRunner) Run(name string, args ...string) (Result, error) {
	return r.exec(name, args, true)
}

// RunUnchecked executes the command, streaming combined output, and
// returns whatever exit code occurred.
func (r *StreamRunner) RunUnchecked(name string, args ...string) (Result, error) {
	return r.exec(name, args, false)
}

// Output runs a probe quietly and returns its combined output.
func (r *StreamRunner) Output(name string, args ...string) (string, error) {
	return r.output("", name, args)
}

// OutputWithInput runs a probe quietly with input on stdin.
func (r *StreamRunner) OutputWithInput(input, name string, args ...string) (string, error) {
	return r.output(input, name, args)
}

func (r *StreamRunner) output(input, name string, args []string) (string, error) {
	cmd := exec.Command(name, args...)
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			// Probes interpret output regardless of exit status.
			return string(out), nil
		}
		return "", fmt.Errorf("command %s failed: %w", name, err)
	}
	return string(out), nil
}

func (r *StreamRunner) exec(name string, args []string, mustSucceed bool) (Result, error) {
	argv := append([]string{name}, args...)
	res := Result{Args: argv}

	cmd := exec.Command(name, args...)
	pr, pw, err := os.Pipe()
	if err != nil {
		return res, fmt.Errorf("command %s: pipe: %w", name, err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return res, fmt.Errorf("command %q failed to start: %w", strings.Join(argv, " "), err)
	}
	pw.Close()

	console := r.console()
	var captured strings.Builder
	// Lines have no length cap: tools like opkg can emit arbitrarily long
	// progress lines, and a relay that stops reading mid-run breaks the
	// child's pipe and loses the rest of its output.
	br := bufio.NewReader(pr)
	for {
		line, readErr := br.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimSuffix(line, "\n")
			fmt.Fprintln(console, line)
			captured.WriteString(line)
			captured.WriteByte('\n')
		}
		if readErr != nil {
			break
		}
	}
	pr.Close()

	err = cmd.Wait()
	res.Output = captured.String()
	if err != nil {
		ee, ok := err.(*exec.ExitError)
		if !ok {
			return res, fmt.Errorf("command %q: %w", strings.Join(argv, " "), err)
		}
		res.ExitCode = ee.ExitCode()
	}

	if mustSucceed && res.ExitCode != 0 {
		return res, &ExitError{Args: argv, Code: res.ExitCode}
	}
	return res, nil
}
