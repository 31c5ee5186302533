// Package configs holds the security configuration modules and the
// framework that drives them. Each module knows how to apply one control
// and how to verify it, and the registry runs them in a fixed order.
package configs

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ni/nilrt-snac/internal/configfile"
	"github.com/ni/nilrt-snac/internal/logging"
)

// Args carries the per-invocation options every module receives.
type Args struct {
	DryRun     bool
	Yes        bool
	AuditEmail string

	// In supplies interactive prompt answers; defaults to os.Stdin.
	In io.Reader
	// Out receives module console output; defaults to os.Stdout.
	Out io.Writer
}

func (a Args) out() io.Writer {
	if a.Out != nil {
		return a.Out
	}
	return os.Stdout
}

func (a Args) in() io.Reader {
	if a.In != nil {
		return a.In
	}
	return os.Stdin
}

// Prompt prints msg and reads one trimmed line of input.
func (a Args) Prompt(msg string) string {
	fmt.Fprint(a.out(), msg)
	line, _ := bufio.NewReader(a.in()).ReadString('\n')
	return strings.TrimSpace(line)
}

// loadConfigFile opens a config file with its dry-run diff output routed
// to the invocation's console.
func loadConfigFile(args Args, path string) (*configfile.File, error) {
	f, err := configfile.Load(path)
	if err != nil {
		return nil, err
	}
	f.Out = args.out()
	return f, nil
}

// Config is one security control: it can be applied and checked.
type Config interface {
	Name() string
	Configure(args Args) error
	Verify(args Args) bool
}

// Policy selects how a failing step affects the rest of a configure run.
type Policy int

const (
	// Fatal aborts the configure run.
	Fatal Policy = iota
	// Warn logs the failure and continues.
	Warn
	// Ignore continues silently.
	Ignore
)

// Step is one unit of configure work.
type Step struct {
	Desc string
	// Skip, when set and returning true, elides the step with a reason.
	Skip func() (bool, string)
	Run  func() error
	// DryRunSafe marks steps whose Run delegates all mutations to
	// dry-run-aware collaborators, so they execute even under dry run.
	DryRunSafe bool
	OnError    Policy
}

// RunSteps executes steps in order. Under dry run, steps that are not
// DryRunSafe are announced instead of executed. A failing Fatal step stops
// the run; Warn and Ignore steps never do.
func RunSteps(args Args, component string, steps []Step) error {
	log := logging.WithComponent(component)
	for _, step := range steps {
		if step.Skip != nil {
			if skip, reason := step.Skip(); skip {
				log.Debug(step.Desc + " skipped: " + reason)
				continue
			}
		}
		if args.DryRun && !step.DryRunSafe {
			fmt.Fprintf(args.out(), "dry-run: would %s\n", step.Desc)
			continue
		}
		if err := step.Run(); err != nil {
			switch step.OnError {
			case Ignore:
			case Warn:
				log.Warn(step.Desc+" failed", "error", err)
			default:
				return fmt.Errorf("%s: %w", step.Desc, err)
			}
		}
	}
	return nil
}

// verifier accumulates the result of a module's verify sub-checks. Every
// failed check logs one error; checking always continues.
type verifier struct {
	log   *logging.Logger
	valid bool
}

func newVerifier(component string) *verifier {
	return &verifier{log: logging.WithComponent(component), valid: true}
}

func (v *verifier) check(ok bool, format string, a ...any) {
	if !ok {
		v.log.Error(fmt.Sprintf(format, a...))
		v.valid = false
	}
}

// checked folds a probe error into a boolean check result.
func checked(ok bool, err error) bool {
	return err == nil && ok
}

// Registry runs an ordered list of configs.
type Registry struct {
	configs []Config
}

// NewRegistry builds a registry preserving the given order.
func NewRegistry(cfgs ...Config) *Registry {
	return &Registry{configs: cfgs}
}

// Names returns the registered module names in order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.configs))
	for i, c := range r.configs {
		names[i] = c.Name()
	}
	return names
}

// ConfigureAll applies every module in order, stopping at the first
// configure error.
func (r *Registry) ConfigureAll(args Args) error {
	for _, c := range r.configs {
		fmt.Fprintf(args.out(), "Configuring %s...\n", c.Name())
		if err := c.Configure(args); err != nil {
			return fmt.Errorf("configuring %s: %w", c.Name(), err)
		}
	}
	return nil
}

// VerifyAll checks every module and reports whether all passed. Every
// module runs even after a failure so each problem is reported once.
func (r *Registry) VerifyAll(args Args) bool {
	valid := true
	for _, c := range r.configs {
		fmt.Fprintf(args.out(), "Verifying %s configuration...\n", c.Name())
		valid = c.Verify(args) && valid
	}
	return valid
}
