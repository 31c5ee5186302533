// Package prereqs gates the mutating commands on the environment they
// require: root privileges, a NILRT image running in its normal mode, and
// a working iptables stack for the firewall module to build on.
package prereqs

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/ni/nilrt-snac/internal/logging"
	"github.com/ni/nilrt-snac/internal/opkg"
	"github.com/ni/nilrt-snac/internal/relay"
	"github.com/ni/nilrt-snac/internal/snacerr"
)

// Checker verifies the runtime environment before configuration starts.
type Checker struct {
	pkgs   opkg.PackageManager
	runner relay.Runner
	log    *logging.Logger

	osReleasePath string
	safeModePath  string
}

// NewChecker builds a Checker with the production probe paths.
func NewChecker(pkgs opkg.PackageManager, runner relay.Runner) *Checker {
	return &Checker{
		pkgs:          pkgs,
		runner:        runner,
		log:           logging.WithComponent("prereqs"),
		osReleasePath: "/etc/os-release",
		safeModePath:  "/etc/natinst/safemode",
	}
}

// Distro returns the ID field of an os-release file, or "" when absent.
func Distro(osReleasePath string) string {
	data, err := os.ReadFile(osReleasePath)
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		if value, found := strings.CutPrefix(line, "ID="); found {
			return strings.TrimSpace(strings.Trim(strings.TrimSpace(value), `"`))
		}
	}
	return ""
}

// Verify runs every prerequisite check and returns the first failure.
func (c *Checker) Verify(out io.Writer) error {
	fmt.Fprintln(out, "Checking EUID")
	if err := c.checkEUIDRoot(); err != nil {
		return err
	}
	fmt.Fprintln(out, "Checking iptables")
	if err := c.checkIPTables(); err != nil {
		return err
	}
	if err := c.checkRunMode(); err != nil {
		return err
	}
	return c.checkNILRT()
}

func (c *Checker) checkEUIDRoot() error {
	if unix.Geteuid() != 0 {
		return snacerr.New(snacerr.ExBadEnvironment, "this tool must be run as root")
	}
	return nil
}

// checkIPTables installs iptables when missing and runs it once: the
// ip_tables kernel module only loads on the first iptables invocation.
func (c *Checker) checkIPTables() error {
	if !c.pkgs.IsInstalled("iptables") {
		c.log.Debug("Installing iptables")
		if err := c.pkgs.Install("iptables"); err != nil {
			return snacerr.Wrap(snacerr.ExCheckFailure, err, "failed to install iptables")
		}
	}

	c.log.Debug("Ensuring iptables is loaded")
	if _, err := c.runner.RunUnchecked("iptables", "-L"); err != nil {
		return snacerr.Wrap(snacerr.ExCheckFailure, err, "failed to load iptables")
	}

	c.log.Debug("Ensuring the ip_tables module is present")
	out, err := c.runner.Output("lsmod")
	if err != nil {
		return snacerr.Wrap(snacerr.ExCheckFailure, err, "failed to list kernel modules")
	}
	if !strings.Contains(out, "ip_tables") {
		return snacerr.New(snacerr.ExCheckFailure, "failed to find ip_tables module")
	}
	return nil
}

func (c *Checker) checkRunMode() error {
	if _, err := os.Stat(c.safeModePath); err == nil {
		return snacerr.New(snacerr.ExBadEnvironment, "this tool cannot be run in safe mode")
	}
	return nil
}

func (c *Checker) checkNILRT() error {
	if Distro(c.osReleasePath) != "nilrt" {
		return snacerr.New(snacerr.ExBadEnvironment, "this tool must be run on a NILRT system")
	}
	return nil
}
