// Package opkg manages package installs and removals through the opkg
// package manager, keeping a local cache of the installed set so repeated
// installs stay idempotent.
package opkg

import (
	"strings"

	"github.com/ni/nilrt-snac/internal/logging"
	"github.com/ni/nilrt-snac/internal/relay"
	"github.com/ni/nilrt-snac/internal/snacerr"
)

// SnacConf is the opkg feed configuration owned by this tool.
const SnacConf = "/etc/opkg/snac.conf"

// PackageManager is the surface the config modules program against.
type PackageManager interface {
	IsInstalled(pkg string) bool
	Install(pkg string, opts ...InstallOption) error
	Remove(pkg string, opts ...RemoveOption) error
	Update() error
}

type installOptions struct {
	forceReinstall bool
}

// InstallOption adjusts a single Install call.
type InstallOption func(*installOptions)

// ForceReinstall reinstalls the package even at the same version.
func ForceReinstall() InstallOption {
	return func(o *installOptions) { o.forceReinstall = true }
}

type removeOptions struct {
	autoremove      bool
	ignoreInstalled bool
	forceEssential  bool
	forceDepends    bool
}

// RemoveOption adjusts a single Remove call.
type RemoveOption func(*removeOptions)

// Autoremove also removes dependencies that become orphaned.
func Autoremove() RemoveOption {
	return func(o *removeOptions) { o.autoremove = true }
}

// IgnoreInstalled attempts the removal even when the cache says the package
// is absent, and tolerates a failing opkg exit.
func IgnoreInstalled() RemoveOption {
	return func(o *removeOptions) { o.ignoreInstalled = true }
}

// ForceEssential permits removal of packages opkg marks essential.
func ForceEssential() RemoveOption {
	return func(o *removeOptions) { o.forceEssential = true }
}

// ForceDepends removes the package despite dependent packages.
func ForceDepends() RemoveOption {
	return func(o *removeOptions) { o.forceDepends = true }
}

// Helper is the PackageManager implementation backed by a relay.Runner.
type Helper struct {
	runner    relay.Runner
	log       *logging.Logger
	installed map[string]bool
}

// New builds a Helper and seeds its installed-package cache. The cache seed
// runs before the environment prerequisites are checked, so off-distro hosts
// get an empty cache and a warning instead of an error.
func New(runner relay.Runner, distro string) *Helper {
	h := &Helper{
		runner:    runner,
		log:       logging.WithComponent("opkg"),
		installed: make(map[string]bool),
	}

	if distro != "nilrt" {
		h.log.Warn("Not running on nilrt, can't get list of installed packages.")
		return h
	}

	out, err := runner.Output("opkg", "list-installed")
	if err != nil {
		h.log.Warn("Failed to list installed packages", "error", err)
		return h
	}
	for _, line := range strings.Split(out, "\n") {
		name, _, found := strings.Cut(line, " - ")
		if found {
			h.installed[name] = true
		}
	}
	return h
}

// IsInstalled reports whether the cache holds the package.
func (h *Helper) IsInstalled(pkg string) bool {
	return h.installed[pkg]
}

// Install installs the package unless the cache already holds it.
func (h *Helper) Install(pkg string, opts ...InstallOption) error {
	var o installOptions
	for _, opt := range opts {
		opt(&o)
	}

	if h.IsInstalled(pkg) && !o.forceReinstall {
		h.log.Debug(pkg + " already installed")
		return nil
	}

	args := []string{"install"}
	if o.forceReinstall {
		args = append(args, "--force-reinstall")
	}
	args = append(args, pkg)

	if _, err := h.runner.Run("opkg", args...); err != nil {
		return snacerr.Wrap(snacerr.ExError, err, "installing %s", pkg)
	}
	h.installed[pkg] = true
	return nil
}

// Remove uninstalls the package. Without IgnoreInstalled the call is a
// no-op when the cache says the package is absent.
func (h *Helper) Remove(pkg string, opts ...RemoveOption) error {
	var o removeOptions
	for _, opt := range opts {
		opt(&o)
	}

	h.log.Info("Removing IPK: " + pkg)

	if !o.ignoreInstalled && !h.IsInstalled(pkg) {
		h.log.Debug(pkg + " already uninstalled")
		return nil
	}

	args := []string{"remove"}
	if o.autoremove {
		args = append(args, "--autoremove")
	}
	if o.forceEssential {
		args = append(args, "--force-removal-of-essential-packages")
	}
	if o.forceDepends {
		args = append(args, "--force-depends")
	}
	args = append(args, pkg)

	if o.ignoreInstalled {
		if _, err := h.runner.RunUnchecked("opkg", args...); err != nil {
			return snacerr.Wrap(snacerr.ExError, err, "removing %s", pkg)
		}
		return nil
	}

	if _, err := h.runner.Run("opkg", args...); err != nil {
		return snacerr.Wrap(snacerr.ExError, err, "removing %s", pkg)
	}
	delete(h.installed, pkg)
	return nil
}

// Update refreshes the opkg feed indexes.
func (h *Helper) Update() error {
	if _, err := h.runner.Run("opkg", "update"); err != nil {
		return snacerr.Wrap(snacerr.ExError, err, "updating package feeds")
	}
	return nil
}
