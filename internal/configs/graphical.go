package configs

import (
	"github.com/ni/nilrt-snac/internal/opkg"
	"github.com/ni/nilrt-snac/internal/relay"
)

// forbiddenGraphicalPackages must be absent once the graphical UI is
// deconfigured.
var forbiddenGraphicalPackages = []string{
	"packagegroup-ni-graphical",
	"packagegroup-core-x11",
	"packagegroup-ni-xfce",
	"sysconfig-settings-ui",
}

// Graphical deconfigures the embedded UI and removes the X11 stack; a
// hardened target is headless.
type Graphical struct {
	pkgs   opkg.PackageManager
	runner relay.Runner
}

// NewGraphical builds the graphical module.
func NewGraphical(pkgs opkg.PackageManager, runner relay.Runner) *Graphical {
	return &Graphical{pkgs: pkgs, runner: runner}
}

func (c *Graphical) Name() string { return "graphical" }

func (c *Graphical) Configure(args Args) error {
	if err := RunSteps(args, c.Name(), []Step{
		{
			Desc: "disable the embedded UI",
			Run: func() error {
				_, err := c.runner.Run("nirtcfg", "--set",
					"section=systemsettings,token=ui.enabled,value=False")
				return err
			},
			DryRunSafe: true,
		},
	}); err != nil {
		return err
	}

	if err := c.pkgs.Remove("packagegroup-ni-graphical", opkg.Autoremove()); err != nil {
		return err
	}
	return c.pkgs.Remove("packagegroup-core-x11", opkg.Autoremove())
}

func (c *Graphical) Verify(args Args) bool {
	v := newVerifier(c.Name())
	for _, pkg := range forbiddenGraphicalPackages {
		v.check(!c.pkgs.IsInstalled(pkg), "Found forbidden package installed: %s", pkg)
	}
	return v.valid
}
