package configs

import (
	"path/filepath"

	"github.com/ni/nilrt-snac/internal/brand"
	"github.com/ni/nilrt-snac/internal/opkg"
	"github.com/ni/nilrt-snac/internal/relay"
)

// NIAuth removes the vendor authentication stack and replaces it with a
// conflicts package that keeps it from being reinstalled.
type NIAuth struct {
	pkgs   opkg.PackageManager
	runner relay.Runner

	conflictsIPK string
}

// NewNIAuth builds the niauth module.
func NewNIAuth(pkgs opkg.PackageManager, runner relay.Runner) *NIAuth {
	return &NIAuth{
		pkgs:         pkgs,
		runner:       runner,
		conflictsIPK: filepath.Join(brand.ShareDir, "nilrt-snac-conflicts.ipk"),
	}
}

func (c *NIAuth) Name() string { return "niauth" }

func (c *NIAuth) Configure(args Args) error {
	if err := c.pkgs.Remove("ni-auth", opkg.ForceEssential(), opkg.ForceDepends()); err != nil {
		return err
	}
	if err := c.pkgs.Remove("niacctbase-sudo"); err != nil {
		return err
	}
	if !c.pkgs.IsInstalled("nilrt-snac-conflicts") {
		if err := c.pkgs.Install(c.conflictsIPK); err != nil {
			return err
		}
	}

	return RunSteps(args, c.Name(), []Step{
		{
			Desc: "delete the root password",
			Run: func() error {
				_, err := c.runner.Run("passwd", "-d", "root")
				return err
			},
			DryRunSafe: true,
		},
	})
}

func (c *NIAuth) Verify(args Args) bool {
	v := newVerifier(c.Name())

	v.check(!c.pkgs.IsInstalled("ni-auth"), "FOUND: ni-auth installed")
	v.check(!c.pkgs.IsInstalled("niacctbase-sudo"), "FOUND: niacctbase-sudo installed")
	v.check(c.pkgs.IsInstalled("nilrt-snac-conflicts"), "MISSING: nilrt-snac-conflicts not installed")

	return v.valid
}
