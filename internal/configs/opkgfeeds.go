package configs

import (
	"os"

	"github.com/ni/nilrt-snac/internal/configfile"
	"github.com/ni/nilrt-snac/internal/opkg"
	"github.com/ni/nilrt-snac/internal/relay"
)

const opkgSnacSnippet = `
# NILRT SNAC configuration opkg runparts. Do not hand-edit.
option autoremove 1
`

// OPKGFeeds locks down the package feeds: autoremove on, no vendor
// distribution feed, no extra feeds.
type OPKGFeeds struct {
	pkgs   opkg.PackageManager
	runner relay.Runner

	snacConfPath  string
	baseFeedsPath string
	niDistPath    string
}

// NewOPKGFeeds builds the opkg feeds module.
func NewOPKGFeeds(pkgs opkg.PackageManager, runner relay.Runner) *OPKGFeeds {
	return &OPKGFeeds{
		pkgs:          pkgs,
		runner:        runner,
		snacConfPath:  opkg.SnacConf,
		baseFeedsPath: "/etc/opkg/base-feeds.conf",
		niDistPath:    "/etc/opkg/NI-dist.conf",
	}
}

func (c *OPKGFeeds) Name() string { return "opkg" }

func (c *OPKGFeeds) Configure(args Args) error {
	snacConf, err := loadConfigFile(args, c.snacConfPath)
	if err != nil {
		return err
	}
	baseFeeds, err := loadConfigFile(args, c.baseFeedsPath)
	if err != nil {
		return err
	}

	if !snacConf.Contains("option autoremove 1") {
		snacConf.Add(opkgSnacSnippet)
	}

	if err := RunSteps(args, c.Name(), []Step{
		{
			Desc: "remove unsupported package feeds",
			Skip: func() (bool, string) {
				if _, err := os.Stat(c.niDistPath); os.IsNotExist(err) {
					return true, c.niDistPath + " not present"
				}
				return false, ""
			},
			Run: func() error {
				_, err := c.runner.Run("rm", "-fv", c.niDistPath)
				return err
			},
			DryRunSafe: true,
		},
	}); err != nil {
		return err
	}

	if baseFeeds.Contains(`src.*/extra/.*`) {
		if err := baseFeeds.Update(`^src.*/extra/.*`, ""); err != nil {
			return err
		}
	}

	if err := snacConf.Save(args.DryRun); err != nil {
		return err
	}
	if err := baseFeeds.Save(args.DryRun); err != nil {
		return err
	}
	return c.pkgs.Update()
}

func (c *OPKGFeeds) Verify(args Args) bool {
	v := newVerifier(c.Name())

	snacConf, err := configfile.Load(c.snacConfPath)
	if err != nil || !snacConf.Exists() {
		v.check(false, "MISSING: %s not found", c.snacConfPath)
	} else {
		v.check(snacConf.Contains("option autoremove 1"),
			"MISSING: 'option autoremove 1' not found in %s", c.snacConfPath)
	}

	baseFeeds, err := configfile.Load(c.baseFeedsPath)
	if err == nil {
		v.check(!baseFeeds.Contains(`src.*/extra/.*`),
			"FOUND: 'src.*/extra/.*' found in %s", c.baseFeedsPath)
	}

	return v.valid
}
