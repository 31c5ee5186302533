package configs

import (
	"github.com/ni/nilrt-snac/internal/configfile"
	"github.com/ni/nilrt-snac/internal/logging"
	"github.com/ni/nilrt-snac/internal/opkg"
	"github.com/ni/nilrt-snac/internal/relay"
)

const milNTPServer = "server 0.us.pool.ntp.mil iburst maxpoll 16"

// NTP points time synchronization at the US military pool instead of the
// vendor pool.
type NTP struct {
	pkgs   opkg.PackageManager
	runner relay.Runner
	log    *logging.Logger

	confPath string
}

// NewNTP builds the ntp module.
func NewNTP(pkgs opkg.PackageManager, runner relay.Runner) *NTP {
	return &NTP{
		pkgs:     pkgs,
		runner:   runner,
		log:      logging.WithComponent("ntp"),
		confPath: "/etc/ntp.conf",
	}
}

func (c *NTP) Name() string { return "ntp" }

func (c *NTP) Configure(args Args) error {
	if err := c.pkgs.Install("ntp"); err != nil {
		return err
	}

	conf, err := loadConfigFile(args, c.confPath)
	if err != nil {
		return err
	}

	c.log.Debug("Switching ntp servers to US mil.")
	if conf.Contains("natinst.pool.ntp.org") {
		if err := conf.Update(`^.*natinst.pool.ntp.org.*$`, ""); err != nil {
			return err
		}
	}
	if !conf.Contains(milNTPServer) {
		conf.Add(milNTPServer + "\n")
	}
	if err := conf.Save(args.DryRun); err != nil {
		return err
	}

	return RunSteps(args, c.Name(), []Step{
		{
			Desc: "restart ntpd",
			Run: func() error {
				_, err := c.runner.RunUnchecked("/etc/init.d/ntpd", "restart")
				return err
			},
			DryRunSafe: true,
		},
	})
}

func (c *NTP) Verify(args Args) bool {
	v := newVerifier(c.Name())

	conf, err := configfile.Load(c.confPath)
	if err != nil {
		v.check(false, "ERROR: reading %s: %v", c.confPath, err)
		return v.valid
	}

	v.check(c.pkgs.IsInstalled("ntp"), "MISSING: ntp not installed")
	v.check(conf.Contains("0.us.pool.ntp.mil iburst maxpoll 16"),
		"MISSING: designated ntp server and settings not found in config file")
	v.check(!conf.Contains("natinst.pool.ntp.org"), "FOUND: NI ntp server in config file")

	return v.valid
}
