package configs

import (
	"github.com/ni/nilrt-snac/internal/fsperm"
	"github.com/ni/nilrt-snac/internal/opkg"
	"github.com/ni/nilrt-snac/internal/relay"
)

// SyslogNG installs syslog-ng and turns on persistent log storage.
type SyslogNG struct {
	pkgs   opkg.PackageManager
	runner relay.Runner

	confPath string
}

// NewSyslogNG builds the syslog-ng module.
func NewSyslogNG(pkgs opkg.PackageManager, runner relay.Runner) *SyslogNG {
	return &SyslogNG{
		pkgs:     pkgs,
		runner:   runner,
		confPath: "/etc/syslog-ng/syslog-ng.conf",
	}
}

func (c *SyslogNG) Name() string { return "syslog-ng" }

func (c *SyslogNG) Configure(args Args) error {
	if err := c.pkgs.Install("syslog-ng"); err != nil {
		return err
	}

	return RunSteps(args, c.Name(), []Step{
		{
			Desc: "enable persistent logs",
			Run: func() error {
				_, err := c.runner.Run("nirtcfg", "--set",
					`section=SystemSettings,token=PersistentLogs.enabled,value="True"`)
				return err
			},
			DryRunSafe: true,
		},
		{
			Desc: "restart syslog",
			Run: func() error {
				_, err := c.runner.Run("/etc/init.d/syslog", "restart")
				return err
			},
			DryRunSafe: true,
		},
	})
}

func (c *SyslogNG) Verify(args Args) bool {
	v := newVerifier(c.Name())

	v.check(c.pkgs.IsInstalled("syslog-ng"), "Required syslog-ng package is not installed.")
	v.check(checked(fsperm.CheckOwner(c.confPath, "root")),
		"ERROR: %s is not owned by 'root'.", c.confPath)

	return v.valid
}
