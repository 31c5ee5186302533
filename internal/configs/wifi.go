package configs

import (
	"github.com/ni/nilrt-snac/internal/configfile"
	"github.com/ni/nilrt-snac/internal/relay"
)

// The blacklist keyword is not enough: blacklisted modules still load when
// another module depends on them. Overriding install prevents the modules
// and all their dependents from loading.
const wifiBlacklist = `# Do not allow WiFi connections
install cfg80211 /bin/true
install mac80211 /bin/true
`

// WIFI prevents the wireless stack modules from ever loading.
type WIFI struct {
	runner relay.Runner

	confPath string
}

// NewWIFI builds the wifi module.
func NewWIFI(runner relay.Runner) *WIFI {
	return &WIFI{
		runner:   runner,
		confPath: "/etc/modprobe.d/snac_blacklist.conf",
	}
}

func (c *WIFI) Name() string { return "wifi" }

func (c *WIFI) Configure(args Args) error {
	conf, err := loadConfigFile(args, c.confPath)
	if err != nil {
		return err
	}
	if !conf.Contains("install cfg80211 /bin/true") {
		conf.Add(wifiBlacklist)
	}
	if err := conf.Save(args.DryRun); err != nil {
		return err
	}

	return RunSteps(args, c.Name(), []Step{
		{
			Desc: "unload WiFi modules",
			// rmmod fails when the modules are not loaded.
			Run: func() error {
				_, err := c.runner.RunUnchecked("rmmod", "cfg80211", "mac80211")
				return err
			},
			DryRunSafe: true,
			OnError:    Ignore,
		},
	})
}

func (c *WIFI) Verify(args Args) bool {
	v := newVerifier(c.Name())

	conf, err := configfile.Load(c.confPath)
	if err != nil || !conf.Exists() {
		v.check(false, "MISSING: %s not found", c.confPath)
		return v.valid
	}
	v.check(conf.Contains("install cfg80211 /bin/true"),
		"MISSING: commands to fail install of WiFi modules")

	return v.valid
}
