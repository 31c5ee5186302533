package configs

import (
	"github.com/ni/nilrt-snac/internal/configfile"
)

// SSH verifies the sshd idle-session hardening that the base image ships
// with. There is nothing to configure; the checks guard against drift.
type SSH struct {
	sshdConfPath  string
	tmoutConfPath string
}

// NewSSH builds the ssh module.
func NewSSH() *SSH {
	return &SSH{
		sshdConfPath:  "/etc/ssh/sshd_config",
		tmoutConfPath: "/etc/profile.d/tmout.sh",
	}
}

func (c *SSH) Name() string { return "ssh" }

func (c *SSH) Configure(args Args) error {
	return nil
}

func (c *SSH) Verify(args Args) bool {
	v := newVerifier(c.Name())

	sshd, err := configfile.Load(c.sshdConfPath)
	switch {
	case err != nil || !sshd.Exists():
		v.check(false, "MISSING: %s not found", c.sshdConfPath)
	case !sshd.Contains("ClientAliveInterval 15"):
		v.check(false, "MISSING: expected ClientAliveInterval value")
	case !sshd.Contains("ClientAliveCountMax 4"):
		v.check(false, "MISSING: expected ClientAliveCountMax value")
	}

	tmout, err := configfile.Load(c.tmoutConfPath)
	switch {
	case err != nil || !tmout.Exists():
		v.check(false, "MISSING: %s not found", c.tmoutConfPath)
	case !tmout.Contains("TMOUT=600"):
		v.check(false, "MISSING: expected TMOUT value")
	}

	return v.valid
}
