package configs

import (
	"github.com/ni/nilrt-snac/internal/configfile"
)

const sudoersSnippet = `# NILRT SNAC configuration sudoers. Do not hand-edit.
Defaults timestamp_timeout=0
`

// Sudo forces sudo to re-authenticate on every invocation.
type Sudo struct {
	confPath string
}

// NewSudo builds the sudo module.
func NewSudo() *Sudo {
	return &Sudo{confPath: "/etc/sudoers.d/snac"}
}

func (c *Sudo) Name() string { return "sudo" }

func (c *Sudo) Configure(args Args) error {
	conf, err := loadConfigFile(args, c.confPath)
	if err != nil {
		return err
	}
	if !conf.Exists() {
		conf.Add(sudoersSnippet)
	}
	return conf.Save(args.DryRun)
}

func (c *Sudo) Verify(args Args) bool {
	v := newVerifier(c.Name())

	conf, err := configfile.Load(c.confPath)
	if err != nil || !conf.Exists() {
		v.check(false, "MISSING: %s not found", c.confPath)
		return v.valid
	}
	v.check(conf.Contains("Defaults timestamp_timeout=0"),
		"MISSING: immediate timestamp_timeout")

	return v.valid
}
