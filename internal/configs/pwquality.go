package configs

import (
	"github.com/ni/nilrt-snac/internal/configfile"
)

const pwqualitySnippet = `
# Additional check for password complexity
password	requisite	pam_pwquality.so retry=3
`

// PWQuality enforces password history and complexity through PAM.
type PWQuality struct {
	confPath string
}

// NewPWQuality builds the pwquality module.
func NewPWQuality() *PWQuality {
	return &PWQuality{confPath: "/etc/pam.d/common-password"}
}

func (c *PWQuality) Name() string { return "pwquality" }

func (c *PWQuality) Configure(args Args) error {
	conf, err := loadConfigFile(args, c.confPath)
	if err != nil {
		return err
	}

	if !conf.Contains("remember=5") {
		if err := conf.Update(`(password.*pam_unix.so.*)`, "$1 remember=5"); err != nil {
			return err
		}
	}
	if !conf.Contains(`password.*requisite.*pam_pwquality.so.*retry=3`) {
		conf.Add(pwqualitySnippet)
	}

	return conf.Save(args.DryRun)
}

func (c *PWQuality) Verify(args Args) bool {
	v := newVerifier(c.Name())

	conf, err := configfile.Load(c.confPath)
	if err != nil {
		v.check(false, "ERROR: reading %s: %v", c.confPath, err)
		return v.valid
	}

	v.check(conf.Contains("remember=5"), "MISSING: 'remember=5' for pam_unix.so configuration")
	v.check(conf.Contains(`password.*requisite.*pam_pwquality.so.*retry=3`),
		"MISSING: entry to add quality check")

	return v.valid
}
