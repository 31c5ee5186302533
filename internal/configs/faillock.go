package configs

import (
	"github.com/ni/nilrt-snac/internal/opkg"
)

// Faillock installs the PAM module that locks accounts after repeated
// authentication failures.
type Faillock struct {
	pkgs opkg.PackageManager
}

// NewFaillock builds the faillock module.
func NewFaillock(pkgs opkg.PackageManager) *Faillock {
	return &Faillock{pkgs: pkgs}
}

func (c *Faillock) Name() string { return "faillock" }

func (c *Faillock) Configure(args Args) error {
	return c.pkgs.Install("pam-plugin-faillock")
}

func (c *Faillock) Verify(args Args) bool {
	v := newVerifier(c.Name())
	v.check(c.pkgs.IsInstalled("pam-plugin-faillock"), "MISSING: pam-plugin-faillock not installed")
	return v.valid
}
