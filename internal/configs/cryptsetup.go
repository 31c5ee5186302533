package configs

import (
	"github.com/ni/nilrt-snac/internal/opkg"
)

// CryptSetup makes disk encryption tooling available on the target.
type CryptSetup struct {
	pkgs opkg.PackageManager
}

// NewCryptSetup builds the cryptsetup module.
func NewCryptSetup(pkgs opkg.PackageManager) *CryptSetup {
	return &CryptSetup{pkgs: pkgs}
}

func (c *CryptSetup) Name() string { return "cryptsetup" }

func (c *CryptSetup) Configure(args Args) error {
	return c.pkgs.Install("cryptsetup")
}

func (c *CryptSetup) Verify(args Args) bool {
	v := newVerifier(c.Name())
	v.check(c.pkgs.IsInstalled("cryptsetup"), "MISSING: cryptsetup not installed")
	return v.valid
}
