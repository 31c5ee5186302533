package configs

import (
	"github.com/ni/nilrt-snac/internal/opkg"
)

// SysAPI keeps the SSH-reachable system configuration API installed so the
// target stays manageable once the graphical surfaces are removed.
type SysAPI struct {
	pkgs opkg.PackageManager
}

// NewSysAPI builds the sysapi module.
func NewSysAPI(pkgs opkg.PackageManager) *SysAPI {
	return &SysAPI{pkgs: pkgs}
}

func (c *SysAPI) Name() string { return "sysapi" }

func (c *SysAPI) Configure(args Args) error {
	return c.pkgs.Install("ni-sysapi-sshcli")
}

func (c *SysAPI) Verify(args Args) bool {
	v := newVerifier(c.Name())
	v.check(c.pkgs.IsInstalled("ni-sysapi-sshcli"), "MISSING: ni-sysapi-sshcli not installed")
	return v.valid
}
