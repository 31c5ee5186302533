package configs

import (
	"github.com/ni/nilrt-snac/internal/opkg"
	"github.com/ni/nilrt-snac/internal/relay"
)

// NewDefaultRegistry wires every security module in its application order.
// Time sync and package plumbing come first, the audit and logging stack
// last so earlier modules' changes land in the hardened logs.
func NewDefaultRegistry(pkgs opkg.PackageManager, runner relay.Runner) *Registry {
	return NewRegistry(
		NewNTP(pkgs, runner),
		NewOPKGFeeds(pkgs, runner),
		NewWireguard(pkgs, runner),
		NewCryptSetup(pkgs),
		NewNIAuth(pkgs, runner),
		NewWIFI(runner),
		NewFaillock(pkgs),
		NewGraphical(pkgs, runner),
		NewConsole(runner),
		NewSysAPI(pkgs),
		NewTmux(pkgs),
		NewPWQuality(),
		NewSSH(),
		NewSudo(),
		NewFirewall(pkgs, runner),
		NewAuditd(pkgs, runner),
		NewSyslogNG(pkgs, runner),
		NewClamAV(pkgs, runner),
	)
}
