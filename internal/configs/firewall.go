package configs

import (
	"strconv"
	"strings"

	"github.com/ni/nilrt-snac/internal/opkg"
	"github.com/ni/nilrt-snac/internal/relay"
)

// firewallRuleset is the permanent firewalld configuration, expressed as
// firewall-offline-cmd invocations applied after a reset to defaults. The
// work zone faces the VPN link, the public zone faces everything else, and
// both egress policies reject by default.
var firewallRuleset = [][]string{
	{"--reset-to-defaults"},

	{"--zone=work", "--add-interface=wglv0"},
	{"--zone=work", "--remove-forward"},
	{"--zone=public", "--remove-forward"},

	{"--new-policy=work-in"},
	{"--policy=work-in", "--add-ingress-zone=work"},
	{"--policy=work-in", "--add-egress-zone=HOST"},
	{"--policy=work-in", "--add-protocol=icmp"},
	{"--policy=work-in", "--add-service=ssh", "--add-service=mdns"},

	{"--new-policy=work-out"},
	{"--policy=work-out", "--add-ingress-zone=HOST"},
	{"--policy=work-out", "--add-egress-zone=work"},
	{"--policy=work-out", "--add-protocol=icmp"},
	{"--policy=work-out", "--add-service=ssh", "--add-service=http", "--add-service=https"},
	{"--policy=work-out", "--set-target=REJECT"},
	// Rich rules are passed verbatim; quoting them the way a shell would
	// makes firewall-cmd reject the rule.
	{"--policy=work-out",
		"--add-rich-rule=rule family=ipv6 icmp-type name=neighbour-advertisement accept",
		"--add-rich-rule=rule family=ipv6 icmp-type name=neighbour-solicitation accept",
		"--add-rich-rule=rule family=ipv6 icmp-type name=echo-request accept",
		"--add-rich-rule=rule family=ipv6 icmp-type name=echo-reply accept"},

	{"--new-policy=public-in"},
	{"--policy=public-in", "--add-ingress-zone=public"},
	{"--policy=public-in", "--add-egress-zone=HOST"},
	{"--policy=public-in", "--add-protocol=icmp"},
	{"--policy=public-in", "--add-service=ssh", "--add-service=wireguard"},

	{"--new-policy=public-out"},
	{"--policy=public-out", "--add-ingress-zone=HOST"},
	{"--policy=public-out", "--add-egress-zone=public"},
	{"--policy=public-out", "--add-protocol=icmp"},
	{"--policy=public-out",
		"--add-service=dhcp", "--add-service=dhcpv6",
		"--add-service=http", "--add-service=https",
		"--add-service=wireguard", "--add-service=dns"},
	{"--policy=public-out", "--set-target=REJECT"},
	{"--policy=public-out",
		"--add-rich-rule=rule family=ipv6 icmp-type name=neighbour-advertisement accept",
		"--add-rich-rule=rule family=ipv6 icmp-type name=neighbour-solicitation accept",
		"--add-rich-rule=rule family=ipv6 icmp-type name=echo-request accept",
		"--add-rich-rule=rule family=ipv6 icmp-type name=echo-reply accept"},

	{"--policy=allow-host-ipv6",
		"--add-rich-rule=rule family=ipv6 icmp-type name=echo-request accept",
		"--add-rich-rule=rule family=ipv6 icmp-type name=echo-reply accept"},
}

// Firewall installs firewalld and applies the restrictive ruleset.
type Firewall struct {
	pkgs   opkg.PackageManager
	runner relay.Runner
}

// NewFirewall builds the firewall module.
func NewFirewall(pkgs opkg.PackageManager, runner relay.Runner) *Firewall {
	return &Firewall{pkgs: pkgs, runner: runner}
}

func (c *Firewall) Name() string { return "firewall" }

func (c *Firewall) Configure(args Args) error {
	// nftables arrives as a dependency of firewalld.
	for _, pkg := range []string{"firewalld", "firewalld-offline-cmd", "firewalld-log-rotate"} {
		if err := c.pkgs.Install(pkg); err != nil {
			return err
		}
	}

	steps := make([]Step, 0, len(firewallRuleset)+1)
	for _, rule := range firewallRuleset {
		rule := rule
		steps = append(steps, Step{
			Desc: "apply firewall rule: " + strings.Join(rule, " "),
			Run: func() error {
				_, err := c.runner.Run("firewall-offline-cmd", append([]string{"-q"}, rule...)...)
				return err
			},
			DryRunSafe: true,
		})
	}
	steps = append(steps, Step{
		Desc: "reload firewall",
		Run: func() error {
			_, err := c.runner.Run("firewall-cmd", "-q", "--reload")
			return err
		},
		DryRunSafe: true,
	})
	return RunSteps(args, c.Name(), steps)
}

// checkTarget compares a permanent policy's target against expected.
func (c *Firewall) checkTarget(v *verifier, policy, expected string) {
	out, err := c.runner.Output("firewall-cmd", "--permanent",
		"--policy="+policy, "--get-target")
	actual := strings.TrimSpace(out)
	v.check(err == nil && actual == expected,
		"ERROR: policy %s target: expected %s, observed %s", policy, expected, actual)
}

func (c *Firewall) Verify(args Args) bool {
	v := newVerifier(c.Name())

	out, err := c.runner.Output("pidof", "-x", "/usr/sbin/firewalld")
	running := false
	if err == nil {
		if _, convErr := strconv.Atoi(strings.TrimSpace(out)); convErr == nil {
			running = true
		}
	}
	v.check(running, "MISSING: running firewalld")

	_, err = c.runner.Output("firewall-cmd", "-q", "--check-config")
	v.check(err == nil, "MISSING: firewall-cmd")

	c.checkTarget(v, "work-in", "CONTINUE")
	c.checkTarget(v, "work-out", "REJECT")
	c.checkTarget(v, "public-in", "CONTINUE")
	c.checkTarget(v, "public-out", "REJECT")

	return v.valid
}
