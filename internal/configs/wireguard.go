package configs

import (
	"path/filepath"
	"strings"

	"github.com/ni/nilrt-snac/internal/configfile"
	"github.com/ni/nilrt-snac/internal/logging"
	"github.com/ni/nilrt-snac/internal/opkg"
	"github.com/ni/nilrt-snac/internal/relay"
)

const wireguardToolsDeb = "http://ftp.us.debian.org/debian/pool/main/w/wireguard/wireguard-tools_1.0.20210914-1+b1_amd64.deb"

const ifplugdWglv0Snippet = `

# This assignment block is managed by the nilrt-snac package.
ARGS_wglv0="$ARGS --no-auto"
# endblock
`

// Wireguard installs wireguard-tools and provisions the wglv0 management
// link the firewall work zone binds to.
type Wireguard struct {
	pkgs   opkg.PackageManager
	runner relay.Runner
	log    *logging.Logger

	sysconfDir  string
	opkgConf    string
	ifplugdConf string
}

// NewWireguard builds the wireguard module.
func NewWireguard(pkgs opkg.PackageManager, runner relay.Runner) *Wireguard {
	return &Wireguard{
		pkgs:        pkgs,
		runner:      runner,
		log:         logging.WithComponent("wireguard"),
		sysconfDir:  "/etc/wireguard",
		opkgConf:    opkg.SnacConf,
		ifplugdConf: "/etc/ifplugd/ifplugd.conf",
	}
}

func (c *Wireguard) Name() string { return "wireguard" }

func (c *Wireguard) Configure(args Args) error {
	conf, err := loadConfigFile(args, filepath.Join(c.sysconfDir, "wglv0.conf"))
	if err != nil {
		return err
	}
	privKey, err := loadConfigFile(args, filepath.Join(c.sysconfDir, "wglv0.privatekey"))
	if err != nil {
		return err
	}
	pubKey, err := loadConfigFile(args, filepath.Join(c.sysconfDir, "wglv0.publickey"))
	if err != nil {
		return err
	}
	opkgConf, err := loadConfigFile(args, c.opkgConf)
	if err != nil {
		return err
	}
	ifplugd, err := loadConfigFile(args, c.ifplugdConf)
	if err != nil {
		return err
	}

	if err := RunSteps(args, c.Name(), []Step{
		{
			Desc: "download wireguard-tools",
			Run: func() error {
				_, err := c.runner.Run("wget", wireguardToolsDeb, "-O", "./wireguard-tools.deb")
				return err
			},
			DryRunSafe: true,
		},
	}); err != nil {
		return err
	}

	if !opkgConf.Contains("arch amd64 15") {
		opkgConf.Add("arch amd64 15\n")
		// Saved before the install so amd64 is a valid architecture.
		if err := opkgConf.Save(args.DryRun); err != nil {
			return err
		}
	}
	if err := c.pkgs.Install("./wireguard-tools.deb", opkg.ForceReinstall()); err != nil {
		return err
	}

	if !ifplugd.Contains(`^ARGS_wglv0.*`) {
		ifplugd.Add(ifplugdWglv0Snippet)
	}

	if !conf.Contains(`^PrivateKey = .+`) && !privKey.Exists() {
		c.log.Debug("Generating wireguard keypair.")
		priv, err := c.runner.Output("wg", "genkey")
		if err != nil {
			return err
		}
		priv = strings.TrimSpace(priv)
		privKey.Add(priv)
		privKey.Chmod(0o600)

		pub, err := c.runner.OutputWithInput(priv, "wg", "pubkey")
		if err != nil {
			return err
		}
		pubKey.Add(strings.TrimSpace(pub))
		pubKey.Chmod(0o600)
	}

	for _, f := range []*configfile.File{conf, privKey, pubKey, opkgConf, ifplugd} {
		if err := f.Save(args.DryRun); err != nil {
			return err
		}
	}

	return RunSteps(args, c.Name(), []Step{
		{
			Desc: "enable the wireguard service",
			Run: func() error {
				_, err := c.runner.Run("update-rc.d", "ni-wireguard-labview",
					"start", "03", "3", "4", "5", ".", "stop", "05", "0", "6", ".")
				return err
			},
			DryRunSafe: true,
		},
		{
			Desc: "restart the wireguard service",
			Run: func() error {
				_, err := c.runner.Run("/etc/init.d/ni-wireguard-labview", "restart")
				return err
			},
			DryRunSafe: true,
		},
	})
}

func (c *Wireguard) Verify(args Args) bool {
	v := newVerifier(c.Name())

	v.check(c.pkgs.IsInstalled("wireguard-tools"), "MISSING: wireguard-tools not installed")

	for _, name := range []string{"wglv0.conf", "wglv0.privatekey", "wglv0.publickey"} {
		path := filepath.Join(c.sysconfDir, name)
		f, err := configfile.Load(path)
		v.check(err == nil && f.Exists(), "MISSING: %s", path)
	}

	opkgConf, err := configfile.Load(c.opkgConf)
	v.check(err == nil && opkgConf.Contains("arch amd64 15"),
		"MISSING: 'arch amd64 15' in %s", c.opkgConf)

	ifplugd, err := configfile.Load(c.ifplugdConf)
	v.check(err == nil && ifplugd.Contains(`ARGS_wglv0=.*`),
		"MISSING: 'ARGS_wglv0=.*' in %s", c.ifplugdConf)

	return v.valid
}
