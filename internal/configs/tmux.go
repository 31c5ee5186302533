package configs

import (
	"github.com/ni/nilrt-snac/internal/configfile"
	"github.com/ni/nilrt-snac/internal/opkg"
)

const tmuxSnacSnippet = `
# NILRT SNAC configuration tmux-snac.conf. Do not hand-edit.
set -g lock-after-time 900
`

const tmuxProfileSnippet = `
# NILRT SNAC configuration tmux.sh. Do not hand-edit.
if [ "$PS1" ]; then
    parent=$(ps -o ppid= -p $$)
    name=$(ps -o comm= -p $parent)
    case "$name" in (sshd|login) exec tmux ;; esac
fi
`

// Tmux wraps interactive logins in tmux with an inactivity lock.
type Tmux struct {
	pkgs opkg.PackageManager

	confPath    string
	profilePath string
}

// NewTmux builds the tmux module.
func NewTmux(pkgs opkg.PackageManager) *Tmux {
	return &Tmux{
		pkgs:        pkgs,
		confPath:    "/usr/share/tmux/conf.d/snac.conf",
		profilePath: "/etc/profile.d/tmux.sh",
	}
}

func (c *Tmux) Name() string { return "tmux" }

func (c *Tmux) Configure(args Args) error {
	if err := c.pkgs.Install("tmux"); err != nil {
		return err
	}

	conf, err := loadConfigFile(args, c.confPath)
	if err != nil {
		return err
	}
	profile, err := loadConfigFile(args, c.profilePath)
	if err != nil {
		return err
	}

	if !conf.Exists() {
		conf.Add(tmuxSnacSnippet)
	}
	if !profile.Exists() {
		profile.Add(tmuxProfileSnippet)
	}

	if err := conf.Save(args.DryRun); err != nil {
		return err
	}
	return profile.Save(args.DryRun)
}

func (c *Tmux) Verify(args Args) bool {
	v := newVerifier(c.Name())

	v.check(c.pkgs.IsInstalled("tmux"), "MISSING: tmux not installed")

	conf, err := configfile.Load(c.confPath)
	if err != nil || !conf.Exists() {
		v.check(false, "MISSING: %s not found", c.confPath)
	} else {
		v.check(conf.Contains("set -g lock-after-time"), "MISSING: commands to inactivity lock")
	}

	profile, err := configfile.Load(c.profilePath)
	if err != nil || !profile.Exists() {
		v.check(false, "MISSING: %s not found", c.profilePath)
	} else {
		v.check(profile.Contains("exec tmux"), "MISSING: command to replace shell with tmux")
	}

	return v.valid
}
