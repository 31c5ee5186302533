package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ni/nilrt-snac/internal/configs"
	"github.com/ni/nilrt-snac/internal/logging"
	"github.com/ni/nilrt-snac/internal/opkg"
	"github.com/ni/nilrt-snac/internal/prereqs"
	"github.com/ni/nilrt-snac/internal/relay"
	"github.com/ni/nilrt-snac/internal/snacerr"
)

const osReleasePath = "/etc/os-release"

// RunConfigure applies SNAC mode to the running system. Under dryRun every
// mutation is announced instead of performed; noLog skips the audit log
// capture; auditEmail overrides the auditd alert recipient.
func RunConfigure(yes, dryRun, noLog bool, auditEmail string) (err error) {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	if auditEmail == "" {
		auditEmail = cfg.AuditEmail
	}

	sess, err := logging.Begin("configure", os.Args[2:], logging.Options{
		Disabled: noLog || dryRun,
		LogDir:   cfg.LogDir,
		Group:    cfg.AuditGroup,
	})
	if err != nil {
		return err
	}
	start := time.Now()
	defer func() {
		code := int(snacerr.CodeOf(err))
		sess.End(code)
		if !dryRun {
			recordRun(cfg, sess, "configure", start, code)
		}
	}()

	logging.Warn("!! THIS TOOL IS IN-DEVELOPMENT AND APPROPRIATE ONLY FOR DEVELOPER TESTING !!")
	logging.Warn("!! Running this tool will irreversibly alter the state of your system.    !!")
	logging.Warn("!! If you are accessing your system using WiFi, you will lose connection. !!")

	args := configs.Args{DryRun: dryRun, Yes: yes, AuditEmail: auditEmail}
	if !yes && !promptConsent(args) {
		return nil
	}

	var runner relay.Runner
	if dryRun {
		runner = &relay.DryRunner{}
	} else {
		runner = &relay.StreamRunner{}
	}
	pkgs := opkg.New(runner, prereqs.Distro(osReleasePath))

	if !dryRun {
		if err = prereqs.NewChecker(pkgs, runner).Verify(os.Stdout); err != nil {
			return err
		}
	}

	fmt.Println("Configuring SNAC mode.")
	if err = pkgs.Update(); err != nil {
		return err
	}
	if err = configs.NewDefaultRegistry(pkgs, runner).ConfigureAll(args); err != nil {
		return err
	}

	fmt.Println("!! A reboot is now required to affect your system configuration. !!")
	fmt.Println("!! Login with user 'root' and no password.                       !!")
	return nil
}

// promptConsent asks for confirmation and records the answer. Terminal echo
// bypasses the capture pipes, so the answer is logged explicitly to keep
// the audit record complete.
func promptConsent(args configs.Args) bool {
	consent := strings.ToLower(args.Prompt("Do you want to continue with SNAC configuration? [y/N] "))
	logging.Info("Operator consent", "answer", consent)
	return consent == "y" || consent == "yes"
}
