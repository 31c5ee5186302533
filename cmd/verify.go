package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/ni/nilrt-snac/internal/configs"
	"github.com/ni/nilrt-snac/internal/logging"
	"github.com/ni/nilrt-snac/internal/opkg"
	"github.com/ni/nilrt-snac/internal/prereqs"
	"github.com/ni/nilrt-snac/internal/relay"
	"github.com/ni/nilrt-snac/internal/snacerr"
)

// RunVerify re-checks every security control and fails with a check-failure
// exit when any control is out of compliance.
func RunVerify(dryRun, noLog bool) (err error) {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	sess, err := logging.Begin("verify", os.Args[2:], logging.Options{
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
			recordRun(cfg, sess, "verify", start, code)
		}
	}()

	// Verification only issues read-only probes, so the real runner is
	// safe even under dry-run.
	runner := &relay.StreamRunner{}
	pkgs := opkg.New(runner, prereqs.Distro(osReleasePath))

	if !dryRun {
		if err = prereqs.NewChecker(pkgs, runner).Verify(os.Stdout); err != nil {
			return err
		}
	}

	fmt.Println("Validating SNAC mode.")
	if !configs.NewDefaultRegistry(pkgs, runner).VerifyAll(configs.Args{DryRun: dryRun}) {
		return snacerr.New(snacerr.ExCheckFailure, "SNAC mode is not configured correctly")
	}
	return nil
}
