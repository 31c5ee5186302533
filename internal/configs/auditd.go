package configs

import (
	"fmt"
	"os"
	"regexp"

	"github.com/ni/nilrt-snac/internal/configfile"
	"github.com/ni/nilrt-snac/internal/fsperm"
	"github.com/ni/nilrt-snac/internal/logging"
	"github.com/ni/nilrt-snac/internal/opkg"
	"github.com/ni/nilrt-snac/internal/relay"
)

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+$`)

func isValidEmail(email string) bool {
	return emailRE.MatchString(email)
}

const emailAlertScript = `#!/usr/bin/perl
use strict;
use warnings;
use Net::SMTP;

# Configuration
my $smtp_server = 'smtp.yourisp.com';
my $smtp_user = 'your_email@domain.com';
my $smtp_pass = 'your_password';
my $from = 'your_email@domain.com';
my $to = '%s';
my $subject = 'Audit Alert';
my $body = "A critical audit event has been triggered: $ARGV[0]";

# Create SMTP object
my $smtp = Net::SMTP->new($smtp_server, Timeout => 60)
    or die "Could not connect to SMTP server: $!";

# Authenticate
$smtp->auth($smtp_user, $smtp_pass)
    or die "SMTP authentication failed: $!";

# Send email
$smtp->mail($from)
    or die "Error setting sender: $!";
$smtp->to($to)
    or die "Error setting recipient: $!";
$smtp->data()
    or die "Error starting data: $!";
$smtp->datasend("To: $to\n");
$smtp->datasend("From: $from\n");
$smtp->datasend("Subject: $subject\n");
$smtp->datasend("\n");
$smtp->datasend("$body\n");
$smtp->dataend()
    or die "Error ending data: $!";
$smtp->quit;
`

// Auditd installs and hardens the audit daemon, routing critical audit
// events to an email address.
type Auditd struct {
	pkgs   opkg.PackageManager
	runner relay.Runner
	log    *logging.Logger

	confPath       string
	logPath        string
	scriptPath     string
	pluginConfPath string
	initScript     string
	rcLink         string
}

// NewAuditd builds the auditd module with its production paths.
func NewAuditd(pkgs opkg.PackageManager, runner relay.Runner) *Auditd {
	return &Auditd{
		pkgs:           pkgs,
		runner:         runner,
		log:            logging.WithComponent("auditd"),
		confPath:       "/etc/audit/auditd.conf",
		logPath:        "/var/log",
		scriptPath:     "/etc/audit/audit_email_alert.pl",
		pluginConfPath: "/etc/audit/plugins.d/audit_email_alert.conf",
		initScript:     "/etc/init.d/auditd",
		rcLink:         "/etc/rc2.d/S20auditd",
	}
}

func (c *Auditd) Name() string { return "auditd" }

// resolveEmail picks the audit alert address: the flag value, then the
// address already configured, then an interactive prompt, falling back to
// the local root account.
func (c *Auditd) resolveEmail(args Args, conf *configfile.File) string {
	email := args.AuditEmail
	if email == "" {
		email = conf.Get("action_mail_acct")
	}
	if isValidEmail(email) {
		return email
	}
	if !args.Yes {
		email = args.Prompt("Please enter your audit email address: ")
		if isValidEmail(email) {
			return email
		}
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	return "root@" + hostname
}

// chownFile records ownership on a pending file. Under dry run an
// unresolvable principal is a warning, since the groups the real run
// creates may not exist yet.
func (c *Auditd) chownFile(args Args, f *configfile.File, owner, group string) error {
	err := f.Chown(owner, group)
	if err != nil && args.DryRun {
		c.log.Warn("dry-run: skipping ownership", "path", f.Path(), "error", err)
		return nil
	}
	return err
}

func (c *Auditd) Configure(args Args) error {
	conf, err := loadConfigFile(args, c.confPath)
	if err != nil {
		return err
	}

	if err := c.pkgs.Install("auditd"); err != nil {
		return err
	}

	steps := []Step{
		{
			Desc:       "create audit groups",
			Run:        func() error { return fsperm.EnsureGroups(c.runner, "adm", "sudo") },
			DryRunSafe: true,
		},
	}
	if err := RunSteps(args, c.Name(), steps); err != nil {
		return err
	}

	email := c.resolveEmail(args, conf)
	if isValidEmail(email) {
		if err := conf.Update(`^action_mail_acct\s*=.*$`, "action_mail_acct = "+email); err != nil {
			return err
		}

		if err := c.pkgs.Install("perl-module-net-smtp"); err != nil {
			return err
		}
		if err := c.pkgs.Install("audispd-plugins"); err != nil {
			return err
		}

		script, err := loadConfigFile(args, c.scriptPath)
		if err != nil {
			return err
		}
		if !script.Exists() {
			script.Add(fmt.Sprintf(emailAlertScript, email))
			script.Chmod(0o700)
			if err := c.chownFile(args, script, "root", "sudo"); err != nil {
				return err
			}
			if err := script.Save(args.DryRun); err != nil {
				return err
			}
		}

		plugin, err := loadConfigFile(args, c.pluginConfPath)
		if err != nil {
			return err
		}
		if !plugin.Exists() {
			plugin.Add("active = yes\n" +
				"direction = out\n" +
				"path = " + c.scriptPath + "\n" +
				"type = always\n")
			plugin.Chmod(0o600)
			if err := c.chownFile(args, plugin, "root", "sudo"); err != nil {
				return err
			}
			if err := plugin.Save(args.DryRun); err != nil {
				return err
			}
		}
	}

	// Only root and the sudo group may read or change the audit config.
	conf.Chmod(0o660)
	if err := c.chownFile(args, conf, "root", "sudo"); err != nil {
		return err
	}
	if err := conf.Save(args.DryRun); err != nil {
		return err
	}

	return RunSteps(args, c.Name(), []Step{
		{
			Desc: "enable auditd at boot",
			Skip: func() (bool, string) {
				if _, err := os.Stat(c.rcLink); err == nil {
					return true, "already enabled"
				}
				return false, ""
			},
			Run: func() error {
				_, err := c.runner.Run("update-rc.d", "auditd", "defaults")
				return err
			},
			DryRunSafe: true,
		},
		{
			Desc: "restart auditd",
			Run: func() error {
				_, err := c.runner.Run(c.initScript, "restart")
				return err
			},
			DryRunSafe: true,
		},
		{
			Desc: "restrict " + c.logPath + " to root and the adm group",
			Run: func() error {
				if _, err := c.runner.Run("chown", "-R", "root:adm", c.logPath); err != nil {
					return err
				}
				_, err := c.runner.Run("chmod", "-R", "770", c.logPath)
				return err
			},
			DryRunSafe: true,
		},
		{
			Desc: "inherit log permissions on new files",
			Run: func() error {
				if _, err := c.runner.Run("setfacl", "-d", "-m", "g:adm:rwx", c.logPath); err != nil {
					return err
				}
				_, err := c.runner.Run("setfacl", "-d", "-m", "o::0", c.logPath)
				return err
			},
			DryRunSafe: true,
		},
	})
}

func (c *Auditd) Verify(args Args) bool {
	v := newVerifier(c.Name())

	v.check(c.pkgs.IsInstalled("auditd"), "MISSING: auditd not installed")

	conf, err := configfile.Load(c.confPath)
	if err != nil || !conf.Exists() {
		v.check(false, "MISSING: %s not found", c.confPath)
	} else {
		v.check(isValidEmail(conf.Get("action_mail_acct")),
			"MISSING: expected action_mail_acct value")
	}

	v.check(checked(fsperm.CheckGroup(c.confPath, "sudo")),
		"ERROR: %s is not owned by the 'sudo' group.", c.confPath)
	v.check(checked(fsperm.CheckMode(c.confPath, 0o660)),
		"ERROR: %s does not have 660 permissions.", c.confPath)
	v.check(checked(fsperm.CheckOwner(c.confPath, "root")),
		"ERROR: %s is not owned by 'root'.", c.confPath)

	v.check(checked(fsperm.CheckGroup(c.logPath, "adm")),
		"ERROR: %s is not owned by the 'adm' group.", c.logPath)
	v.check(checked(fsperm.CheckMode(c.logPath, 0o770)),
		"ERROR: %s does not have 770 permissions.", c.logPath)
	v.check(checked(fsperm.CheckOwner(c.logPath, "root")),
		"ERROR: %s is not owned by 'root'.", c.logPath)

	return v.valid
}
