package configs

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ni/nilrt-snac/internal/logging"
	"github.com/ni/nilrt-snac/internal/opkg"
	"github.com/ni/nilrt-snac/internal/relay"
)

const freshclamConf = `# Freshclam configuration for NILRT (Manual mode)
DatabaseDirectory /var/lib/clamav
UpdateLogFile /var/lib/clamav/freshclam.log
LogVerbose yes
LogSyslog no
LogFacility LOG_LOCAL6
DatabaseOwner clamav
DNSDatabaseInfo current.cvd.clamav.net
DatabaseMirror db.local.clamav.net
DatabaseMirror database.clamav.net
MaxAttempts 5
ScriptedUpdates yes
CompressLocalDatabase no
Bytecode yes
NotifyClamd /etc/clamav/clamd.conf
# MANUAL MODE: Automatic updates disabled - signatures must be updated manually
# To enable automatic updates, uncomment the line below and set desired frequency
# Checks 24
TestDatabases yes
`

const clamdConf = `# ClamAV daemon configuration for NILRT
LogFile /var/lib/clamav/clamd.log
LogTime yes
LogFileUnlock yes
LogVerbose yes
LogSyslog yes
LogFacility LOG_LOCAL6
PidFile /var/run/clamav/clamd.pid
DatabaseDirectory /var/lib/clamav
LocalSocket /var/run/clamav/clamd.ctl
LocalSocketGroup clamav
LocalSocketMode 666
User clamav
AllowSupplementaryGroups yes
TemporaryDirectory /tmp
ScanMail yes
ScanArchive yes
ArchiveBlockEncrypted no
MaxDirectoryRecursion 15
FollowDirectorySymlinks no
FollowFileSymlinks no
ReadTimeout 180
MaxThreads 12
MaxConnectionQueueLength 15
StreamMaxLength 25M
MaxFiles 10000
MaxRecursion 16
MaxFileSize 25M
MaxScanSize 100M
OnAccessMaxFileSize 5M
AllowAllMatchScan yes
ForceToDisk no
DisableCertCheck no
DisableCache no
MaxScanTime 120000
MaxZipTypeRcg 1M
MaxPartitions 50
MaxIconsPE 100
PCREMatchLimit 10000
PCRERecMatchLimit 5000
PCREMaxFileSize 25M
ScanXMLDOCS yes
ScanHWP3 yes
MaxEmbeddedPE 10M
MaxHTMLNormalize 10M
MaxHTMLNoTags 2M
MaxScriptNormalize 5M
MaxZipAdvertising 25M
AlertBrokenExecutables no
AlertBrokenMedia no
AlertEncrypted no
AlertEncryptedArchive no
AlertEncryptedDoc no
AlertMacros no
AlertOLE2Macros no
AlertPhishingSSLMismatch no
AlertPhishingCloak no
AlertPartitionIntersection no
PreludeEnable no
PreludeAnalyzerName ClamAV
DetectPUA no
ExcludePUA NetTool
ExcludePUA PWTool
IncludePUA Spy
IncludePUA Scanner
IncludePUA Rootkit
HeuristicScanPrecedence no
StructuredDataDetection no
CommandReadTimeout 30
SendBufTimeout 200
MaxQueue 100
IdleTimeout 30
ExitOnOOM no
LeaveTemporaryFiles no
AlgorithmicDetection yes
ScanPE yes
ScanELF yes
ScanOLE2 yes
ScanPDF yes
ScanSWF yes
PhishingSignatures yes
PhishingScanURLs yes
PhishingAlwaysBlockSSLMismatch no
PhishingAlwaysBlockCloak no
PartitionIntersection no
DetectBrokenExecutables no
ScanPartialMessages no
HeuristicAlerts yes
StructuredMinCreditCardCount 3
StructuredMinSSNCount 3
StructuredSSNFormatNormal yes
StructuredSSNFormatStripped yes
ScanHTML yes
MaxRecHWP3 16
`

const clamavWrapperScript = `#!/bin/bash

# ClamAV Scan Wrapper Script for NILRT
# This script manages memory requirements and performs virus scanning

# Check for root privileges
if [ "$EUID" -ne 0 ]; then
  echo "This script must be run as root. Please use sudo."
  exit 1
fi

# Check total memory in KB and convert to MB
total_mem_kb=$(grep MemTotal /proc/meminfo | awk '{print $2}')
total_mem_mb=$((total_mem_kb / 1024))

# Check if any swap is currently active
swap_active=$(swapon --show | wc -l)

# Create and enable swap file only if memory < 3GB and no swap is active
if [ "$total_mem_mb" -lt 3072 ] && [ "$swap_active" -eq 0 ]; then
  echo "System has ${total_mem_mb}MB memory. Creating temporary swap file for ClamAV..."
  fallocate -l 1G /temp_swapfile
  chmod 600 /temp_swapfile
  mkswap /temp_swapfile
  swapon /temp_swapfile
  swap_created=true
  echo "Temporary swap file created and activated."
else
  swap_created=false
  if [ "$total_mem_mb" -ge 3072 ]; then
    echo "System has sufficient memory (${total_mem_mb}MB) for ClamAV scan."
  else
    echo "Swap already active, proceeding with scan."
  fi
fi

# Note: Virus definitions are NOT automatically updated before scanning
# To update signatures manually, run: sudo freshclam
echo "Starting ClamAV scan with current virus definitions..."
echo "Note: To update signatures before scanning, run 'sudo freshclam' first"

# Run ClamAV scan with memory and performance optimizations
echo "Starting ClamAV virus scan..."
echo "This may take a while depending on the number of files..."

clamscan \
  --recursive \
  --infected \
  --max-filesize=250M \
  --max-scansize=250M \
  --exclude-dir=^/sys/ \
  --exclude-dir=^/proc/ \
  --exclude-dir=^/dev/ \
  --exclude-dir=^/tmp/ \
  --exclude-dir=^/var/tmp/ \
  --log=/var/lib/clamav/scan.log \
  "$@"

scan_result=$?

# Clean up swap file if it was created
if [ "$swap_created" = true ]; then
  echo "Cleaning up temporary swap file..."
  swapoff /temp_swapfile
  rm /temp_swapfile
  echo "Temporary swap file removed."
fi

# Report results
case $scan_result in
  0)
    echo "Scan completed successfully. No viruses found."
    ;;
  1)
    echo "Scan completed. Viruses or suspicious files were found!"
    echo "Check /var/lib/clamav/scan.log for details."
    ;;
  *)
    echo "Scan completed with errors (exit code: $scan_result)."
    echo "Check /var/lib/clamav/scan.log for details."
    ;;
esac

exit $scan_result
`

// ClamAV installs the antivirus stack configured for manual-only scans.
// Updates never run automatically; operators trigger scans through the
// installed wrapper script.
type ClamAV struct {
	pkgs   opkg.PackageManager
	runner relay.Runner
	log    *logging.Logger

	packages          []string
	etcDir            string
	clamdConfPath     string
	freshclamConfPath string
	virusDBPath       string
	wrapperDir        string
	wrapperPath       string
	resolvConfPath    string
	resolvBackupPath  string
}

// NewClamAV builds the clamav module with its production paths.
func NewClamAV(pkgs opkg.PackageManager, runner relay.Runner) *ClamAV {
	return &ClamAV{
		pkgs:              pkgs,
		runner:            runner,
		log:               logging.WithComponent("clamav"),
		packages:          []string{"clamav", "clamav-daemon", "clamav-freshclam"},
		etcDir:            "/etc/clamav",
		clamdConfPath:     "/etc/clamav/clamd.conf",
		freshclamConfPath: "/etc/clamav/freshclam.conf",
		virusDBPath:       "/var/lib/clamav",
		wrapperDir:        "/usr/local/bin",
		wrapperPath:       "/usr/local/bin/clamav-scan",
		resolvConfPath:    "/etc/resolv.conf",
		resolvBackupPath:  "/etc/resolv.conf.nilrt-backup",
	}
}

func (c *ClamAV) Name() string { return "clamav" }

func (c *ClamAV) installedPackages() []string {
	var installed []string
	for _, pkg := range c.packages {
		if c.pkgs.IsInstalled(pkg) {
			installed = append(installed, pkg)
		}
	}
	return installed
}

func (c *ClamAV) Configure(args Args) error {
	if installed := c.installedPackages(); len(installed) == 0 {
		fmt.Fprintln(args.out(), "Installing ClamAV packages...")
		if err := c.installPackages(args); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(args.out(), "ClamAV packages already installed: %s\n",
			strings.Join(installed, ", "))
	}

	if err := c.configureFiles(args); err != nil {
		return err
	}
	if err := c.createWrapperScript(args); err != nil {
		return err
	}

	c.printSummary(args.out())
	return nil
}

func (c *ClamAV) installPackages(args Args) error {
	steps := []Step{
		{
			Desc:    "back up DNS configuration",
			Run:     c.backupDNS,
			OnError: Warn,
		},
		{
			Desc:       "update package feeds",
			Run:        c.pkgs.Update,
			DryRunSafe: true,
		},
	}
	// A partial install is still usable for manual scanning, so one
	// failing package does not stop the rest.
	for _, pkg := range c.packages {
		pkg := pkg
		steps = append(steps, Step{
			Desc: "install " + pkg,
			Skip: func() (bool, string) {
				if c.pkgs.IsInstalled(pkg) {
					return true, "already installed"
				}
				return false, ""
			},
			Run:        func() error { return c.pkgs.Install(pkg) },
			DryRunSafe: true,
			OnError:    Warn,
		})
	}
	steps = append(steps, Step{
		Desc:    "repair DNS configuration",
		Run:     func() error { return c.fixDNS() },
		OnError: Warn,
	})
	return RunSteps(args, c.Name(), steps)
}

// backupDNS snapshots resolv.conf before the install, which is known to
// clobber it on some images.
func (c *ClamAV) backupDNS() error {
	if _, err := os.Stat(c.resolvBackupPath); err == nil {
		return nil
	}
	src, err := os.Open(c.resolvConfPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(c.resolvBackupPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	c.log.Info("Backed up existing " + c.resolvConfPath)
	return nil
}

func (c *ClamAV) fixDNS() error {
	needsFix := false

	info, err := os.Lstat(c.resolvConfPath)
	switch {
	case os.IsNotExist(err):
		c.log.Warn(c.resolvConfPath + " missing after ClamAV installation")
		needsFix = true
	case err != nil:
		return err
	case info.Mode()&os.ModeSymlink != 0:
		if _, err := os.Stat(c.resolvConfPath); err != nil {
			c.log.Warn("Found broken " + c.resolvConfPath + " symlink after ClamAV installation")
			if err := os.Remove(c.resolvConfPath); err != nil {
				return err
			}
			needsFix = true
		}
	default:
		data, err := os.ReadFile(c.resolvConfPath)
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(data)) == "" || !strings.Contains(string(data), "nameserver") {
			c.log.Warn(c.resolvConfPath + " is empty or has no nameservers")
			needsFix = true
		}
	}

	if !needsFix {
		c.log.Info("DNS configuration is working properly")
		return nil
	}

	if backup, err := os.ReadFile(c.resolvBackupPath); err == nil {
		c.log.Info("Restoring DNS configuration from backup")
		if err := os.WriteFile(c.resolvConfPath, backup, 0o644); err != nil {
			return err
		}
	} else {
		c.log.Info("Creating new DNS configuration")
		content := "# DNS configuration restored by nilrt-snac after ClamAV installation\n" +
			"nameserver 8.8.8.8\n" +
			"nameserver 8.8.4.4\n" +
			"nameserver 1.1.1.1\n"
		if err := os.WriteFile(c.resolvConfPath, []byte(content), 0o644); err != nil {
			return err
		}
	}
	if err := os.Chmod(c.resolvConfPath, 0o644); err != nil {
		return err
	}
	c.log.Info("Fixed " + c.resolvConfPath + " DNS configuration")

	if res, err := c.runner.RunUnchecked("nslookup", "google.com"); err == nil && res.ExitCode == 0 {
		c.log.Info("DNS resolution test passed")
	} else {
		c.log.Warn("DNS resolution test failed, but configuration created")
	}
	return nil
}

func (c *ClamAV) configureFiles(args Args) error {
	if err := RunSteps(args, c.Name(), []Step{
		{
			Desc:    "create ClamAV directories",
			Run:     c.ensureDirs,
			OnError: Warn,
		},
	}); err != nil {
		return err
	}

	freshclam, err := loadConfigFile(args, c.freshclamConfPath)
	if err != nil {
		return err
	}
	freshclam.Replace(freshclamConf)
	freshclam.Chmod(0o644)
	if err := freshclam.Save(args.DryRun); err != nil {
		return err
	}
	c.log.Info("Created freshclam configuration: " + c.freshclamConfPath)

	clamd, err := loadConfigFile(args, c.clamdConfPath)
	if err != nil {
		return err
	}
	clamd.Replace(clamdConf)
	clamd.Chmod(0o644)
	if err := clamd.Save(args.DryRun); err != nil {
		return err
	}
	c.log.Info("Created clamd configuration: " + c.clamdConfPath)

	return c.disableAutomaticServices(args)
}

func (c *ClamAV) ensureDirs() error {
	if err := os.MkdirAll(c.etcDir, 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(c.virusDBPath, 0o755); err != nil {
		return err
	}

	uid, gid, err := lookupUser("clamav")
	if err != nil {
		c.log.Warn("Could not set clamav ownership", "error", err)
		// Manual operation still works with a world-writable database dir.
		if err := os.Chmod(c.virusDBPath, 0o777); err == nil {
			c.log.Info("Set " + c.virusDBPath + " to world-writable as fallback")
		}
		return nil
	}
	if err := os.Chown(c.virusDBPath, uid, gid); err != nil {
		c.log.Warn("Could not set clamav ownership", "error", err)
		return nil
	}
	if err := os.Chmod(c.virusDBPath, 0o755); err != nil {
		return err
	}

	freshclamLog := filepath.Join(c.virusDBPath, "freshclam.log")
	if _, err := os.Stat(freshclamLog); os.IsNotExist(err) {
		if err := os.WriteFile(freshclamLog, []byte("# ClamAV freshclam log file\n"), 0o644); err != nil {
			return err
		}
		if err := os.Chown(freshclamLog, uid, gid); err != nil {
			return err
		}
	}
	return nil
}

// disableAutomaticServices keeps clamd and freshclam from starting at
// boot. Manual-only operation is the point of this module; failures are
// expected where a service manager is absent.
func (c *ClamAV) disableAutomaticServices(args Args) error {
	cmds := [][]string{
		{"systemctl", "disable", "clamav-daemon"},
		{"systemctl", "stop", "clamav-daemon"},
		{"systemctl", "disable", "clamav-freshclam"},
		{"systemctl", "stop", "clamav-freshclam"},
		{"update-rc.d", "clamav-daemon", "disable"},
		{"update-rc.d", "clamav-freshclam", "disable"},
	}
	steps := make([]Step, 0, len(cmds))
	for _, cmd := range cmds {
		cmd := cmd
		steps = append(steps, Step{
			Desc: "disable service: " + strings.Join(cmd, " "),
			Run: func() error {
				_, err := c.runner.RunUnchecked(cmd[0], cmd[1:]...)
				return err
			},
			DryRunSafe: true,
			OnError:    Ignore,
		})
	}
	if err := RunSteps(args, c.Name(), steps); err != nil {
		return err
	}

	fmt.Fprintln(args.out(), "ClamAV configured for manual operation only.")
	fmt.Fprintln(args.out(), "To start scanning manually, use: sudo clamav-scan")
	return nil
}

func (c *ClamAV) createWrapperScript(args Args) error {
	if err := RunSteps(args, c.Name(), []Step{
		{
			Desc: "create " + c.wrapperDir,
			Run:  func() error { return os.MkdirAll(c.wrapperDir, 0o755) },
		},
	}); err != nil {
		return err
	}

	wrapper, err := loadConfigFile(args, c.wrapperPath)
	if err != nil {
		return err
	}
	wrapper.Replace(clamavWrapperScript)
	wrapper.Chmod(0o755)
	if err := wrapper.Save(args.DryRun); err != nil {
		return err
	}
	c.log.Info("Created ClamAV wrapper script: " + c.wrapperPath)
	return nil
}

func (c *ClamAV) printSummary(w io.Writer) {
	sep := strings.Repeat("=", 60)
	fmt.Fprintln(w)
	fmt.Fprintln(w, sep)
	fmt.Fprintln(w, "CLAMAV INSTALLATION COMPLETED")
	fmt.Fprintln(w, sep)
	fmt.Fprintln(w, "* ClamAV packages installed")
	fmt.Fprintln(w, "* Configuration files created")
	fmt.Fprintln(w, "* Manual-only operation configured")
	fmt.Fprintln(w, "* Wrapper script created: "+c.wrapperPath)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "VIRUS SIGNATURES NOT INSTALLED")
	fmt.Fprintln(w, "ClamAV requires virus signature databases to function.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "TO INSTALL VIRUS SIGNATURES, CHOOSE ONE METHOD:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "1. ONLINE METHOD (if network available):")
	fmt.Fprintln(w, "   sudo freshclam")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "2. OFFLINE METHOD (using IPK packages):")
	fmt.Fprintln(w, "   - Download clamav-db-*.ipk from your package source")
	fmt.Fprintln(w, "   - Copy to target system")
	fmt.Fprintln(w, "   - Install: sudo opkg install clamav-db-*.ipk")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "3. MANUAL FILE COPY:")
	fmt.Fprintln(w, "   - Copy *.cvd and *.cld files to "+c.virusDBPath)
	fmt.Fprintln(w, "   - Set ownership: sudo chown clamav:clamav "+c.virusDBPath+"/*")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "USAGE AFTER SIGNATURE INSTALLATION:")
	fmt.Fprintln(w, "- To scan: sudo clamav-scan")
	fmt.Fprintln(w, "- To update signatures: sudo freshclam")
	fmt.Fprintln(w, "- To verify installation: nilrt-snac verify")
	fmt.Fprintln(w, sep)
}

func (c *ClamAV) showSignatureInstructions() {
	c.log.Info("To install virus signatures, choose one method:")
	c.log.Info("  1. Online: sudo freshclam")
	c.log.Info("  2. Offline: sudo opkg install clamav-db-*.ipk")
	c.log.Info("  3. Manual: copy *.cvd/*.cld files to " + c.virusDBPath)
}

func (c *ClamAV) Verify(args Args) bool {
	installed := c.installedPackages()
	if len(installed) == 0 {
		fmt.Fprintln(args.out(), "ClamAV is not installed; skipping verification.")
		return true
	}

	v := newVerifier(c.Name())

	for _, conf := range []string{c.clamdConfPath, c.freshclamConfPath} {
		info, err := os.Stat(conf)
		switch {
		case err != nil:
			v.check(false, "ClamAV config file missing: %s", conf)
		case info.Size() == 0:
			v.check(false, "ClamAV config file is empty: %s", conf)
		}
	}

	// Missing signatures degrade ClamAV but do not fail verification,
	// since air-gapped targets install them out of band.
	if _, err := os.Stat(c.virusDBPath); err != nil {
		c.log.Warn("ClamAV virus database directory missing: " + c.virusDBPath)
		c.log.Warn("ClamAV requires virus signatures to function properly.")
		c.showSignatureInstructions()
	} else {
		cvd, _ := filepath.Glob(filepath.Join(c.virusDBPath, "*.cvd"))
		cld, _ := filepath.Glob(filepath.Join(c.virusDBPath, "*.cld"))
		signatures := append(cvd, cld...)

		validSignatures := 0
		for _, sig := range signatures {
			if info, err := os.Stat(sig); err == nil && info.Size() > 0 {
				validSignatures++
			}
		}
		switch {
		case len(signatures) == 0:
			c.log.Warn("No ClamAV signature files found in " + c.virusDBPath)
			c.log.Warn("ClamAV requires virus signatures to function properly.")
			c.showSignatureInstructions()
		case validSignatures == 0:
			c.log.Warn("All ClamAV signature files are empty or invalid")
			c.log.Warn("ClamAV requires valid virus signatures to function properly.")
			c.showSignatureInstructions()
		default:
			c.log.Info(fmt.Sprintf("ClamAV signatures found: %d files", validSignatures))
		}
	}

	if v.valid {
		c.log.Info("ClamAV verification passed. Found packages: " + strings.Join(installed, ", "))
	}
	return v.valid
}

func lookupUser(name string) (uid, gid int, err error) {
	u, err := user.Lookup(name)
	if err != nil {
		return 0, 0, err
	}
	uid, err = strconv.Atoi(u.Uid)
	if err != nil {
		return 0, 0, err
	}
	gid, err = strconv.Atoi(u.Gid)
	if err != nil {
		return 0, 0, err
	}
	return uid, gid, nil
}
