package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ni/nilrt-snac/cmd"
	"github.com/ni/nilrt-snac/internal/brand"
	"github.com/ni/nilrt-snac/internal/logging"
	"github.com/ni/nilrt-snac/internal/snacerr"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(int(snacerr.ExUsage))
	}

	switch os.Args[1] {
	case "configure":
		configureFlags := flag.NewFlagSet("configure", flag.ExitOnError)
		yes := configureFlags.Bool("yes", false, "Consent to changes")
		configureFlags.BoolVar(yes, "y", false, "Consent to changes (short)")

		dryRun := configureFlags.Bool("dry-run", false, "Print intended changes without applying them")
		configureFlags.BoolVar(dryRun, "n", false, "Dry run (short)")

		verbose := configureFlags.Bool("verbose", false, "Print debug information")
		configureFlags.BoolVar(verbose, "v", false, "Verbose (short)")

		noLog := configureFlags.Bool("no-log", false, "Skip the audit log capture")
		auditEmail := configureFlags.String("audit-email", "", "Recipient for auditd email alerts")

		configureFlags.Parse(os.Args[2:])
		setVerbose(*verbose)

		exit(cmd.RunConfigure(*yes, *dryRun, *noLog, *auditEmail))

	case "verify":
		verifyFlags := flag.NewFlagSet("verify", flag.ExitOnError)
		dryRun := verifyFlags.Bool("dry-run", false, "Skip environment pre-checks")
		verifyFlags.BoolVar(dryRun, "n", false, "Dry run (short)")

		verbose := verifyFlags.Bool("verbose", false, "Print debug information")
		verifyFlags.BoolVar(verbose, "v", false, "Verbose (short)")

		noLog := verifyFlags.Bool("no-log", false, "Skip the audit log capture")

		verifyFlags.Parse(os.Args[2:])
		setVerbose(*verbose)

		exit(cmd.RunVerify(*dryRun, *noLog))

	case "history":
		historyFlags := flag.NewFlagSet("history", flag.ExitOnError)
		limit := historyFlags.Int("limit", 20, "Maximum number of runs to list")
		historyFlags.IntVar(limit, "l", 20, "Maximum number of runs (short)")

		historyFlags.Parse(os.Args[2:])

		exit(cmd.RunHistory(*limit))

	case "version":
		fmt.Printf("%s version %s\n", brand.Name, brand.Version)
		fmt.Printf("Build: %s\n", brand.BuildTime)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(int(snacerr.ExUsage))
	}
}

func setVerbose(verbose bool) {
	if verbose {
		logging.Default().SetLevel(logging.LevelDebug)
	}
}

func exit(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(int(snacerr.CodeOf(err)))
	}
}

func printUsage() {
	fmt.Printf(`%s - %s

Usage:
  %s <command> [options]

Commands:
  configure  Apply SNAC mode to this system
             Options: --yes (-y), --dry-run (-n), --verbose (-v),
                      --no-log, --audit-email <addr>
  verify     Verify SNAC mode is configured correctly
             Options: --dry-run (-n), --verbose (-v), --no-log
  history    List past configure and verify runs
             Options: --limit (-l) <n>
  version    Print version information

Examples:
  %s configure -y                   # Apply without the consent prompt
  %s configure --dry-run            # Show what would change
  %s verify                         # Re-check every control
  %s history -l 5                   # Last five runs
`,
		brand.Name, brand.Description,
		brand.BinaryName,
		brand.BinaryName, brand.BinaryName, brand.BinaryName, brand.BinaryName)
}
