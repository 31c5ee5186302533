// Package cmd implements the nilrt-snac subcommands.
package cmd

import (
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ni/nilrt-snac/internal/brand"
	"github.com/ni/nilrt-snac/internal/history"
	"github.com/ni/nilrt-snac/internal/logging"
	"github.com/ni/nilrt-snac/internal/settings"
)

// loadSettings reads the optional tool settings file, layered over the
// built-in defaults.
func loadSettings() (settings.Settings, error) {
	return settings.Load(brand.ConfigFilePath())
}

// historyRetentionDays bounds how long run records are kept before Prune
// drops them.
const historyRetentionDays = 90

func historyPath(cfg settings.Settings) string {
	return filepath.Join(cfg.DataDir, "history.db")
}

// currentUsername resolves the invoking user, falling back to the numeric
// uid when the passwd lookup fails (static binaries on minimal targets).
func currentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return strconv.Itoa(os.Getuid())
}

// recordRun appends one finished invocation to the run history. Recording
// is best-effort: failures are logged and never fail the run they document.
func recordRun(cfg settings.Settings, sess *logging.Session, command string, start time.Time, exitCode int) {
	store, err := history.Open(historyPath(cfg), historyRetentionDays)
	if err != nil {
		logging.Warn("run history unavailable", "error", err)
		return
	}
	defer store.Close()

	err = store.Record(history.Run{
		Timestamp: start,
		Session:   sess.ID(),
		Command:   command,
		User:      currentUsername(),
		ExitCode:  exitCode,
		LogPath:   sess.Path(),
		Duration:  time.Since(start),
	})
	if err != nil {
		logging.Warn("failed to record run", "error", err)
	}
}
