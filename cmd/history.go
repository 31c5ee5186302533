package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ni/nilrt-snac/internal/history"
	"github.com/ni/nilrt-snac/internal/logging"
)

// RunHistory prints the most recent configure and verify runs.
func RunHistory(limit int) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	store, err := history.Open(historyPath(cfg), historyRetentionDays)
	if err != nil {
		return fmt.Errorf("opening run history: %w", err)
	}
	defer store.Close()

	if n, err := store.Prune(); err != nil {
		logging.Warn("failed to prune run history", "error", err)
	} else if n > 0 {
		logging.Debug("pruned run history", "removed", n)
	}

	runs, err := store.List(limit)
	if err != nil {
		return fmt.Errorf("listing run history: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tCOMMAND\tUSER\tEXIT\tDURATION\tLOG")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.Command,
			r.User,
			r.ExitCode,
			r.Duration.Round(time.Millisecond),
			r.LogPath,
		)
	}
	return w.Flush()
}
