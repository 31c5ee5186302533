// Package configfile edits text configuration files in memory and writes
// them back atomically at save time, so a dry run can show the pending
// change as a diff without touching the file.
package configfile

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"regexp"
	"strconv"
	"strings"
	"syscall"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/ni/nilrt-snac/internal/logging"
	"github.com/ni/nilrt-snac/internal/snacerr"
)

// File holds the in-memory contents and pending metadata of one
// configuration file.
type File struct {
	path     string
	original string
	content  string
	mode     os.FileMode
	uid      int
	gid      int
	exists   bool

	// Out receives dry-run diffs; defaults to os.Stdout at save time.
	Out io.Writer
}

// Load reads the file at path if it exists. A missing file starts empty
// with mode 0600 and no pending ownership change.
func Load(path string) (*File, error) {
	f := &File{
		path: path,
		mode: 0o600,
		uid:  -1,
		gid:  -1,
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	f.exists = true
	f.original = string(data)
	f.content = string(data)
	f.mode = info.Mode().Perm()
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		f.uid = int(st.Uid)
		f.gid = int(st.Gid)
	}
	return f, nil
}

// Path returns the file's path.
func (f *File) Path() string {
	return f.path
}

// Exists reports whether the file was present on disk at load time.
func (f *File) Exists() bool {
	return f.exists
}

// Content returns the current in-memory contents.
func (f *File) Content() string {
	return f.content
}

// Update replaces every match of the multiline pattern with repl.
func (f *File) Update(pattern, repl string) error {
	re, err := regexp.Compile("(?m)" + pattern)
	if err != nil {
		return snacerr.Wrap(snacerr.ExError, err, "bad pattern %q", pattern)
	}
	f.content = re.ReplaceAllString(f.content, repl)
	return nil
}

// Add appends text to the in-memory contents.
func (f *File) Add(text string) {
	f.content += text
}

// Replace substitutes the entire in-memory contents.
func (f *File) Replace(text string) {
	f.content = text
}

// Contains reports whether the multiline pattern matches the contents.
func (f *File) Contains(pattern string) bool {
	re, err := regexp.Compile("(?m)" + pattern)
	if err != nil {
		return false
	}
	return re.MatchString(f.content)
}

// ContainsExact reports whether some line equals the given text, ignoring
// leading and trailing whitespace on the line.
func (f *File) ContainsExact(line string) bool {
	re := regexp.MustCompile(`(?m)^\s*` + regexp.QuoteMeta(line) + `\s*$`)
	return re.MatchString(f.content)
}

// Get returns the value of the first equals-delimited line whose key side
// matches key with all whitespace stripped, or "" when absent.
func (f *File) Get(key string) string {
	for _, line := range strings.Split(f.content, "\n") {
		k, v, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		k = strings.ReplaceAll(k, " ", "")
		k = strings.ReplaceAll(k, "\t", "")
		if k == key {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Chmod records a mode to apply at save time.
func (f *File) Chmod(mode os.FileMode) {
	f.mode = mode
}

// Chown records an owner and group to apply at save time.
func (f *File) Chown(owner, group string) error {
	u, err := user.Lookup(owner)
	if err != nil {
		return snacerr.Wrap(snacerr.ExError, err, "looking up user %s", owner)
	}
	g, err := user.LookupGroup(group)
	if err != nil {
		return snacerr.Wrap(snacerr.ExError, err, "looking up group %s", group)
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return snacerr.Wrap(snacerr.ExError, err, "parsing uid for %s", owner)
	}
	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return snacerr.Wrap(snacerr.ExError, err, "parsing gid for %s", group)
	}
	f.uid = uid
	f.gid = gid
	return nil
}

func (f *File) out() io.Writer {
	if f.Out != nil {
		return f.Out
	}
	return os.Stdout
}

// Save writes the contents, mode, and ownership to disk. Under dry run
// nothing is written; a unified diff of the pending change is printed
// instead.
func (f *File) Save(dryRun bool) error {
	log := logging.WithComponent("configfile")

	if dryRun {
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(f.original),
			B:        difflib.SplitLines(f.content),
			FromFile: f.path,
			ToFile:   f.path + " (pending)",
			Context:  3,
		})
		if err != nil {
			return snacerr.Wrap(snacerr.ExError, err, "diffing %s", f.path)
		}
		if diff == "" {
			fmt.Fprintf(f.out(), "dry-run: %s unchanged\n", f.path)
		} else {
			fmt.Fprintf(f.out(), "dry-run: would write %s:\n%s", f.path, diff)
		}
		return nil
	}

	if err := os.WriteFile(f.path, []byte(f.content), f.mode); err != nil {
		return snacerr.Wrap(snacerr.ExError, err, "writing %s", f.path)
	}
	// WriteFile's mode only applies at creation.
	if err := os.Chmod(f.path, f.mode); err != nil {
		return snacerr.Wrap(snacerr.ExError, err, "chmod %s", f.path)
	}
	if f.uid >= 0 && f.gid >= 0 {
		if err := os.Chown(f.path, f.uid, f.gid); err != nil {
			return snacerr.Wrap(snacerr.ExError, err, "chown %s", f.path)
		}
	}

	log.Debug("Contents of " + f.path + ":")
	log.Debug(f.content)
	f.original = f.content
	f.exists = true
	return nil
}
