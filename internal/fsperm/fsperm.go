// Package fsperm checks and establishes filesystem ownership, group
// membership, and permission modes used by the verify paths.
package fsperm

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
	"syscall"

	"github.com/ni/nilrt-snac/internal/relay"
	"github.com/ni/nilrt-snac/internal/snacerr"
)

// CheckOwner reports whether the file at path is owned by the named user.
func CheckOwner(path, owner string) (bool, error) {
	st, err := stat(path)
	if err != nil {
		return false, err
	}
	u, err := user.LookupId(strconv.Itoa(int(st.Uid)))
	if err != nil {
		return false, fmt.Errorf("resolving uid %d of %s: %w", st.Uid, path, err)
	}
	return u.Username == owner, nil
}

// CheckGroup reports whether the file at path belongs to the named group.
func CheckGroup(path, group string) (bool, error) {
	st, err := stat(path)
	if err != nil {
		return false, err
	}
	g, err := user.LookupGroupId(strconv.Itoa(int(st.Gid)))
	if err != nil {
		return false, fmt.Errorf("resolving gid %d of %s: %w", st.Gid, path, err)
	}
	return g.Name == group, nil
}

// CheckMode reports whether the permission bits of path equal mode exactly.
func CheckMode(path string, mode os.FileMode) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Mode().Perm() == mode.Perm(), nil
}

// LookupGID resolves a group name to its numeric id.
func LookupGID(group string) (int, error) {
	g, err := user.LookupGroup(group)
	if err != nil {
		return 0, fmt.Errorf("looking up group %s: %w", group, err)
	}
	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return 0, fmt.Errorf("parsing gid for %s: %w", group, err)
	}
	return gid, nil
}

// EnsureGroups creates each named group when it does not already exist.
func EnsureGroups(runner relay.Runner, groups ...string) error {
	for _, group := range groups {
		if _, err := user.LookupGroup(group); err == nil {
			continue
		}
		if _, err := runner.Run("groupadd", "-r", group); err != nil {
			return snacerr.Wrap(snacerr.ExError, err, "creating group %s", group)
		}
	}
	return nil
}

func stat(path string) (*syscall.Stat_t, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return nil, fmt.Errorf("stat %s: no ownership data", path)
	}
	return st, nil
}
