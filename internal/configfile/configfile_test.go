package configfile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
	return path
}

func TestLoadMissingFile(t *testing.T) {
	f, err := Load(filepath.Join(t.TempDir(), "absent.conf"))
	require.NoError(t, err)

	assert.False(t, f.Exists())
	assert.Empty(t, f.Content())
}

func TestUpdateAndContains(t *testing.T) {
	path := writeTemp(t, "sshd_config", "ClientAliveInterval 0\nClientAliveCountMax 3\n", 0o644)
	f, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, f.Update(`^ClientAliveInterval .*$`, "ClientAliveInterval 15"))
	assert.Contains(t, f.Content(), "ClientAliveInterval 15\n")
	assert.Contains(t, f.Content(), "ClientAliveCountMax 3\n")

	assert.True(t, f.Contains(`^ClientAliveInterval 15$`))
	assert.False(t, f.Contains(`^ClientAliveInterval 0$`))
}

func TestContainsExact(t *testing.T) {
	path := writeTemp(t, "profile", "  TMOUT=600  \nexport TMOUT\n", 0o644)
	f, err := Load(path)
	require.NoError(t, err)

	assert.True(t, f.ContainsExact("TMOUT=600"))
	assert.True(t, f.ContainsExact("export TMOUT"))
	assert.False(t, f.ContainsExact("TMOUT=300"))
}

func TestGetEqualsDelimited(t *testing.T) {
	path := writeTemp(t, "auditd.conf", "log_file = /var/log/audit.log\naction_mail_acct\t= root\nflush = INCREMENTAL_ASYNC\n", 0o640)
	f, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/log/audit.log", f.Get("log_file"))
	assert.Equal(t, "root", f.Get("action_mail_acct"))
	assert.Equal(t, "", f.Get("missing_key"))
}

func TestSavePreservesMode(t *testing.T) {
	path := writeTemp(t, "freshclam.conf", "# comment\n", 0o640)
	f, err := Load(path)
	require.NoError(t, err)

	f.Add("DatabaseMirror database.clamav.net\n")
	require.NoError(t, f.Save(false))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# comment\nDatabaseMirror database.clamav.net\n", string(data))
}

func TestSaveNewFileDefaultMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snac.conf")
	f, err := Load(path)
	require.NoError(t, err)

	f.Add("Defaults timestamp_timeout=0\n")
	f.Chmod(0o440)
	require.NoError(t, f.Save(false))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o440), info.Mode().Perm())
	assert.True(t, f.Exists())
}

func TestSaveDryRunWritesNothing(t *testing.T) {
	path := writeTemp(t, "ntp.conf", "server 1.pool.ntp.org\n", 0o644)
	f, err := Load(path)
	require.NoError(t, err)

	var out bytes.Buffer
	f.Out = &out

	require.NoError(t, f.Update(`^server .*$`, "server 0.us.pool.ntp.mil iburst maxpoll 16"))
	require.NoError(t, f.Save(true))

	// The file on disk is untouched.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "server 1.pool.ntp.org\n", string(data))

	// The pending change is shown as a unified diff.
	assert.Contains(t, out.String(), "dry-run: would write "+path)
	assert.Contains(t, out.String(), "-server 1.pool.ntp.org")
	assert.Contains(t, out.String(), "+server 0.us.pool.ntp.mil iburst maxpoll 16")
}

func TestSaveDryRunUnchanged(t *testing.T) {
	path := writeTemp(t, "same.conf", "unchanged\n", 0o644)
	f, err := Load(path)
	require.NoError(t, err)

	var out bytes.Buffer
	f.Out = &out
	require.NoError(t, f.Save(true))

	assert.Contains(t, out.String(), "unchanged")
	assert.NotContains(t, out.String(), "would write")
}
