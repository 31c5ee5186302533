package configs

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ni/nilrt-snac/internal/relay"
)

func newTestClamAV(t *testing.T, pkgs *fakePkgs, runner relay.Runner) *ClamAV {
	t.Helper()
	dir := t.TempDir()

	c := NewClamAV(pkgs, runner)
	c.etcDir = filepath.Join(dir, "etc")
	c.clamdConfPath = filepath.Join(dir, "etc", "clamd.conf")
	c.freshclamConfPath = filepath.Join(dir, "etc", "freshclam.conf")
	c.virusDBPath = filepath.Join(dir, "db")
	c.wrapperDir = filepath.Join(dir, "bin")
	c.wrapperPath = filepath.Join(dir, "bin", "clamav-scan")
	c.resolvConfPath = filepath.Join(dir, "resolv.conf")
	c.resolvBackupPath = filepath.Join(dir, "resolv.conf.backup")
	return c
}

func TestClamAVConfigureAlreadyInstalled(t *testing.T) {
	pkgs := newFakePkgs("clamav", "clamav-daemon", "clamav-freshclam")
	d := &relay.DryRunner{Out: &bytes.Buffer{}}
	c := newTestClamAV(t, pkgs, d)

	var out bytes.Buffer
	require.NoError(t, c.Configure(Args{Out: &out}))

	// No install pass when packages are present.
	assert.Empty(t, pkgs.installs)
	assert.Zero(t, pkgs.updates)
	assert.Contains(t, out.String(), "ClamAV packages already installed")

	// Config files land with manual-mode settings.
	freshclam, err := os.ReadFile(c.freshclamConfPath)
	require.NoError(t, err)
	assert.Contains(t, string(freshclam), "DatabaseMirror database.clamav.net")

	clamd, err := os.ReadFile(c.clamdConfPath)
	require.NoError(t, err)
	assert.Contains(t, string(clamd), "DatabaseDirectory /var/lib/clamav")

	wrapper, err := os.Stat(c.wrapperPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), wrapper.Mode().Perm())

	// Services get disabled for manual-only operation.
	cmds := strings.Join(d.Commands(), "\n")
	assert.Contains(t, cmds, "systemctl disable clamav-daemon")
	assert.Contains(t, cmds, "update-rc.d clamav-freshclam disable")

	assert.Contains(t, out.String(), "CLAMAV INSTALLATION COMPLETED")
}

func TestClamAVConfigureInstallsWhenAbsent(t *testing.T) {
	pkgs := newFakePkgs()
	d := &relay.DryRunner{Out: &bytes.Buffer{}}
	c := newTestClamAV(t, pkgs, d)

	require.NoError(t, os.WriteFile(c.resolvConfPath, []byte("nameserver 10.0.0.1\n"), 0o644))

	var out bytes.Buffer
	require.NoError(t, c.Configure(Args{Out: &out}))

	assert.Equal(t, 1, pkgs.updates)
	assert.Equal(t, []string{"clamav", "clamav-daemon", "clamav-freshclam"}, pkgs.installs)

	// resolv.conf is backed up before the install touches it.
	backup, err := os.ReadFile(c.resolvBackupPath)
	require.NoError(t, err)
	assert.Equal(t, "nameserver 10.0.0.1\n", string(backup))
}

func TestClamAVConfigureInstallFailureIsWarning(t *testing.T) {
	pkgs := newFakePkgs()
	pkgs.installErr = map[string]error{"clamav-daemon": assert.AnError}
	d := &relay.DryRunner{Out: &bytes.Buffer{}}
	c := newTestClamAV(t, pkgs, d)

	require.NoError(t, c.Configure(Args{Out: &bytes.Buffer{}}))

	// The remaining packages still install.
	assert.Equal(t, []string{"clamav", "clamav-freshclam"}, pkgs.installs)
}

func TestClamAVFixDNSRestoresFromBackup(t *testing.T) {
	d := &relay.DryRunner{Out: &bytes.Buffer{}}
	c := newTestClamAV(t, newFakePkgs(), d)

	require.NoError(t, os.WriteFile(c.resolvBackupPath, []byte("nameserver 10.0.0.1\n"), 0o644))
	require.NoError(t, os.WriteFile(c.resolvConfPath, []byte(""), 0o644))

	require.NoError(t, c.fixDNS())

	restored, err := os.ReadFile(c.resolvConfPath)
	require.NoError(t, err)
	assert.Equal(t, "nameserver 10.0.0.1\n", string(restored))
}

func TestClamAVFixDNSCreatesDefault(t *testing.T) {
	d := &relay.DryRunner{Out: &bytes.Buffer{}}
	c := newTestClamAV(t, newFakePkgs(), d)

	require.NoError(t, c.fixDNS())

	created, err := os.ReadFile(c.resolvConfPath)
	require.NoError(t, err)
	assert.Contains(t, string(created), "nameserver 8.8.8.8")
}

func TestClamAVVerify(t *testing.T) {
	t.Run("not installed skips verification", func(t *testing.T) {
		var out bytes.Buffer
		c := newTestClamAV(t, newFakePkgs(), nil)
		assert.True(t, c.Verify(Args{Out: &out}))
		assert.Contains(t, out.String(), "skipping verification")
	})

	t.Run("configured", func(t *testing.T) {
		c := newTestClamAV(t, newFakePkgs("clamav"), nil)
		require.NoError(t, os.MkdirAll(c.etcDir, 0o755))
		require.NoError(t, os.MkdirAll(c.virusDBPath, 0o755))
		require.NoError(t, os.WriteFile(c.clamdConfPath, []byte(clamdConf), 0o644))
		require.NoError(t, os.WriteFile(c.freshclamConfPath, []byte(freshclamConf), 0o644))
		require.NoError(t, os.WriteFile(
			filepath.Join(c.virusDBPath, "main.cvd"), []byte("sigs"), 0o644))

		assert.True(t, c.Verify(Args{Out: &bytes.Buffer{}}))
	})

	t.Run("empty config fails", func(t *testing.T) {
		c := newTestClamAV(t, newFakePkgs("clamav"), nil)
		require.NoError(t, os.MkdirAll(c.etcDir, 0o755))
		require.NoError(t, os.WriteFile(c.clamdConfPath, []byte{}, 0o644))
		require.NoError(t, os.WriteFile(c.freshclamConfPath, []byte(freshclamConf), 0o644))

		assert.False(t, c.Verify(Args{Out: &bytes.Buffer{}}))
	})

	t.Run("missing signatures is only a warning", func(t *testing.T) {
		c := newTestClamAV(t, newFakePkgs("clamav"), nil)
		require.NoError(t, os.MkdirAll(c.etcDir, 0o755))
		require.NoError(t, os.MkdirAll(c.virusDBPath, 0o755))
		require.NoError(t, os.WriteFile(c.clamdConfPath, []byte(clamdConf), 0o644))
		require.NoError(t, os.WriteFile(c.freshclamConfPath, []byte(freshclamConf), 0o644))

		assert.True(t, c.Verify(Args{Out: &bytes.Buffer{}}))
	})
}
