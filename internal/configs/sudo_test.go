package configs

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSudoConfigure(t *testing.T) {
	confPath := filepath.Join(t.TempDir(), "snac")

	c := NewSudo()
	c.confPath = confPath
	require.NoError(t, c.Configure(Args{Out: &bytes.Buffer{}}))

	data, err := os.ReadFile(confPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Defaults timestamp_timeout=0")

	info, err := os.Stat(confPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	assert.True(t, c.Verify(Args{Out: &bytes.Buffer{}}))
}

func TestSudoConfigureDoesNotDuplicate(t *testing.T) {
	confPath := filepath.Join(t.TempDir(), "snac")
	existing := "Defaults timestamp_timeout=0\n"
	require.NoError(t, os.WriteFile(confPath, []byte(existing), 0o600))

	c := NewSudo()
	c.confPath = confPath
	require.NoError(t, c.Configure(Args{Out: &bytes.Buffer{}}))

	data, err := os.ReadFile(confPath)
	require.NoError(t, err)
	assert.Equal(t, existing, string(data))
}

func TestSudoVerifyMissing(t *testing.T) {
	c := NewSudo()
	c.confPath = filepath.Join(t.TempDir(), "absent")
	assert.False(t, c.Verify(Args{Out: &bytes.Buffer{}}))
}
