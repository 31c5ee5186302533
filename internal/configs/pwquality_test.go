package configs

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const commonPassword = "password\t[success=1 default=ignore]\tpam_unix.so obscure sha512\n"

func newTestPWQuality(t *testing.T, content string) *PWQuality {
	t.Helper()
	c := NewPWQuality()
	c.confPath = filepath.Join(t.TempDir(), "common-password")
	require.NoError(t, os.WriteFile(c.confPath, []byte(content), 0o644))
	return c
}

func TestPWQualityConfigure(t *testing.T) {
	c := newTestPWQuality(t, commonPassword)

	require.NoError(t, c.Configure(Args{Out: &bytes.Buffer{}}))

	data, err := os.ReadFile(c.confPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pam_unix.so obscure sha512 remember=5")
	assert.Contains(t, string(data), "password\trequisite\tpam_pwquality.so retry=3")
}

func TestPWQualityConfigureIdempotent(t *testing.T) {
	configured := commonPassword[:len(commonPassword)-1] + " remember=5\n" +
		"password\trequisite\tpam_pwquality.so retry=3\n"
	c := newTestPWQuality(t, configured)

	require.NoError(t, c.Configure(Args{Out: &bytes.Buffer{}}))

	data, err := os.ReadFile(c.confPath)
	require.NoError(t, err)
	assert.Equal(t, configured, string(data))
}

func TestPWQualityVerify(t *testing.T) {
	t.Run("configured", func(t *testing.T) {
		c := newTestPWQuality(t,
			commonPassword[:len(commonPassword)-1]+" remember=5\n"+
				"password\trequisite\tpam_pwquality.so retry=3\n")
		assert.True(t, c.Verify(Args{Out: &bytes.Buffer{}}))
	})

	t.Run("no history setting", func(t *testing.T) {
		c := newTestPWQuality(t, commonPassword)
		assert.False(t, c.Verify(Args{Out: &bytes.Buffer{}}))
	})
}
