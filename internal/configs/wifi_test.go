package configs

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ni/nilrt-snac/internal/relay"
)

func TestWIFIConfigure(t *testing.T) {
	confPath := filepath.Join(t.TempDir(), "snac_blacklist.conf")
	d := &relay.DryRunner{Out: &bytes.Buffer{}}

	c := NewWIFI(d)
	c.confPath = confPath
	require.NoError(t, c.Configure(Args{Out: &bytes.Buffer{}}))

	data, err := os.ReadFile(confPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "install cfg80211 /bin/true")
	assert.Contains(t, string(data), "install mac80211 /bin/true")

	assert.Equal(t, []string{"rmmod cfg80211 mac80211"}, d.Commands())
	assert.True(t, c.Verify(Args{Out: &bytes.Buffer{}}))
}

func TestWIFIConfigureDryRun(t *testing.T) {
	confPath := filepath.Join(t.TempDir(), "snac_blacklist.conf")
	d := &relay.DryRunner{Out: &bytes.Buffer{}}
	var out bytes.Buffer

	c := NewWIFI(d)
	c.confPath = confPath
	require.NoError(t, c.Configure(Args{DryRun: true, Out: &out}))

	// Nothing lands on disk; the pending write shows as a diff.
	assert.NoFileExists(t, confPath)
	assert.Contains(t, out.String(), "install cfg80211 /bin/true")
}

func TestWIFIVerifyMissing(t *testing.T) {
	c := NewWIFI(nil)
	c.confPath = filepath.Join(t.TempDir(), "absent.conf")
	assert.False(t, c.Verify(Args{Out: &bytes.Buffer{}}))
}
