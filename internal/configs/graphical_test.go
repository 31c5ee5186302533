package configs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ni/nilrt-snac/internal/relay"
)

func TestGraphicalConfigure(t *testing.T) {
	pkgs := newFakePkgs("packagegroup-ni-graphical", "packagegroup-core-x11")
	d := &relay.DryRunner{Out: &bytes.Buffer{}}

	c := NewGraphical(pkgs, d)
	require.NoError(t, c.Configure(Args{Out: &bytes.Buffer{}}))

	assert.Equal(t, []string{"packagegroup-ni-graphical", "packagegroup-core-x11"}, pkgs.removes)
	assert.Equal(t, []string{
		"nirtcfg --set section=systemsettings,token=ui.enabled,value=False",
	}, d.Commands())
}

func TestGraphicalConfigureDryRun(t *testing.T) {
	var out bytes.Buffer
	d := &relay.DryRunner{Out: &out}

	c := NewGraphical(newFakePkgs(), d)
	require.NoError(t, c.Configure(Args{DryRun: true, Out: &out}))

	assert.Contains(t, out.String(),
		"dry-run: would run nirtcfg --set section=systemsettings,token=ui.enabled,value=False")
}

func TestGraphicalVerify(t *testing.T) {
	t.Run("headless", func(t *testing.T) {
		c := NewGraphical(newFakePkgs(), nil)
		assert.True(t, c.Verify(Args{Out: &bytes.Buffer{}}))
	})

	t.Run("forbidden package present", func(t *testing.T) {
		c := NewGraphical(newFakePkgs("sysconfig-settings-ui"), nil)
		assert.False(t, c.Verify(Args{Out: &bytes.Buffer{}}))
	})
}

func TestFaillock(t *testing.T) {
	pkgs := newFakePkgs()
	c := NewFaillock(pkgs)

	require.NoError(t, c.Configure(Args{Out: &bytes.Buffer{}}))
	assert.Equal(t, []string{"pam-plugin-faillock"}, pkgs.installs)
	assert.True(t, c.Verify(Args{Out: &bytes.Buffer{}}))

	assert.False(t, NewFaillock(newFakePkgs()).Verify(Args{Out: &bytes.Buffer{}}))
}

func TestSysAPI(t *testing.T) {
	pkgs := newFakePkgs()
	c := NewSysAPI(pkgs)

	require.NoError(t, c.Configure(Args{Out: &bytes.Buffer{}}))
	assert.Equal(t, []string{"ni-sysapi-sshcli"}, pkgs.installs)
	assert.True(t, c.Verify(Args{Out: &bytes.Buffer{}}))

	assert.False(t, NewSysAPI(newFakePkgs()).Verify(Args{Out: &bytes.Buffer{}}))
}
