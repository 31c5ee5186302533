package configs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ni/nilrt-snac/internal/relay"
)

func TestSyslogNGConfigure(t *testing.T) {
	pkgs := newFakePkgs()
	d := &relay.DryRunner{Out: &bytes.Buffer{}}

	c := NewSyslogNG(pkgs, d)
	require.NoError(t, c.Configure(Args{Out: &bytes.Buffer{}}))

	assert.Equal(t, []string{"syslog-ng"}, pkgs.installs)
	assert.Equal(t, []string{
		`nirtcfg --set section=SystemSettings,token=PersistentLogs.enabled,value="True"`,
		"/etc/init.d/syslog restart",
	}, d.Commands())
}

func TestSyslogNGVerifyPackageMissing(t *testing.T) {
	c := NewSyslogNG(newFakePkgs(), nil)
	c.confPath = t.TempDir() + "/absent.conf"
	assert.False(t, c.Verify(Args{Out: &bytes.Buffer{}}))
}
