package configs

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ni/nilrt-snac/internal/opkg"
)

// fakePkgs is an in-memory PackageManager for module tests.
type fakePkgs struct {
	installed  map[string]bool
	installs   []string
	removes    []string
	updates    int
	installErr map[string]error
}

func newFakePkgs(installed ...string) *fakePkgs {
	f := &fakePkgs{installed: make(map[string]bool)}
	for _, pkg := range installed {
		f.installed[pkg] = true
	}
	return f
}

func (f *fakePkgs) IsInstalled(pkg string) bool { return f.installed[pkg] }

func (f *fakePkgs) Install(pkg string, opts ...opkg.InstallOption) error {
	if err := f.installErr[pkg]; err != nil {
		return err
	}
	f.installs = append(f.installs, pkg)
	f.installed[pkg] = true
	return nil
}

func (f *fakePkgs) Remove(pkg string, opts ...opkg.RemoveOption) error {
	f.removes = append(f.removes, pkg)
	delete(f.installed, pkg)
	return nil
}

func (f *fakePkgs) Update() error {
	f.updates++
	return nil
}

type stubConfig struct {
	name         string
	configureErr error
	verifyResult bool
	configured   int
	verified     int
}

func (s *stubConfig) Name() string { return s.name }
func (s *stubConfig) Configure(args Args) error {
	s.configured++
	return s.configureErr
}
func (s *stubConfig) Verify(args Args) bool {
	s.verified++
	return s.verifyResult
}

func TestRunStepsDryRunAnnounces(t *testing.T) {
	var out bytes.Buffer
	ran := false

	err := RunSteps(Args{DryRun: true, Out: &out}, "test", []Step{
		{Desc: "mutate the system", Run: func() error { ran = true; return nil }},
	})
	require.NoError(t, err)

	assert.False(t, ran)
	assert.Equal(t, "dry-run: would mutate the system\n", out.String())
}

func TestRunStepsDryRunSafeExecutes(t *testing.T) {
	var out bytes.Buffer
	ran := false

	err := RunSteps(Args{DryRun: true, Out: &out}, "test", []Step{
		{Desc: "delegate", Run: func() error { ran = true; return nil }, DryRunSafe: true},
	})
	require.NoError(t, err)

	assert.True(t, ran)
	assert.Empty(t, out.String())
}

func TestRunStepsSkip(t *testing.T) {
	ran := false

	err := RunSteps(Args{Out: &bytes.Buffer{}}, "test", []Step{
		{
			Desc: "skipped work",
			Skip: func() (bool, string) { return true, "already done" },
			Run:  func() error { ran = true; return nil },
		},
	})
	require.NoError(t, err)
	assert.False(t, ran)
}

func TestRunStepsFailurePolicies(t *testing.T) {
	boom := errors.New("boom")

	t.Run("fatal stops the run", func(t *testing.T) {
		reached := false
		err := RunSteps(Args{Out: &bytes.Buffer{}}, "test", []Step{
			{Desc: "first", Run: func() error { return boom }},
			{Desc: "second", Run: func() error { reached = true; return nil }},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "first")
		assert.False(t, reached)
	})

	t.Run("warn continues", func(t *testing.T) {
		reached := false
		err := RunSteps(Args{Out: &bytes.Buffer{}}, "test", []Step{
			{Desc: "first", Run: func() error { return boom }, OnError: Warn},
			{Desc: "second", Run: func() error { reached = true; return nil }},
		})
		require.NoError(t, err)
		assert.True(t, reached)
	})

	t.Run("ignore continues", func(t *testing.T) {
		err := RunSteps(Args{Out: &bytes.Buffer{}}, "test", []Step{
			{Desc: "only", Run: func() error { return boom }, OnError: Ignore},
		})
		require.NoError(t, err)
	})
}

func TestArgsPrompt(t *testing.T) {
	var out bytes.Buffer
	args := Args{In: strings.NewReader("admin@example.com\n"), Out: &out}

	answer := args.Prompt("Email: ")
	assert.Equal(t, "admin@example.com", answer)
	assert.Equal(t, "Email: ", out.String())
}

func TestRegistryConfigureAllStopsAtFailure(t *testing.T) {
	first := &stubConfig{name: "first"}
	second := &stubConfig{name: "second", configureErr: errors.New("boom")}
	third := &stubConfig{name: "third"}

	var out bytes.Buffer
	err := NewRegistry(first, second, third).ConfigureAll(Args{Out: &out})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuring second")

	assert.Equal(t, 1, first.configured)
	assert.Equal(t, 1, second.configured)
	assert.Equal(t, 0, third.configured)
	assert.Contains(t, out.String(), "Configuring first...")
	assert.Contains(t, out.String(), "Configuring second...")
}

func TestRegistryVerifyAllRunsEverything(t *testing.T) {
	first := &stubConfig{name: "first", verifyResult: true}
	second := &stubConfig{name: "second", verifyResult: false}
	third := &stubConfig{name: "third", verifyResult: true}

	valid := NewRegistry(first, second, third).VerifyAll(Args{Out: &bytes.Buffer{}})
	assert.False(t, valid)

	// A failure never short-circuits later modules.
	assert.Equal(t, 1, first.verified)
	assert.Equal(t, 1, second.verified)
	assert.Equal(t, 1, third.verified)
}

func TestDefaultRegistryOrder(t *testing.T) {
	r := NewDefaultRegistry(newFakePkgs(), nil)
	assert.Equal(t, []string{
		"ntp", "opkg", "wireguard", "cryptsetup", "niauth", "wifi",
		"faillock", "graphical", "console", "sysapi", "tmux", "pwquality",
		"ssh", "sudo", "firewall", "auditd", "syslog-ng", "clamav",
	}, r.Names())
}
