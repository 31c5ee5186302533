package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ni/nilrt-snac/internal/clock"
	"github.com/ni/nilrt-snac/internal/snacerr"
)

func testOptions(t *testing.T, clk clock.Clock) Options {
	t.Helper()
	return Options{
		LogDir: filepath.Join(t.TempDir(), "nilrt-snac"),
		Clock:  clk,
	}
}

func TestSessionLifecycle(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 10, 15, 14, 30, 22, 0, time.Local))
	opts := testOptions(t, clk)

	origStdout := os.Stdout
	origStderr := os.Stderr
	origSink := Output()

	sess, err := Begin("configure", []string{"configure", "-y"}, opts)
	require.NoError(t, err)
	require.NotEmpty(t, sess.Path())
	assert.NotSame(t, origStdout, os.Stdout, "stdout must be captured")
	assert.NotSame(t, origStderr, os.Stderr, "stderr must be captured")

	fmt.Println("applying controls")
	Info("structured message", "module", "auditd")

	sess.End(0)

	assert.Same(t, origStdout, os.Stdout, "stdout must be restored")
	assert.Same(t, origStderr, os.Stderr, "stderr must be restored")
	assert.Same(t, origSink, Output(), "log sink must be restored")

	data, err := os.ReadFile(sess.Path())
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "NILRT SNAC CONFIGURE LOG")
	assert.Contains(t, content, "Command: nilrt-snac configure -y")
	assert.Contains(t, content, "applying controls")
	assert.Contains(t, content, "structured message")
	assert.Contains(t, content, "Exit code: 0")

	info, err := os.Stat(sess.Path())
	require.NoError(t, err)
	assert.Equal(t, LogFileMode, info.Mode().Perm())
	assert.Greater(t, info.Size(), int64(0))

	dirInfo, err := os.Stat(filepath.Dir(sess.Path()))
	require.NoError(t, err)
	assert.Equal(t, LogDirMode, dirInfo.Mode().Perm())

	assert.True(t, strings.HasSuffix(sess.Path(), "configure-20251015-143022.log"))
}

func TestSessionDuplicateTimestampFails(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 10, 15, 9, 0, 0, 0, time.Local))
	opts := testOptions(t, clk)

	first, err := Begin("verify", nil, opts)
	require.NoError(t, err)
	first.End(0)

	// The clock has not advanced, so the filename collides.
	clk.Advance(time.Millisecond)
	_, err = Begin("verify", nil, opts)
	require.Error(t, err)
	assert.Equal(t, snacerr.ExError, snacerr.CodeOf(err))
	assert.Contains(t, err.Error(), "already exists")
}

func TestSessionDistinctTimestamps(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 10, 15, 9, 0, 0, 0, time.Local))
	opts := testOptions(t, clk)

	first, err := Begin("verify", nil, opts)
	require.NoError(t, err)
	first.End(0)

	clk.Advance(time.Second)
	second, err := Begin("verify", nil, opts)
	require.NoError(t, err)
	second.End(0)

	assert.NotEqual(t, first.Path(), second.Path())
}

func TestSessionNestedBeginRejected(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 10, 15, 9, 0, 0, 0, time.Local))
	opts := testOptions(t, clk)

	sess, err := Begin("configure", nil, opts)
	require.NoError(t, err)
	defer sess.End(1)

	_, err = Begin("verify", nil, testOptions(t, clk))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already active")
}

func TestSessionEndIdempotent(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 10, 15, 9, 0, 0, 0, time.Local))
	sess, err := Begin("configure", nil, testOptions(t, clk))
	require.NoError(t, err)

	sess.End(0)
	sess.End(0) // must not panic or double-close
}

func TestSessionDisabled(t *testing.T) {
	sess, err := Begin("configure", nil, Options{Disabled: true})
	require.NoError(t, err)
	assert.Empty(t, sess.Path())
	sess.End(0) // no-op
}

func TestSessionRestorationOnFailurePath(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 10, 15, 9, 0, 0, 0, time.Local))
	opts := testOptions(t, clk)

	origStdout := os.Stdout

	run := func() (code int) {
		sess, err := Begin("configure", nil, opts)
		require.NoError(t, err)
		defer func() { sess.End(code) }()

		// Simulate a failing operation body.
		code = int(snacerr.ExBadEnvironment)
		return code
	}
	assert.Equal(t, 128, run())
	assert.Same(t, origStdout, os.Stdout)

	data, err := os.ReadFile(filepath.Join(opts.LogDir, "configure-20251015-090000.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Exit code: 128")
}
