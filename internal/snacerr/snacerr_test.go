package snacerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ExOK, CodeOf(nil))
	assert.Equal(t, ExError, CodeOf(errors.New("plain")))
	assert.Equal(t, ExBadEnvironment, CodeOf(New(ExBadEnvironment, "no log dir")))
	assert.Equal(t, ExCheckFailure, CodeOf(New(ExCheckFailure, "non-compliant")))

	// Wrapped through fmt.Errorf the code must survive.
	inner := New(ExUsage, "missing command")
	outer := fmt.Errorf("cli: %w", inner)
	assert.Equal(t, ExUsage, CodeOf(outer))
}

func TestErrorMessage(t *testing.T) {
	e := Wrap(ExBadEnvironment, errors.New("permission denied"), "creating log file %s", "/var/log/x")
	assert.Contains(t, e.Error(), "creating log file /var/log/x")
	assert.Contains(t, e.Error(), "permission denied")

	var se *Error
	assert.True(t, errors.As(e, &se))
	assert.Equal(t, ExBadEnvironment, se.Code)
	assert.ErrorContains(t, errors.Unwrap(e), "permission denied")
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "check failure", ExCheckFailure.String())
	assert.Equal(t, "bad environment", ExBadEnvironment.String())
	assert.Equal(t, "code(42)", Code(42).String())
}
