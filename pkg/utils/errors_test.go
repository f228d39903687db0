package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("connection refused")

	err := NewError("drop site database", cause)
	assert.Equal(t, "drop site database: connection refused", err.Error())

	withDetails := NewError("drop site database", cause, "socket /run/mysqld/mysqld.sock")
	assert.Equal(t, "drop site database: connection refused: socket /run/mysqld/mysqld.sock", withDetails.Error())
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewError("step", cause)
	assert.ErrorIs(t, err, cause)
}

func TestWrapf(t *testing.T) {
	assert.NoError(t, Wrapf(nil, "ignored"))

	cause := errors.New("no such file")
	err := Wrapf(cause, "failed to read %s", "/etc/os-release")
	assert.EqualError(t, err, "failed to read /etc/os-release: no such file")
	assert.ErrorIs(t, err, cause)
}

func TestMultiError(t *testing.T) {
	var m MultiError
	assert.False(t, m.HasErrors())
	assert.NoError(t, m.ErrorOrNil())

	m.Add(nil)
	assert.False(t, m.HasErrors())

	first := errors.New("first")
	m.Add(first)
	assert.True(t, m.HasErrors())
	assert.Equal(t, "first", m.Error())

	m.Add(errors.New("second"))
	msg := m.ErrorOrNil().Error()
	assert.Contains(t, msg, "multiple errors occurred")
	assert.Contains(t, msg, "1. first")
	assert.Contains(t, msg, "2. second")
}
