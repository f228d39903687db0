package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRun(t *testing.T) {
	l := NewLocal(false)

	out, err := l.Run(context.Background(), "echo", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestLocalRunWithInput(t *testing.T) {
	l := NewLocal(false)

	out, err := l.RunWithInput(context.Background(), "piped input\n", "cat")
	require.NoError(t, err)
	assert.Equal(t, "piped input", out)
}

func TestLocalRunCommandNotFound(t *testing.T) {
	l := NewLocal(false)

	_, err := l.Run(context.Background(), "definitely-not-a-real-binary-xyz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command failed")
}

func TestLocalRunNonZeroExit(t *testing.T) {
	l := NewLocal(false)

	_, err := l.Run(context.Background(), "false")
	assert.Error(t, err)
}

func TestLocalRunEnv(t *testing.T) {
	l := NewLocal(false, "JOOMLACTL_TEST_VAR=marker")

	out, err := l.Run(context.Background(), "sh", "-c", "echo $JOOMLACTL_TEST_VAR")
	require.NoError(t, err)
	assert.Equal(t, "marker", out)
}

func TestLookPath(t *testing.T) {
	l := NewLocal(false)

	path, err := l.LookPath("sh")
	require.NoError(t, err)
	assert.NotEmpty(t, path)

	_, err = l.LookPath("definitely-not-a-real-binary-xyz")
	assert.Error(t, err)
}

func TestFormatCommandLine(t *testing.T) {
	assert.Equal(t, "apt-get install -y apache2",
		formatCommandLine("apt-get", []string{"install", "-y", "apache2"}))
	assert.Equal(t, "sh -c 'echo hi'",
		formatCommandLine("sh", []string{"-c", "echo hi"}))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "one", firstLine("one\ntwo"))
	assert.Equal(t, "single", firstLine("single"))
	assert.Equal(t, "", firstLine(""))
}
