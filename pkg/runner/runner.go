// Package runner executes external commands on the local host. Every system
// mutation joomlactl performs (apt, apachectl, certbot, wipefs, dd) goes
// through a Runner so commands are traced and loggable in one place.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/joomlactl/joomlactl/pkg/telemetry"
	"github.com/joomlactl/joomlactl/pkg/utils"
)

// Runner executes commands on the local host.
type Runner interface {
	// Run executes the command and returns its combined output.
	Run(ctx context.Context, name string, args ...string) (string, error)
	// RunWithInput executes the command with data piped to stdin.
	RunWithInput(ctx context.Context, input, name string, args ...string) (string, error)
	// LookPath reports whether the named binary is on PATH.
	LookPath(name string) (string, error)
}

// Local runs commands directly via os/exec.
type Local struct {
	verbose bool
	env     []string
}

// NewLocal creates a local runner. Extra environment entries (KEY=value)
// are appended to the inherited environment.
func NewLocal(verbose bool, env ...string) *Local {
	return &Local{verbose: verbose, env: env}
}

// Run executes the command and returns its combined output.
func (l *Local) Run(ctx context.Context, name string, args ...string) (string, error) {
	return l.RunWithInput(ctx, "", name, args...)
}

// RunWithInput executes the command with data piped to stdin.
func (l *Local) RunWithInput(ctx context.Context, input, name string, args ...string) (string, error) {
	cmdline := formatCommandLine(name, args)
	ctx, span := telemetry.TraceCommand(ctx, cmdline)
	defer span.End()

	cmd := exec.CommandContext(ctx, name, args...)
	if len(l.env) > 0 {
		cmd.Env = append(cmd.Environ(), l.env...)
	}
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	if l.verbose {
		fmt.Printf("  Running: %s\n", cmdline)
	}

	err := cmd.Run()
	output := strings.TrimSpace(buf.String())
	if err != nil {
		telemetry.EndWithError(span, err)
		return output, fmt.Errorf("command failed '%s': %w: %s", cmdline, err, firstLine(output))
	}
	return output, nil
}

// LookPath reports whether the named binary is on PATH.
func (l *Local) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// formatCommandLine renders the invocation for logs and error messages,
// quoting arguments that contain spaces.
func formatCommandLine(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, a := range args {
		parts = append(parts, utils.Quote(a))
	}
	return strings.Join(parts, " ")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
