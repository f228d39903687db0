// Package syscheck verifies the external tools joomlactl shells out to.
package syscheck

import (
	"context"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Requirement represents a system requirement
type Requirement struct {
	Name        string
	Command     string
	Args        []string
	Required    bool
	Installed   bool
	Version     string
	InstallHint string
}

// CheckResult holds the results of system checks
type CheckResult struct {
	Requirements []Requirement
	AllRequired  bool
}

// SystemChecker checks system requirements
type SystemChecker struct {
	verbose bool
}

// NewSystemChecker creates a new system checker
func NewSystemChecker(verbose bool) *SystemChecker {
	return &SystemChecker{verbose: verbose}
}

// CheckAll probes every requirement; probes run concurrently since each is
// an independent --version invocation.
func (s *SystemChecker) CheckAll(ctx context.Context) *CheckResult {
	requirements := []Requirement{
		{
			Name:        "apt",
			Command:     "apt-get",
			Args:        []string{"--version"},
			Required:    true,
			InstallHint: "joomlactl only supports Ubuntu/Debian hosts",
		},
		{
			Name:        "systemd",
			Command:     "systemctl",
			Args:        []string{"--version"},
			Required:    true,
			InstallHint: "systemd is required for service management",
		},
		{
			Name:        "Apache",
			Command:     "apachectl",
			Args:        []string{"-v"},
			Required:    false,
			InstallHint: "installed by 'joomlactl install' (apt-get install apache2)",
		},
		{
			Name:        "Certbot",
			Command:     "certbot",
			Args:        []string{"--version"},
			Required:    false,
			InstallHint: "installed by 'joomlactl install' (apt-get install certbot python3-certbot-apache)",
		},
		{
			Name:        "tar",
			Command:     "tar",
			Args:        []string{"--version"},
			Required:    true,
			InstallHint: "apt-get install tar",
		},
		{
			Name:        "wipefs",
			Command:     "wipefs",
			Args:        []string{"--version"},
			Required:    false,
			InstallHint: "apt-get install util-linux (needed by 'joomlactl wipe')",
		},
		{
			Name:        "dd",
			Command:     "dd",
			Args:        []string{"--version"},
			Required:    false,
			InstallHint: "apt-get install coreutils (needed by 'joomlactl wipe')",
		},
	}

	result := &CheckResult{
		Requirements: make([]Requirement, len(requirements)),
		AllRequired:  true,
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, req := range requirements {
		g.Go(func() error {
			req.Installed, req.Version = s.checkRequirement(ctx, req)
			result.Requirements[i] = req
			return nil
		})
	}
	g.Wait()

	for _, req := range result.Requirements {
		if req.Required && !req.Installed {
			result.AllRequired = false
		}
	}
	return result
}

// checkRequirement checks if a requirement is installed
func (s *SystemChecker) checkRequirement(ctx context.Context, req Requirement) (bool, string) {
	cmd := exec.CommandContext(ctx, req.Command, req.Args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return false, ""
	}
	return true, s.extractVersion(string(output))
}

// extractVersion pulls the first token that looks like a version number.
func (s *SystemChecker) extractVersion(output string) string {
	line := output
	if i := strings.IndexByte(output, '\n'); i >= 0 {
		line = output[:i]
	}
	for _, field := range strings.Fields(line) {
		trimmed := strings.Trim(field, "v()")
		if len(trimmed) > 0 && trimmed[0] >= '0' && trimmed[0] <= '9' {
			return trimmed
		}
	}
	return strings.TrimSpace(line)
}
