package joomla

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joomlactl/joomlactl/pkg/runner"
)

// WebUser owns the unpacked site files.
const WebUser = "www-data"

// Installer unpacks a downloaded release into the web root.
type Installer struct {
	run runner.Runner
}

// NewInstaller creates an installer using the given command runner.
func NewInstaller(run runner.Runner) *Installer {
	return &Installer{run: run}
}

// Unpack extracts the full-package tarball into destDir, creating it first.
func (i *Installer) Unpack(ctx context.Context, archivePath, destDir string) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create site directory: %w", err)
	}
	if _, err := i.run.Run(ctx, "tar", "-xzf", archivePath, "-C", destDir); err != nil {
		return fmt.Errorf("failed to extract %s: %w", filepath.Base(archivePath), err)
	}
	return nil
}

// SetOwnership hands the site tree to the web server user.
func (i *Installer) SetOwnership(ctx context.Context, destDir string) error {
	_, err := i.run.Run(ctx, "chown", "-R", WebUser+":"+WebUser, destDir)
	return err
}
