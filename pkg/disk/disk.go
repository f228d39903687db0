// Package disk detects the block device backing the mounted root filesystem
// and performs the destructive wipe.
package disk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/joomlactl/joomlactl/pkg/runner"
)

// Detector resolves the root disk. The proc and sysfs paths are fields so
// tests can point them at fixtures.
type Detector struct {
	// ProcMounts is the mount table, normally /proc/self/mounts.
	ProcMounts string
	// SysBlock is the sysfs block class directory, normally /sys/class/block.
	SysBlock string
}

// NewDetector creates a detector reading the real proc and sysfs trees.
func NewDetector() *Detector {
	return &Detector{
		ProcMounts: "/proc/self/mounts",
		SysBlock:   "/sys/class/block",
	}
}

// RootDisk returns the whole-disk device backing the root filesystem.
// If root is mounted on a partition, the partition is mapped to its parent
// disk; if root is mounted directly on a whole disk, that device is returned
// as-is.
func (d *Detector) RootDisk() (string, error) {
	source, err := d.rootSource()
	if err != nil {
		return "", err
	}

	// Resolve UUID/LABEL symlinks to the canonical /dev node.
	if resolved, err := filepath.EvalSymlinks(source); err == nil {
		source = resolved
	}

	name := filepath.Base(source)
	parent, err := d.parentDisk(name)
	if err != nil {
		return "", err
	}
	return "/dev/" + parent, nil
}

// rootSource finds the mount source of "/" in the mount table.
func (d *Detector) rootSource() (string, error) {
	data, err := os.ReadFile(d.ProcMounts)
	if err != nil {
		return "", fmt.Errorf("failed to read mount table: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if fields[1] == "/" && strings.HasPrefix(fields[0], "/dev/") {
			return fields[0], nil
		}
	}
	return "", fmt.Errorf("root filesystem mount source not found in %s", d.ProcMounts)
}

// parentDisk maps a partition name to its parent disk name using sysfs.
// A whole-disk name maps to itself.
func (d *Detector) parentDisk(name string) (string, error) {
	entry := filepath.Join(d.SysBlock, name)
	if _, err := os.Stat(entry); err != nil {
		return "", fmt.Errorf("unknown block device %s: %w", name, err)
	}

	// Partitions carry a "partition" attribute; whole disks do not.
	if _, err := os.Stat(filepath.Join(entry, "partition")); err != nil {
		return name, nil
	}

	// The sysfs entry for a partition lives inside its parent's directory:
	// .../block/sda/sda1. Follow the symlink and take the parent.
	target, err := filepath.EvalSymlinks(entry)
	if err != nil {
		return "", fmt.Errorf("failed to resolve sysfs entry for %s: %w", name, err)
	}
	parent := filepath.Base(filepath.Dir(target))
	if parent == "block" || parent == "." || parent == "/" {
		return "", fmt.Errorf("failed to map partition %s to a parent disk", name)
	}
	return parent, nil
}

// IsBlockDevice reports whether path exists and is a block device node.
func IsBlockDevice(path string) bool {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return false
	}
	return st.Mode&unix.S_IFMT == unix.S_IFBLK
}

// Wiper destroys a disk's contents.
type Wiper struct {
	run runner.Runner
	// ZeroMiB is how many MiB of zeroes to write over the start of the
	// device after the signature wipe.
	ZeroMiB int
}

// NewWiper creates a wiper using the given command runner.
func NewWiper(run runner.Runner) *Wiper {
	return &Wiper{run: run, ZeroMiB: 100}
}

// WipeSignatures removes all filesystem and partition-table signatures.
func (w *Wiper) WipeSignatures(ctx context.Context, device string) error {
	if !IsBlockDevice(device) {
		return fmt.Errorf("%s is not a block device", device)
	}
	_, err := w.run.Run(ctx, "wipefs", "--all", "--force", device)
	return err
}

// ZeroStart overwrites the first ZeroMiB MiB of the device with zeroes.
func (w *Wiper) ZeroStart(ctx context.Context, device string) error {
	if !IsBlockDevice(device) {
		return fmt.Errorf("%s is not a block device", device)
	}
	_, err := w.run.Run(ctx, "dd",
		"if=/dev/zero",
		"of="+device,
		"bs=1M",
		fmt.Sprintf("count=%d", w.ZeroMiB),
		"conv=fsync",
	)
	return err
}
