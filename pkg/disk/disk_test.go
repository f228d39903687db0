package disk

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records commands instead of executing them.
type fakeRunner struct {
	calls [][]string
	err   error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return "", f.err
}

func (f *fakeRunner) RunWithInput(ctx context.Context, input, name string, args ...string) (string, error) {
	return f.Run(ctx, name, args...)
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	return "/usr/bin/" + name, nil
}

// fixture builds a fake proc mounts file and sysfs block tree.
type fixture struct {
	mounts   string
	sysBlock string
}

func newFixture(t *testing.T, mountsContent string) *fixture {
	t.Helper()
	dir := t.TempDir()
	mounts := filepath.Join(dir, "mounts")
	require.NoError(t, os.WriteFile(mounts, []byte(mountsContent), 0644))
	sysBlock := filepath.Join(dir, "block")
	require.NoError(t, os.MkdirAll(sysBlock, 0755))
	return &fixture{mounts: mounts, sysBlock: sysBlock}
}

// addDisk creates a whole-disk sysfs entry, optionally with partitions.
// Partition entries are symlinks into the parent's directory, mirroring the
// real /sys/class/block layout.
func (f *fixture) addDisk(t *testing.T, disk string, partitions ...string) {
	t.Helper()
	diskDir := filepath.Join(f.sysBlock, disk)
	require.NoError(t, os.MkdirAll(diskDir, 0755))
	for _, part := range partitions {
		partDir := filepath.Join(diskDir, part)
		require.NoError(t, os.MkdirAll(partDir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(partDir, "partition"), []byte("1\n"), 0644))
		require.NoError(t, os.Symlink(partDir, filepath.Join(f.sysBlock, part)))
	}
}

func (f *fixture) detector() *Detector {
	return &Detector{ProcMounts: f.mounts, SysBlock: f.sysBlock}
}

func TestRootDiskPartition(t *testing.T) {
	fix := newFixture(t, ""+
		"sysfs /sys sysfs rw 0 0\n"+
		"/dev/sda1 / ext4 rw,relatime 0 0\n"+
		"/dev/sda2 /home ext4 rw 0 0\n")
	fix.addDisk(t, "sda", "sda1", "sda2")

	device, err := fix.detector().RootDisk()
	require.NoError(t, err)
	assert.Equal(t, "/dev/sda", device)
}

func TestRootDiskWholeDisk(t *testing.T) {
	fix := newFixture(t, "/dev/vda / ext4 rw 0 0\n")
	fix.addDisk(t, "vda")

	device, err := fix.detector().RootDisk()
	require.NoError(t, err)
	assert.Equal(t, "/dev/vda", device)
}

func TestRootDiskNVMePartition(t *testing.T) {
	fix := newFixture(t, "/dev/nvme0n1p2 / ext4 rw 0 0\n")
	fix.addDisk(t, "nvme0n1", "nvme0n1p1", "nvme0n1p2")

	device, err := fix.detector().RootDisk()
	require.NoError(t, err)
	assert.Equal(t, "/dev/nvme0n1", device)
}

func TestRootDiskNoRootMount(t *testing.T) {
	fix := newFixture(t, "tmpfs /tmp tmpfs rw 0 0\n")

	_, err := fix.detector().RootDisk()
	assert.Error(t, err)
}

func TestRootDiskIgnoresNonDeviceRoot(t *testing.T) {
	// Containers mount / from overlay; there is no disk to find.
	fix := newFixture(t, "overlay / overlay rw 0 0\n")

	_, err := fix.detector().RootDisk()
	assert.Error(t, err)
}

func TestRootDiskUnknownDevice(t *testing.T) {
	fix := newFixture(t, "/dev/sdz9 / ext4 rw 0 0\n")

	_, err := fix.detector().RootDisk()
	assert.Error(t, err)
}

func TestIsBlockDevice(t *testing.T) {
	regular := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(regular, []byte("x"), 0644))

	assert.False(t, IsBlockDevice(regular))
	assert.False(t, IsBlockDevice(filepath.Join(t.TempDir(), "missing")))
	assert.False(t, IsBlockDevice(t.TempDir()))
}

func TestWipeSignaturesRefusesNonBlockDevice(t *testing.T) {
	run := &fakeRunner{}
	w := NewWiper(run)

	regular := filepath.Join(t.TempDir(), "not-a-disk")
	require.NoError(t, os.WriteFile(regular, []byte("x"), 0644))

	err := w.WipeSignatures(context.Background(), regular)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a block device")
	assert.Empty(t, run.calls, "no command may run against a non-device path")
}

func TestZeroStartRefusesNonBlockDevice(t *testing.T) {
	run := &fakeRunner{}
	w := NewWiper(run)

	err := w.ZeroStart(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Empty(t, run.calls)
}
