package joomla

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls [][]string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return "", nil
}

func (f *fakeRunner) RunWithInput(ctx context.Context, input, name string, args ...string) (string, error) {
	return f.Run(ctx, name, args...)
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	return "/usr/bin/" + name, nil
}

func TestFullPackage(t *testing.T) {
	rel := &Release{
		TagName: "5.1.2",
		Assets: []Asset{
			{Name: "Joomla_5.1.2-Stable-Update_Package.zip"},
			{Name: "Joomla_5.1.2-Stable-Full_Package.tar.gz", BrowserDownloadURL: "https://example.com/full.tar.gz"},
			{Name: "Joomla_5.1.2-Stable-Full_Package.zip"},
		},
	}

	asset, err := rel.FullPackage()
	require.NoError(t, err)
	assert.Equal(t, "Joomla_5.1.2-Stable-Full_Package.tar.gz", asset.Name)
	assert.Equal(t, "https://example.com/full.tar.gz", asset.BrowserDownloadURL)
}

func TestFullPackageMissing(t *testing.T) {
	rel := &Release{
		TagName: "5.1.2",
		Assets:  []Asset{{Name: "Joomla_5.1.2-Stable-Update_Package.zip"}},
	}

	_, err := rel.FullPackage()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "5.1.2")
}

func TestDownloadRetriesTransientFailure(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "archive-bytes")
	}))
	defer srv.Close()

	c := NewClient()
	dest := filepath.Join(t.TempDir(), "joomla.tar.gz")
	asset := &Asset{Name: "Joomla-Full_Package.tar.gz", BrowserDownloadURL: srv.URL}

	require.NoError(t, c.Download(context.Background(), asset, dest))
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "archive-bytes", string(data))
}

func TestDownloadMissingAssetNotRetried(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient()
	dest := filepath.Join(t.TempDir(), "joomla.tar.gz")
	asset := &Asset{Name: "Joomla-Full_Package.tar.gz", BrowserDownloadURL: srv.URL}

	err := c.Download(context.Background(), asset, dest)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
	assert.NoFileExists(t, dest)
}

func TestUnpackCommand(t *testing.T) {
	run := &fakeRunner{}
	inst := NewInstaller(run)
	dest := t.TempDir() + "/example.com"

	require.NoError(t, inst.Unpack(context.Background(), "/tmp/joomla.tar.gz", dest))
	assert.DirExists(t, dest)
	require.Len(t, run.calls, 1)
	assert.Equal(t, []string{"tar", "-xzf", "/tmp/joomla.tar.gz", "-C", dest}, run.calls[0])
}

func TestSetOwnershipCommand(t *testing.T) {
	run := &fakeRunner{}
	inst := NewInstaller(run)

	require.NoError(t, inst.SetOwnership(context.Background(), "/var/www/example.com"))
	require.Len(t, run.calls, 1)
	assert.Equal(t, []string{"chown", "-R", "www-data:www-data", "/var/www/example.com"}, run.calls[0])
}
