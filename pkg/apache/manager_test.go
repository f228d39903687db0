package apache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls [][]string
	fail  map[string]error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	call := append([]string{name}, args...)
	f.calls = append(f.calls, call)
	if f.fail != nil {
		if err, ok := f.fail[name]; ok {
			return "", err
		}
	}
	return "", nil
}

func (f *fakeRunner) RunWithInput(ctx context.Context, input, name string, args ...string) (string, error) {
	return f.Run(ctx, name, args...)
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	return "/usr/sbin/" + name, nil
}

func TestWriteVHost(t *testing.T) {
	dir := t.TempDir()
	m := NewManagerWithDir(&fakeRunner{}, dir, false)

	path, err := m.WriteVHost(Site{
		Domain:       "example.com",
		AdminEmail:   "admin@example.com",
		DocumentRoot: "/var/www/example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "example.com.conf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	conf := string(data)
	assert.Contains(t, conf, "<VirtualHost *:80>")
	assert.Contains(t, conf, "ServerName example.com")
	assert.Contains(t, conf, "ServerAdmin admin@example.com")
	assert.Contains(t, conf, "DocumentRoot /var/www/example.com")
	assert.Contains(t, conf, "AllowOverride All")
	assert.Contains(t, conf, "${APACHE_LOG_DIR}/example.com-error.log")
}

func TestConfName(t *testing.T) {
	assert.Equal(t, "example.com.conf", ConfName("example.com"))
	// Unexpected characters are mapped to hyphens rather than reaching
	// sites-available verbatim.
	assert.Equal(t, "odd-name.example.com.conf", ConfName("odd_name.example.com"))
}

func TestEnableSiteCommandOrder(t *testing.T) {
	run := &fakeRunner{}
	m := NewManagerWithDir(run, t.TempDir(), false)

	require.NoError(t, m.EnableSite(context.Background(), "example.com"))
	require.Len(t, run.calls, 4)
	assert.Equal(t, []string{"a2dissite", "000-default.conf"}, run.calls[0])
	assert.Equal(t, []string{"a2ensite", "example.com.conf"}, run.calls[1])
	assert.Equal(t, []string{"a2enmod", "rewrite"}, run.calls[2])
	assert.Equal(t, []string{"systemctl", "reload", "apache2"}, run.calls[3])
}

func TestEnableSiteToleratesDefaultAlreadyDisabled(t *testing.T) {
	run := &fakeRunner{fail: map[string]error{"a2dissite": fmt.Errorf("site not enabled")}}
	m := NewManagerWithDir(run, t.TempDir(), false)

	assert.NoError(t, m.EnableSite(context.Background(), "example.com"))
}

func TestDisableSiteRemovesBothConfigs(t *testing.T) {
	dir := t.TempDir()
	run := &fakeRunner{}
	m := NewManagerWithDir(run, dir, false)

	plain := filepath.Join(dir, "example.com.conf")
	tls := filepath.Join(dir, "example.com-le-ssl.conf")
	require.NoError(t, os.WriteFile(plain, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(tls, []byte("x"), 0644))

	require.NoError(t, m.DisableSite(context.Background(), "example.com"))
	assert.NoFileExists(t, plain)
	assert.NoFileExists(t, tls)

	require.Len(t, run.calls, 2)
	assert.Equal(t, []string{"a2dissite", "example.com.conf"}, run.calls[0])
	assert.Equal(t, []string{"a2dissite", "example.com-le-ssl.conf"}, run.calls[1])
}

func TestDisableSiteMissingConfigsNotFatal(t *testing.T) {
	m := NewManagerWithDir(&fakeRunner{}, t.TempDir(), false)
	assert.NoError(t, m.DisableSite(context.Background(), "gone.example.com"))
}
