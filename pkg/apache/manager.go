// Package apache manages the virtual-host configuration for a Joomla site.
package apache

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/joomlactl/joomlactl/pkg/runner"
	"github.com/joomlactl/joomlactl/pkg/utils"
)

// SitesDir is where vhost configs are written.
const SitesDir = "/etc/apache2/sites-available"

const vhostTemplate = `<VirtualHost *:80>
    ServerName {{.Domain}}
    ServerAdmin {{.AdminEmail}}
    DocumentRoot {{.DocumentRoot}}

    <Directory {{.DocumentRoot}}>
        Options FollowSymLinks
        AllowOverride All
        Require all granted
    </Directory>

    ErrorLog ${APACHE_LOG_DIR}/{{.Domain}}-error.log
    CustomLog ${APACHE_LOG_DIR}/{{.Domain}}-access.log combined
</VirtualHost>
`

// Site describes one virtual host.
type Site struct {
	Domain       string
	AdminEmail   string
	DocumentRoot string
}

// Manager drives apache2 configuration and lifecycle commands.
type Manager struct {
	run      runner.Runner
	sitesDir string
	verbose  bool
}

// NewManager creates an Apache manager.
func NewManager(run runner.Runner, verbose bool) *Manager {
	return &Manager{run: run, sitesDir: SitesDir, verbose: verbose}
}

// NewManagerWithDir creates a manager writing vhosts under dir (for tests).
func NewManagerWithDir(run runner.Runner, dir string, verbose bool) *Manager {
	return &Manager{run: run, sitesDir: dir, verbose: verbose}
}

// ConfName returns the vhost file name for a domain. The domain is
// sanitized so the name is always a safe sites-available entry.
func ConfName(domain string) string {
	return utils.SanitizeSiteName(domain) + ".conf"
}

// WriteVHost renders and writes the site's vhost config.
func (m *Manager) WriteVHost(site Site) (string, error) {
	tmpl, err := template.New("vhost").Parse(vhostTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse vhost template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, site); err != nil {
		return "", fmt.Errorf("failed to render vhost: %w", err)
	}

	path := filepath.Join(m.sitesDir, ConfName(site.Domain))
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write vhost config: %w", err)
	}
	return path, nil
}

// EnableSite disables the stock default site, enables the domain's vhost and
// the rewrite module, then reloads Apache.
func (m *Manager) EnableSite(ctx context.Context, domain string) error {
	if _, err := m.run.Run(ctx, "a2dissite", "000-default.conf"); err != nil {
		// Already disabled on reruns; not fatal.
		if m.verbose {
			fmt.Printf("  default site already disabled\n")
		}
	}
	if _, err := m.run.Run(ctx, "a2ensite", ConfName(domain)); err != nil {
		return fmt.Errorf("failed to enable site %s: %w", domain, err)
	}
	if _, err := m.run.Run(ctx, "a2enmod", "rewrite"); err != nil {
		return fmt.Errorf("failed to enable rewrite module: %w", err)
	}
	return m.Reload(ctx)
}

// DisableSite disables and deletes the domain's vhost configs, including the
// TLS vhost certbot writes.
func (m *Manager) DisableSite(ctx context.Context, domain string) error {
	for _, conf := range []string{ConfName(domain), utils.SanitizeSiteName(domain) + "-le-ssl.conf"} {
		if _, err := m.run.Run(ctx, "a2dissite", conf); err != nil && m.verbose {
			fmt.Printf("  site %s was not enabled\n", conf)
		}
		path := filepath.Join(m.sitesDir, conf)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}

// Reload reloads the Apache configuration.
func (m *Manager) Reload(ctx context.Context) error {
	if _, err := m.run.Run(ctx, "systemctl", "reload", "apache2"); err != nil {
		return fmt.Errorf("failed to reload apache2: %w", err)
	}
	return nil
}

// Restart restarts Apache.
func (m *Manager) Restart(ctx context.Context) error {
	if _, err := m.run.Run(ctx, "systemctl", "restart", "apache2"); err != nil {
		return fmt.Errorf("failed to restart apache2: %w", err)
	}
	return nil
}
