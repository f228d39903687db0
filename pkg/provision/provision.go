// Package provision installs and configures the OS-level pieces of the
// Joomla stack: packages, services, firewall, and PHP runtime settings.
package provision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joomlactl/joomlactl/pkg/runner"
)

// StackPackages is the apt package set for the web, database, and PHP stack.
var StackPackages = []string{
	"apache2",
	"mariadb-server",
	"php",
	"libapache2-mod-php",
	"php-mysql",
	"php-xml",
	"php-zip",
	"php-gd",
	"php-curl",
	"php-intl",
	"php-mbstring",
	"certbot",
	"python3-certbot-apache",
	"tar",
}

// Provisioner drives host-level provisioning through the package manager
// and service control commands.
type Provisioner struct {
	run     runner.Runner
	verbose bool
}

// NewProvisioner creates a provisioner using the given command runner.
func NewProvisioner(run runner.Runner, verbose bool) *Provisioner {
	return &Provisioner{run: run, verbose: verbose}
}

// CheckPrivileges verifies the process runs as root.
func (p *Provisioner) CheckPrivileges() error {
	if os.Geteuid() != 0 {
		return fmt.Errorf("this command must be run as root")
	}
	return nil
}

// CheckOS verifies the host is Ubuntu or Debian.
func (p *Provisioner) CheckOS() error {
	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return fmt.Errorf("failed to check OS: %w", err)
	}

	release := strings.ToLower(string(data))
	if !strings.Contains(release, "ubuntu") && !strings.Contains(release, "debian") {
		return fmt.Errorf("unsupported OS (only Ubuntu/Debian are supported)")
	}

	if p.verbose {
		fmt.Printf("  OS: %s\n", strings.Split(string(data), "\n")[0])
	}
	return nil
}

// UpdatePackageIndex refreshes the apt package lists.
func (p *Provisioner) UpdatePackageIndex(ctx context.Context) error {
	_, err := p.run.Run(ctx, "apt-get", "update", "-q")
	return err
}

// InstallPackages installs the given packages non-interactively.
func (p *Provisioner) InstallPackages(ctx context.Context, packages ...string) error {
	args := append([]string{"install", "-y", "-q"}, packages...)
	if _, err := p.run.Run(ctx, "apt-get", args...); err != nil {
		return fmt.Errorf("failed to install packages: %w", err)
	}
	return nil
}

// EnableService enables and starts a systemd unit.
func (p *Provisioner) EnableService(ctx context.Context, unit string) error {
	if _, err := p.run.Run(ctx, "systemctl", "enable", unit); err != nil {
		return err
	}
	if _, err := p.run.Run(ctx, "systemctl", "start", unit); err != nil {
		return err
	}
	return nil
}

// OpenFirewall allows HTTP/HTTPS through ufw. Failure here is expected on
// hosts without ufw and is treated as best-effort by the caller.
func (p *Provisioner) OpenFirewall(ctx context.Context) error {
	for _, port := range []string{"80/tcp", "443/tcp"} {
		if _, err := p.run.Run(ctx, "ufw", "allow", port); err != nil {
			return fmt.Errorf("failed to open %s: %w", port, err)
		}
	}
	return nil
}

// PHPSettings are the runtime values tuned for Joomla.
type PHPSettings struct {
	UploadMaxFilesize string
	PostMaxSize       string
	MemoryLimit       string
	MaxExecutionTime  string
}

// DefaultPHPSettings returns the values the installer applies.
func DefaultPHPSettings() PHPSettings {
	return PHPSettings{
		UploadMaxFilesize: "64M",
		PostMaxSize:       "64M",
		MemoryLimit:       "256M",
		MaxExecutionTime:  "120",
	}
}

// TunePHP rewrites the Apache php.ini with the given settings. The ini path
// is discovered per installed PHP version.
func (p *Provisioner) TunePHP(ctx context.Context, settings PHPSettings) error {
	paths, err := filepath.Glob("/etc/php/*/apache2/php.ini")
	if err != nil || len(paths) == 0 {
		return fmt.Errorf("php.ini not found under /etc/php")
	}

	for _, path := range paths {
		if err := TunePHPFile(path, settings); err != nil {
			return err
		}
		if p.verbose {
			fmt.Printf("  tuned %s\n", path)
		}
	}
	return nil
}

// TunePHPFile applies the settings to a single php.ini file in place.
func TunePHPFile(path string, settings PHPSettings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	replacements := map[string]string{
		"upload_max_filesize": settings.UploadMaxFilesize,
		"post_max_size":       settings.PostMaxSize,
		"memory_limit":        settings.MemoryLimit,
		"max_execution_time":  settings.MaxExecutionTime,
	}

	content := string(data)
	for directive, value := range replacements {
		re := regexp.MustCompile(`(?m)^;?\s*` + directive + `\s*=.*$`)
		line := fmt.Sprintf("%s = %s", directive, value)
		if re.MatchString(content) {
			content = re.ReplaceAllString(content, line)
		} else {
			content += "\n" + line + "\n"
		}
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
