// Package state persists the install manifest: one record per provisioned
// site, consulted by remove before falling back to filesystem discovery.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the manifest location.
const DefaultPath = "/var/lib/joomlactl/state.yaml"

// Manifest is the on-disk state document.
type Manifest struct {
	Version string        `yaml:"version"`
	Sites   []*SiteRecord `yaml:"sites"`
}

// SiteRecord describes one provisioned site. The admin password is stored
// only as a bcrypt hash; the plaintext never reaches the manifest.
type SiteRecord struct {
	Domain            string    `yaml:"domain"`
	DocumentRoot      string    `yaml:"document_root"`
	DBName            string    `yaml:"db_name"`
	DBUser            string    `yaml:"db_user"`
	JoomlaVersion     string    `yaml:"joomla_version"`
	AdminUser         string    `yaml:"admin_user"`
	AdminPasswordHash string    `yaml:"admin_password_hash"`
	InstalledAt       time.Time `yaml:"installed_at"`
}

// NewSiteRecord builds a record, hashing the admin password with bcrypt.
func NewSiteRecord(domain, docRoot, dbName, dbUser, version, adminUser, adminPassword string) (*SiteRecord, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}
	return &SiteRecord{
		Domain:            domain,
		DocumentRoot:      docRoot,
		DBName:            dbName,
		DBUser:            dbUser,
		JoomlaVersion:     version,
		AdminUser:         adminUser,
		AdminPasswordHash: string(hash),
		InstalledAt:       time.Now().UTC(),
	}, nil
}

// Manager loads and saves the manifest.
type Manager struct {
	path string
}

// NewManager creates a manager for the manifest at path.
func NewManager(path string) *Manager {
	if path == "" {
		path = DefaultPath
	}
	return &Manager{path: path}
}

// Load reads the manifest. A missing file yields an empty manifest.
func (m *Manager) Load() (*Manifest, error) {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return &Manifest{Version: "1"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse state manifest: %w", err)
	}
	if manifest.Version == "" {
		manifest.Version = "1"
	}
	return &manifest, nil
}

// Save writes the manifest, creating the parent directory as needed.
func (m *Manager) Save(manifest *Manifest) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal state manifest: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write state manifest: %w", err)
	}
	return nil
}

// AddSite appends or replaces the record for the site's domain.
func (m *Manager) AddSite(rec *SiteRecord) error {
	manifest, err := m.Load()
	if err != nil {
		return err
	}

	replaced := false
	for i, s := range manifest.Sites {
		if s.Domain == rec.Domain {
			manifest.Sites[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		manifest.Sites = append(manifest.Sites, rec)
	}
	return m.Save(manifest)
}

// RemoveSite drops the record for the domain, if present.
func (m *Manager) RemoveSite(domain string) error {
	manifest, err := m.Load()
	if err != nil {
		return err
	}

	kept := manifest.Sites[:0]
	for _, s := range manifest.Sites {
		if s.Domain != domain {
			kept = append(kept, s)
		}
	}
	manifest.Sites = kept
	return m.Save(manifest)
}
