// Package credentials manages the root-only credentials file written during
// install and re-parsed during cleanup. The format is fixed: four labeled
// `key: value` lines.
package credentials

import (
	"fmt"
	"os"
	"strings"
)

// DefaultPath is where install writes the credentials file.
const DefaultPath = "/root/.joomla_credentials"

// File field labels; cleanup matches them verbatim.
const (
	keyRootPassword = "MariaDB root password"
	keyDBName       = "Joomla DB name"
	keyDBUser       = "Joomla DB user"
	keyDBPassword   = "Joomla DB password"
)

// Record is the flat credential record persisted to disk.
type Record struct {
	RootPassword string
	DBName       string
	DBUser       string
	DBPassword   string
}

// Complete reports whether all four fields are set. A file that parses with
// any empty field makes cleanup skip the database-drop step entirely and
// leave the file in place.
func (r *Record) Complete() bool {
	return r.RootPassword != "" && r.DBName != "" && r.DBUser != "" && r.DBPassword != ""
}

// Write persists the record to path, readable by the owner only.
func Write(path string, rec *Record) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", keyRootPassword, rec.RootPassword)
	fmt.Fprintf(&b, "%s: %s\n", keyDBName, rec.DBName)
	fmt.Fprintf(&b, "%s: %s\n", keyDBUser, rec.DBUser)
	fmt.Fprintf(&b, "%s: %s\n", keyDBPassword, rec.DBPassword)

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

// Load parses the credentials file at path. Unknown lines are ignored;
// missing fields parse as empty strings so the caller can apply the
// skip-on-incomplete rule.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	return Parse(string(data)), nil
}

// Parse extracts the credential record from file contents.
func Parse(contents string) *Record {
	rec := &Record{}
	for _, line := range strings.Split(contents, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case keyRootPassword:
			rec.RootPassword = value
		case keyDBName:
			rec.DBName = value
		case keyDBUser:
			rec.DBUser = value
		case keyDBPassword:
			rec.DBPassword = value
		}
	}
	return rec
}

// Exists reports whether a credentials file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
