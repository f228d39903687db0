package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// SanitizeDBName converts a domain into a MariaDB-safe identifier.
// Example: "shop.example.com" → "shop_example_com"
func SanitizeDBName(domain string) string {
	sanitized := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, domain)
	// MariaDB identifiers are capped at 64 chars; usernames at 32.
	if len(sanitized) > 32 {
		sanitized = sanitized[:32]
	}
	return sanitized
}

// SanitizeSiteName converts a domain to a safe Apache site/config name.
// Example: "app.example.com" → "app.example.com" (dots are fine in site names)
func SanitizeSiteName(domain string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '.' {
			return r
		}
		return '-'
	}, domain)
}

// TruncateString truncates a string to maxLength, adding "..." if truncated
func TruncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return s[:maxLength]
	}
	return s[:maxLength-3] + "..."
}

// validUnixUsername matches POSIX username format:
// starts with letter or underscore, followed by letters, digits, underscores, or hyphens
var validUnixUsername = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]{0,31}$`)

// IsValidUnixUsername validates that a string is a safe POSIX username.
func IsValidUnixUsername(name string) bool {
	return validUnixUsername.MatchString(name)
}

// Quote wraps a string in single quotes if it contains spaces
func Quote(s string) string {
	if strings.Contains(s, " ") {
		return fmt.Sprintf("'%s'", s)
	}
	return s
}
