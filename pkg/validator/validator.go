// Package validator holds the input validation rules for operator-supplied
// values. All checks are fixed-pattern: no DNS lookups, no SMTP probing.
package validator

import (
	"fmt"
	"regexp"

	"github.com/joomlactl/joomlactl/pkg/utils"
)

var (
	domainRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*\.)+[a-zA-Z]{2,}$`)
	emailRegex  = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// MinPasswordLength is the minimum accepted admin password length.
const MinPasswordLength = 8

// ValidateDomain checks that s looks like a fully qualified domain name.
func ValidateDomain(s string) error {
	if s == "" {
		return fmt.Errorf("domain is required")
	}
	if len(s) > 253 {
		return fmt.Errorf("domain exceeds 253 characters")
	}
	if !domainRegex.MatchString(s) {
		return fmt.Errorf("invalid domain format: %s", s)
	}
	return nil
}

// ValidateEmail checks that s looks like an email address.
func ValidateEmail(s string) error {
	if s == "" {
		return fmt.Errorf("email is required")
	}
	if !emailRegex.MatchString(s) {
		return fmt.Errorf("invalid email format: %s", s)
	}
	return nil
}

// ValidatePassword checks the admin password against the length rule.
func ValidatePassword(s string) error {
	if len(s) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// ValidateUsername checks the admin username. The POSIX username rules are
// stricter than Joomla's own, which keeps the name safe to echo into
// shell-adjacent contexts.
func ValidateUsername(s string) error {
	if s == "" {
		return fmt.Errorf("username is required")
	}
	if !utils.IsValidUnixUsername(s) {
		return fmt.Errorf("invalid username (letters, digits, _ and -, max 32 chars, must not start with a digit): %s", s)
	}
	return nil
}
