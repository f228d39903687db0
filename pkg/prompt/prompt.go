// Package prompt implements the interactive operator prompts. Invalid input
// re-prompts indefinitely; destructive gates require an exact literal token
// and never loop.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/joomlactl/joomlactl/pkg/validator"
)

// ErrConfirmationMismatch is returned when a destructive gate receives
// anything other than the exact expected token.
var ErrConfirmationMismatch = fmt.Errorf("confirmation did not match")

// Prompter reads operator input. in/out are injectable for tests; password
// reads use the terminal when stdin is one, otherwise fall back to plain
// line reads.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// New creates a Prompter reading from stdin and writing to stdout.
func New() *Prompter {
	return &Prompter{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
	}
}

// NewWithStreams creates a Prompter with explicit streams (used in tests).
func NewWithStreams(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Line prompts once and returns the trimmed input.
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// LineValidated re-prompts until validate accepts the input. It only returns
// an error when the input stream itself is exhausted.
func (p *Prompter) LineValidated(label string, validate func(string) error) (string, error) {
	for {
		value, err := p.Line(label)
		if err != nil {
			return "", err
		}
		if verr := validate(value); verr != nil {
			fmt.Fprintf(p.out, "  %v\n", verr)
			continue
		}
		return value, nil
	}
}

// Domain prompts for a domain name until it validates.
func (p *Prompter) Domain() (string, error) {
	return p.LineValidated("Domain name (e.g. example.com)", validator.ValidateDomain)
}

// Email prompts for an email address until it validates.
func (p *Prompter) Email() (string, error) {
	return p.LineValidated("Admin email", validator.ValidateEmail)
}

// Username prompts for the admin username until it validates.
func (p *Prompter) Username() (string, error) {
	return p.LineValidated("Admin username", validator.ValidateUsername)
}

// Password prompts for the admin password and its confirmation, re-prompting
// until the password is long enough and both entries match.
func (p *Prompter) Password() (string, error) {
	for {
		first, err := p.secret("Admin password (min 8 chars)")
		if err != nil {
			return "", err
		}
		if verr := validator.ValidatePassword(first); verr != nil {
			fmt.Fprintf(p.out, "  %v\n", verr)
			continue
		}
		second, err := p.secret("Confirm password")
		if err != nil {
			return "", err
		}
		if first != second {
			fmt.Fprintln(p.out, "  passwords do not match")
			continue
		}
		return first, nil
	}
}

// secret reads a line without echo when stdin is a terminal.
func (p *Prompter) secret(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a yes/no question; anything other than y/Y is no.
func (p *Prompter) Confirm(question string) (bool, error) {
	fmt.Fprintf(p.out, "%s [y/N] ", question)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false, err
	}
	answer := strings.TrimSpace(line)
	return answer == "y" || answer == "Y", nil
}

// Gate requires the operator to type the exact token. Any mismatch returns
// ErrConfirmationMismatch; there is no partial-confirmation state and no
// second chance.
func (p *Prompter) Gate(instruction, token string) error {
	fmt.Fprintf(p.out, "%s\n> ", instruction)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return err
	}
	if strings.TrimSpace(line) != token {
		return ErrConfirmationMismatch
	}
	return nil
}

// Menu presents numbered choices and returns the selected index (0-based).
// Out-of-range or non-numeric input re-prompts.
func (p *Prompter) Menu(title string, choices []string) (int, error) {
	fmt.Fprintf(p.out, "%s\n", title)
	for i, c := range choices {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, c)
	}
	for {
		fmt.Fprintf(p.out, "Select [1-%d]: ", len(choices))
		line, err := p.in.ReadString('\n')
		if err != nil && line == "" {
			return 0, err
		}
		choice := strings.TrimSpace(line)
		for i := range choices {
			if choice == fmt.Sprintf("%d", i+1) {
				return i, nil
			}
		}
		fmt.Fprintln(p.out, "  invalid selection")
	}
}
