// Package certbot issues and deletes Let's Encrypt certificates through the
// certbot client, treated as an opaque tool.
package certbot

import (
	"context"
	"fmt"

	"github.com/joomlactl/joomlactl/pkg/runner"
)

// Client wraps certbot invocations.
type Client struct {
	run runner.Runner
}

// NewClient creates a certbot client.
func NewClient(run runner.Runner) *Client {
	return &Client{run: run}
}

// Issue requests a certificate for the domain using the Apache plugin and
// configures the HTTP→HTTPS redirect.
func (c *Client) Issue(ctx context.Context, domain, email string) error {
	_, err := c.run.Run(ctx, "certbot",
		"--apache",
		"-d", domain,
		"--non-interactive",
		"--agree-tos",
		"--email", email,
		"--redirect",
	)
	if err != nil {
		return fmt.Errorf("failed to issue certificate for %s: %w", domain, err)
	}
	return nil
}

// Delete removes the certificate material for the domain.
func (c *Client) Delete(ctx context.Context, domain string) error {
	_, err := c.run.Run(ctx, "certbot",
		"delete",
		"--cert-name", domain,
		"--non-interactive",
	)
	if err != nil {
		return fmt.Errorf("failed to delete certificate for %s: %w", domain, err)
	}
	return nil
}
