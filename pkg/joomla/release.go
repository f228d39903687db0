// Package joomla resolves and fetches Joomla CMS releases. The "latest"
// release is resolved at run time from the GitHub releases API, so the
// installed version is non-deterministic unless the operator pins a tag.
package joomla

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/joomlactl/joomlactl/pkg/httputil"
	"github.com/joomlactl/joomlactl/pkg/resilience"
	"github.com/joomlactl/joomlactl/pkg/telemetry"
)

const (
	repoOwner    = "joomla"
	repoName     = "joomla-cms"
	latestAPIURL = "https://api.github.com/repos/%s/%s/releases/latest"
	tagAPIURL    = "https://api.github.com/repos/%s/%s/releases/tags/%s"

	fullPackageSuffix = "Full_Package.tar.gz"
)

// Release represents a GitHub release of the CMS.
type Release struct {
	TagName string  `json:"tag_name"`
	Name    string  `json:"name"`
	Assets  []Asset `json:"assets"`
}

// Asset is a downloadable file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// FullPackage returns the full-package tarball asset of the release.
func (r *Release) FullPackage() (*Asset, error) {
	for i := range r.Assets {
		if strings.HasSuffix(r.Assets[i].Name, fullPackageSuffix) {
			return &r.Assets[i], nil
		}
	}
	return nil, fmt.Errorf("release %s has no %s asset", r.TagName, fullPackageSuffix)
}

// Client fetches release metadata and archives.
type Client struct {
	http *http.Client
}

// NewClient creates a release client using the shared pooled transport.
func NewClient() *Client {
	return &Client{http: httputil.NewClientWithTimeout(10 * time.Minute)}
}

// LatestRelease resolves the most recent stable release.
func (c *Client) LatestRelease(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf(latestAPIURL, repoOwner, repoName)
	return c.fetchRelease(ctx, url)
}

// ReleaseByTag resolves a pinned release tag.
func (c *Client) ReleaseByTag(ctx context.Context, tag string) (*Release, error) {
	url := fmt.Sprintf(tagAPIURL, repoOwner, repoName, tag)
	return c.fetchRelease(ctx, url)
}

func (c *Client) fetchRelease(ctx context.Context, url string) (*Release, error) {
	ctx, span := telemetry.TraceHTTP(ctx, http.MethodGet, url)
	defer span.End()

	var release *Release
	breaker := resilience.GetDownloadBreaker()

	err := resilience.RetryWithBackoff(ctx, func() error {
		return breaker.Execute(func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return resilience.PermanentError(err)
			}
			req.Header.Set("Accept", "application/vnd.github+json")

			resp, err := c.http.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusNotFound {
				return resilience.PermanentError(fmt.Errorf("release not found: %s", url))
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("release API returned status %d", resp.StatusCode)
			}

			var rel Release
			if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
				return resilience.PermanentError(fmt.Errorf("failed to parse release info: %w", err))
			}
			release = &rel
			return nil
		})
	},
		resilience.WithMaxRetries(3),
		resilience.WithMaxElapsed(time.Minute),
		resilience.WithOnRetry(func(err error, next time.Duration) {
			span.AddEvent("retrying release lookup",
				trace.WithAttributes(attribute.String("retry.error", err.Error())))
		}),
	)
	if err != nil {
		telemetry.EndWithError(span, err)
		return nil, fmt.Errorf("failed to resolve release: %w", err)
	}
	return release, nil
}

// Download fetches the asset to destPath. Interrupted attempts are retried
// from the start; the destination is truncated on each attempt.
func (c *Client) Download(ctx context.Context, asset *Asset, destPath string) error {
	ctx, span := telemetry.TraceHTTP(ctx, http.MethodGet, asset.BrowserDownloadURL)
	defer span.End()

	breaker := resilience.GetDownloadBreaker()

	err := resilience.RetryWithBackoff(ctx, func() error {
		return breaker.Execute(func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.BrowserDownloadURL, nil)
			if err != nil {
				return resilience.PermanentError(err)
			}

			resp, err := c.http.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusNotFound {
				return resilience.PermanentError(fmt.Errorf("asset not found: %s", asset.BrowserDownloadURL))
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("download returned status %d", resp.StatusCode)
			}

			f, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
			if err != nil {
				return resilience.PermanentError(err)
			}
			defer f.Close()

			if _, err := io.Copy(f, resp.Body); err != nil {
				os.Remove(destPath)
				return fmt.Errorf("download interrupted: %w", err)
			}
			return f.Sync()
		})
	},
		resilience.WithMaxRetries(3),
		resilience.WithMaxElapsed(15*time.Minute),
		resilience.WithInitialDelay(2*time.Second),
	)
	if err != nil {
		telemetry.EndWithError(span, err)
		return fmt.Errorf("failed to download %s: %w", asset.Name, err)
	}
	return nil
}
