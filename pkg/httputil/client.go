// Package httputil provides a shared HTTP client with connection pooling for
// the release metadata and archive download calls.
package httputil

import (
	"net/http"
	"sync"
	"time"
)

var (
	defaultClient     *http.Client
	defaultClientOnce sync.Once
)

// DefaultClient returns a shared HTTP client with optimized connection pooling.
// The client is safe for concurrent use and reuses connections efficiently.
func DefaultClient() *http.Client {
	defaultClientOnce.Do(func() {
		defaultClient = newOptimizedClient(30 * time.Second)
	})
	return defaultClient
}

// NewClientWithTimeout creates a new HTTP client with the specified timeout.
// The client shares the optimized transport for connection reuse.
func NewClientWithTimeout(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: DefaultClient().Transport,
	}
}

// newOptimizedClient creates an HTTP client with optimized transport settings.
func newOptimizedClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	transport.MaxIdleConns = 100
	transport.MaxConnsPerHost = 100
	transport.MaxIdleConnsPerHost = 100
	transport.IdleConnTimeout = 90 * time.Second
	transport.ForceAttemptHTTP2 = true
	transport.ResponseHeaderTimeout = 30 * time.Second
	transport.ExpectContinueTimeout = 1 * time.Second

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
