// Package http provides the HTTP side of clarifyr: a net/http based
// clarifyr.Fetcher for retrieving pages and the API server that exposes
// the explain operation.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/fwojciec/clarifyr"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 10 * time.Second

// DefaultMaxRedirects is the default number of redirects followed per fetch.
const DefaultMaxRedirects = 5

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes = 5 << 20

// DefaultUserAgent identifies the fetcher as a desktop browser. Some sites
// refuse requests from clients they do not recognize.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_7_2) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// Ensure Fetcher implements clarifyr.Fetcher at compile time.
var _ clarifyr.Fetcher = (*Fetcher)(nil)

var errTooManyRedirects = errors.New("too many redirects")

var errBlockedAddress = errors.New("address not allowed")

// Fetcher retrieves HTML content from URLs using HTTP requests.
// It does not execute JavaScript. Fetcher is safe for concurrent use.
type Fetcher struct {
	client       *http.Client
	timeout      time.Duration
	userAgent    string
	maxRedirects int
	maxBodyBytes int64
	blockPrivate bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxRedirects sets how many redirects a single fetch may follow.
// Zero disables redirects.
func WithMaxRedirects(n int) Option {
	return func(f *Fetcher) {
		f.maxRedirects = n
	}
}

// WithMaxBodyBytes caps the number of response body bytes read.
func WithMaxBodyBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodyBytes = n
	}
}

// WithBlockPrivateHosts refuses connections to loopback, private,
// link-local and unspecified addresses, including after redirects.
func WithBlockPrivateHosts(block bool) Option {
	return func(f *Fetcher) {
		f.blockPrivate = block
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:      DefaultFetchTimeout,
		userAgent:    DefaultUserAgent,
		maxRedirects: DefaultMaxRedirects,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(f)
	}

	dialer := &net.Dialer{Timeout: f.timeout}
	if f.blockPrivate {
		dialer.Control = controlPublicOnly
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext

	f.client = &http.Client{
		Timeout:   f.timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > f.maxRedirects {
				return errTooManyRedirects
			}
			return nil
		},
	}

	return f
}

// Fetch retrieves the HTML content from the given URL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", clarifyr.WrapError(err, clarifyr.EFETCH, "invalid URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", clarifyr.Errorf(clarifyr.EFETCH, "unsupported URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", clarifyr.Errorf(clarifyr.EFETCH, "URL %q has no host", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", clarifyr.WrapError(err, clarifyr.EFETCH, "invalid request for %s", rawURL)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", f.classify(err, rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", clarifyr.Errorf(clarifyr.EFETCH, "HTTP %d for %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return "", f.classify(err, rawURL)
	}

	return string(body), nil
}

// Close releases resources. For HTTP fetcher this only drops idle
// connections since http.Client doesn't require explicit cleanup.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// classify maps transport errors onto EFETCH errors with a caller-facing message.
func (f *Fetcher) classify(err error, rawURL string) error {
	switch {
	case errors.Is(err, errTooManyRedirects):
		return clarifyr.WrapError(err, clarifyr.EFETCH, "stopped after %d redirects fetching %s", f.maxRedirects, rawURL)
	case errors.Is(err, errBlockedAddress):
		return clarifyr.WrapError(err, clarifyr.EFETCH, "refusing to fetch %s: host resolves to a private address", rawURL)
	case isTimeout(err):
		return clarifyr.WrapError(err, clarifyr.EFETCH, "timeout fetching %s after %s", rawURL, f.timeout)
	case errors.Is(err, context.Canceled):
		return clarifyr.WrapError(err, clarifyr.EFETCH, "fetch of %s canceled", rawURL)
	}
	return clarifyr.WrapError(err, clarifyr.EFETCH, "failed to fetch %s", rawURL)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

// controlPublicOnly rejects dials to non-public addresses. It runs after
// name resolution, so hostnames pointing at internal addresses are caught too.
func controlPublicOnly(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	addr, err := netip.ParseAddr(strings.Trim(host, "[]"))
	if err != nil {
		return fmt.Errorf("%w: %s", errBlockedAddress, host)
	}
	if !clarifyr.IsPublicAddr(addr) {
		return fmt.Errorf("%w: %s", errBlockedAddress, host)
	}
	return nil
}
