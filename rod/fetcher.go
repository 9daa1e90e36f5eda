// Package rod implements clarifyr.Fetcher with headless Chrome, for pages
// whose content only exists after JavaScript runs.
package rod

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/clarifyr"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Defaults for Fetcher.
const (
	DefaultFetchTimeout = 10 * time.Second
	DefaultMaxPages     = 75
)

var errBlockedAddress = errors.New("address not allowed")

// Ensure Fetcher implements clarifyr.Fetcher at compile time.
var _ clarifyr.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML using Chrome browser automation.
// The browser is launched on first use and recycled after maxPages pages,
// since Chrome's memory baseline keeps growing under load.
//
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	timeout      time.Duration
	userAgent    string
	maxPages     int
	blockPrivate bool

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	pages    int
	closed   bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFetchTimeout bounds a single page load including rendering.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent overrides the browser's User-Agent.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxPages sets how many pages are loaded before the browser is recycled.
func WithMaxPages(n int) Option {
	return func(f *Fetcher) {
		f.maxPages = n
	}
}

// WithBlockPrivateHosts refuses pages on loopback, private and link-local
// addresses. The page host is checked before navigation; every request the
// page makes afterwards, redirects included, is checked by interception.
func WithBlockPrivateHosts(block bool) Option {
	return func(f *Fetcher) {
		f.blockPrivate = block
	}
}

// NewFetcher returns a Fetcher. No browser is started until the first Fetch.
// Close must be called when the Fetcher is no longer needed.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:  DefaultFetchTimeout,
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch navigates to rawURL, waits for the page to load and returns the
// rendered HTML.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", clarifyr.Errorf(clarifyr.EFETCH, "invalid URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", clarifyr.Errorf(clarifyr.EFETCH, "unsupported URL scheme %q", u.Scheme)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return "", f.classify(err, rawURL)
	}

	if f.blockPrivate {
		if err := checkHost(ctx, u.Hostname()); err != nil {
			return "", f.classify(err, rawURL)
		}
	}

	browser, err := f.acquire()
	if err != nil {
		return "", err
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", clarifyr.WrapError(err, clarifyr.EFETCH, "failed to open browser page")
	}
	defer page.Close()

	page = page.Context(ctx)

	var blockedDocument atomic.Bool
	if f.blockPrivate {
		router := page.HijackRequests()
		if err := router.Add("*", "", func(h *rod.Hijack) {
			if err := checkRequest(ctx, h.Request.URL()); err != nil {
				if h.Request.Type() == proto.NetworkResourceTypeDocument {
					blockedDocument.Store(true)
				}
				h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
				return
			}
			h.ContinueRequest(&proto.FetchContinueRequest{})
		}); err != nil {
			return "", clarifyr.WrapError(err, clarifyr.EFETCH, "failed to intercept requests")
		}
		go router.Run()
		defer func() { _ = router.Stop() }()
	}

	if f.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.userAgent}); err != nil {
			return "", f.classify(err, rawURL)
		}
	}
	if err := page.Navigate(rawURL); err != nil {
		if blockedDocument.Load() {
			err = fmt.Errorf("%w: redirect target", errBlockedAddress)
		}
		return "", f.classify(err, rawURL)
	}
	if err := page.WaitLoad(); err != nil {
		return "", f.classify(err, rawURL)
	}
	if blockedDocument.Load() {
		return "", f.classify(fmt.Errorf("%w: redirect target", errBlockedAddress), rawURL)
	}

	html, err := page.HTML()
	if err != nil {
		return "", f.classify(err, rawURL)
	}
	return html, nil
}

// acquire returns a connected browser, launching or recycling one as needed,
// and counts the page about to be opened.
func (f *Fetcher) acquire() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, clarifyr.Errorf(clarifyr.EINVALID, "fetcher is closed")
	}

	if f.browser != nil && f.maxPages > 0 && f.pages >= f.maxPages {
		// Keep the old browser if a fresh one cannot be started.
		oldBrowser, oldLauncher := f.browser, f.launcher
		if err := f.launch(); err == nil {
			_ = oldBrowser.Close()
			oldLauncher.Kill()
		} else {
			f.browser, f.launcher = oldBrowser, oldLauncher
		}
	}

	if f.browser == nil {
		if err := f.launch(); err != nil {
			return nil, clarifyr.WrapError(err, clarifyr.EFETCH, "browser unavailable")
		}
	}

	f.pages++
	return f.browser, nil
}

// launch starts a headless browser. Must be called with mu held.
func (f *Fetcher) launch() error {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Leakless(true).
		Headless(true)

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("connecting to browser: %w", err)
	}

	f.browser = browser
	f.launcher = l
	f.pages = 0
	return nil
}

// checkRequest vets a request issued by a page. Only network schemes are
// resolved; data and blob URLs never leave the browser.
func checkRequest(ctx context.Context, u *url.URL) error {
	switch u.Scheme {
	case "http", "https", "ws", "wss":
		return checkHost(ctx, u.Hostname())
	}
	return nil
}

// checkHost returns errBlockedAddress when host is, or resolves to, a
// non-public address.
func checkHost(ctx context.Context, host string) error {
	if addr, err := netip.ParseAddr(host); err == nil {
		if !clarifyr.IsPublicAddr(addr) {
			return fmt.Errorf("%w: %s", errBlockedAddress, host)
		}
		return nil
	}

	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", host, err)
	}
	for _, addr := range addrs {
		if !clarifyr.IsPublicAddr(addr) {
			return fmt.Errorf("%w: %s", errBlockedAddress, host)
		}
	}
	return nil
}

func (f *Fetcher) classify(err error, rawURL string) error {
	switch {
	case errors.Is(err, errBlockedAddress):
		return clarifyr.WrapError(err, clarifyr.EFETCH, "refusing to fetch %s: host resolves to a private address", rawURL)
	case errors.Is(err, context.DeadlineExceeded):
		return clarifyr.WrapError(err, clarifyr.EFETCH, "timeout fetching %s after %s", rawURL, f.timeout)
	case errors.Is(err, context.Canceled):
		return clarifyr.WrapError(err, clarifyr.EFETCH, "fetch of %s canceled", rawURL)
	default:
		return clarifyr.WrapError(err, clarifyr.EFETCH, "failed to fetch %s", rawURL)
	}
}

// LauncherPID returns the process ID of the running browser, or 0.
func (f *Fetcher) LauncherPID() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.launcher == nil {
		return 0
	}
	return f.launcher.PID()
}

// Close shuts the browser down. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true

	var err error
	if f.browser != nil {
		err = f.browser.Close()
		f.browser = nil
	}
	if f.launcher != nil {
		f.launcher.Kill()
		f.launcher = nil
	}
	return err
}
