// Package rate throttles outbound page fetches per host using token buckets
// from golang.org/x/time/rate.
package rate

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/clarifyr"
	"golang.org/x/time/rate"
)

// PruneThreshold is the number of tracked hosts at which idle limiters are
// dropped. A limiter whose bucket is full behaves like a new one, so
// dropping it loses no state.
const PruneThreshold = 64

// Ensure Fetcher implements clarifyr.Fetcher at compile time.
var _ clarifyr.Fetcher = (*Fetcher)(nil)

// Fetcher wraps a Fetcher so that requests to the same host are spaced at
// most rps per second. Different hosts are limited independently.
//
// Fetcher is safe for concurrent use.
type Fetcher struct {
	next clarifyr.Fetcher
	rps  float64

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	pruneAt  int
}

// NewFetcher returns a Fetcher allowing rps requests per second per host,
// with a burst of 1.
func NewFetcher(next clarifyr.Fetcher, rps float64) *Fetcher {
	return &Fetcher{
		next:     next,
		rps:      rps,
		limiters: make(map[string]*rate.Limiter),
		pruneAt:  PruneThreshold,
	}
}

// Fetch waits for the host's limiter and delegates to the wrapped fetcher.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := f.Wait(ctx, host(rawURL)); err != nil {
		return "", clarifyr.WrapError(err, clarifyr.EFETCH, "gave up waiting to fetch %s", rawURL)
	}
	return f.next.Fetch(ctx, rawURL)
}

// Wait blocks until the rate limit allows a request to host.
// Returns an error if ctx ends before the wait completes.
func (f *Fetcher) Wait(ctx context.Context, host string) error {
	now := time.Now()

	// Reserve under the lock so a pruned limiter is never waited on.
	f.mu.Lock()
	limiter, ok := f.limiters[host]
	if !ok {
		if len(f.limiters) >= f.pruneAt {
			f.prune(now)
		}
		limiter = rate.NewLimiter(rate.Limit(f.rps), 1)
		f.limiters[host] = limiter
	}
	r := limiter.ReserveN(now, 1)
	f.mu.Unlock()

	if !r.OK() {
		return fmt.Errorf("rate: cannot reserve a request to %s", host)
	}
	delay := r.DelayFrom(now)
	if delay == 0 {
		return nil
	}
	if deadline, ok := ctx.Deadline(); ok && deadline.Before(now.Add(delay)) {
		r.CancelAt(now)
		return fmt.Errorf("rate: wait of %s for %s would exceed context deadline: %w", delay, host, context.DeadlineExceeded)
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}

// prune drops limiters with a full bucket. Must be called with mu held.
func (f *Fetcher) prune(now time.Time) {
	for host, limiter := range f.limiters {
		if limiter.TokensAt(now) >= 1 {
			delete(f.limiters, host)
		}
	}
	f.pruneAt = max(PruneThreshold, 2*len(f.limiters))
}

// Len returns the number of hosts currently tracked.
func (f *Fetcher) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.limiters)
}

// Close delegates to the wrapped fetcher.
func (f *Fetcher) Close() error {
	return f.next.Close()
}

// host returns the lowercased host of rawURL. Unparsable URLs share one
// bucket; the wrapped fetcher rejects them anyway.
func host(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
