package reddit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Rate limiting defaults. The public JSON API tolerates roughly 60
// unauthenticated requests per minute; we default well under that.
const (
	// DefaultRequestsPerMinute is the default request budget.
	DefaultRequestsPerMinute = 30

	// DefaultMinInterval is the floor below which the interval between
	// requests never drops, regardless of reported quota.
	DefaultMinInterval = 500 * time.Millisecond

	// DefaultSafetyMargin is the fraction of the reported remaining
	// quota the limiter is willing to spend before the window resets.
	// Using less than the full quota leaves headroom for clock skew and
	// requests issued by other processes sharing the same source IP.
	DefaultSafetyMargin = 0.8
)

// Limiter paces outbound requests. Acquire blocks the caller until enough
// time has passed since the previous acquisition, then stamps the current
// time as the last request time.
//
// When response headers supply remaining-quota and reset-time metadata
// (see UpdateFromHeaders), the limiter adapts: the next interval becomes
// time-to-reset divided by the usable remaining quota, so the budget is
// spread evenly across the window instead of being exhausted up front.
// Missing or stale metadata falls back to the fixed interval.
//
// Acquire is a single mutual-exclusion critical section guarding
// "compute wait, sleep, stamp time": concurrent callers sharing one
// Limiter serialize through it, and no two acquisitions are ever spaced
// closer than the currently computed interval.
type Limiter struct {
	mu sync.Mutex

	// interval is the fixed spacing between requests, already clamped
	// to be at least floor.
	interval time.Duration

	// floor is the minimum spacing regardless of the request budget.
	floor time.Duration

	// safetyMargin is the usable fraction of the reported quota.
	safetyMargin float64

	// last is the time of the most recent acquisition.
	last time.Time

	// remaining and resetAt are the quota metadata from the most recent
	// response. remaining is -1 when no metadata has been seen.
	remaining int
	resetAt   time.Time
}

// LimiterOption configures a Limiter.
type LimiterOption func(*Limiter)

// WithMinInterval sets the floor for the spacing between requests.
func WithMinInterval(d time.Duration) LimiterOption {
	return func(l *Limiter) {
		if d > 0 {
			l.floor = d
		}
	}
}

// WithSafetyMargin sets the usable fraction (0-1] of reported quota.
func WithSafetyMargin(m float64) LimiterOption {
	return func(l *Limiter) {
		if m > 0 && m <= 1 {
			l.safetyMargin = m
		}
	}
}

// NewLimiter creates a Limiter that spaces requests by
// max(60s/requestsPerMinute, floor). A non-positive requestsPerMinute
// falls back to the default budget.
func NewLimiter(requestsPerMinute int, opts ...LimiterOption) *Limiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRequestsPerMinute
	}

	l := &Limiter{
		interval:     time.Minute / time.Duration(requestsPerMinute),
		floor:        DefaultMinInterval,
		safetyMargin: DefaultSafetyMargin,
		remaining:    -1,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.interval < l.floor {
		l.interval = l.floor
	}

	return l
}

// Acquire blocks until it is safe to issue the next request, then records
// the acquisition time. It returns early with the context's error if the
// context is cancelled while waiting.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	wait := l.currentInterval(now) - now.Sub(l.last)

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	l.last = time.Now()
	return nil
}

// currentInterval computes the spacing to apply for the next request.
// Callers must hold l.mu.
func (l *Limiter) currentInterval(now time.Time) time.Duration {
	// No metadata, or the window already reset: fixed interval.
	if l.remaining < 0 || !l.resetAt.After(now) {
		return l.interval
	}

	timeToReset := l.resetAt.Sub(now)

	// Quota exhausted: hold off until the window resets.
	usable := int(float64(l.remaining) * l.safetyMargin)
	if usable <= 0 {
		return timeToReset
	}

	adaptive := timeToReset / time.Duration(usable)
	if adaptive > l.interval {
		return adaptive
	}
	return l.interval
}

// UpdateFromHeaders consumes rate-quota metadata from a response. Reddit
// reports X-Ratelimit-Remaining (requests left in the window, possibly
// fractional) and X-Ratelimit-Reset (seconds until the window resets).
// Headers that are absent or unparsable leave the previous state intact.
func (l *Limiter) UpdateFromHeaders(h http.Header) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v := h.Get("X-Ratelimit-Remaining"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			l.remaining = int(f)
		}
	}

	if v := h.Get("X-Ratelimit-Reset"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			l.resetAt = time.Now().Add(time.Duration(f * float64(time.Second)))
		}
	}
}

// Interval returns the fixed (non-adaptive) spacing between requests.
func (l *Limiter) Interval() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.interval
}
