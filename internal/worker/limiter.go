package worker

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter rate-limits requests per host. One scrape run usually talks to a
// single origin, but pagination and robots fetches share the same budget.
type Limiter struct {
	mu      sync.Mutex
	perHost map[string]*rate.Limiter
	perSec  rate.Limit
	burst   int
}

// NewLimiter creates a limiter allowing requestsPerSecond per host.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		perHost: make(map[string]*rate.Limiter),
		perSec:  rate.Limit(requestsPerSecond),
		burst:   burst,
	}
}

// Wait blocks until the host's limiter clears the request or ctx ends.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	return l.forHost(parsed.Host).Wait(ctx)
}

func (l *Limiter) forHost(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.perHost[host]
	if !ok {
		lim = rate.NewLimiter(l.perSec, l.burst)
		l.perHost[host] = lim
	}
	return lim
}
