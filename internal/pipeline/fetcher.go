package pipeline

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/settlewatch/settlewatch/internal/cache"
	"github.com/settlewatch/settlewatch/internal/model"
	"github.com/settlewatch/settlewatch/internal/util"
	"github.com/settlewatch/settlewatch/internal/worker"
	"go.uber.org/zap"
)

// fetchSleepFunc is the sleep used between retries (injectable for tests).
var fetchSleepFunc = time.Sleep

// Fetcher retrieves listings HTML. Every fetch goes through the per-host
// rate limiter; robots.txt is consulted once per host when enabled; bodies
// are cached so the logo pass and quick successive runs reuse the page.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	maxRetries int
	backoff    time.Duration

	limiter   *worker.Limiter
	robots    *util.RobotsGate // nil when robots checking is off
	snapshots cache.Cache      // nil when caching is off
	logger    *zap.Logger
}

// NewFetcher builds a fetcher from config.
func NewFetcher(cfg *model.Config, snapshots cache.Cache, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := &http.Transport{
		Proxy: util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
	}
	if cfg.HTTP.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	var robots *util.RobotsGate
	if cfg.Source.RespectRobots {
		robots = util.NewRobotsGate(cfg.HTTP.UserAgent, cfg.HTTP.Timeout)
	}

	maxRetries := cfg.HTTP.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	backoff := cfg.HTTP.RetryBackoff
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	maxBytes := cfg.HTTP.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 4_000_000
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   cfg.HTTP.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent:  cfg.HTTP.UserAgent,
		maxBytes:   maxBytes,
		maxRetries: maxRetries,
		backoff:    backoff,
		limiter:    worker.NewLimiter(cfg.Source.RequestsPerSecond, cfg.Source.Burst),
		robots:     robots,
		snapshots:  snapshots,
		logger:     logger,
	}
}

// Fetch returns the HTML for rawURL, from the snapshot cache when possible.
// On failure it returns a NetworkError after exhausting retries.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if f.snapshots != nil {
		if body, found := f.snapshots.Get(cache.Key(rawURL)); found {
			f.logger.Debug("snapshot cache hit", zap.String("url", rawURL))
			return string(body), nil
		}
	}

	if f.robots != nil {
		allowed, delay, err := f.robots.Allowed(ctx, rawURL)
		if err != nil {
			return "", &model.NetworkError{URL: rawURL, Err: err}
		}
		if !allowed {
			return "", &model.NetworkError{URL: rawURL, Err: fmt.Errorf("disallowed by robots.txt")}
		}
		if delay > 0 {
			fetchSleepFunc(delay)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return "", &model.NetworkError{URL: rawURL, Err: err}
		}

		body, retryable, err := f.fetchOnce(ctx, rawURL)
		if err == nil {
			if f.snapshots != nil {
				if cacheErr := f.snapshots.Set(cache.Key(rawURL), []byte(body), 0); cacheErr != nil {
					f.logger.Warn("snapshot cache write failed", zap.Error(cacheErr))
				}
			}
			return body, nil
		}

		lastErr = err
		if !retryable {
			break
		}
		if attempt < f.maxRetries {
			wait := f.backoff * time.Duration(attempt)
			f.logger.Warn("fetch failed, retrying",
				zap.String("url", rawURL), zap.Int("attempt", attempt), zap.Duration("backoff", wait), zap.Error(err))
			fetchSleepFunc(wait)
		}
	}

	return "", &model.NetworkError{URL: rawURL, Err: lastErr}
}

// fetchOnce performs a single GET. retryable distinguishes transient
// failures (transport errors, 5xx, 429) from permanent ones.
func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (body string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return "", retryable, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", true, fmt.Errorf("read body: %w", err)
	}
	return string(raw), false, nil
}
