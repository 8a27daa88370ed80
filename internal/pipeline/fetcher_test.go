package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/settlewatch/settlewatch/internal/cache"
	"github.com/settlewatch/settlewatch/internal/model"
)

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Source.RespectRobots = false
	cfg.Source.RequestsPerSecond = 1000
	cfg.Cache.Enabled = false
	cfg.HTTP.Timeout = 5 * time.Second
	return cfg
}

func stubSleep(t *testing.T) {
	t.Helper()
	orig := fetchSleepFunc
	fetchSleepFunc = func(time.Duration) {}
	t.Cleanup(func() { fetchSleepFunc = orig })
}

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, "<html><body>OK</body></html>")
	}))
	defer server.Close()

	f := NewFetcher(testConfig(), nil, nil)
	html, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if html != "<html><body>OK</body></html>" {
		t.Errorf("unexpected HTML: %s", html)
	}
}

func TestFetch_TransientThenSuccess(t *testing.T) {
	stubSleep(t)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, "<html>OK</html>")
	}))
	defer server.Close()

	f := NewFetcher(testConfig(), nil, nil)
	html, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if html != "<html>OK</html>" {
		t.Errorf("unexpected HTML: %s", html)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetch_PermanentFailureNoRetry(t *testing.T) {
	stubSleep(t)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher(testConfig(), nil, nil)
	_, err := f.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if attempts.Load() != 1 {
		t.Errorf("404 must not be retried, got %d attempts", attempts.Load())
	}

	var netErr *model.NetworkError
	if !errors.As(err, &netErr) {
		t.Errorf("expected *model.NetworkError, got %T", err)
	}
}

func TestFetch_RetriesExhausted(t *testing.T) {
	stubSleep(t)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.HTTP.MaxRetries = 3

	f := NewFetcher(cfg, nil, nil)
	_, err := f.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetch_SnapshotCacheHit(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = fmt.Fprint(w, "<html>cached</html>")
	}))
	defer server.Close()

	snapshots := cache.NewMemory(time.Minute)
	f := NewFetcher(testConfig(), snapshots, nil)

	for i := 0; i < 3; i++ {
		html, err := f.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if html != "<html>cached</html>" {
			t.Errorf("fetch %d: unexpected HTML %q", i, html)
		}
	}

	if hits.Load() != 1 {
		t.Errorf("expected 1 origin hit, got %d", hits.Load())
	}
}

func TestFetch_ZeroBodyCapFallsBackToDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "<html><body>full body</body></html>")
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.HTTP.MaxBodyBytes = 0

	f := NewFetcher(cfg, nil, nil)
	html, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if html != "<html><body>full body</body></html>" {
		t.Errorf("an unset cap must not truncate the body, got %q", html)
	}
}

func TestFetch_BodySizeCapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 1000; i++ {
			_, _ = fmt.Fprint(w, "0123456789")
		}
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.HTTP.MaxBodyBytes = 100

	f := NewFetcher(cfg, nil, nil)
	html, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(html) != 100 {
		t.Errorf("expected body capped at 100 bytes, got %d", len(html))
	}
}
