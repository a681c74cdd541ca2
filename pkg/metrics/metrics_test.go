package metrics_test

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/haivivi/cropcare/pkg/cache"
	"github.com/haivivi/cropcare/pkg/fallback"
	"github.com/haivivi/cropcare/pkg/metrics"
)

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	srv := httptest.NewServer(m.Handler())
	t.Cleanup(srv.Close)
	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestObserve(t *testing.T) {
	m := metrics.New()
	m.Observe(fallback.Trace{
		Chain: "llm",
		Attempts: []fallback.Attempt{
			{Provider: "gpt-4o", Err: context.DeadlineExceeded},
			{Provider: "gpt-4o-mini", Err: errors.New("429")},
		},
		Provider: fallback.ProviderNone,
		Elapsed:  time.Second,
	})
	m.Observe(fallback.Trace{
		Chain:    "llm",
		Attempts: []fallback.Attempt{{Provider: "gpt-4o"}},
		Provider: "gpt-4o",
	})

	body := scrape(t, m)
	for _, want := range []string{
		`cropcare_provider_attempts_total{chain="llm",outcome="timeout",provider="gpt-4o"} 1`,
		`cropcare_provider_attempts_total{chain="llm",outcome="ok",provider="gpt-4o"} 1`,
		`cropcare_provider_attempts_total{chain="llm",outcome="error",provider="gpt-4o-mini"} 1`,
		`cropcare_chain_exhausted_total{chain="llm"} 1`,
		`cropcare_chain_duration_seconds_count{chain="llm"} 2`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestRegisterCache(t *testing.T) {
	m := metrics.New()
	c := cache.New[string, int]("response", 10)
	m.RegisterCache(c)

	c.Put("a", 1)
	c.Get("a")
	c.Get("b")

	body := scrape(t, m)
	for _, want := range []string{
		`cropcare_cache_entries{cache="response"} 1`,
		`cropcare_cache_hits_total{cache="response"} 1`,
		`cropcare_cache_misses_total{cache="response"} 1`,
		`cropcare_cache_evictions_total{cache="response"} 0`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestSentry(t *testing.T) {
	var (
		mu     sync.Mutex
		events []*sentry.Event
	)
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
			return nil
		},
	})
	if err != nil {
		t.Fatalf("sentry.NewClient: %v", err)
	}
	obs := metrics.Sentry{Hub: sentry.NewHub(client, sentry.NewScope())}

	obs.Observe(fallback.Trace{Chain: "speech", Provider: "google"})
	obs.Observe(fallback.Trace{
		Chain:    "translate",
		Attempts: []fallback.Attempt{{Provider: "google", Err: errors.New("no key")}},
		Provider: fallback.ProviderNone,
	})

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Tags["chain"] != "translate" {
		t.Errorf("chain tag = %q", events[0].Tags["chain"])
	}
	if !strings.Contains(events[0].Message, "translate chain exhausted") {
		t.Errorf("Message = %q", events[0].Message)
	}
}
