package cache_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haivivi/cropcare/pkg/cache"
)

func TestEvictOldestBatch(t *testing.T) {
	c := cache.New[string, int]("responses", 100)
	for i := 1; i <= 100; i++ {
		c.Put(fmt.Sprintf("k%d", i), i)
	}
	if got := c.Len(); got != 100 {
		t.Fatalf("Len = %d, want 100", got)
	}

	c.Put("k101", 101)
	if got := c.Len(); got != 81 {
		t.Fatalf("Len after #101 = %d, want 81", got)
	}
	for i := 1; i <= 20; i++ {
		if _, ok := c.Get(fmt.Sprintf("k%d", i)); ok {
			t.Fatalf("k%d should have been evicted", i)
		}
	}
	for _, k := range []string{"k21", "k100", "k101"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("%s should be present", k)
		}
	}
	if got := c.Stats().Evictions; got != 20 {
		t.Fatalf("Evictions = %d, want 20", got)
	}
}

func TestAudioCeiling(t *testing.T) {
	c := cache.New[string, string]("audio", 50)
	for i := 0; i < 51; i++ {
		c.Put(fmt.Sprint(i), "url")
	}
	if got := c.Len(); got != 40 {
		t.Fatalf("Len = %d, want 40", got)
	}
}

func TestReadsDoNotPromote(t *testing.T) {
	c := cache.New[string, int]("test", 5)
	for i := 0; i < 5; i++ {
		c.Put(fmt.Sprint(i), i)
	}
	// Reading the oldest entry must not save it from eviction.
	if _, ok := c.Get("0"); !ok {
		t.Fatal("Get(0) missing")
	}
	c.Put("5", 5)
	if _, ok := c.Get("0"); ok {
		t.Fatal("0 should have been evicted despite the read")
	}
	if got, want := c.Keys(), []string{"1", "2", "3", "4", "5"}; fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("Keys = %v, want %v", got, want)
	}
}

func TestPutReplaceKeepsPosition(t *testing.T) {
	c := cache.New[string, int]("test", 3)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("a", 10)
	if got := c.Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}
	if v, _ := c.Get("a"); v != 10 {
		t.Fatalf("Get(a) = %d, want 10", v)
	}
	if got := c.Keys(); got[0] != "a" {
		t.Fatalf("Keys = %v, want a first", got)
	}
}

func TestDelete(t *testing.T) {
	c := cache.New[string, int]("test", 3)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Delete("a")
	c.Delete("missing")
	if _, ok := c.Get("a"); ok {
		t.Fatal("a should be gone")
	}
	if got := c.Keys(); len(got) != 1 || got[0] != "b" {
		t.Fatalf("Keys = %v, want [b]", got)
	}
}

func TestGetOrComputeCaches(t *testing.T) {
	c := cache.New[string, string]("test", 10)
	ctx := context.Background()
	calls := 0
	compute := func(context.Context) (string, error) {
		calls++
		return "value", nil
	}

	for i := 0; i < 2; i++ {
		v, err := c.GetOrCompute(ctx, "key", compute)
		if err != nil {
			t.Fatalf("GetOrCompute: %v", err)
		}
		if v != "value" {
			t.Fatalf("GetOrCompute = %q, want %q", v, "value")
		}
	}
	if calls != 1 {
		t.Fatalf("compute called %d times, want 1", calls)
	}
	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 {
		t.Fatalf("Stats = %+v, want 1 hit and 1 miss", st)
	}
}

func TestGetOrComputeErrorNotCached(t *testing.T) {
	c := cache.New[string, string]("test", 10)
	ctx := context.Background()
	boom := errors.New("boom")

	if _, err := c.GetOrCompute(ctx, "k", func(context.Context) (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if c.Len() != 0 {
		t.Fatal("error result was cached")
	}
	v, err := c.GetOrCompute(ctx, "k", func(context.Context) (string, error) { return "ok", nil })
	if err != nil || v != "ok" {
		t.Fatalf("GetOrCompute = (%q, %v), want ok", v, err)
	}
}

func TestGetOrComputeSharesConcurrentMisses(t *testing.T) {
	c := cache.New[string, int]("test", 10)
	ctx := context.Background()
	var calls atomic.Int32
	gate := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrCompute(ctx, "k", func(context.Context) (int, error) {
				calls.Add(1)
				<-gate
				return 42, nil
			})
			if err != nil || v != 42 {
				t.Errorf("GetOrCompute = (%d, %v), want 42", v, err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Fatalf("compute called %d times, want 1", n)
	}
}

func TestStructKeys(t *testing.T) {
	type key struct {
		Text string
		Lang string
	}
	c := cache.New[key, string]("test", 10)
	c.Put(key{"hello", "en-US"}, "a")
	c.Put(key{"hello", "hi-IN"}, "b")
	if v, _ := c.Get(key{"hello", "hi-IN"}); v != "b" {
		t.Fatalf("Get = %q, want b", v)
	}
}

func TestGetOrComputeDistinctStructKeys(t *testing.T) {
	type key struct {
		Text string
		Lang string
	}
	// Both keys print as "{hi fr x}" but are different cache entries.
	a := key{"hi fr", "x"}
	b := key{"hi", "fr x"}
	if fmt.Sprint(a) != fmt.Sprint(b) {
		t.Fatalf("keys should print alike: %v vs %v", a, b)
	}

	c := cache.New[key, string]("responses", 10)
	ctx := context.Background()
	started := make(chan struct{})
	gate := make(chan struct{})

	resA := make(chan string, 1)
	go func() {
		v, _ := c.GetOrCompute(ctx, a, func(context.Context) (string, error) {
			close(started)
			<-gate
			return "answer-a", nil
		})
		resA <- v
	}()
	<-started

	done := make(chan struct{})
	var vb string
	var errB error
	go func() {
		defer close(done)
		vb, errB = c.GetOrCompute(ctx, b, func(context.Context) (string, error) {
			return "answer-b", nil
		})
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		close(gate)
		t.Fatal("GetOrCompute(b) waited on the computation for a")
	}
	close(gate)

	if errB != nil || vb != "answer-b" {
		t.Fatalf("GetOrCompute(b) = (%q, %v), want answer-b", vb, errB)
	}
	if v := <-resA; v != "answer-a" {
		t.Fatalf("GetOrCompute(a) = %q, want answer-a", v)
	}
	if v, _ := c.Get(a); v != "answer-a" {
		t.Fatalf("cached a = %q, want answer-a", v)
	}
	if v, _ := c.Get(b); v != "answer-b" {
		t.Fatalf("cached b = %q, want answer-b", v)
	}
}

func TestConcurrentInsertsRespectCeiling(t *testing.T) {
	c := cache.New[int, int]("audio", 50)
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				k := g*1000 + i
				if i%2 == 0 {
					c.Put(k, k)
					continue
				}
				if _, err := c.GetOrCompute(ctx, k, func(context.Context) (int, error) { return k, nil }); err != nil {
					t.Errorf("GetOrCompute(%d): %v", k, err)
				}
			}
			if n := c.Len(); n > c.Max() {
				t.Errorf("Len = %d exceeds Max = %d", n, c.Max())
			}
		}()
	}
	wg.Wait()

	if n := c.Len(); n > c.Max() {
		t.Fatalf("Len = %d exceeds Max = %d", n, c.Max())
	}
	if c.Stats().Evictions == 0 {
		t.Fatal("expected evictions")
	}
}

func TestOnEvict(t *testing.T) {
	var mu sync.Mutex
	var gone []string
	c := cache.New("audio", 5, cache.WithOnEvict(func(k string, v string) {
		mu.Lock()
		defer mu.Unlock()
		gone = append(gone, k+"="+v)
	}))
	for i := 0; i < 6; i++ {
		c.Put(fmt.Sprint(i), fmt.Sprintf("clip%d", i))
	}

	mu.Lock()
	defer mu.Unlock()
	if len(gone) != 1 || gone[0] != "0=clip0" {
		t.Fatalf("evicted = %v, want [0=clip0]", gone)
	}
	// Delete is not an eviction.
	c.Delete("1")
	if len(gone) != 1 {
		t.Fatalf("Delete triggered OnEvict: %v", gone)
	}
}
