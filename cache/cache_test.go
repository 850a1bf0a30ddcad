package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCache_ManifestRoundTrip(t *testing.T) {
	c := New("ns", 16)
	key := c.Key(KindRewritten, "https://ex.com/a.m3u8")

	if _, ok := c.GetManifest(key); ok {
		t.Fatalf("expected miss before set")
	}
	c.SetManifest(key, "body", time.Minute)
	v, ok := c.GetManifest(key)
	if !ok || v != "body" {
		t.Fatalf("expected hit with body, got %q ok=%v", v, ok)
	}
}

func TestCache_SegmentExpiry(t *testing.T) {
	c := New("ns", 16)
	key := c.Key(KindRaw, "https://ex.com/seg1.ts")

	c.SetSegment(key, []byte("data"), 10*time.Millisecond)
	if _, ok := c.GetSegment(key); !ok {
		t.Fatalf("expected immediate hit")
	}
	time.Sleep(30 * time.Millisecond)
	if _, ok := c.GetSegment(key); ok {
		t.Fatalf("expected expired entry to be treated as a miss")
	}
}

// TestCache_SingleFlight_Manifest covers Testable Property #4: N concurrent
// GetOrFillManifest calls for the same key invoke the filler exactly once.
func TestCache_SingleFlight_Manifest(t *testing.T) {
	c := New("ns", 16)
	key := c.Key(KindRewritten, "https://ex.com/a.m3u8")

	var calls int32
	const n = 50
	var wg sync.WaitGroup
	results := make([]string, n)
	errs := make([]error, n)

	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			v, err := c.GetOrFillManifest(context.Background(), key, time.Minute, func(context.Context) (string, error) {
				atomic.AddInt32(&calls, 1)
				time.Sleep(20 * time.Millisecond)
				return "filled", nil
			})
			results[i] = v
			errs[i] = err
		}(i)
	}
	close(start)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected filler invoked exactly once, got %d", got)
	}
	for i := range results {
		if errs[i] != nil || results[i] != "filled" {
			t.Fatalf("caller %d got (%q, %v)", i, results[i], errs[i])
		}
	}
}

func TestCache_GetOrFillSegment_FailureNotCached(t *testing.T) {
	c := New("ns", 16)
	key := c.Key(KindRaw, "https://ex.com/seg1.ts")

	wantErr := errors.New("upstream down")
	_, err := c.GetOrFillSegment(context.Background(), key, time.Minute, func(context.Context) ([]byte, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected filler error to propagate, got %v", err)
	}
	if _, ok := c.GetSegment(key); ok {
		t.Fatalf("failed fill must not populate the cache")
	}

	v, err := c.GetOrFillSegment(context.Background(), key, time.Minute, func(context.Context) ([]byte, error) {
		return []byte("ok"), nil
	})
	if err != nil || string(v) != "ok" {
		t.Fatalf("retry after failure should succeed, got (%q, %v)", v, err)
	}
}

func TestCache_Sweep(t *testing.T) {
	c := New("ns", 16)
	key := c.Key(KindRaw, "https://ex.com/seg1.ts")
	c.SetSegment(key, []byte("data"), time.Millisecond)
	time.Sleep(15 * time.Millisecond)

	evicted := c.Sweep()
	if evicted != 1 {
		t.Fatalf("expected 1 evicted segment, got %d", evicted)
	}
	_, segs := c.Len()
	if segs != 0 {
		t.Fatalf("expected 0 segments after sweep, got %d", segs)
	}
}
