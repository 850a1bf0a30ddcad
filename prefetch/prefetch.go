package prefetch

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

func errStatus(status int) error {
	return fmt.Errorf("upstream status %d", status)
}

// SegmentRef identifies one upstream segment to fetch (spec §3 SegmentRef).
type SegmentRef struct {
	URL         string
	RangeHeader string
}

// Item is one unit delivered to the consumer: either a byte chunk or a
// terminal failure carrying the upstream status that caused it.
type Item struct {
	Data   []byte
	Err    error
	Status int
}

// FetchResult is what the caller-supplied Fetch function returns for one
// segment. Status 0 means "fetch-level error", not an HTTP response.
type FetchResult struct {
	StatusCode int
	Body       []byte
}

// Fetch retrieves one segment's bytes from upstream (typically backed by
// fetcher.Fetcher.Fetch).
type Fetch func(ctx context.Context, ref SegmentRef) (*FetchResult, error)

// CacheLookup consults C2's segment tier by absolute URL.
type CacheLookup func(url string) ([]byte, bool)

// CacheStore populates C2's segment tier after a successful fetch.
type CacheStore func(url string, data []byte)

// Stream fetches segments with up to `window` concurrent upstream
// requests and delivers their bytes to the returned channel in strict
// segment order (spec §4.4). The channel is closed once every segment has
// been delivered, failed, or ctx was cancelled.
func Stream(ctx context.Context, segments []SegmentRef, window int, fetch Fetch, cacheGet CacheLookup, cacheSet CacheStore) <-chan Item {
	out := make(chan Item, window)

	if window < 1 {
		window = 1
	}

	// One result slot per segment: the producer for segment i fills
	// slots[i] exactly once, and the drain loop below reads slots strictly
	// in index order, which is what gives us the segment-then-byte
	// ordering invariant regardless of completion order.
	slots := make([]chan *chunk, len(segments))
	for i := range slots {
		slots[i] = make(chan *chunk, 1)
	}

	sem := semaphore.NewWeighted(int64(window))

	// The semaphore gates dispatch, but the permit for segment i is only
	// released once the consumer has actually drained slots[i] (see the
	// drain loop below), not when the fetch completes. Releasing on
	// completion would let the producer race arbitrarily far ahead of a
	// slow consumer, holding O(N) completed-but-undelivered segment
	// bodies instead of the O(window) spec §4.4 backpressure requires.
	go func() {
		for i, ref := range segments {
			if ctx.Err() != nil {
				slots[i] <- &chunk{index: i, err: ctx.Err()}
				continue
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				slots[i] <- &chunk{index: i, err: ctx.Err()}
				continue
			}
			go fetchOne(ctx, i, ref, fetch, cacheGet, cacheSet, slots[i])
		}
	}()

	go func() {
		defer close(out)
		for i := range segments {
			c := <-slots[i]
			if c.acquired {
				sem.Release(1)
			}
			if c.err != nil {
				out <- Item{Err: c.err}
				return
			}
			if c.status >= 400 {
				out <- Item{Status: c.status, Err: errStatus(c.status)}
				c.release()
				return
			}
			select {
			case out <- Item{Data: c.bytes(), Status: c.status}:
			case <-ctx.Done():
				c.release()
				return
			}
			c.release()
		}
	}()

	return out
}

func fetchOne(ctx context.Context, index int, ref SegmentRef, fetch Fetch, cacheGet CacheLookup, cacheSet CacheStore, slot chan<- *chunk) {
	if cacheGet != nil {
		if data, ok := cacheGet(ref.URL); ok {
			c := newChunk(index)
			c.buffer.Set(data)
			c.status = 200
			c.acquired = true
			slot <- c
			return
		}
	}

	res, err := fetch(ctx, ref)
	if err == nil && res.StatusCode == 0 {
		err = errStatus(0)
	}
	if err != nil {
		slot <- &chunk{index: index, err: err, acquired: true}
		return
	}

	c := newChunk(index)
	c.buffer.Set(res.Body)
	c.status = res.StatusCode
	c.acquired = true
	if res.StatusCode < 400 && cacheSet != nil {
		cacheSet(ref.URL, res.Body)
	}
	slot <- c
}
