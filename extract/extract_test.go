package extract

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"hlsgate/cache"
)

type fakeExtractor struct {
	infoCalls    int32
	streamCalls  int32
}

func (f *fakeExtractor) ExtractInfo(ctx context.Context, url string) (VideoMeta, error) {
	atomic.AddInt32(&f.infoCalls, 1)
	return VideoMeta{Title: "t", Uploader: "u"}, nil
}

func (f *fakeExtractor) GetStreamInfos(ctx context.Context, url string) ([]StreamDescriptor, error) {
	atomic.AddInt32(&f.streamCalls, 1)
	return []StreamDescriptor{{Type: "video", Quality: "720p", URL: "https://ex.com/a.m3u8"}}, nil
}

func TestService_Resolve(t *testing.T) {
	fx := &fakeExtractor{}
	svc := New(fx, cache.New("ns", 16), 600, 4)

	resp, err := svc.Resolve(context.Background(), "https://youtu.be/dQw4w9WgXcQ", "https://gw.example.com/proxy?url=")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resp.Meta.Title != "t" {
		t.Fatalf("expected meta to round-trip, got %+v", resp.Meta)
	}
	if len(resp.Streams) != 1 || resp.Streams[0].URL != "https://gw.example.com/proxy?url=https%3A%2F%2Fex.com%2Fa.m3u8" {
		t.Fatalf("expected rewritten stream URL, got %+v", resp.Streams)
	}
}

func TestService_Resolve_CachesExtractorCalls(t *testing.T) {
	fx := &fakeExtractor{}
	svc := New(fx, cache.New("ns", 16), 600, 4)

	if _, err := svc.Resolve(context.Background(), "https://youtu.be/dQw4w9WgXcQ", "p="); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := svc.Resolve(context.Background(), "https://youtu.be/dQw4w9WgXcQ", "p="); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if atomic.LoadInt32(&fx.infoCalls) != 1 || atomic.LoadInt32(&fx.streamCalls) != 1 {
		t.Fatalf("expected extractor to be called once per kind, got info=%d streams=%d", fx.infoCalls, fx.streamCalls)
	}
}

type stuckExtractor struct {
	unblock chan struct{}
}

func (f *stuckExtractor) ExtractInfo(ctx context.Context, url string) (VideoMeta, error) {
	<-f.unblock
	return VideoMeta{Title: "t"}, nil
}

func (f *stuckExtractor) GetStreamInfos(ctx context.Context, url string) ([]StreamDescriptor, error) {
	<-f.unblock
	return []StreamDescriptor{{Type: "video", Quality: "720p", URL: "https://ex.com/a.m3u8"}}, nil
}

// TestService_Resolve_CancellationReturnsPromptly covers spec §5's worker
// pool property: an extractor that ignores ctx cancellation must not block
// Resolve past the caller's own deadline; the worker runs to completion in
// the background and its result is discarded.
func TestService_Resolve_CancellationReturnsPromptly(t *testing.T) {
	fx := &stuckExtractor{unblock: make(chan struct{})}
	defer close(fx.unblock)
	svc := New(fx, cache.New("ns", 16), 600, 4)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		svc.Resolve(ctx, "https://youtu.be/dQw4w9WgXcQ", "p=")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Resolve did not return promptly after context cancellation")
	}
}

func TestService_Resolve_RejectsInvalidURL(t *testing.T) {
	fx := &fakeExtractor{}
	svc := New(fx, cache.New("ns", 16), 600, 4)

	if _, err := svc.Resolve(context.Background(), "https://example.com/nope", "p="); err == nil {
		t.Fatalf("expected invalid URL error")
	}
}
