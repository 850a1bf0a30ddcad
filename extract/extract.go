package extract

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/semaphore"

	"hlsgate/cache"
	"hlsgate/gatewayerr"
	"hlsgate/rewriter"
)

// Response is the JSON body returned by GET /extract (spec §4.6 step 4).
type Response struct {
	Meta    VideoMeta          `json:"meta"`
	Streams []StreamDescriptor `json:"streams"`
}

// Service wires an Extractor to C2's cache and a proxy-prefix builder.
type Service struct {
	extractor Extractor
	cache     *cache.Cache
	ttl       cacheTTL
	sem       *semaphore.Weighted
}

type cacheTTL struct {
	extract int64 // seconds; kept as a field so zero-value Service is invalid and obvious
}

// New builds an extraction Service. ttlSeconds defaults to 600 per
// spec.md §4.6 step 2 when zero. maxConcurrent bounds the worker pool that
// blocking Extractor calls are dispatched onto (§5's "worker pool available
// for blocking calls into the external extractor"); non-positive falls
// back to 1.
func New(extractor Extractor, c *cache.Cache, ttlSeconds int64, maxConcurrent int) *Service {
	if ttlSeconds <= 0 {
		ttlSeconds = 600
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Service{
		extractor: extractor,
		cache:     c,
		ttl:       cacheTTL{extract: ttlSeconds},
		sem:       semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// dispatch runs fn on a worker-pool goroutine gated by the service's
// semaphore, delivering its result over a channel selected against ctx so
// a cancelled request returns promptly even if fn itself ignores
// cancellation (spec §5: "the worker runs to completion and its result is
// discarded").
type extractResult struct {
	value interface{}
	err   error
}

func (s *Service) dispatch(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, ctx.Err()
	}

	result := make(chan extractResult, 1)
	go func() {
		defer s.sem.Release(1)
		v, err := fn()
		result <- extractResult{value: v, err: err}
	}()

	select {
	case r := <-result:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Resolve implements the full §4.6 sequence: normalize, fetch meta +
// streams (each cached independently, keys "extract:meta:{normalized_url}"
// and "extract:streams:{normalized_url}"),
// rewrite every stream URL through proxyPrefix.
func (s *Service) Resolve(ctx context.Context, rawURL string, proxyPrefix string) (*Response, error) {
	normalized, err := Normalize(rawURL)
	if err != nil {
		return nil, err
	}

	metaKey := "extract:meta:" + normalized
	streamsKey := "extract:streams:" + normalized
	ttl := secondsToDuration(s.ttl.extract)

	metaJSON, err := s.cache.GetOrFillManifest(ctx, metaKey, ttl, func(ctx context.Context) (string, error) {
		v, err := s.dispatch(ctx, func() (interface{}, error) {
			return s.extractor.ExtractInfo(ctx, normalized)
		})
		if err != nil {
			return "", gatewayerr.ExtractionFailed("extraction failed", err)
		}
		b, err := json.Marshal(v)
		if err != nil {
			return "", gatewayerr.Internal("internal server error", err)
		}
		return string(b), nil
	})
	if err != nil {
		return nil, err
	}

	streamsJSON, err := s.cache.GetOrFillManifest(ctx, streamsKey, ttl, func(ctx context.Context) (string, error) {
		v, err := s.dispatch(ctx, func() (interface{}, error) {
			return s.extractor.GetStreamInfos(ctx, normalized)
		})
		if err != nil {
			return "", gatewayerr.ExtractionFailed("extraction failed", err)
		}
		streams, _ := v.([]StreamDescriptor)
		if len(streams) == 0 {
			return "", gatewayerr.ExtractionFailed("extraction failed", nil)
		}
		b, err := json.Marshal(streams)
		if err != nil {
			return "", gatewayerr.Internal("internal server error", err)
		}
		return string(b), nil
	})
	if err != nil {
		return nil, err
	}

	var meta VideoMeta
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return nil, gatewayerr.Internal("internal server error", err)
	}
	var streams []StreamDescriptor
	if err := json.Unmarshal([]byte(streamsJSON), &streams); err != nil {
		return nil, gatewayerr.Internal("internal server error", err)
	}

	for i := range streams {
		streams[i].URL = proxyPrefix + rewriter.PercentEncode(streams[i].URL, "")
	}

	return &Response{Meta: meta, Streams: streams}, nil
}

func secondsToDuration(s int64) time.Duration {
	return time.Duration(s) * time.Second
}
