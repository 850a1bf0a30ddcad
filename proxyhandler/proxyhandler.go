// Package proxyhandler implements C5: the /proxy endpoint that dispatches
// between the manifest path (C1+C2+C3) and the segment path (C4),
// generalized from the teacher's handlers/stream_http.go ServeHTTP /
// ServeSegmentHTTP dispatch split.
package proxyhandler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hlsgate/cache"
	"hlsgate/fetcher"
	"hlsgate/gatewayerr"
	"hlsgate/logger"
	"hlsgate/prefetch"
	"hlsgate/rewriter"
)

// Config bounds one Handler's behavior (mirrors config.ProxySettings /
// config.CacheSettings, kept separate to avoid an import-time dependency
// on the config package).
type Config struct {
	BasePath          string
	URLSafeChars      string
	InjectStartOffset bool
	BufferSize        int
	PrefetchSegments  int
	TTLM3U8           time.Duration
	TTLSegment        time.Duration
	Namespace         string
}

// Handler serves GET /proxy.
type Handler struct {
	cfg     Config
	cache   *cache.Cache
	fetcher *fetcher.Fetcher
	log     logger.Logger
}

func New(cfg Config, c *cache.Cache, f *fetcher.Fetcher, log logger.Logger) *Handler {
	return &Handler{cfg: cfg, cache: c, fetcher: f, log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		h.writeError(w, gatewayerr.InvalidInput("invalid URL", nil))
		return
	}
	upstream, err := url.Parse(raw)
	if err != nil || !upstream.IsAbs() {
		h.writeError(w, gatewayerr.InvalidInput("invalid URL", err))
		return
	}

	prefix := h.proxyPrefix(r)

	if strings.HasSuffix(upstream.Path, ".m3u8") {
		h.serveManifest(w, r, upstream, prefix)
		return
	}
	h.serveSegment(w, r, upstream)
}

// proxyPrefix derives "{scheme}://{host}/{base_path}?url=" from the
// inbound request (spec §4.5), making the gateway relocatable.
func (h *Handler) proxyPrefix(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s?url=", scheme, r.Host, strings.Trim(h.cfg.BasePath, "/"))
}

func (h *Handler) serveManifest(w http.ResponseWriter, r *http.Request, upstream *url.URL, prefix string) {
	key := h.cache.Key(cache.KindRewritten, upstream.String())

	body, err := h.cache.GetOrFillManifest(r.Context(), key, h.cfg.TTLM3U8, func(ctx context.Context) (string, error) {
		res, err := h.fetcher.Fetch(ctx, upstream.String(), "")
		if err != nil {
			return "", err
		}
		if res.StatusCode >= 400 {
			return "", gatewayerr.UpstreamStatus(res.StatusCode, "upstream error", nil)
		}
		return rewriter.Rewrite(string(res.Body), upstream, prefix, rewriter.Options{
			SafeChars:         h.cfg.URLSafeChars,
			InjectStartOffset: h.cfg.InjectStartOffset,
			BufferSize:        h.cfg.BufferSize,
		})
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.cfg.TTLM3U8.Seconds())))
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, body)
}

func (h *Handler) serveSegment(w http.ResponseWriter, r *http.Request, upstream *url.URL) {
	window := h.cfg.PrefetchSegments
	if window < 1 {
		window = 1
	}

	segments := []prefetch.SegmentRef{{URL: upstream.String(), RangeHeader: r.Header.Get("Range")}}

	// The fetch hook runs tier 2's single-flight filler (GetOrFillSegment)
	// so concurrent requests for the same segment URL collapse into one
	// upstream call, the same guarantee GetOrFillManifest already gives
	// tier 1. prefetch.Stream's own cacheGet/cacheSet hooks are left nil:
	// the single-flight get-or-fill below already covers both the
	// fast-path read and the post-fetch write.
	fetch := func(ctx context.Context, ref prefetch.SegmentRef) (*prefetch.FetchResult, error) {
		key := h.cache.Key(cache.KindRaw, ref.URL)
		body, err := h.cache.GetOrFillSegment(ctx, key, h.cfg.TTLSegment, func(ctx context.Context) ([]byte, error) {
			res, err := h.fetcher.Fetch(ctx, ref.URL, ref.RangeHeader)
			if err != nil {
				return nil, err
			}
			if res.StatusCode >= 400 {
				return nil, gatewayerr.UpstreamStatus(res.StatusCode, "upstream error", nil)
			}
			return res.Body, nil
		})
		if err != nil {
			if ge, ok := gatewayerr.As(err); ok && ge.Kind == gatewayerr.KindUpstreamStatus {
				return &prefetch.FetchResult{StatusCode: ge.Status}, nil
			}
			return nil, err
		}
		return &prefetch.FetchResult{StatusCode: http.StatusOK, Body: body}, nil
	}

	items := prefetch.Stream(r.Context(), segments, window, fetch, nil, nil)

	headerWritten := false
	for item := range items {
		if item.Err != nil {
			if !headerWritten {
				// A typed fetch error (e.g. UpstreamTimeout once retries are
				// exhausted) keeps its own kind and status.
				if ge, ok := gatewayerr.As(item.Err); ok {
					h.writeError(w, ge)
					return
				}
				status := item.Status
				if status == 0 {
					status = http.StatusBadGateway
				}
				h.writeError(w, gatewayerr.UpstreamStatus(status, "upstream error", item.Err))
			}
			// Once bytes are already committed, the status cannot change
			// (spec §7 "partial responses"); the short read tells the client.
			return
		}
		if !headerWritten {
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.cfg.TTLSegment.Seconds())))
			w.WriteHeader(http.StatusOK)
			headerWritten = true
		}
		w.Write(item.Data)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	ge, ok := gatewayerr.As(err)
	if !ok {
		ge = gatewayerr.Internal("internal server error", err)
	}
	h.log.Errorf("proxy error: %v", ge)
	http.Error(w, ge.Message, ge.Status)
}
