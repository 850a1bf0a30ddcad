package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"hlsgate/auxindex"
	"hlsgate/extract"
	"hlsgate/gatewayerr"
)

// handleExtract wires GET /extract to the extraction Service, deriving the
// proxy prefix from the inbound request the same way proxyhandler does,
// then upserts the result into the auxiliary index so /search, /channel,
// and /playlists can find it later.
func handleExtract(w http.ResponseWriter, r *http.Request, svc *extract.Service, index *auxindex.Index, basePath string) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeExtractError(w, gatewayerr.InvalidInput("invalid URL", nil))
		return
	}

	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	prefix := scheme + "://" + r.Host + "/" + basePath + "?url="

	resp, err := svc.Resolve(r.Context(), rawURL, prefix)
	if err != nil {
		writeExtractError(w, err)
		return
	}

	if normalized, nerr := extract.Normalize(rawURL); nerr == nil {
		_ = index.Upsert(auxindex.ExtractedVideo{
			ID:            videoIDFromNormalized(normalized),
			NormalizedURL: normalized,
			Meta:          resp.Meta,
			Streams:       resp.Streams,
			FetchedAt:     time.Now(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func videoIDFromNormalized(normalized string) string {
	const prefix = "https://www.youtube.com/watch?v="
	if len(normalized) > len(prefix) {
		return normalized[len(prefix):]
	}
	return normalized
}

func writeExtractError(w http.ResponseWriter, err error) {
	ge, ok := gatewayerr.As(err)
	if !ok {
		ge = gatewayerr.Internal("internal server error", err)
	}
	http.Error(w, ge.Message, ge.Status)
}

// noopExtractor is the deterministic test double the gateway boots with
// until a real extraction back-end is wired in (spec.md §1: extraction is
// "a pluggable component... the gateway consumes its output but does not
// implement extraction").
type noopExtractor struct{}

func (noopExtractor) ExtractInfo(ctx context.Context, url string) (extract.VideoMeta, error) {
	return extract.VideoMeta{}, gatewayerr.ExtractionFailed("extraction failed", nil)
}

func (noopExtractor) GetStreamInfos(ctx context.Context, url string) ([]extract.StreamDescriptor, error) {
	return nil, gatewayerr.ExtractionFailed("extraction failed", nil)
}
