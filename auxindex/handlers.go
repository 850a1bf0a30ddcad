package auxindex

import (
	"encoding/json"
	"net/http"
)

// Handlers serves the thin, non-core auxiliary endpoints (spec.md §1:
// "Auxiliary read-only endpoints... thin wrappers and not part of the
// hard core") against the same Index.
type Handlers struct {
	index *Index
}

func NewHandlers(index *Index) *Handlers {
	return &Handlers{index: index}
}

// Search handles GET /search?q=....
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	results := h.index.Search(q)
	writeJSON(w, map[string]any{"results": results})
}

// Channel handles GET /channel?uploader=.... It implements the "richer"
// channel_handler variant (with latest_videos) per SPEC_FULL.md §9's open
// question decision.
func (h *Handlers) Channel(w http.ResponseWriter, r *http.Request) {
	uploader := r.URL.Query().Get("uploader")
	videos := h.index.ByUploader(uploader)
	writeJSON(w, map[string]any{
		"uploader":      uploader,
		"latest_videos": videos,
	})
}

// Playlists handles GET /playlists?uploader=.... Playlist grouping is not
// modeled beyond per-uploader listing (no playlist extraction back-end is
// in scope per spec.md §1).
func (h *Handlers) Playlists(w http.ResponseWriter, r *http.Request) {
	uploader := r.URL.Query().Get("uploader")
	videos := h.index.ByUploader(uploader)
	writeJSON(w, map[string]any{"playlists": []map[string]any{
		{"uploader": uploader, "videos": videos},
	}})
}

// Comments handles GET /comments. Comment extraction is explicitly out of
// scope (spec.md §1); it always returns an empty list.
func (h *Handlers) Comments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"comments": []any{}})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
