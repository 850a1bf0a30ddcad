// Package health serves GET /health (SPEC_FULL.md §3 HealthStatus).
package health

import (
	"encoding/json"
	"net/http"
	"time"

	"hlsgate/cache"
)

// Status is the JSON body served by GET /health.
type Status struct {
	Status        string        `json:"status"`
	CacheEntries  int           `json:"cache_entries"`
	Uptime        time.Duration `json:"-"`
	UptimeSeconds float64       `json:"uptime_seconds"`
}

// Handler serves GET /health from a Cache snapshot and process start time.
type Handler struct {
	cache   *cache.Cache
	started time.Time
}

func New(c *cache.Cache, started time.Time) *Handler {
	return &Handler{cache: c, started: started}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	manifests, segments := h.cache.Len()
	status := Status{
		Status:        "ok",
		CacheEntries:  manifests + segments,
		UptimeSeconds: time.Since(h.started).Seconds(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}
