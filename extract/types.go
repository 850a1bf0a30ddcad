// Package extract implements C6: the boundary to an external, pluggable
// metadata/stream extractor, normalizing source URLs and proxy-rewriting
// the streams it returns.
package extract

import (
	"context"
	"time"
)

// StreamDescriptor is one playable rendition (spec §3).
type StreamDescriptor struct {
	Type    string `json:"type"`
	Quality string `json:"quality"`
	URL     string `json:"url"`
}

// VideoMeta is the typed metadata record consumed at the C6 boundary
// (SPEC_FULL.md §3 "made an explicit Go struct per §9's 'Dynamic typing...
// is not core'").
type VideoMeta struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Uploader    string    `json:"uploader"`
	ChannelID   string    `json:"channel_id"`
	ChannelURL  string    `json:"channel_url"`
	ViewCount   int64     `json:"view_count"`
	LikeCount   int64     `json:"like_count"`
	UploadDate  string    `json:"upload_date"`
	Duration    float64   `json:"duration"`
	Thumbnail   string    `json:"thumbnail"`
	FetchedAt   time.Time `json:"-"`
}

// Extractor is the consumed interface (spec §4.6): the core ships only
// this boundary, never an implementation.
type Extractor interface {
	ExtractInfo(ctx context.Context, url string) (VideoMeta, error)
	GetStreamInfos(ctx context.Context, url string) ([]StreamDescriptor, error)
}
