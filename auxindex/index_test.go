package auxindex

import (
	"testing"

	"hlsgate/extract"
)

func TestIndex_UpsertAndGet(t *testing.T) {
	ix, err := New()
	if err != nil {
		t.Fatalf("new index: %v", err)
	}

	v := ExtractedVideo{
		ID:            "dQw4w9WgXcQ",
		NormalizedURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Meta:          extract.VideoMeta{Title: "Never Gonna Give You Up", Uploader: "Rick Astley"},
	}
	if err := ix.Upsert(v); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, ok := ix.Get("dQw4w9WgXcQ")
	if !ok {
		t.Fatalf("expected video to be found")
	}
	if got.Meta.Title != v.Meta.Title {
		t.Fatalf("unexpected title %q", got.Meta.Title)
	}
}

func TestIndex_Search(t *testing.T) {
	ix, _ := New()
	ix.Upsert(ExtractedVideo{ID: "a", NormalizedURL: "u1", Meta: extract.VideoMeta{Title: "Go Concurrency Patterns", Uploader: "GopherCon"}})
	ix.Upsert(ExtractedVideo{ID: "b", NormalizedURL: "u2", Meta: extract.VideoMeta{Title: "Cooking Pasta", Uploader: "ChefTV"}})

	results := ix.Search("concurrency")
	if len(results) != 1 || results[0].ID != "a" {
		t.Fatalf("expected one match for 'concurrency', got %+v", results)
	}
}

func TestIndex_ByUploader(t *testing.T) {
	ix, _ := New()
	ix.Upsert(ExtractedVideo{ID: "a", NormalizedURL: "u1", Meta: extract.VideoMeta{Uploader: "GopherCon"}})
	ix.Upsert(ExtractedVideo{ID: "b", NormalizedURL: "u2", Meta: extract.VideoMeta{Uploader: "GopherCon"}})
	ix.Upsert(ExtractedVideo{ID: "c", NormalizedURL: "u3", Meta: extract.VideoMeta{Uploader: "Other"}})

	results := ix.ByUploader("GopherCon")
	if len(results) != 2 {
		t.Fatalf("expected 2 videos for GopherCon, got %d", len(results))
	}
}

func TestIndex_Len(t *testing.T) {
	ix, _ := New()
	if ix.Len() != 0 {
		t.Fatalf("expected empty index")
	}
	ix.Upsert(ExtractedVideo{ID: "a", NormalizedURL: "u1"})
	if ix.Len() != 1 {
		t.Fatalf("expected 1 after upsert")
	}
}
