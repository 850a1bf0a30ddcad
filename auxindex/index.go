// Package auxindex implements C10: an in-memory queryable index of
// extracted videos backing the non-core /search, /playlists, and /channel
// endpoints. Grounded on the teacher's database/memdb.go schema/txn idiom,
// same library, new schema.
package auxindex

import (
	"strings"
	"time"

	"github.com/hashicorp/go-memdb"

	"hlsgate/extract"
)

// ExtractedVideo is the unit stored in the index, keyed by video id
// (SPEC_FULL.md §3).
type ExtractedVideo struct {
	ID            string
	NormalizedURL string
	Meta          extract.VideoMeta
	Streams       []extract.StreamDescriptor
	FetchedAt     time.Time
}

const table = "video"

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			table: {
				Name: table,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					"normalized_url": {
						Name:    "normalized_url",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "NormalizedURL"},
					},
					"uploader": {
						Name:         "uploader",
						Unique:       false,
						AllowMissing: true,
						Indexer:      &uploaderIndex{},
					},
				},
			},
		},
	}
}

// uploaderIndex indexes a video by Meta.Uploader. memdb's StringFieldIndex
// only resolves top-level fields, so FromObject reads the nested field
// directly; FromArgs is the embedded StringFieldIndex's.
type uploaderIndex struct{ memdb.StringFieldIndex }

func (*uploaderIndex) FromObject(obj interface{}) (bool, []byte, error) {
	v, ok := obj.(*ExtractedVideo)
	if !ok || v.Meta.Uploader == "" {
		return false, nil, nil
	}
	return true, []byte(v.Meta.Uploader + "\x00"), nil
}

// Index is the process-wide in-memory store.
type Index struct {
	db *memdb.MemDB
}

func New() (*Index, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, err
	}
	return &Index{db: db}, nil
}

// Upsert records or replaces a video, keyed by its normalized URL's id.
func (ix *Index) Upsert(v ExtractedVideo) error {
	txn := ix.db.Txn(true)
	defer txn.Commit()
	return txn.Insert(table, &v)
}

// Get looks up a video by id.
func (ix *Index) Get(id string) (*ExtractedVideo, bool) {
	txn := ix.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(table, "id", id)
	if err != nil || raw == nil {
		return nil, false
	}
	return raw.(*ExtractedVideo), true
}

// Search returns every video whose title or uploader contains query
// (case-insensitive substring match), backing GET /search.
func (ix *Index) Search(query string) []ExtractedVideo {
	txn := ix.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(table, "id")
	if err != nil {
		return nil
	}

	q := strings.ToLower(query)
	var results []ExtractedVideo
	for raw := it.Next(); raw != nil; raw = it.Next() {
		v := raw.(*ExtractedVideo)
		if strings.Contains(strings.ToLower(v.Meta.Title), q) || strings.Contains(strings.ToLower(v.Meta.Uploader), q) {
			results = append(results, *v)
		}
	}
	return results
}

// ByUploader returns every video for a given uploader, backing the
// "richer" GET /channel variant (SPEC_FULL.md §9 open-question decision:
// the latest_videos-bearing channel_handler variant).
func (ix *Index) ByUploader(uploader string) []ExtractedVideo {
	txn := ix.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(table, "uploader", uploader)
	if err != nil {
		return nil
	}

	var results []ExtractedVideo
	for raw := it.Next(); raw != nil; raw = it.Next() {
		results = append(results, *raw.(*ExtractedVideo))
	}
	return results
}

// Len reports the current video count, for /health.
func (ix *Index) Len() int {
	txn := ix.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(table, "id")
	if err != nil {
		return 0
	}
	n := 0
	for raw := it.Next(); raw != nil; raw = it.Next() {
		n++
	}
	return n
}
