// Package prefetch implements C4: bounded-concurrency segment prefetching
// that preserves strict segment order while letting fetches race ahead of
// consumption. The chunk pooling idiom is adapted from the teacher's
// proxy/stream/shared_buffer.go ChunkData.
package prefetch

import (
	"github.com/valyala/bytebufferpool"
)

// chunk holds one segment's fetched bytes plus its terminal state. Unlike
// the teacher's ChunkData, a chunk here is a write-once result slot: one
// segment fetch, one fill, one release, instead of a reused ring entry.
type chunk struct {
	index  int
	buffer *bytebufferpool.ByteBuffer
	status int
	err    error

	// acquired records whether a semaphore permit was taken out for this
	// segment's slot, so the drain loop releases exactly the permits that
	// were acquired (a slot filled by a pre-dispatch cancellation never
	// took one).
	acquired bool
}

func newChunk(index int) *chunk {
	return &chunk{index: index, buffer: bytebufferpool.Get()}
}

func (c *chunk) release() {
	if c.buffer != nil {
		c.buffer.Reset()
		bytebufferpool.Put(c.buffer)
		c.buffer = nil
	}
}

func (c *chunk) bytes() []byte {
	if c.buffer == nil {
		return nil
	}
	return c.buffer.Bytes()
}
