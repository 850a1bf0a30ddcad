package janitor

import (
	"testing"
	"time"

	"hlsgate/cache"
	"hlsgate/logger"
)

func TestJanitor_SweepEvictsExpiredEntries(t *testing.T) {
	c := cache.New("ns", 16)
	key := c.Key(cache.KindRaw, "https://ex.com/seg1.ts")
	c.SetSegment(key, []byte("data"), time.Millisecond)
	time.Sleep(15 * time.Millisecond)

	j, err := New(c, "@every 1h", logger.Default)
	if err != nil {
		t.Fatalf("new janitor: %v", err)
	}
	j.sweep()

	if _, ok := c.GetSegment(key); ok {
		t.Fatalf("expected sweep to evict expired segment")
	}
}

func TestJanitor_RejectsBadSchedule(t *testing.T) {
	c := cache.New("ns", 16)
	if _, err := New(c, "not-a-schedule", logger.Default); err == nil {
		t.Fatalf("expected an error for an invalid cron schedule")
	}
}
