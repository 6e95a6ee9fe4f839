package cache

import (
	"context"
	"testing"
	"time"
)

func TestRedis_InvalidURLDegradesToAlwaysMiss(t *testing.T) {
	r := NewRedis("not a url")

	if _, ok := r.Get(context.Background(), "k"); ok {
		t.Fatal("disabled store must miss")
	}
	if r.Set(context.Background(), "k", "v", time.Minute) {
		t.Fatal("disabled store must report failed set")
	}
	if r.Delete(context.Background(), "k") {
		t.Fatal("disabled store must report failed delete")
	}
	if err := r.Ping(context.Background()); err == nil {
		t.Fatal("disabled store must fail ping")
	}
	if _, err := r.Memory(context.Background()); err == nil {
		t.Fatal("disabled store must fail memory query")
	}
}

func TestRedis_UnreachableServerIsAMiss(t *testing.T) {
	// Valid URL, but nothing listens there. Get must degrade to a miss and
	// Set to a failure without surfacing an error.
	r := NewRedis("redis://127.0.0.1:1/0")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, ok := r.Get(ctx, "trans:abc"); ok {
		t.Fatal("unreachable store must miss")
	}
	if r.Set(ctx, "trans:abc", "v", time.Minute) {
		t.Fatal("unreachable store must report failed set")
	}

	s := r.Stats()
	if s.Misses != 1 {
		t.Errorf("misses = %d; want 1", s.Misses)
	}
	if s.Hits != 0 || s.Sets != 0 {
		t.Errorf("unexpected stats: %+v", s)
	}
}

func TestStats_HitRate(t *testing.T) {
	t.Parallel()

	var c counters
	c.hits.Add(3)
	c.misses.Add(1)

	s := c.snapshot()
	if s.HitRate != 75 {
		t.Errorf("HitRate = %v; want 75", s.HitRate)
	}

	c.reset()
	s = c.snapshot()
	if s.Hits != 0 || s.Misses != 0 || s.HitRate != 0 {
		t.Errorf("reset left stats: %+v", s)
	}
}

func TestParseMemoryInfo(t *testing.T) {
	t.Parallel()

	info := "# Memory\r\nused_memory:1048576\r\nused_memory_human:1.00M\r\nused_memory_peak_human:2.50M\r\nother_field:ignored\r\n"
	ms := parseMemoryInfo(info)

	if ms.UsedMemory != 1048576 {
		t.Errorf("UsedMemory = %d", ms.UsedMemory)
	}
	if ms.UsedMemoryHuman != "1.00M" || ms.PeakMemoryHuman != "2.50M" {
		t.Errorf("human fields = %q / %q", ms.UsedMemoryHuman, ms.PeakMemoryHuman)
	}
}
