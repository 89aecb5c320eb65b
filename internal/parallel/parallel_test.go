package parallel

import (
	"sync/atomic"
	"testing"
)

func TestForEach(t *testing.T) {
	cfg := DefaultConfig()

	n := 1000
	seen := make([]int32, n)
	ForEach(n, func(i int) {
		atomic.AddInt32(&seen[i], 1)
	}, cfg)

	for i, c := range seen {
		if c != 1 {
			t.Errorf("index %d visited %d times", i, c)
		}
	}
}

func TestForEach_Sequential(t *testing.T) {
	cfg := Config{Enabled: false}

	var counter int64
	ForEach(100, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != 100 {
		t.Errorf("expected 100, got %d", counter)
	}
}

func TestForEach_Empty(t *testing.T) {
	ForEach(0, func(_ int) {
		t.Error("callback invoked for empty batch")
	}, DefaultConfig())
}

func BenchmarkForEach(b *testing.B) {
	cfg := DefaultConfig()
	n := 10000

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			ForEach(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		cfgSeq := cfg
		cfgSeq.Enabled = false
		for i := 0; i < b.N; i++ {
			var sum int64
			ForEach(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfgSeq)
		}
	})
}
