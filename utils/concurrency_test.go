package utils

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestKeySetNoDuplicates(t *testing.T) {
	s := NewKeySet()

	added := s.Add("url:https://example.com/1")
	if !added {
		t.Error("first Add should return true")
	}

	added = s.Add("url:https://example.com/1")
	if added {
		t.Error("second Add of same key should return false")
	}

	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestKeySetConcurrency(t *testing.T) {
	s := NewKeySet()
	var added int64

	pool := NewWorkerPool(10)
	for i := 0; i < 100; i++ {
		key := "st:SBA-7a\x1fsame deal"
		pool.Submit(func() {
			if s.Add(key) {
				atomic.AddInt64(&added, 1)
			}
		})
	}
	pool.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestRateLimiterSpacing(t *testing.T) {
	interval := 50 * time.Millisecond
	limiter := NewRateLimiter(interval)

	var timestamps []time.Time
	for i := 0; i < 3; i++ {
		limiter.Wait()
		timestamps = append(timestamps, time.Now())
	}

	// Allow a little scheduler slop below the configured interval.
	tolerance := 10 * time.Millisecond
	for i := 1; i < len(timestamps); i++ {
		gap := timestamps[i].Sub(timestamps[i-1])
		if gap < interval-tolerance {
			t.Errorf("gap between call %d and %d: %v < minimum %v", i-1, i, gap, interval)
		}
	}
}

func TestWorkerPoolRunsAllJobs(t *testing.T) {
	pool := NewWorkerPool(4)
	var done int64

	for i := 0; i < 20; i++ {
		pool.Submit(func() {
			atomic.AddInt64(&done, 1)
		})
	}
	pool.Wait()

	if done != 20 {
		t.Errorf("expected 20 completed jobs, got %d", done)
	}
}
