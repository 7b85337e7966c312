package utils

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPostSetNoDuplicates(t *testing.T) {
	s := NewPostSet()

	added := s.Add("635672")
	if !added {
		t.Error("first Add should return true")
	}

	added = s.Add("635672")
	if added {
		t.Error("second Add of same id should return false")
	}

	if !s.Add("635673") {
		t.Error("Add of a different id should return true")
	}
}

func TestPostSetConcurrency(t *testing.T) {
	s := NewPostSet()
	var added int64

	pool := NewWorkerPool(10, 0)
	for i := 0; i < 100; i++ {
		pool.Submit(context.Background(), func() {
			if s.Add("same") {
				atomic.AddInt64(&added, 1)
			}
		})
	}
	pool.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestWorkerPoolRateLimit(t *testing.T) {
	rateLimitMs := 100
	pool := NewWorkerPool(1, rateLimitMs)

	var (
		mu         sync.Mutex
		timestamps []time.Time
	)

	for i := 0; i < 3; i++ {
		pool.Submit(context.Background(), func() {
			mu.Lock()
			timestamps = append(timestamps, time.Now())
			mu.Unlock()
		})
	}
	pool.Wait()

	if len(timestamps) != 3 {
		t.Fatalf("jobs run: got %d, want 3", len(timestamps))
	}
	// allow a little scheduler slack below the nominal interval
	min := time.Duration(rateLimitMs-10) * time.Millisecond
	for i := 1; i < len(timestamps); i++ {
		gap := timestamps[i].Sub(timestamps[i-1])
		if gap < min {
			t.Errorf("gap between job %d and %d: %v < minimum %v", i-1, i, gap, min)
		}
	}
}

func TestWorkerPoolCancelledContextDropsJobs(t *testing.T) {
	pool := NewWorkerPool(1, 1000)
	ctx, cancel := context.WithCancel(context.Background())

	var ran int64
	// first job consumes the burst token
	pool.Submit(ctx, func() { atomic.AddInt64(&ran, 1) })
	pool.Wait()
	cancel()
	pool.Submit(ctx, func() { atomic.AddInt64(&ran, 1) })
	pool.Wait()

	if ran != 1 {
		t.Errorf("jobs run: got %d, want 1", ran)
	}
}

func TestRetryStopsAfterMaxAttempts(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, Logger: NewDiscardLogger()}

	calls := 0
	err := r.Do(context.Background(), "nav", func() error {
		calls++
		return errors.New("timeout")
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 2 {
		t.Errorf("calls: got %d, want 2", calls)
	}
}

func TestRetrySucceedsOnSecondAttempt(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, Logger: NewDiscardLogger()}

	calls := 0
	err := r.Do(context.Background(), "nav", func() error {
		calls++
		if calls == 1 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls: got %d, want 2", calls)
	}
}
