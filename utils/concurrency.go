package utils

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// WorkerPool manages a pool of goroutines with rate limiting.
type WorkerPool struct {
	semaphore chan struct{}
	limiter   *rate.Limiter
	wg        sync.WaitGroup
}

// NewWorkerPool creates a WorkerPool with the given concurrency and a
// minimum spacing of rateLimitMs between job starts. Zero disables pacing.
func NewWorkerPool(maxWorkers, rateLimitMs int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		semaphore: make(chan struct{}, maxWorkers),
		limiter:   NewPaceLimiter(time.Duration(rateLimitMs) * time.Millisecond),
	}
}

// NewPaceLimiter returns a limiter that lets one event through every
// interval. A non-positive interval yields an unlimited limiter.
func NewPaceLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Submit enqueues a job for execution in the pool. Jobs whose wait on the
// limiter is cancelled by ctx are dropped.
func (wp *WorkerPool) Submit(ctx context.Context, job func()) {
	wp.wg.Add(1)
	wp.semaphore <- struct{}{}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		if err := wp.limiter.Wait(ctx); err != nil {
			return
		}
		job()
	}()
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// PostSet is a thread-safe set for tracking post identifiers already seen
// during one crawl.
type PostSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewPostSet creates an empty PostSet.
func NewPostSet() *PostSet {
	return &PostSet{seen: make(map[string]struct{})}
}

// Add returns true if the id was newly added, false if already present.
func (s *PostSet) Add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[id]; exists {
		return false
	}
	s.seen[id] = struct{}{}
	return true
}
